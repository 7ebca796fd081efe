package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
)

const (
	summarySheet     = "Summary"
	submissionsSheet = "Submissions"
)

var submissionHeaders = []string{
	"Logged At", "Type", "Student", "Payee", "Amount", "PO Number",
	"Expense Category", "Comment", "Auto Submitted", "Confirmation", "Created By",
}

// Exporter writes history workbooks
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates an Exporter
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger}
}

// WriteMonth writes the month summary and its records to outputPath
func (e *Exporter) WriteMonth(summary *Summary, records []*entity.SubmissionRecord, outputPath string) error {
	e.logger.Debug("Writing history workbook",
		zap.String("month", summary.Month),
		zap.String("output_path", outputPath))

	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName(file.GetSheetName(0), summarySheet); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	if _, err := file.NewSheet(submissionsSheet); err != nil {
		return fmt.Errorf("failed to create submissions sheet: %w", err)
	}

	if err := e.fillSummary(file, summary); err != nil {
		return fmt.Errorf("failed to fill summary: %w", err)
	}
	if err := e.fillSubmissions(file, records); err != nil {
		return fmt.Errorf("failed to fill submissions: %w", err)
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := file.SaveAs(outputPath); err != nil {
		return fmt.Errorf("failed to save file: %w", err)
	}

	e.logger.Info("History workbook written",
		zap.String("output_path", outputPath),
		zap.Int("record_count", len(records)))
	return nil
}

// fillSummary writes the month header then one block per grouping
func (e *Exporter) fillSummary(file *excelize.File, s *Summary) error {
	rows := [][]interface{}{
		{"Month", s.Month},
		{"Submissions", s.Count},
		{"Total Amount", s.Amount.StringFixed(2)},
		{},
		{"Student", "Count", "Amount"},
	}
	for _, t := range s.ByStudent {
		rows = append(rows, []interface{}{t.Key, t.Count, t.Amount.StringFixed(2)})
	}
	rows = append(rows, []interface{}{}, []interface{}{"Type", "Count", "Amount"})
	for _, t := range s.ByType {
		rows = append(rows, []interface{}{t.Key, t.Count, t.Amount.StringFixed(2)})
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := file.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to set summary row %d: %w", i+1, err)
		}
	}
	return nil
}

func (e *Exporter) fillSubmissions(file *excelize.File, records []*entity.SubmissionRecord) error {
	if err := file.SetSheetRow(submissionsSheet, "A1", &submissionHeaders); err != nil {
		return fmt.Errorf("failed to set headers: %w", err)
	}

	for i, rec := range records {
		row := []interface{}{
			rec.LoggedAt.Format("2006-01-02 15:04:05"),
			rec.Type,
			rec.Student,
			rec.PayeeName(),
			rec.Amount,
			rec.PONumber,
			rec.ExpenseCategory,
			rec.Comment,
			rec.AutoSubmitted,
			rec.Confirmation,
			rec.CreatedBy,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := file.SetSheetRow(submissionsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to set row %d: %w", i+2, err)
		}
	}
	return nil
}
