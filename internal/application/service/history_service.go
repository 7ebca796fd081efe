package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/classwallet-submitter/internal/application/port"
	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
	"github.com/garyjia/classwallet-submitter/internal/report"
)

// ErrRecordNotFound is returned when a delete matches nothing
var ErrRecordNotFound = errors.New("submission record not found")

// HistoryService keeps the submission history in the database and mirrors
// each record to a JSON file.
type HistoryService struct {
	repo      port.SubmissionHistoryRepository
	logs      port.SubmissionLogStore
	txManager port.TransactionManager
	exporter  *report.Exporter
	location  *time.Location
	logger    *zap.Logger
}

// NewHistoryService creates a HistoryService. logs may be nil.
func NewHistoryService(
	repo port.SubmissionHistoryRepository,
	logs port.SubmissionLogStore,
	txManager port.TransactionManager,
	logger *zap.Logger,
) *HistoryService {
	return &HistoryService{
		repo:      repo,
		logs:      logs,
		txManager: txManager,
		exporter:  report.NewExporter(logger),
		location:  time.Local,
		logger:    logger,
	}
}

// Record stores rec. The JSON mirror is best effort.
func (s *HistoryService) Record(ctx context.Context, rec *entity.SubmissionRecord) error {
	if s.logs != nil {
		if path, err := s.logs.Save(rec); err != nil {
			s.logger.Warn("Failed to write submission log", zap.String("timestamp", rec.Timestamp), zap.Error(err))
		} else {
			s.logger.Debug("Submission log written", zap.String("path", path))
		}
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return fmt.Errorf("record submission: %w", err)
	}
	return nil
}

// List returns history newest first
func (s *HistoryService) List(ctx context.Context, filter entity.HistoryFilter) ([]*entity.SubmissionRecord, error) {
	return s.repo.List(ctx, filter)
}

// Delete removes the records logged under timestamp
func (s *HistoryService) Delete(ctx context.Context, timestamp string) (int64, error) {
	var deleted int64
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		n, err := s.repo.DeleteByTimestamp(ctx, timestamp)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrRecordNotFound, timestamp)
		}
		if s.logs != nil {
			if err := s.logs.Delete(timestamp); err != nil {
				return err
			}
		}
		deleted = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("Submission history deleted", zap.String("timestamp", timestamp), zap.Int64("count", deleted))
	return deleted, nil
}

// Purge removes all history, or only records created by createdBy
func (s *HistoryService) Purge(ctx context.Context, createdBy string) (int64, error) {
	var deleted int64
	err := s.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		n, err := s.repo.DeleteAll(ctx, createdBy)
		if err != nil {
			return err
		}
		deleted = n
		return nil
	})
	if err != nil {
		return 0, err
	}

	if s.logs != nil {
		files, err := s.logs.DeleteAll(createdBy)
		if err != nil {
			s.logger.Warn("Failed to delete submission logs", zap.Error(err))
		} else {
			s.logger.Debug("Submission logs deleted", zap.Int("files", files))
		}
	}

	s.logger.Info("Submission history purged", zap.String("created_by", createdBy), zap.Int64("count", deleted))
	return deleted, nil
}

// Analytics totals the records logged in month (YYYY-MM)
func (s *HistoryService) Analytics(ctx context.Context, month string) (*report.Summary, []*entity.SubmissionRecord, error) {
	start, err := report.ValidateMonth(month, s.location)
	if err != nil {
		return nil, nil, err
	}
	from, to := report.MonthRange(start)

	records, err := s.repo.List(ctx, entity.HistoryFilter{From: from, To: to})
	if err != nil {
		return nil, nil, err
	}

	summary := report.Summarize(start, records)
	if summary.Skipped > 0 {
		s.logger.Warn("Records with unreadable amounts skipped",
			zap.String("month", month), zap.Int("skipped", summary.Skipped))
	}
	return summary, records, nil
}

// Export writes the month's workbook into dir and returns its path
func (s *HistoryService) Export(ctx context.Context, month, dir string) (string, error) {
	summary, records, err := s.Analytics(ctx, month)
	if err != nil {
		return "", err
	}

	outputPath := filepath.Join(dir, fmt.Sprintf("submissions_%s.xlsx", summary.Month))
	if err := s.exporter.WriteMonth(summary, records, outputPath); err != nil {
		return "", err
	}
	return outputPath, nil
}

var _ port.HistoryRecorder = (*HistoryService)(nil)
