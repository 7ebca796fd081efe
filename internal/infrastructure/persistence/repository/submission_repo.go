package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/classwallet-submitter/internal/application/port"
	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
	"github.com/garyjia/classwallet-submitter/internal/infrastructure/persistence/sqlite"
)

// ErrNotFound is returned when no record matches
var ErrNotFound = errors.New("submission record not found")

// SubmissionRepository implements port.SubmissionHistoryRepository
type SubmissionRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSubmissionRepository creates a new submission history repository
func NewSubmissionRepository(db *sql.DB, logger *zap.Logger) *SubmissionRepository {
	return &SubmissionRepository{
		db:     db,
		logger: logger,
	}
}

const submissionColumns = `id, attempt_id, type, student, payee_name, amount, po_number,
	expense_category, comment, timestamp, created_by, logged_at, auto_submitted, confirmation`

// Create inserts a record and sets its ID
func (r *SubmissionRepository) Create(ctx context.Context, rec *entity.SubmissionRecord) error {
	query := `
		INSERT INTO submission_history (
			attempt_id, type, student, payee_name, amount, po_number,
			expense_category, comment, timestamp, created_by, logged_at,
			auto_submitted, confirmation
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		rec.AttemptID,
		rec.Type,
		rec.Student,
		rec.PayeeName(),
		rec.Amount,
		rec.PONumber,
		rec.ExpenseCategory,
		rec.Comment,
		rec.Timestamp,
		rec.CreatedBy,
		rec.LoggedAt.UTC(),
		rec.AutoSubmitted,
		rec.Confirmation,
	)
	if err != nil {
		r.logger.Error("Failed to create submission record", zap.Error(err))
		return fmt.Errorf("failed to create submission record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	rec.ID = id
	return nil
}

// List returns records newest first
func (r *SubmissionRepository) List(ctx context.Context, filter entity.HistoryFilter) ([]*entity.SubmissionRecord, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.CreatedBy != "" {
		where = append(where, "created_by = ?")
		args = append(args, filter.CreatedBy)
	}
	if !filter.From.IsZero() {
		where = append(where, "logged_at >= ?")
		args = append(args, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		where = append(where, "logged_at < ?")
		args = append(args, filter.To.UTC())
	}

	query := "SELECT " + submissionColumns + " FROM submission_history"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY logged_at DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list submission records", zap.Error(err))
		return nil, fmt.Errorf("failed to list submission records: %w", err)
	}
	defer rows.Close()

	var records []*entity.SubmissionRecord
	for rows.Next() {
		rec, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, rows.Err()
}

// GetByTimestamp returns the newest record with the given timestamp key
func (r *SubmissionRepository) GetByTimestamp(ctx context.Context, timestamp string) (*entity.SubmissionRecord, error) {
	query := "SELECT " + submissionColumns + ` FROM submission_history
		WHERE timestamp = ? ORDER BY id DESC LIMIT 1`

	rec, err := scanSubmission(r.getExecutor(ctx).QueryRowContext(ctx, query, timestamp))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, timestamp)
	}
	if err != nil {
		r.logger.Error("Failed to get submission record", zap.String("timestamp", timestamp), zap.Error(err))
		return nil, err
	}
	return rec, nil
}

// DeleteByTimestamp removes records with the timestamp key
func (r *SubmissionRepository) DeleteByTimestamp(ctx context.Context, timestamp string) (int64, error) {
	result, err := r.getExecutor(ctx).ExecContext(ctx,
		`DELETE FROM submission_history WHERE timestamp = ?`, timestamp)
	if err != nil {
		r.logger.Error("Failed to delete submission record", zap.String("timestamp", timestamp), zap.Error(err))
		return 0, fmt.Errorf("failed to delete submission record: %w", err)
	}
	return result.RowsAffected()
}

// DeleteAll removes every record, or only those of createdBy when set
func (r *SubmissionRepository) DeleteAll(ctx context.Context, createdBy string) (int64, error) {
	query := `DELETE FROM submission_history`
	var args []interface{}
	if createdBy != "" {
		query += ` WHERE created_by = ?`
		args = append(args, createdBy)
	}

	result, err := r.getExecutor(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to delete submission records", zap.String("created_by", createdBy), zap.Error(err))
		return 0, fmt.Errorf("failed to delete submission records: %w", err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSubmission(row rowScanner) (*entity.SubmissionRecord, error) {
	var (
		rec      entity.SubmissionRecord
		payee    string
		loggedAt time.Time
	)
	err := row.Scan(
		&rec.ID,
		&rec.AttemptID,
		&rec.Type,
		&rec.Student,
		&payee,
		&rec.Amount,
		&rec.PONumber,
		&rec.ExpenseCategory,
		&rec.Comment,
		&rec.Timestamp,
		&rec.CreatedBy,
		&loggedAt,
		&rec.AutoSubmitted,
		&rec.Confirmation,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan submission record: %w", err)
	}

	if rec.Type == entity.RecordTypeDirectPay {
		rec.VendorName = payee
	} else {
		rec.StoreName = payee
	}
	rec.LoggedAt = loggedAt.Local()
	return &rec, nil
}

// getExecutor returns appropriate executor based on context
func (r *SubmissionRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFor(ctx, r.db)
}

// Verify interface compliance
var _ port.SubmissionHistoryRepository = (*SubmissionRepository)(nil)
