package port

import (
	"context"

	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
)

// SubmissionHistoryRepository defines persistence operations for SubmissionRecord
type SubmissionHistoryRepository interface {
	// Create inserts a record and sets its ID
	Create(ctx context.Context, rec *entity.SubmissionRecord) error

	// List returns records newest first
	List(ctx context.Context, filter entity.HistoryFilter) ([]*entity.SubmissionRecord, error)

	// GetByTimestamp returns the newest record with the given timestamp key
	GetByTimestamp(ctx context.Context, timestamp string) (*entity.SubmissionRecord, error)

	// DeleteByTimestamp removes records with the timestamp key
	DeleteByTimestamp(ctx context.Context, timestamp string) (int64, error)

	// DeleteAll removes every record, or only those of createdBy when set
	DeleteAll(ctx context.Context, createdBy string) (int64, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
