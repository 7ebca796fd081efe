package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
)

// StepLibrary is the set of portal operations the orchestrator sequences.
// Every method reports through entity.StepResult and never panics.
type StepLibrary interface {
	Authenticate(ctx context.Context, creds entity.Credentials) entity.StepResult
	SelectStudent(ctx context.Context, student string) entity.StepResult
	StartReimbursement(ctx context.Context, store string, amount decimal.Decimal) entity.StepResult
	StartDirectPay(ctx context.Context, vendor string, amount decimal.Decimal, searchTerm string) entity.StepResult
	UploadFiles(ctx context.Context, files entity.FileSet) entity.StepResult
	SelectExpenseCategory(ctx context.Context, category string) entity.StepResult
	FillPOAndComment(ctx context.Context, poNumber, comment string, advance bool) entity.StepResult
	FillDirectPayInfo(ctx context.Context, poNumber, comment string) entity.StepResult
	ProceedToReview(ctx context.Context) entity.StepResult
	Submit(ctx context.Context, requestType entity.RequestType) entity.StepResult
	WaitForConfirmation(ctx context.Context) entity.StepResult
}

// HistoryRecorder stores a successful submission
type HistoryRecorder interface {
	Record(ctx context.Context, rec *entity.SubmissionRecord) error
}

// MessageSender delivers operator notifications
type MessageSender interface {
	SendText(ctx context.Context, receiveID string, text string) error
}
