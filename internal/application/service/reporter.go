package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/classwallet-submitter/internal/browser"
	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
	"github.com/garyjia/classwallet-submitter/internal/domain/workflow"
)

const (
	messageSubmitted   = "Submission successful!"
	messageUnconfirmed = "Submit was clicked but ClassWallet showed no confirmation. Treating the submission as sent; check ClassWallet to be sure."
	messageReview      = "Form complete and ready for review. Please manually confirm the submission in ClassWallet."

	holdInterval = time.Second
)

// Reporter turns orchestration results into the outcome contract
type Reporter struct {
	logger *zap.Logger
}

// NewReporter creates a Reporter
func NewReporter(logger *zap.Logger) *Reporter {
	return &Reporter{logger: logger}
}

// Success builds the outcome for a completed workflow
func (r *Reporter) Success(req *entity.SubmissionRequest, res *RunResult) *entity.SubmissionOutcome {
	auto := res.AutoSubmitted
	outcome := &entity.SubmissionOutcome{
		AttemptID:     res.AttemptID,
		Success:       true,
		PONumber:      req.PONumber,
		AutoSubmitted: &auto,
		State:         string(res.State),
		Confirmation:  res.Confirmation,
	}

	switch {
	case !auto:
		outcome.Message = messageReview
	case res.Confirmation != nil && res.Confirmation.Status == entity.ConfirmationUnconfirmed:
		outcome.Message = messageUnconfirmed
	default:
		outcome.Message = messageSubmitted
	}

	r.logger.Info("Submission outcome",
		zap.String("attempt_id", res.AttemptID),
		zap.Bool("success", true),
		zap.String("message", outcome.Message))
	return outcome
}

// Failure builds the outcome for err. Step failures carry the step name
// and the page diagnostics taken when it failed.
func (r *Reporter) Failure(attemptID string, err error) *entity.SubmissionOutcome {
	outcome := &entity.SubmissionOutcome{
		AttemptID: attemptID,
		Success:   false,
		Message:   OperatorMessage(err),
		ErrorCode: ErrorCodeFor(err),
	}

	var stepErr *entity.StepFailure
	if errors.As(err, &stepErr) {
		outcome.FailedStep = stepErr.Step
		outcome.Diagnostics = stepErr.Diagnostics
		outcome.State = string(workflow.StateFailed)
	}

	r.logger.Error("Submission outcome",
		zap.String("attempt_id", attemptID),
		zap.String("error_code", string(outcome.ErrorCode)),
		zap.String("failed_step", outcome.FailedStep),
		zap.Error(err))
	return outcome
}

// HoldForReview keeps the process waiting while the operator inspects the
// browser. It returns once the browser is gone or ctx is done.
func (r *Reporter) HoldForReview(ctx context.Context, driver browser.Driver) {
	if driver == nil {
		return
	}

	r.logger.Info("Browser left open for review. Close the browser window to finish.")
	ticker := time.NewTicker(holdInterval)
	defer ticker.Stop()

	for {
		if !driver.Alive(ctx) {
			r.logger.Info("Browser closed, review hold finished")
			return
		}
		select {
		case <-ctx.Done():
			r.logger.Info("Review hold interrupted", zap.Error(ctx.Err()))
			return
		case <-ticker.C:
		}
	}
}
