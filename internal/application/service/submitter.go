package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/classwallet-submitter/internal/application/dispatcher"
	"github.com/garyjia/classwallet-submitter/internal/application/port"
	"github.com/garyjia/classwallet-submitter/internal/browser"
	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
)

// Submitter is the single entry point for a submission: it runs one attempt
// end to end and always produces an outcome.
type Submitter struct {
	cfg        SubmissionConfig
	keepOpen   bool
	newSession SessionFactory
	history    port.HistoryRecorder
	inspector  port.DocumentInspector
	events     dispatcher.Dispatcher
	reporter   *Reporter
	logger     *zap.Logger
}

// SubmitterOption configures optional Submitter collaborators
type SubmitterOption func(*Submitter)

// WithHistory records successful submissions
func WithHistory(h port.HistoryRecorder) SubmitterOption {
	return func(s *Submitter) { s.history = h }
}

// WithInspector enables document preflight
func WithInspector(i port.DocumentInspector) SubmitterOption {
	return func(s *Submitter) { s.inspector = i }
}

// WithEvents publishes lifecycle events
func WithEvents(d dispatcher.Dispatcher) SubmitterOption {
	return func(s *Submitter) { s.events = d }
}

// NewSubmitter creates a Submitter. When keepOpen is set the browser stays
// open after the attempt until the operator closes it.
func NewSubmitter(cfg SubmissionConfig, keepOpen bool, newSession SessionFactory, logger *zap.Logger, opts ...SubmitterOption) *Submitter {
	s := &Submitter{
		cfg:        cfg,
		keepOpen:   keepOpen,
		newSession: newSession,
		reporter:   NewReporter(logger),
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Attempt is a finished submission whose browser may still be open
type Attempt struct {
	Outcome *entity.SubmissionOutcome
	service *SubmissionService
}

// Driver returns the attempt's browser, or nil when none was opened
func (a *Attempt) Driver() browser.Driver {
	if a == nil || a.service == nil {
		return nil
	}
	return a.service.Driver()
}

// Submit runs one attempt. Panics inside the workflow become an
// UNEXPECTED_ERROR outcome.
func (s *Submitter) Submit(ctx context.Context, req *entity.SubmissionRequest) (attempt *Attempt) {
	svc := NewSubmissionService(s.cfg, s.newSession, s.history, s.inspector, s.events, s.logger)
	attempt = &Attempt{service: svc}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Submission panicked", zap.Any("panic", r), zap.Stack("stack"))
			err := newOperatorError(entity.ErrUnexpected, fmt.Errorf("panic: %v", r), "Unexpected error: %v", r)
			attempt.Outcome = s.reporter.Failure(svc.AttemptID(), err)
		}
	}()

	if err := req.Validate(); err != nil {
		attempt.Outcome = s.reporter.Failure(svc.AttemptID(),
			newOperatorError(entity.ErrInvalidRequest, err, "Invalid request: %v", err))
		return attempt
	}

	res, err := s.run(ctx, svc, req)
	if err != nil {
		attempt.Outcome = s.reporter.Failure(svc.AttemptID(), err)
		return attempt
	}
	attempt.Outcome = s.reporter.Success(req, res)
	return attempt
}

func (s *Submitter) run(ctx context.Context, svc *SubmissionService, req *entity.SubmissionRequest) (*RunResult, error) {
	if err := svc.LoadCredentials(ctx); err != nil {
		return nil, err
	}
	if err := svc.InitializeSession(ctx); err != nil {
		return nil, err
	}
	if err := svc.Authenticate(ctx); err != nil {
		return nil, err
	}
	return svc.Run(ctx, req)
}

// Finish ends the attempt. With keepOpen the browser is left for the
// operator and Finish blocks until it is closed or ctx is done.
func (s *Submitter) Finish(ctx context.Context, attempt *Attempt) {
	if attempt == nil || attempt.service == nil {
		return
	}
	if s.keepOpen {
		s.reporter.HoldForReview(ctx, attempt.Driver())
	}
	if err := attempt.service.Close(); err != nil {
		s.logger.Warn("Failed to close browser", zap.Error(err))
	}
}
