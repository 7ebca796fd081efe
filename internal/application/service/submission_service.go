package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/garyjia/classwallet-submitter/internal/application/dispatcher"
	"github.com/garyjia/classwallet-submitter/internal/application/port"
	"github.com/garyjia/classwallet-submitter/internal/browser"
	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
	"github.com/garyjia/classwallet-submitter/internal/domain/event"
	"github.com/garyjia/classwallet-submitter/internal/domain/workflow"
)

// Session is one browser with the step library bound to it
type Session struct {
	Driver browser.Driver
	Steps  port.StepLibrary
}

// SessionFactory creates an unopened session
type SessionFactory func() *Session

// SubmissionConfig holds the orchestration settings
type SubmissionConfig struct {
	CredentialsPath string
	// Identity and Secret take precedence over the credentials file
	Identity string
	Secret   string

	AutoSubmit               bool
	AssumeSubmittedOnTimeout bool
	VerifyDocuments          bool
	CreatedBy                string
}

// RunResult describes a workflow that completed every step
type RunResult struct {
	AttemptID     string
	AutoSubmitted bool
	State         workflow.State
	Confirmation  *entity.Confirmation
	Transitions   []workflow.Transition
}

// SubmissionService runs one submission attempt: credentials, session,
// login, then the workflow for the request type. It is not reused across
// attempts.
type SubmissionService struct {
	cfg        SubmissionConfig
	newSession SessionFactory
	history    port.HistoryRecorder
	inspector  port.DocumentInspector
	events     dispatcher.Dispatcher
	logger     *zap.Logger
	now        func() time.Time

	attemptID     string
	creds         *entity.Credentials
	session       *Session
	authenticated bool
}

// NewSubmissionService creates an orchestrator for one attempt. history,
// inspector and events may be nil.
func NewSubmissionService(
	cfg SubmissionConfig,
	newSession SessionFactory,
	history port.HistoryRecorder,
	inspector port.DocumentInspector,
	events dispatcher.Dispatcher,
	logger *zap.Logger,
) *SubmissionService {
	attemptID := uuid.NewString()
	return &SubmissionService{
		cfg:        cfg,
		newSession: newSession,
		history:    history,
		inspector:  inspector,
		events:     events,
		logger:     logger.With(zap.String("attempt_id", attemptID)),
		now:        time.Now,
		attemptID:  attemptID,
	}
}

// AttemptID identifies this attempt in logs, events, and history
func (s *SubmissionService) AttemptID() string {
	return s.attemptID
}

// Driver returns the session's browser, or nil before InitializeSession
func (s *SubmissionService) Driver() browser.Driver {
	if s.session == nil {
		return nil
	}
	return s.session.Driver
}

// LoadCredentials reads the portal credentials once. Environment-supplied
// values win over the credentials file.
func (s *SubmissionService) LoadCredentials(ctx context.Context) error {
	if s.creds != nil {
		return nil
	}

	creds := entity.Credentials{Identity: s.cfg.Identity, Secret: s.cfg.Secret}
	if !creds.Complete() && s.cfg.CredentialsPath != "" {
		data, err := os.ReadFile(s.cfg.CredentialsPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			s.logger.Error("Failed to read credentials", zap.Error(err))
			return newOperatorError(entity.ErrCredentials, err, "Failed to load credentials: %v", err)
		default:
			var fromFile entity.Credentials
			if err := json.Unmarshal(data, &fromFile); err != nil {
				s.logger.Error("Failed to parse credentials", zap.Error(err))
				return newOperatorError(entity.ErrCredentials, err, "Failed to load credentials: %v", err)
			}
			if creds.Identity == "" {
				creds.Identity = fromFile.Identity
			}
			if creds.Secret == "" {
				creds.Secret = fromFile.Secret
			}
		}
	}

	if !creds.Complete() {
		s.logger.Error("Credentials not configured")
		return newOperatorError(entity.ErrCredentials, nil,
			"ClassWallet credentials not configured. Add them to %s or set CLASSWALLET_IDENTITY and CLASSWALLET_SECRET.",
			s.cfg.CredentialsPath)
	}

	s.creds = &creds
	s.logger.Info("Credentials loaded", zap.String("identity", creds.Identity))
	return nil
}

// InitializeSession opens a fresh browser session
func (s *SubmissionService) InitializeSession(ctx context.Context) error {
	if s.creds == nil {
		return newOperatorError(entity.ErrCredentials, nil,
			"Credentials not loaded. Please configure ClassWallet credentials first.")
	}

	session := s.newSession()
	if err := session.Driver.Open(ctx); err != nil {
		s.logger.Error("Failed to open browser", zap.Error(err))
		return newOperatorError(entity.ErrAutomationInit, err,
			"Failed to initialize browser automation: %v", err)
	}

	s.session = session
	s.authenticated = false
	s.logger.Info("Browser session initialized")
	return nil
}

// Authenticate logs in to the portal
func (s *SubmissionService) Authenticate(ctx context.Context) error {
	if s.session == nil {
		return newOperatorError(entity.ErrAutomationInit, nil,
			"Browser automation not initialized. Please try again.")
	}

	res := s.session.Steps.Authenticate(ctx, *s.creds)
	if !res.OK {
		return newOperatorError(entity.ErrLogin, res.Failure(),
			"Failed to login to ClassWallet. Please check the identity and secret in your ClassWallet credentials.")
	}

	s.authenticated = true
	return nil
}

// plannedStep is one workflow step with the trigger fired on success and
// the operator message used on failure
type plannedStep struct {
	trigger workflow.Trigger
	run     func(ctx context.Context) entity.StepResult
	message string
}

// Run executes the workflow for req. Steps run in order and the first
// failing step ends the run; nothing after it is attempted.
func (s *SubmissionService) Run(ctx context.Context, req *entity.SubmissionRequest) (*RunResult, error) {
	if err := req.Validate(); err != nil {
		return nil, newOperatorError(entity.ErrInvalidRequest, err, "Invalid request: %v", err)
	}
	if s.session == nil || !s.authenticated {
		return nil, newOperatorError(entity.ErrAutomationInit, nil,
			"Automation not initialized. Please try again.")
	}
	if err := s.preflight(req); err != nil {
		return nil, err
	}

	auto := req.ShouldAutoSubmit(s.cfg.AutoSubmit)
	log := s.logger.With(
		zap.String("student", req.Student),
		zap.String("request_type", string(req.RequestType)),
		zap.Bool("auto_submit", auto))
	log.Info("Starting submission workflow")

	machine := workflow.NewSubmissionMachine(auto)
	if err := machine.Fire(ctx, workflow.TriggerLogin); err != nil {
		return nil, newOperatorError(entity.ErrUnexpected, err, "Unexpected error: %v", err)
	}
	s.publish(ctx, event.TypeSubmissionStarted, req, map[string]interface{}{
		"request_type": string(req.RequestType),
		"payee":        req.PayeeName(),
		"auto_submit":  auto,
	})

	for _, step := range s.plan(req, auto) {
		res := step.run(ctx)
		if !res.OK {
			return nil, s.failRun(ctx, log, machine, req, res, step.message)
		}
		s.publish(ctx, event.TypeStepCompleted, req, map[string]interface{}{"step": res.Step})
		if err := machine.Fire(ctx, step.trigger); err != nil {
			return nil, newOperatorError(entity.ErrUnexpected, err, "Unexpected error: %v", err)
		}
	}

	result := &RunResult{AttemptID: s.attemptID, AutoSubmitted: auto}

	if auto {
		conf, err := s.submit(ctx, log, machine, req)
		if err != nil {
			return nil, err
		}
		result.Confirmation = conf
	} else {
		log.Info("Auto-submit disabled, stopped for manual review")
		if err := machine.Fire(ctx, workflow.TriggerStopForReview); err != nil {
			return nil, newOperatorError(entity.ErrUnexpected, err, "Unexpected error: %v", err)
		}
	}

	result.State = machine.State()
	result.Transitions = machine.History()

	s.record(ctx, log, req, result)
	s.publish(ctx, event.TypeSubmissionCompleted, req, map[string]interface{}{
		"state":          string(result.State),
		"auto_submitted": auto,
		"po_number":      req.PONumber,
		"payee":          req.PayeeName(),
		"amount":         req.Amount.StringFixed(2),
	})
	log.Info("Submission workflow completed", zap.String("state", string(result.State)))
	return result, nil
}

// plan lists the steps for the request type up to the review decision
func (s *SubmissionService) plan(req *entity.SubmissionRequest, auto bool) []plannedStep {
	steps := s.session.Steps

	selectStudent := plannedStep{
		trigger: workflow.TriggerSelectStudent,
		run:     func(ctx context.Context) entity.StepResult { return steps.SelectStudent(ctx, req.Student) },
		message: fmt.Sprintf("Could not select student '%s' in ClassWallet. Please verify the student exists in ClassWallet.", req.Student),
	}
	upload := plannedStep{
		trigger: workflow.TriggerUploadFiles,
		run:     func(ctx context.Context) entity.StepResult { return steps.UploadFiles(ctx, req.Files) },
		message: "Failed to upload files to ClassWallet. Check file format and size. The interface may have changed.",
	}
	category := plannedStep{
		trigger: workflow.TriggerSelectCategory,
		run:     func(ctx context.Context) entity.StepResult { return steps.SelectExpenseCategory(ctx, req.ExpenseCategory) },
		message: fmt.Sprintf("Could not select expense category '%s'. Please verify the category is available in ClassWallet.", req.ExpenseCategory),
	}

	if req.RequestType == entity.RequestDirectPay {
		return []plannedStep{
			selectStudent,
			{
				trigger: workflow.TriggerStartForm,
				run: func(ctx context.Context) entity.StepResult {
					return steps.StartDirectPay(ctx, req.VendorName, req.Amount, req.VendorSearchTerm())
				},
				message: fmt.Sprintf("Could not find vendor '%s' in ClassWallet. Check the vendor name and search term.", req.VendorName),
			},
			upload,
			category,
			{
				trigger: workflow.TriggerFillDetails,
				run: func(ctx context.Context) entity.StepResult {
					return steps.FillDirectPayInfo(ctx, req.PONumber, req.Comment)
				},
				message: "Failed to fill invoice number or comment. The ClassWallet interface may have changed.",
			},
			{
				trigger: workflow.TriggerReachReview,
				run:     steps.ProceedToReview,
				message: "Could not proceed to review page. The ClassWallet interface may have changed.",
			},
		}
	}

	plan := []plannedStep{
		selectStudent,
		{
			trigger: workflow.TriggerStartForm,
			run: func(ctx context.Context) entity.StepResult {
				return steps.StartReimbursement(ctx, req.StoreName, req.Amount)
			},
			message: fmt.Sprintf("Could not start reimbursement for '%s'. The ClassWallet interface may have changed. Check the logs for details.", req.StoreName),
		},
		upload,
		category,
		{
			trigger: workflow.TriggerFillDetails,
			run: func(ctx context.Context) entity.StepResult {
				return steps.FillPOAndComment(ctx, req.PONumber, req.Comment, auto)
			},
			message: "Failed to fill purchase order number or comment. The ClassWallet interface may have changed.",
		},
	}
	if auto {
		// advancing past the details page lands on the review screen
		plan = append(plan, plannedStep{
			trigger: workflow.TriggerReachReview,
			run: func(context.Context) entity.StepResult {
				return entity.StepResult{Step: "reach_review", OK: true}
			},
		})
	}
	return plan
}

// submit clicks the final control and interprets the confirmation
func (s *SubmissionService) submit(ctx context.Context, log *zap.Logger, machine workflow.StateMachine, req *entity.SubmissionRequest) (*entity.Confirmation, error) {
	message := "Failed to submit reimbursement. Please review the form in ClassWallet and submit manually."
	if req.RequestType == entity.RequestDirectPay {
		message = "Failed to submit direct pay. Please review the form in ClassWallet and submit manually."
	}

	steps := s.session.Steps
	res := steps.Submit(ctx, req.RequestType)
	if !res.OK {
		return nil, s.failRun(ctx, log, machine, req, res, message)
	}

	res = steps.WaitForConfirmation(ctx)
	if !res.OK {
		if res.Confirmation != nil && res.Confirmation.Message != "" {
			message = fmt.Sprintf("%s ClassWallet reported: %s", message, res.Confirmation.Message)
		}
		return nil, s.failRun(ctx, log, machine, req, res, message)
	}

	if !res.Confirmation.Succeeded(s.cfg.AssumeSubmittedOnTimeout) {
		res.OK = false
		res.Err = errors.New(res.Confirmation.Message)
		return nil, s.failRun(ctx, log, machine, req, res,
			"Submission could not be confirmed. Please check ClassWallet before submitting again.")
	}

	if err := machine.Fire(ctx, workflow.TriggerSubmit); err != nil {
		return nil, newOperatorError(entity.ErrUnexpected, err, "Unexpected error: %v", err)
	}
	log.Info("Submission sent", zap.String("confirmation", string(res.Confirmation.Status)))
	return res.Confirmation, nil
}

func (s *SubmissionService) failRun(ctx context.Context, log *zap.Logger, machine workflow.StateMachine, req *entity.SubmissionRequest, res entity.StepResult, message string) error {
	if err := machine.Fire(ctx, workflow.TriggerFail); err != nil {
		log.Warn("Could not record failure transition", zap.Error(err))
	}

	log.Error("Submission step failed",
		zap.String("step", res.Step),
		zap.String("state", string(machine.State())),
		zap.Error(res.Err))

	s.publish(ctx, event.TypeStepFailed, req, map[string]interface{}{
		"step":  res.Step,
		"error": errString(res.Err),
	})
	s.publish(ctx, event.TypeSubmissionFailed, req, map[string]interface{}{
		"step":    res.Step,
		"message": message,
		"payee":   req.PayeeName(),
	})

	return newOperatorError(entity.ErrSubmission, res.Failure(), "%s", message)
}

// preflight inspects documents before the browser is used. Missing files
// are left for the upload step to report.
func (s *SubmissionService) preflight(req *entity.SubmissionRequest) error {
	if !s.cfg.VerifyDocuments || s.inspector == nil {
		return nil
	}
	for _, path := range req.Files.Paths() {
		info, err := s.inspector.Inspect(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return newOperatorError(entity.ErrInvalidRequest, err,
				"Document %s could not be read: %v", path, err)
		}
		s.logger.Debug("Document checked",
			zap.String("path", info.Path),
			zap.String("kind", info.Kind),
			zap.Int("pages", info.Pages))
	}
	return nil
}

// record writes the history entry. A failure here never fails the submission.
func (s *SubmissionService) record(ctx context.Context, log *zap.Logger, req *entity.SubmissionRequest, result *RunResult) {
	if s.history == nil {
		return
	}

	rec := entity.NewSubmissionRecord(req, s.now(), s.cfg.CreatedBy)
	rec.AttemptID = s.attemptID
	rec.AutoSubmitted = result.AutoSubmitted
	if result.Confirmation != nil {
		rec.Confirmation = string(result.Confirmation.Status)
	}

	if err := s.history.Record(ctx, rec); err != nil {
		log.Warn("Failed to record submission history", zap.Error(err))
		return
	}
	log.Info("Submission recorded", zap.String("timestamp", rec.Timestamp))
}

func (s *SubmissionService) publish(ctx context.Context, t event.Type, req *entity.SubmissionRequest, payload map[string]interface{}) {
	if s.events == nil {
		return
	}
	s.events.DispatchAsync(ctx, event.NewEvent(t, s.attemptID, req.Student, payload))
}

// Close shuts the browser session
func (s *SubmissionService) Close() error {
	if s.session == nil {
		return nil
	}
	err := s.session.Driver.Close()
	s.session = nil
	s.authenticated = false
	return err
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return strings.TrimSpace(err.Error())
}
