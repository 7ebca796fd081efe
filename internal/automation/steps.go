// Package automation is the step library: one operation per portal screen,
// each run against a browser.Driver and reported as an entity.StepResult.
// Steps never return raw errors or panics to the caller; the page state at
// the point of failure is attached to the result.
package automation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/classwallet-submitter/internal/browser"
	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
	"github.com/garyjia/classwallet-submitter/internal/portal"
)

// Step names as they appear in results and logs
const (
	StepAuthenticate          = "authenticate"
	StepSelectStudent         = "select_student"
	StepStartReimbursement    = "start_reimbursement"
	StepStartDirectPay        = "start_direct_pay"
	StepUploadFiles           = "upload_files"
	StepSelectExpenseCategory = "select_expense_category"
	StepFillPOAndComment      = "fill_po_and_comment"
	StepFillDirectPayInfo     = "fill_direct_pay_info"
	StepProceedToReview       = "proceed_to_review"
	StepSubmit                = "submit"
	StepWaitForConfirmation   = "wait_for_confirmation"
)

var (
	ErrFileMissing        = errors.New("file not found")
	ErrTooManyModals      = errors.New("image editor kept reappearing")
	ErrCategoryNotFound   = errors.New("expense category not found")
	ErrCheckboxUnchecked  = errors.New("checkbox did not stay checked")
	ErrNoSubmitControl    = errors.New("no submit control found")
	ErrSubmissionRejected = errors.New("portal rejected the submission")
)

// Timings holds every wait budget and settle delay the steps use.
//
// Waits for an element are condition polls bounded by the Timeouts. The
// delays below are fixed because the portal exposes nothing to poll:
//
//	AfterLogin      identity provider redirect chain
//	AfterUpload     server-side processing of uploaded files
//	AfterModal      image editor close animation
//	BeforeCategory  upload notifications clearing from the category screen
//	AfterSearch     vendor search request after the input events fire
//	AfterClick      page transition after Next/Pay/student clicks
type Timings struct {
	Timeouts             browser.Timeouts
	PollInterval         time.Duration
	ConfirmationTimeout  time.Duration
	ConfirmationInterval time.Duration
	MaxImageEditors      int

	AfterLogin     time.Duration
	AfterUpload    time.Duration
	AfterModal     time.Duration
	BeforeCategory time.Duration
	AfterSearch    time.Duration
	AfterClick     time.Duration
}

// DefaultTimings returns the production timings
func DefaultTimings() Timings {
	return Timings{
		Timeouts:             browser.DefaultTimeouts(),
		PollInterval:         250 * time.Millisecond,
		ConfirmationTimeout:  15 * time.Second,
		ConfirmationInterval: time.Second,
		MaxImageEditors:      10,
		AfterLogin:           3 * time.Second,
		AfterUpload:          4 * time.Second,
		AfterModal:           1500 * time.Millisecond,
		BeforeCategory:       3 * time.Second,
		AfterSearch:          2 * time.Second,
		AfterClick:           time.Second,
	}
}

// Steps runs the portal screens against one driver
type Steps struct {
	driver  browser.Driver
	portal  *portal.Adapter
	timings Timings
	logger  *zap.Logger
}

// NewSteps creates a step library bound to driver
func NewSteps(driver browser.Driver, adapter *portal.Adapter, timings Timings, logger *zap.Logger) *Steps {
	if timings.MaxImageEditors <= 0 {
		timings.MaxImageEditors = 10
	}
	return &Steps{
		driver:  driver,
		portal:  adapter,
		timings: timings,
		logger:  logger,
	}
}

// run executes fn as step, converting errors and panics into a failed result
// with page diagnostics attached.
func (s *Steps) run(ctx context.Context, step string, fn func(ctx context.Context, log *zap.Logger) error) (res entity.StepResult) {
	log := s.logger.With(zap.String("step", step))
	start := time.Now()
	res.Step = step

	defer func() {
		if r := recover(); r != nil {
			s.fail(ctx, log, &res, fmt.Errorf("panic: %v", r), start)
		}
	}()

	log.Info("Step started")
	if err := fn(ctx, log); err != nil {
		s.fail(ctx, log, &res, err, start)
		return res
	}

	res.OK = true
	log.Info("Step completed", zap.Duration("elapsed", time.Since(start)))
	return res
}

func (s *Steps) fail(ctx context.Context, log *zap.Logger, res *entity.StepResult, err error, start time.Time) {
	res.OK = false
	res.Err = err

	diag := s.driver.CaptureDiagnostics(ctx)
	res.Diagnostics = &diag

	log.Error("Step failed",
		zap.Error(err),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("url", diag.URL),
		zap.String("title", diag.Title),
		zap.String("ready_state", diag.ReadyState),
		zap.Strings("page_alerts", diag.Alerts),
		zap.Strings("console_errors", diag.ConsoleErrors),
		zap.String("diagnostics_error", diag.Error),
	)
}

// firstFound returns the first selector that becomes visible. The first
// candidate gets the full wait; the rest are probed.
func (s *Steps) firstFound(ctx context.Context, log *zap.Logger, candidates []browser.Selector) (browser.Selector, error) {
	var lastErr error
	for i, sel := range candidates {
		timeout := s.timings.Timeouts.Probe
		if i == 0 {
			timeout = s.timings.Timeouts.Default
		}
		err := s.driver.Find(ctx, sel, timeout)
		if err == nil {
			if i > 0 {
				log.Info("Found element with fallback selector", zap.Stringer("selector", sel))
			}
			return sel, nil
		}
		if ctx.Err() != nil {
			return browser.Selector{}, ctx.Err()
		}
		log.Debug("Selector not found", zap.Stringer("selector", sel), zap.Error(err))
		lastErr = err
	}
	if lastErr == nil {
		lastErr = browser.ErrElementNotFound
	}
	return browser.Selector{}, lastErr
}

// clickNext clicks a Next control and lets the page transition
func (s *Steps) clickNext(ctx context.Context, sel browser.Selector, timeout time.Duration) error {
	if err := s.driver.Click(ctx, sel, timeout); err != nil {
		return err
	}
	return browser.Sleep(ctx, s.timings.AfterClick)
}
