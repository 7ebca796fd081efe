package automation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/classwallet-submitter/internal/browser"
	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
	"github.com/garyjia/classwallet-submitter/internal/portal"
)

// Submit clicks the final submit control for the request type, trying each
// known control in order.
func (s *Steps) Submit(ctx context.Context, requestType entity.RequestType) entity.StepResult {
	return s.run(ctx, StepSubmit, func(ctx context.Context, log *zap.Logger) error {
		t := s.timings.Timeouts
		log = log.With(zap.String("request_type", string(requestType)))

		for i, sel := range s.portal.SubmitControls(requestType) {
			timeout := t.Probe
			if i == 0 {
				timeout = t.Default
			}
			err := s.driver.Click(ctx, sel, timeout)
			if err == nil {
				log.Info("Submit clicked", zap.Stringer("selector", sel))
				return browser.Sleep(ctx, s.timings.AfterClick)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Debug("Submit control not clickable", zap.Stringer("selector", sel), zap.Error(err))
		}
		return ErrNoSubmitControl
	})
}

// WaitForConfirmation polls the page after submit. A success or error text
// settles the result. When neither appears in time the result is OK with
// an unconfirmed Confirmation; the caller decides what that means.
func (s *Steps) WaitForConfirmation(ctx context.Context) entity.StepResult {
	var conf entity.Confirmation

	res := s.run(ctx, StepWaitForConfirmation, func(ctx context.Context, log *zap.Logger) error {
		var last portal.ConfirmationPage
		err := s.driver.WaitUntil(ctx, func(ctx context.Context) (bool, error) {
			var page portal.ConfirmationPage
			if err := s.driver.Eval(ctx, portal.ConfirmationJS, &page,
				s.portal.SuccessSelectors, s.portal.ConfirmationSelectors, s.portal.ErrorSelectors); err != nil {
				log.Debug("Confirmation check failed", zap.Error(err))
				return false, nil
			}
			last = page
			c, ok := s.portal.Classify(page)
			if ok {
				conf = c
			}
			return ok, nil
		}, s.timings.ConfirmationTimeout, s.timings.ConfirmationInterval)

		switch {
		case errors.Is(err, browser.ErrTimeout):
			conf = portal.Unconfirmed(last.URL)
			log.Warn("Submission not confirmed before timeout", zap.String("url", last.URL))
			return nil
		case err != nil:
			return err
		}

		if conf.Status == entity.ConfirmationRejected {
			return fmt.Errorf("%w: %s", ErrSubmissionRejected, conf.Message)
		}
		log.Info("Submission confirmed", zap.String("message", conf.Message))
		return nil
	})

	if conf.Status != "" {
		res.Confirmation = &conf
	}
	return res
}
