package automation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/classwallet-submitter/internal/browser"
	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
	"github.com/garyjia/classwallet-submitter/internal/portal"
)

// Authenticate signs in at the identity provider and opens the portal.
// The provider gives no success signal beyond the portal loading.
func (s *Steps) Authenticate(ctx context.Context, creds entity.Credentials) entity.StepResult {
	return s.run(ctx, StepAuthenticate, func(ctx context.Context, log *zap.Logger) error {
		t := s.timings.Timeouts

		log.Info("Opening identity provider", zap.String("url", s.portal.LoginURL))
		if err := s.driver.Navigate(ctx, s.portal.LoginURL); err != nil {
			return fmt.Errorf("failed to open login page: %w", err)
		}

		if err := s.driver.Type(ctx, s.portal.UsernameInput, creds.Identity, t.Default); err != nil {
			return err
		}
		if err := s.driver.Type(ctx, s.portal.PasswordInput, creds.Secret, t.Default); err != nil {
			return err
		}
		if err := s.driver.Click(ctx, s.portal.LoginButton, t.Default); err != nil {
			return err
		}

		log.Info("Waiting for authentication")
		if err := browser.Sleep(ctx, s.timings.AfterLogin); err != nil {
			return err
		}

		log.Info("Opening portal", zap.String("url", s.portal.PortalURL))
		if err := s.driver.Navigate(ctx, s.portal.PortalURL); err != nil {
			return fmt.Errorf("failed to open portal: %w", err)
		}
		return nil
	})
}

// SelectStudent makes student the active portal user. When the student is
// already active nothing is clicked.
func (s *Steps) SelectStudent(ctx context.Context, student string) entity.StepResult {
	return s.run(ctx, StepSelectStudent, func(ctx context.Context, log *zap.Logger) error {
		name := s.portal.DisplayName(student)
		log = log.With(zap.String("student", name))
		t := s.timings.Timeouts

		active, err := s.studentActive(ctx, name)
		if err != nil {
			log.Debug("Active student probe failed", zap.Error(err))
		}
		if active {
			log.Info("Student already selected")
			return nil
		}

		log.Info("Switching student")
		if err := s.driver.Click(ctx, s.portal.StudentMenu, t.Default); err != nil {
			return err
		}
		if err := s.driver.Click(ctx, s.portal.SwitchUserItem, t.Default); err != nil {
			return err
		}
		if err := s.driver.Click(ctx, s.portal.StudentItem(name), t.Default); err != nil {
			return fmt.Errorf("student %q not offered in switch menu: %w", name, err)
		}
		return browser.Sleep(ctx, s.timings.AfterClick)
	})
}

func (s *Steps) studentActive(ctx context.Context, name string) (bool, error) {
	var active bool
	if err := s.driver.Eval(ctx, portal.StudentActiveJS, &active, s.portal.StudentLabel(name)); err != nil {
		return false, err
	}
	return active, nil
}
