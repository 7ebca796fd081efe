package automation

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/classwallet-submitter/internal/browser"
	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
	"github.com/garyjia/classwallet-submitter/internal/portal"
)

type checkboxState struct {
	Found   bool `json:"found"`
	Checked bool `json:"checked"`
}

// SelectExpenseCategory ticks the funding source, then the category, then
// moves on. Both checkboxes are left alone when already checked.
func (s *Steps) SelectExpenseCategory(ctx context.Context, category string) entity.StepResult {
	return s.run(ctx, StepSelectExpenseCategory, func(ctx context.Context, log *zap.Logger) error {
		t := s.timings.Timeouts
		log = log.With(zap.String("category", category))

		if err := browser.Sleep(ctx, s.timings.BeforeCategory); err != nil {
			return err
		}

		source, err := s.firstFound(ctx, log, s.portal.FundingSourceCheckboxes())
		if err != nil {
			return fmt.Errorf("funding source %q not found: %w", s.portal.FundingSource, err)
		}
		if err := s.ensureChecked(ctx, log, source, ""); err != nil {
			return fmt.Errorf("funding source %q: %w", s.portal.FundingSource, err)
		}
		// the category list renders after the funding source is ticked
		if err := browser.Sleep(ctx, s.timings.AfterClick); err != nil {
			return err
		}

		log.Info("Selecting expense category", zap.String("normalized", portal.NormalizeCategory(category)))
		matched := false
		for _, strategy := range s.portal.CategoryStrategies(category) {
			if err := s.driver.Find(ctx, strategy.Selector, t.Probe); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Debug("Category strategy missed", zap.Stringer("selector", strategy.Selector))
				continue
			}
			log.Info("Category located", zap.Stringer("selector", strategy.Selector))
			if err := s.ensureChecked(ctx, log, strategy.Selector, strategy.Inner); err != nil {
				return err
			}
			matched = true
			break
		}

		if !matched {
			var available []string
			if err := s.driver.Eval(ctx, portal.DataTestValuesJS, &available, s.portal.CategoryDebugList); err == nil {
				log.Error("Available data-test values", zap.Strings("values", available))
			}
			return fmt.Errorf("%w: %q", ErrCategoryNotFound, category)
		}

		if err := browser.Sleep(ctx, s.timings.AfterClick); err != nil {
			return err
		}
		return s.driver.Click(ctx, s.portal.NextButton, t.Default)
	})
}

// ensureChecked leaves the checkbox checked. UI libraries that swallow
// ordinary clicks are handled by escalating from a scripted click on the
// styled box, to a click on the native input, to setting the state directly.
func (s *Steps) ensureChecked(ctx context.Context, log *zap.Logger, sel browser.Selector, inner string) error {
	apply := func(action string) (checkboxState, error) {
		var st checkboxState
		err := s.driver.Eval(ctx, portal.CheckboxJS, &st, sel, inner, action)
		return st, err
	}

	st, err := apply("state")
	if err != nil {
		return err
	}
	if !st.Found {
		return fmt.Errorf("%w: %s", browser.ErrElementNotFound, sel)
	}
	if st.Checked {
		log.Info("Checkbox already checked", zap.Stringer("selector", sel))
		return nil
	}

	for _, action := range []string{"click", "input", "force"} {
		if _, err := apply(action); err != nil {
			return err
		}
		if err := browser.Sleep(ctx, s.timings.AfterClick); err != nil {
			return err
		}
		if st, err = apply("state"); err != nil {
			return err
		}
		if st.Checked {
			log.Info("Checkbox checked", zap.Stringer("selector", sel), zap.String("method", action))
			return nil
		}
		log.Warn("Checkbox still unchecked", zap.Stringer("selector", sel), zap.String("method", action))
	}
	return fmt.Errorf("%w: %s", ErrCheckboxUnchecked, sel)
}
