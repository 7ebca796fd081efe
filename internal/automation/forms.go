package automation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/garyjia/classwallet-submitter/internal/browser"
	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
	"github.com/garyjia/classwallet-submitter/internal/portal"
)

// StartReimbursement opens a new reimbursement and fills store and amount.
// The amount field takes integer cents.
func (s *Steps) StartReimbursement(ctx context.Context, store string, amount decimal.Decimal) entity.StepResult {
	return s.run(ctx, StepStartReimbursement, func(ctx context.Context, log *zap.Logger) error {
		t := s.timings.Timeouts
		cents := portal.FormatCents(amount)
		log.Info("Starting reimbursement", zap.String("store", store), zap.String("amount_cents", cents))

		if err := s.driver.Click(ctx, s.portal.StartReimbursement, t.Default); err != nil {
			return err
		}
		if err := s.driver.Type(ctx, s.portal.StoreInput, store, t.Default); err != nil {
			return err
		}
		if err := s.driver.Type(ctx, s.portal.ReimbursementAmount, cents, t.Default); err != nil {
			return err
		}
		return s.clickNext(ctx, s.portal.NextButton, t.Default)
	})
}

// StartDirectPay opens the pay-vendor flow, finds the vendor, and fills the
// amount in dollars. searchTerm falls back to vendor when empty.
func (s *Steps) StartDirectPay(ctx context.Context, vendor string, amount decimal.Decimal, searchTerm string) entity.StepResult {
	return s.run(ctx, StepStartDirectPay, func(ctx context.Context, log *zap.Logger) error {
		t := s.timings.Timeouts
		term := strings.TrimSpace(searchTerm)
		if term == "" {
			term = vendor
		}
		log = log.With(zap.String("vendor", vendor), zap.String("search_term", term))
		log.Info("Starting direct pay", zap.String("amount", portal.FormatMajor(amount)))

		if err := s.driver.Click(ctx, s.portal.PayVendorTile, t.Default); err != nil {
			return err
		}

		search, err := s.firstFound(ctx, log, s.portal.VendorSearchInputs)
		if err != nil {
			return fmt.Errorf("vendor search field not found: %w", err)
		}
		if err := s.driver.Type(ctx, search, term, t.Field); err != nil {
			return err
		}
		if err := s.driver.Eval(ctx, portal.FireInputEventsJS, nil, search); err != nil {
			return fmt.Errorf("failed to trigger vendor search: %w", err)
		}
		if err := browser.Sleep(ctx, s.timings.AfterSearch); err != nil {
			return err
		}

		labels, err := s.vendorResults(ctx)
		if err != nil {
			return err
		}
		log.Info("Vendor search results", zap.Strings("results", labels))

		idx, err := portal.MatchVendor(labels, vendor, term)
		if err != nil {
			return err
		}

		var clicked bool
		if err := s.driver.Eval(ctx, portal.VendorPayJS, &clicked, s.portal.VendorLabels, idx); err != nil {
			return fmt.Errorf("failed to click Pay for %q: %w", labels[idx], err)
		}
		if !clicked {
			return fmt.Errorf("%w: no Pay button for %q", browser.ErrElementNotFound, labels[idx])
		}
		log.Info("Vendor selected", zap.String("result", labels[idx]))
		if err := browser.Sleep(ctx, s.timings.AfterClick); err != nil {
			return err
		}

		// Some vendors need a second Pay click before the amount form shows.
		if n, err := s.driver.Count(ctx, s.portal.DirectPayAmountBox); err == nil && n == 0 {
			if err := s.driver.Click(ctx, s.portal.VendorConfirmPay, t.Probe); err != nil {
				log.Debug("No vendor confirmation button", zap.Error(err))
			}
		}

		if err := s.driver.Type(ctx, s.portal.DirectPayAmount, portal.FormatMajor(amount), t.Field); err != nil {
			return fmt.Errorf("could not enter payment amount: %w", err)
		}
		return s.clickNext(ctx, s.portal.DirectPayNext, t.Field)
	})
}

// vendorResults waits briefly for the search result labels to render
func (s *Steps) vendorResults(ctx context.Context) ([]string, error) {
	var labels []string
	err := s.driver.WaitUntil(ctx, func(ctx context.Context) (bool, error) {
		if err := s.driver.Eval(ctx, portal.TextsJS, &labels, s.portal.VendorLabels); err != nil {
			return false, err
		}
		return len(labels) > 0, nil
	}, s.timings.Timeouts.Probe, s.timings.PollInterval)

	if errors.Is(err, browser.ErrTimeout) {
		return nil, portal.ErrVendorNotFound
	}
	return labels, err
}

// FillPOAndComment fills the reimbursement PO number and comment. The form
// only moves on to the final screen when advance is set.
func (s *Steps) FillPOAndComment(ctx context.Context, poNumber, comment string, advance bool) entity.StepResult {
	return s.run(ctx, StepFillPOAndComment, func(ctx context.Context, log *zap.Logger) error {
		t := s.timings.Timeouts
		log.Info("Filling PO and comment", zap.String("po_number", poNumber), zap.Bool("advance", advance))

		if err := s.driver.Type(ctx, s.portal.POInput, poNumber, t.Default); err != nil {
			return err
		}
		if err := s.driver.Type(ctx, s.portal.CommentsInput, comment, t.Default); err != nil {
			return err
		}

		if !advance {
			log.Info("Stopping after form fill for manual review")
			return nil
		}
		return s.clickNext(ctx, s.portal.NextButton, t.Default)
	})
}

// FillDirectPayInfo fills the optional comment and invoice number. Fields
// that cannot be filled are logged and skipped.
func (s *Steps) FillDirectPayInfo(ctx context.Context, poNumber, comment string) entity.StepResult {
	return s.run(ctx, StepFillDirectPayInfo, func(ctx context.Context, log *zap.Logger) error {
		t := s.timings.Timeouts

		if comment != "" {
			if err := s.driver.Type(ctx, s.portal.DirectPayComments, comment, t.Field); err != nil {
				log.Warn("Could not fill comments field", zap.Error(err))
			}
		}
		if poNumber != "" {
			if err := s.driver.Type(ctx, s.portal.DirectPayInvoice, poNumber, t.Field); err != nil {
				log.Warn("Could not fill invoice or quote number field", zap.Error(err))
			}
		}
		return ctx.Err()
	})
}

// ProceedToReview moves a Direct Pay request to the review screen
func (s *Steps) ProceedToReview(ctx context.Context) entity.StepResult {
	return s.run(ctx, StepProceedToReview, func(ctx context.Context, log *zap.Logger) error {
		return s.clickNext(ctx, s.portal.DirectPayNext, s.timings.Timeouts.Field)
	})
}
