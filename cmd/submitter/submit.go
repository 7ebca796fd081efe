package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/classwallet-submitter/internal/config"
	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
	"github.com/garyjia/classwallet-submitter/pkg/utils"
)

type submitOptions struct {
	requestPath string
	autoSubmit  bool
	noHold      bool
	headless    bool
}

func newSubmitCmd() *cobra.Command {
	opts := &submitOptions{}

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Run one submission from a JSON request file",
		Long: `Run one Reimbursement or Direct Pay submission. The request file holds
the same JSON body accepted by POST /api/v1/submit. Use "-" to read stdin.
The outcome is printed as JSON; the exit status is non-zero on failure.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.requestPath, "request", "r", "", "Path to the request JSON file")
	cmd.Flags().BoolVar(&opts.autoSubmit, "auto-submit", false, "Click the final submit button instead of stopping for review")
	cmd.Flags().BoolVar(&opts.noHold, "no-hold", false, "Close the browser as soon as the workflow ends")
	cmd.Flags().BoolVar(&opts.headless, "headless", false, "Run Chrome without a window")
	_ = cmd.MarkFlagRequired("request")

	return cmd
}

func runSubmit(cmd *cobra.Command, opts *submitOptions) error {
	req, err := readRequest(cmd.InOrStdin(), opts.requestPath, time.Now())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx, func(cfg *config.Config) {
		applySubmitFlags(cfg, cmd, opts)
	})
	if err != nil {
		return err
	}
	defer a.Close()

	attempt := a.container.Submitter().Submit(ctx, req)
	if err := printOutcome(cmd.OutOrStdout(), attempt.Outcome); err != nil {
		a.logger.Warn("Failed to print outcome", zap.Error(err))
	}

	a.container.Submitter().Finish(ctx, attempt)

	if !attempt.Outcome.Success {
		return fmt.Errorf("submission failed: %s", attempt.Outcome.ErrorCode)
	}
	return nil
}

// applySubmitFlags overrides config only for flags the operator set
func applySubmitFlags(cfg *config.Config, cmd *cobra.Command, opts *submitOptions) {
	if cmd.Flags().Changed("auto-submit") {
		cfg.Automation.AutoSubmit = opts.autoSubmit
	}
	if opts.noHold {
		cfg.Automation.KeepOpen = false
	}
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = opts.headless
	}
}

// readRequest decodes the request at path ("-" for stdin) and fills in a
// generated PO number when none was given.
func readRequest(stdin io.Reader, path string, now time.Time) (*entity.SubmissionRequest, error) {
	var r io.Reader
	if path == "-" {
		r = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open request: %w", err)
		}
		defer f.Close()
		r = f
	}

	var req entity.SubmissionRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to decode request: %w", err)
	}
	if req.PONumber == "" {
		req.PONumber = utils.GeneratePONumber(now)
	}
	return &req, nil
}

func printOutcome(w io.Writer, outcome *entity.SubmissionOutcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(outcome)
}
