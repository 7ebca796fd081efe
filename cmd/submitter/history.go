package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/garyjia/classwallet-submitter/internal/domain/entity"
	"github.com/garyjia/classwallet-submitter/internal/report"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect and prune the submission history",
	}

	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryDeleteCmd())
	cmd.AddCommand(newHistoryPurgeCmd())
	cmd.AddCommand(newHistoryExportCmd())
	return cmd
}

func newHistoryListCmd() *cobra.Command {
	var (
		limit     int
		createdBy string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded submissions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.container.History().List(cmd.Context(), entity.HistoryFilter{
				Limit:     limit,
				CreatedBy: createdBy,
			})
			if err != nil {
				return err
			}
			return writeRecords(cmd.OutOrStdout(), records)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum records to show (0 for all)")
	cmd.Flags().StringVar(&createdBy, "created-by", "", "Only records created by this tag")
	return cmd
}

func newHistoryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <timestamp>",
		Short: "Delete the submission logged at timestamp (YYYYMMDD_HHMMSS.mmm)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.container.History().Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d record(s) for %s\n", n, args[0])
			return nil
		},
	}
}

func newHistoryPurgeCmd() *cobra.Command {
	var createdBy string

	cmd := &cobra.Command{
		Use:   "purge",
		Short: "Delete all history, or only records with --created-by",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.container.History().Purge(cmd.Context(), createdBy)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d record(s)\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&createdBy, "created-by", "", "Only delete records created by this tag")
	return cmd
}

func newHistoryExportCmd() *cobra.Command {
	var (
		month string
		dir   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the monthly totals workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if dir == "" {
				dir = a.cfg.History.ExportDir
			}
			path, err := a.container.History().Export(cmd.Context(), month, dir)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&month, "month", "m", time.Now().Format(report.MonthLayout), "Month to export (YYYY-MM)")
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Output directory (defaults to history.export_dir)")
	return cmd
}

func writeRecords(w io.Writer, records []*entity.SubmissionRecord) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIMESTAMP\tTYPE\tSTUDENT\tPAYEE\tAMOUNT\tPO NUMBER\tCREATED BY")
	for _, r := range records {
		payee := r.StoreName
		if r.Type == entity.RecordTypeDirectPay {
			payee = r.VendorName
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.Timestamp, r.Type, r.Student, payee, r.Amount, r.PONumber, r.CreatedBy)
	}
	fmt.Fprintf(tw, "\n%d record(s)\n", len(records))
	return tw.Flush()
}
