package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"timemachine/config"
	"timemachine/internal/logging"
	"timemachine/internal/timeutil"
	"timemachine/reconcile"
	"timemachine/source"
	"timemachine/storage"
	"timemachine/submitter"
)

var (
	syncDays   int
	syncDryRun bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy source worklogs of the last days to the destination Jira.",
	Long: `Fetch the source worklogs started in the last --days days (counted from UTC midnight),
route each one to a destination issue and create or update its copy.

Routing uses issue_map and falls back to destination_jira.issue. Copies are found again
through the TIMEMACHINE_WID marker in their comment, so running sync repeatedly over
overlapping windows never duplicates worklogs. Only issues reachable through the routing
are scanned for existing copies.

A failed write does not stop the run; the command exits non-zero when any write failed
and a rerun picks up where it left off.`,
	Example: `
  # Copy worklogs of today and yesterday
  timemachine sync

  # Copy the last two weeks
  timemachine sync --days 14

  # Show what would be written
  timemachine sync --days 7 --dry-run
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		window, err := timeutil.ResolveWindow(syncDays, time.Now())
		if err != nil {
			return err
		}
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		plan, err := buildPlan(ctx, cfg, window, source.Options{})
		if err != nil {
			return err
		}

		journal, run, err := startJournalRun(ctx, cfg.Journal.Path, storage.Run{
			Command:     "sync",
			WindowStart: window.Start,
			WindowEnd:   window.End,
			DryRun:      syncDryRun,
		})
		if err != nil {
			return err
		}
		if journal != nil {
			defer journal.Close()
		}

		if syncDryRun {
			fmt.Println("Sync dry-run mode: no worklogs are written.")
		}
		opts := submitter.Options{
			Parallelism: cfg.Sync.Parallelism,
			DryRun:      syncDryRun,
			RunID:       run.ID,
		}
		if journal != nil {
			opts.Journal = journal
		}
		report := submitter.Apply(ctx, plan.Destination, plan.Decisions, opts)

		if journal != nil {
			if err := journal.FinishRun(ctx, run.ID, report.Summary()); err != nil {
				logging.Warn("finishing journal run failed", "run_id", run.ID, "error", err)
			}
		}

		printSyncSummary(plan.Plan, report)
		if err := report.Err(); err != nil {
			return fmt.Errorf("%d of %d writes failed: %w", report.Failed, len(plan.Pending()), err)
		}
		return nil
	},
}

func printSyncSummary(plan *reconcile.Plan, report submitter.Report) {
	fmt.Printf("Window: %s\n", plan.Window)
	fmt.Printf("Source worklogs: %d\n", len(plan.Records))
	fmt.Printf("Destination copies found: %d\n", plan.Index.Len())
	if duplicates := len(plan.Index.Duplicates()); duplicates > 0 {
		fmt.Printf("Duplicate copies ignored: %d\n", duplicates)
	}
	verb := ""
	if report.DryRun {
		verb = " (dry-run)"
	}
	fmt.Printf("Created%s: %d\n", verb, report.Created)
	fmt.Printf("Updated%s: %d\n", verb, report.Updated)
	fmt.Printf("Unchanged: %d\n", report.Unchanged)
	fmt.Printf("Failed: %d\n", report.Failed)
	for _, err := range report.Errors() {
		fmt.Printf("  %v\n", err)
	}
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().IntVar(&syncDays, "days", 1, "How many days back to look (> 0)")
	syncCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Plan the sync without writing to the destination")
}
