package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"timemachine/config"
	"timemachine/internal/classify"
	"timemachine/internal/logging"
	"timemachine/internal/timeutil"
	"timemachine/output"
	"timemachine/source"
	"timemachine/storage"
)

var (
	checkDays   int
	checkOutput string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report differences between source worklogs and their destination copies.",
	Long: `Plan a sync over the last --days days without writing anything and list every mismatch:
- missing: source worklog without a copy on the destination
- changed: copy with outdated duration, start or comment
- duplicate: more than one copy of the same source worklog
- misrouted: copy on another issue than issue_map currently routes to

The command exits non-zero when at least one mismatch was found.`,
	Example: `
  # Check the last week
  timemachine check --days 7

  # Write the mismatches to Excel
  timemachine check --days 30 --output ./check.xlsx
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		window, err := timeutil.ResolveWindow(checkDays, time.Now())
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
		mismatches := classify.Mismatches(plan.Decisions, plan.Index.Duplicates())
		journalCheck(ctx, cfg.Journal.Path, window, plan.Counts().NoOp, len(mismatches))

		fmt.Printf("Window: %s\n", window)
		fmt.Printf("Source worklogs: %d\n", len(plan.Records))
		fmt.Printf("Destination copies found: %d\n", plan.Index.Len())
		fmt.Printf("Mismatches: %d\n", len(mismatches))
		for _, mismatch := range mismatches {
			fmt.Println(formatMismatch(mismatch))
		}

		if checkOutput != "" {
			if err := output.WriteFile(checkOutput, output.MismatchTable(mismatches)); err != nil {
				return err
			}
			fmt.Printf("Mismatches written to: %s\n", checkOutput)
		}

		if len(mismatches) > 0 {
			return fmt.Errorf("%d mismatches between source and destination", len(mismatches))
		}
		return nil
	},
}

func formatMismatch(mismatch classify.Mismatch) string {
	parts := []string{
		fmt.Sprintf("  %-9s source=%s", mismatch.Kind, mismatch.SourceID),
	}
	if mismatch.SourceIssue != "" {
		parts = append(parts, "issue="+mismatch.SourceIssue)
	}
	if mismatch.DestinationIssue != "" {
		parts = append(parts, "destination="+mismatch.DestinationIssue)
	}
	if mismatch.WorklogID != "" {
		parts = append(parts, "worklog="+mismatch.WorklogID)
	}
	if len(mismatch.Changes) > 0 {
		parts = append(parts, "("+strings.Join(mismatch.Changes, ", ")+")")
	}
	return strings.Join(parts, " ")
}

// journalCheck stores the check as a finished dry-run run. Failures are logged only.
func journalCheck(ctx context.Context, path string, window timeutil.Window, unchanged, mismatches int) {
	journal, run, err := startJournalRun(ctx, path, storage.Run{
		Command:     "check",
		WindowStart: window.Start,
		WindowEnd:   window.End,
		DryRun:      true,
	})
	if err != nil {
		logging.Warn("journal unavailable", "path", path, "error", err)
		return
	}
	if journal == nil {
		return
	}
	defer journal.Close()

	if err := journal.FinishRun(ctx, run.ID, storage.RunSummary{Unchanged: unchanged, Failed: mismatches}); err != nil {
		logging.Warn("finishing journal run failed", "run_id", run.ID, "error", err)
	}
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().IntVar(&checkDays, "days", 1, "How many days back to look (> 0)")
	checkCmd.Flags().StringVarP(&checkOutput, "output", "o", "", "Write mismatches to a .csv or .xlsx file")
}
