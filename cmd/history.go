package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"timemachine/config"
	"timemachine/storage"
)

var (
	historyLimit   int
	historyJournal string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent sync and check runs from the journal.",
	Long: `Show the runs recorded in the SQLite journal configured as journal.path.

The journal is informational. Deleting it does not affect which worklogs are
considered synced; that is decided by the markers on the destination.`,
	Example: `
  # Last 20 runs
  timemachine history

  # Last 5 runs from a specific journal
  timemachine history --limit 5 --journal ./timemachine.db
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := strings.TrimSpace(historyJournal)
		if path == "" {
			cfg, err := config.LoadAndValidate()
			if err != nil {
				return err
			}
			path = cfg.Journal.Path
		}
		if path == "" {
			return fmt.Errorf("no journal configured; set journal.path or pass --journal")
		}

		store, err := storage.OpenSQLite(path)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		runs, err := store.ListRuns(ctx, historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}
		for _, run := range runs {
			fmt.Println(formatRun(run, time.Now()))
		}
		return nil
	},
}

func formatRun(run storage.Run, now time.Time) string {
	mode := run.Command
	if run.DryRun && run.Command == "sync" {
		mode += " (dry-run)"
	}
	status := "unfinished"
	switch {
	case run.Finished() && run.Command == "check":
		status = fmt.Sprintf("in-sync=%d mismatches=%d", run.Unchanged, run.Failed)
	case run.Finished():
		status = fmt.Sprintf(
			"created=%d updated=%d unchanged=%d failed=%d",
			run.Created,
			run.Updated,
			run.Unchanged,
			run.Failed,
		)
	}
	return fmt.Sprintf(
		"%s  %-16s %-18s window %s..%s  %s",
		run.ID[:min(8, len(run.ID))],
		mode,
		humanize.RelTime(run.StartedAt, now, "ago", "from now"),
		run.WindowStart.Format("2006-01-02"),
		run.WindowEnd.Format("2006-01-02 15:04"),
		status,
	)
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to list")
	historyCmd.Flags().StringVar(&historyJournal, "journal", "", "Journal path override (default: journal.path)")
}
