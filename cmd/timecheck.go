package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"timemachine/config"
	"timemachine/internal/timeutil"
	"timemachine/output"
	"timemachine/source"
)

var (
	timecheckSince  string
	timecheckPM     bool
	timecheckOutput string
)

var timecheckCmd = &cobra.Command{
	Use:   "timecheck",
	Short: "List time logged per day on the source Jira.",
	Long: `Sum the source worklogs per UTC day and author from --since until now.

Without --pm only your own worklogs are listed. With --pm the worklogs of all users
are listed, which needs the matching permissions on the source.`,
	Example: `
  # Own time since the start of the month
  timemachine timecheck

  # Everybody's time since a given day
  timemachine timecheck --since 2026-09-01 --pm --output ./time.csv
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now().UTC()
		start, err := parseSince(timecheckSince, now)
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

		fetcher, err := newSourceFetcher(ctx, cfg, source.Options{AllUsers: timecheckPM})
		if err != nil {
			return err
		}
		records, err := fetcher.Fetch(ctx, timeutil.Window{Start: start, End: now})
		if err != nil {
			return err
		}

		totals := output.BuildDayTotals(records)
		overall := 0
		for _, total := range totals {
			overall += total.Seconds
			fmt.Printf("%s %s spent %s\n", total.Date, total.Author, timeutil.FormatSeconds(total.Seconds))
		}
		fmt.Printf("Total %s\n", timeutil.FormatSeconds(overall))

		if timecheckOutput != "" {
			if err := output.WriteFile(timecheckOutput, output.DayTotalsTable(totals)); err != nil {
				return err
			}
			fmt.Printf("Day totals written to: %s\n", timecheckOutput)
		}
		return nil
	},
}

// parseSince reads a YYYY-MM-DD day as UTC midnight. Empty means the start of the current month.
func parseSince(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return timeutil.StartOfMonth(now.UTC()), nil
	}
	since, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --since %q, expected YYYY-MM-DD: %w", value, err)
	}
	if !since.Before(now) {
		return time.Time{}, fmt.Errorf("%w: --since %s is not in the past", timeutil.ErrInvalidWindow, value)
	}
	return since, nil
}

func init() {
	rootCmd.AddCommand(timecheckCmd)

	timecheckCmd.Flags().StringVar(&timecheckSince, "since", "", "First day to list, YYYY-MM-DD (default: start of the current month)")
	timecheckCmd.Flags().BoolVar(&timecheckPM, "pm", false, "List time spent by all users")
	timecheckCmd.Flags().StringVarP(&timecheckOutput, "output", "o", "", "Write day totals to a .csv or .xlsx file")
}
