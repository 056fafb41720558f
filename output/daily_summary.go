package output

import (
	"sort"
	"strconv"

	"timemachine/internal/timeutil"
	"timemachine/worklog"
)

// DayTotal is the time one author logged on one UTC day.
type DayTotal struct {
	Date         string
	Author       string
	Seconds      int
	WorklogCount int
}

func BuildDayTotals(records []worklog.Record) []DayTotal {
	type key struct {
		date   string
		author string
	}
	byKey := make(map[key]*DayTotal)
	for _, record := range records {
		k := key{date: record.StartedAt.UTC().Format("2006-01-02"), author: record.Author}
		total, ok := byKey[k]
		if !ok {
			total = &DayTotal{Date: k.date, Author: k.author}
			byKey[k] = total
		}
		total.Seconds += record.TimeSpentSeconds
		total.WorklogCount++
	}

	totals := make([]DayTotal, 0, len(byKey))
	for _, total := range byKey {
		totals = append(totals, *total)
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Date != totals[j].Date {
			return totals[i].Date < totals[j].Date
		}
		return totals[i].Author < totals[j].Author
	})
	return totals
}

func DayTotalsTable(totals []DayTotal) Table {
	table := Table{Headers: []string{"Date", "Author", "Logged", "Seconds", "WorklogCount"}}
	for _, total := range totals {
		table.Rows = append(table.Rows, []string{
			total.Date,
			total.Author,
			timeutil.FormatSeconds(total.Seconds),
			strconv.Itoa(total.Seconds),
			strconv.Itoa(total.WorklogCount),
		})
	}
	return table
}
