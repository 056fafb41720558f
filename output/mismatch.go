package output

import (
	"strconv"
	"strings"

	"timemachine/internal/classify"
)

func MismatchTable(mismatches []classify.Mismatch) Table {
	table := Table{Headers: []string{"Kind", "SourceID", "SourceIssue", "DestinationIssue", "WorklogID", "Started", "SourceSeconds", "DestinationSeconds", "Details"}}
	for _, mismatch := range mismatches {
		table.Rows = append(table.Rows, []string{
			string(mismatch.Kind),
			mismatch.SourceID,
			mismatch.SourceIssue,
			mismatch.DestinationIssue,
			mismatch.WorklogID,
			mismatch.StartedAt,
			strconv.Itoa(mismatch.SourceSeconds),
			strconv.Itoa(mismatch.DestSeconds),
			strings.Join(mismatch.Changes, ", "),
		})
	}
	return table
}
