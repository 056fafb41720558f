package classify

import (
	"sort"

	"timemachine/reconcile"
	"timemachine/worklog"
)

type Kind string

const (
	// KindMissing is a source worklog without a synced destination worklog.
	KindMissing Kind = "missing"
	// KindChanged is a synced worklog whose duration, start or comment is outdated.
	KindChanged Kind = "changed"
	// KindDuplicate is an extra destination worklog carrying an already indexed marker.
	KindDuplicate Kind = "duplicate"
	// KindMisrouted is a synced worklog on another issue than the current routing.
	KindMisrouted Kind = "misrouted"
)

type Mismatch struct {
	Kind             Kind
	SourceID         string
	SourceIssue      string
	DestinationIssue string
	WorklogID        string
	StartedAt        string
	SourceSeconds    int
	DestSeconds      int
	Changes          []string
}

// Mismatches lists every difference between source and destination found while
// planning. Misrouted worklogs are reported even when their content is current.
func Mismatches(decisions []reconcile.Decision, duplicates []worklog.DestinationWorklog) []Mismatch {
	out := make([]Mismatch, 0)
	for _, decision := range decisions {
		record := decision.Record
		base := Mismatch{
			SourceID:         record.SourceID,
			SourceIssue:      record.IssueKey,
			DestinationIssue: decision.Issue,
			StartedAt:        record.StartedAt.UTC().Format("2006-01-02 15:04:05"),
			SourceSeconds:    record.TimeSpentSeconds,
		}
		if decision.Existing != nil {
			base.WorklogID = decision.Existing.ID
			base.DestSeconds = decision.Existing.TimeSpentSeconds
		}

		switch decision.Action {
		case reconcile.ActionCreate:
			base.Kind = KindMissing
			out = append(out, base)
			continue
		case reconcile.ActionUpdate:
			changed := base
			changed.Kind = KindChanged
			changed.Changes = append([]string(nil), decision.Changes...)
			out = append(out, changed)
		}
		if decision.Misrouted() {
			misrouted := base
			misrouted.Kind = KindMisrouted
			misrouted.Changes = []string{"routed to " + decision.Routed}
			out = append(out, misrouted)
		}
	}

	for _, duplicate := range duplicates {
		out = append(out, Mismatch{
			Kind:             KindDuplicate,
			SourceID:         duplicate.SourceID,
			DestinationIssue: duplicate.IssueKey,
			WorklogID:        duplicate.ID,
			StartedAt:        duplicate.StartedAt.UTC().Format("2006-01-02 15:04:05"),
			DestSeconds:      duplicate.TimeSpentSeconds,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SourceID != out[j].SourceID {
			return out[i].SourceID < out[j].SourceID
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}
