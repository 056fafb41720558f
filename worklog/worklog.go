package worklog

import (
	"fmt"
	"time"
)

// Record is the normalized source worklog, independent of the backend it was read from.
type Record struct {
	SourceID         string
	IssueKey         string
	Author           string
	StartedAt        time.Time
	TimeSpentSeconds int
	Comment          string
}

func (r Record) Validate() error {
	if r.SourceID == "" {
		return fmt.Errorf("worklog on %s has no source id", r.IssueKey)
	}
	if r.TimeSpentSeconds <= 0 {
		return fmt.Errorf("worklog %s on %s has non-positive duration %d", r.SourceID, r.IssueKey, r.TimeSpentSeconds)
	}
	if r.StartedAt.IsZero() {
		return fmt.Errorf("worklog %s on %s has no start time", r.SourceID, r.IssueKey)
	}
	return nil
}

// DestinationWorklog is a worklog that already exists on the destination backend.
// SourceID and OriginalComment are only set when Comment carries a valid marker.
type DestinationWorklog struct {
	ID               string
	IssueKey         string
	Author           string
	StartedAt        time.Time
	TimeSpentSeconds int
	Comment          string
	SourceID         string
	OriginalComment  string
}

// Marked reports whether the worklog was written by a previous sync.
func (w DestinationWorklog) Marked() bool {
	return w.SourceID != ""
}

// WithMarker parses the comment and fills SourceID/OriginalComment when a marker is present.
func (w DestinationWorklog) WithMarker() DestinationWorklog {
	sourceID, original, ok := ParseMarker(w.Comment)
	if !ok {
		w.SourceID = ""
		w.OriginalComment = ""
		return w
	}
	w.SourceID = sourceID
	w.OriginalComment = original
	return w
}

// SameStart compares start times at second precision, which is what both backends store.
func SameStart(a, b time.Time) bool {
	return a.Truncate(time.Second).Equal(b.Truncate(time.Second))
}

// DestinationComment is the comment a destination worklog for r must carry.
func (r Record) DestinationComment() string {
	return EncodeMarker(r.SourceID, r.Comment)
}
