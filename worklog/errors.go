package worklog

import "fmt"

// FetchError is returned when reading from either backend fails. It is fatal for a run:
// a partial snapshot would make missing worklogs look new on the next run.
type FetchError struct {
	Backend  string
	IssueKey string
	Err      error
}

func (e *FetchError) Error() string {
	if e.IssueKey != "" {
		return fmt.Sprintf("fetch from %s (issue %s): %v", e.Backend, e.IssueKey, e.Err)
	}
	return fmt.Sprintf("fetch from %s: %v", e.Backend, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// WriteError describes one failed create or update. Other records keep being processed.
type WriteError struct {
	SourceID string
	IssueKey string
	Action   string
	Err      error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s worklog %s on %s: %v", e.Action, e.SourceID, e.IssueKey, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
