package destination

import (
	"context"
	"sort"
	"strconv"

	"github.com/sourcegraph/conc/pool"

	"timemachine/internal/logging"
	"timemachine/worklog"
)

// Index maps source ids to the destination worklogs carrying their marker.
// It is built once per run and never changes afterwards.
type Index struct {
	bySource   map[string]worklog.DestinationWorklog
	duplicates []worklog.DestinationWorklog
	unmarked   int
}

// NewIndex indexes marked worklogs. When several worklogs carry the same
// source id the one with the smallest backend id is kept and the others are
// reported as duplicates.
func NewIndex(worklogs []worklog.DestinationWorklog) *Index {
	index := &Index{bySource: make(map[string]worklog.DestinationWorklog, len(worklogs))}
	for _, item := range worklogs {
		if !item.Marked() {
			index.unmarked++
			continue
		}
		current, ok := index.bySource[item.SourceID]
		if !ok {
			index.bySource[item.SourceID] = item
			continue
		}
		if lessID(item.ID, current.ID) {
			index.bySource[item.SourceID] = item
			item = current
		}
		index.duplicates = append(index.duplicates, item)
	}

	sort.Slice(index.duplicates, func(i, j int) bool {
		if index.duplicates[i].SourceID != index.duplicates[j].SourceID {
			return index.duplicates[i].SourceID < index.duplicates[j].SourceID
		}
		return lessID(index.duplicates[i].ID, index.duplicates[j].ID)
	})
	return index
}

func (i *Index) Lookup(sourceID string) (worklog.DestinationWorklog, bool) {
	item, ok := i.bySource[sourceID]
	return item, ok
}

func (i *Index) Len() int {
	return len(i.bySource)
}

// Unmarked counts scanned worklogs without a marker. They are ignored by sync.
func (i *Index) Unmarked() int {
	return i.unmarked
}

// Duplicates returns marked worklogs shadowed by another worklog with the same source id.
func (i *Index) Duplicates() []worklog.DestinationWorklog {
	return append([]worklog.DestinationWorklog(nil), i.duplicates...)
}

// BuildIndex lists the worklogs of every issue in scope and indexes them.
// Any listing failure aborts the build.
func BuildIndex(ctx context.Context, backend Backend, issueKeys []string, parallelism int) (*Index, error) {
	perIssue := make([][]worklog.DestinationWorklog, len(issueKeys))
	p := pool.New().
		WithContext(ctx).
		WithMaxGoroutines(max(parallelism, 1)).
		WithCancelOnError().
		WithFirstError()
	for i, issueKey := range issueKeys {
		p.Go(func(ctx context.Context) error {
			items, err := backend.ListIssueWorklogs(ctx, issueKey)
			if err != nil {
				return &worklog.FetchError{Backend: backend.Name(), IssueKey: issueKey, Err: err}
			}
			perIssue[i] = items
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	all := make([]worklog.DestinationWorklog, 0)
	for _, items := range perIssue {
		all = append(all, items...)
	}
	index := NewIndex(all)
	for _, duplicate := range index.duplicates {
		logging.Warn("duplicate marker on destination", "source_id", duplicate.SourceID, "issue", duplicate.IssueKey, "worklog_id", duplicate.ID)
	}
	logging.Info("indexed destination worklogs", "issues", len(issueKeys), "marked", index.Len(), "unmarked", index.unmarked)
	return index, nil
}

// lessID orders numeric ids numerically and falls back to string order.
func lessID(a, b string) bool {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}
