package reconcile

import (
	"context"
	"fmt"
	"time"

	"timemachine/destination"
	"timemachine/internal/logging"
	"timemachine/internal/timeutil"
	"timemachine/source"
	"timemachine/worklog"
)

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionNoOp   Action = "noop"
)

// Field names reported in Decision.Changes.
const (
	ChangeDuration = "duration"
	ChangeStart    = "start"
	ChangeComment  = "comment"
)

// Decision is what has to happen on the destination for one source record.
// Existing is nil for ActionCreate. Issue is the routed issue for creates and
// the issue the existing worklog lives on otherwise, which differs from Routed
// when the mapping changed after the worklog was synced.
type Decision struct {
	Action   Action
	Record   worklog.Record
	Issue    string
	Routed   string
	Existing *worklog.DestinationWorklog
	Changes  []string
}

// Misrouted reports whether the synced worklog lives on another issue than the record routes to.
func (d Decision) Misrouted() bool {
	return d.Existing != nil && d.Issue != d.Routed
}

// Index is the lookup the reconciler needs from the destination index.
type Index interface {
	Lookup(sourceID string) (worklog.DestinationWorklog, bool)
}

// Decide compares source records with the destination index. It performs no I/O.
// A source id occurring more than once is decided once, for its first record.
func Decide(records []worklog.Record, index Index, router *Router) ([]Decision, error) {
	decisions := make([]Decision, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		if _, ok := seen[record.SourceID]; ok {
			logging.Warn("skip duplicate source worklog", "source_id", record.SourceID, "issue", record.IssueKey)
			continue
		}
		seen[record.SourceID] = struct{}{}

		target, err := router.Route(record.IssueKey)
		if err != nil {
			return nil, err
		}

		existing, ok := index.Lookup(record.SourceID)
		if !ok {
			decisions = append(decisions, Decision{Action: ActionCreate, Record: record, Issue: target, Routed: target})
			continue
		}
		if existing.IssueKey != target {
			// Routed elsewhere since the last sync; the worklog stays where it is.
			logging.Debug("synced worklog lives on another issue", "source_id", record.SourceID, "issue", existing.IssueKey, "routed", target)
		}

		decision := Decision{
			Action:   ActionNoOp,
			Record:   record,
			Issue:    existing.IssueKey,
			Routed:   target,
			Existing: &existing,
			Changes:  Diff(existing, record),
		}
		if len(decision.Changes) > 0 {
			decision.Action = ActionUpdate
		}
		decisions = append(decisions, decision)
	}
	return decisions, nil
}

// Diff lists the fields in which a synced worklog differs from its source record.
func Diff(existing worklog.DestinationWorklog, record worklog.Record) []string {
	var changes []string
	if existing.TimeSpentSeconds != record.TimeSpentSeconds {
		changes = append(changes, ChangeDuration)
	}
	if !worklog.SameStart(existing.StartedAt, record.StartedAt) {
		changes = append(changes, ChangeStart)
	}
	if existing.Comment != record.DestinationComment() {
		changes = append(changes, ChangeComment)
	}
	return changes
}

type PlanInput struct {
	Source      source.Fetcher
	Destination destination.Backend
	Router      *Router
	Window      timeutil.Window
	Parallelism int
}

type Plan struct {
	Window    timeutil.Window
	Records   []worklog.Record
	Index     *destination.Index
	Decisions []Decision
	Duration  time.Duration
}

type Counts struct {
	Create int
	Update int
	NoOp   int
}

func (p *Plan) Counts() Counts {
	var counts Counts
	for _, decision := range p.Decisions {
		switch decision.Action {
		case ActionCreate:
			counts.Create++
		case ActionUpdate:
			counts.Update++
		default:
			counts.NoOp++
		}
	}
	return counts
}

// Pending returns the decisions that require a write.
func (p *Plan) Pending() []Decision {
	out := make([]Decision, 0, len(p.Decisions))
	for _, decision := range p.Decisions {
		if decision.Action != ActionNoOp {
			out = append(out, decision)
		}
	}
	return out
}

// BuildPlan fetches the source, then indexes the destination, then decides.
// The index is complete before any decision is taken.
func BuildPlan(ctx context.Context, in PlanInput) (*Plan, error) {
	started := time.Now()

	records, err := in.Source.Fetch(ctx, in.Window)
	if err != nil {
		return nil, err
	}
	logging.Info("fetched source worklogs", "backend", in.Source.Name(), "window", in.Window.String(), "records", len(records))

	index, err := destination.BuildIndex(ctx, in.Destination, in.Router.Issues(), in.Parallelism)
	if err != nil {
		return nil, err
	}

	decisions, err := Decide(records, index, in.Router)
	if err != nil {
		return nil, fmt.Errorf("plan sync: %w", err)
	}

	return &Plan{
		Window:    in.Window,
		Records:   records,
		Index:     index,
		Decisions: decisions,
		Duration:  time.Since(started),
	}, nil
}
