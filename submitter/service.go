package submitter

import (
	"context"
	"errors"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/multierr"

	"timemachine/destination"
	"timemachine/internal/logging"
	"timemachine/reconcile"
	"timemachine/storage"
	"timemachine/worklog"
)

// Journal receives one entry per attempted write.
type Journal interface {
	RecordWrite(ctx context.Context, entry storage.WriteEntry) error
}

type Options struct {
	Parallelism int
	DryRun      bool
	Journal     Journal
	RunID       string
}

// Outcome is the result of applying one decision.
type Outcome struct {
	Decision  reconcile.Decision
	WorklogID string
	Err       error
}

type Report struct {
	DryRun    bool
	Created   int
	Updated   int
	Unchanged int
	Failed    int
	Outcomes  []Outcome
	errs      error
}

// Err aggregates every write failure, or returns nil when all writes succeeded.
func (r Report) Err() error {
	return r.errs
}

// Errors returns the individual write failures.
func (r Report) Errors() []error {
	return multierr.Errors(r.errs)
}

// Summary converts the counters for the run journal.
func (r Report) Summary() storage.RunSummary {
	return storage.RunSummary{
		Created:   r.Created,
		Updated:   r.Updated,
		Unchanged: r.Unchanged,
		Failed:    r.Failed,
	}
}

// Apply executes create and update decisions against the destination. A failed
// write is recorded and the remaining decisions are still applied.
func Apply(ctx context.Context, backend destination.Backend, decisions []reconcile.Decision, opts Options) Report {
	outcomes := make([]Outcome, len(decisions))

	p := pool.New().WithMaxGoroutines(max(opts.Parallelism, 1))
	for i, decision := range decisions {
		p.Go(func() {
			outcomes[i] = apply(ctx, backend, decision, opts)
		})
	}
	p.Wait()

	report := Report{DryRun: opts.DryRun, Outcomes: outcomes}
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			report.Failed++
			report.errs = multierr.Append(report.errs, outcome.Err)
			continue
		}
		switch outcome.Decision.Action {
		case reconcile.ActionCreate:
			report.Created++
		case reconcile.ActionUpdate:
			report.Updated++
		default:
			report.Unchanged++
		}
	}
	return report
}

func apply(ctx context.Context, backend destination.Backend, decision reconcile.Decision, opts Options) Outcome {
	outcome := Outcome{Decision: decision}
	record := decision.Record

	switch decision.Action {
	case reconcile.ActionNoOp:
		if decision.Existing != nil {
			outcome.WorklogID = decision.Existing.ID
		}
		return outcome
	case reconcile.ActionCreate:
		if opts.DryRun {
			logging.Info("would create worklog", "source_id", record.SourceID, "issue", decision.Issue, "seconds", record.TimeSpentSeconds)
			return outcome
		}
		id, err := backend.CreateWorklog(ctx, decision.Issue, record)
		outcome.WorklogID = id
		outcome.Err = writeError(decision, err)
	case reconcile.ActionUpdate:
		if decision.Existing == nil {
			outcome.Err = writeError(decision, errors.New("update without existing destination worklog"))
			break
		}
		outcome.WorklogID = decision.Existing.ID
		if opts.DryRun {
			logging.Info("would update worklog", "source_id", record.SourceID, "issue", decision.Issue, "worklog_id", decision.Existing.ID, "changes", decision.Changes)
			return outcome
		}
		outcome.Err = writeError(decision, backend.UpdateWorklog(ctx, *decision.Existing, record))
	default:
		outcome.Err = writeError(decision, errors.New("unknown action"))
	}

	if outcome.Err != nil {
		logging.Error("write failed", "source_id", record.SourceID, "issue", decision.Issue, "action", string(decision.Action), "error", outcome.Err)
	} else {
		logging.Debug("write applied", "source_id", record.SourceID, "issue", decision.Issue, "action", string(decision.Action), "worklog_id", outcome.WorklogID)
	}
	journal(ctx, opts, outcome)
	return outcome
}

func writeError(decision reconcile.Decision, err error) error {
	if err == nil {
		return nil
	}
	return &worklog.WriteError{
		SourceID: decision.Record.SourceID,
		IssueKey: decision.Issue,
		Action:   string(decision.Action),
		Err:      err,
	}
}

// journal failures only produce a warning; the journal is informational.
func journal(ctx context.Context, opts Options, outcome Outcome) {
	if opts.Journal == nil {
		return
	}
	entry := storage.WriteEntry{
		RunID:     opts.RunID,
		SourceID:  outcome.Decision.Record.SourceID,
		IssueKey:  outcome.Decision.Issue,
		WorklogID: outcome.WorklogID,
		Action:    string(outcome.Decision.Action),
	}
	if outcome.Err != nil {
		entry.Error = outcome.Err.Error()
	}
	if err := opts.Journal.RecordWrite(ctx, entry); err != nil {
		logging.Warn("journal write failed", "source_id", entry.SourceID, "error", err)
	}
}
