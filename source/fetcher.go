package source

import (
	"context"
	"errors"
	"strings"

	"timemachine/config"
	"timemachine/internal/logging"
	"timemachine/internal/timeutil"
	"timemachine/jira"
	"timemachine/tempo"
	"timemachine/worklog"
)

const (
	BackendJira  = "source jira"
	BackendTempo = "source tempo"
)

// Fetcher reads the normalized source worklogs started inside a window.
type Fetcher interface {
	Fetch(ctx context.Context, window timeutil.Window) ([]worklog.Record, error)
	Name() string
}

// Clients carries the API clients a fetcher may use. Tempo is only required
// when the source has a Tempo token.
type Clients struct {
	Jira  jira.Client
	Tempo tempo.Client
}

type Options struct {
	// AllUsers disables the filter on the authenticated author.
	AllUsers    bool
	Parallelism int
}

// NewFetcher selects the fetch strategy from the source configuration and
// resolves the authenticated account used by the author filter.
func NewFetcher(ctx context.Context, cfg config.SourceJira, clients Clients, opts Options) (Fetcher, error) {
	if clients.Jira == nil {
		return nil, errors.New("source jira client is required")
	}

	backend := BackendJira
	if cfg.UsesTempo() {
		backend = BackendTempo
	}
	self, err := clients.Jira.Myself(ctx)
	if err != nil {
		return nil, &worklog.FetchError{Backend: backend, Err: err}
	}
	logging.Debug("resolved source account", "account", self.ID(), "backend", backend)

	if cfg.UsesTempo() {
		if clients.Tempo == nil {
			return nil, errors.New("source tempo client is required when tempo_token is set")
		}
		return NewTempoFetcher(clients.Tempo, self.ID(), opts), nil
	}

	projectKey := strings.TrimSpace(cfg.ProjectKey)
	if projectKey == "" {
		return nil, errors.New("source project key is required without a tempo token")
	}
	return NewJiraFetcher(clients.Jira, projectKey, self.ID(), opts), nil
}

// accept applies the checks shared by both strategies. Records failing them are
// logged and dropped instead of failing the fetch.
func accept(record worklog.Record, window timeutil.Window) bool {
	if !window.Contains(record.StartedAt) {
		logging.Debug("skip worklog outside window", "source_id", record.SourceID, "issue", record.IssueKey, "started", record.StartedAt)
		return false
	}
	if err := record.Validate(); err != nil {
		logging.Warn("skip invalid source worklog", "error", err)
		return false
	}
	return true
}

func fetchError(backend, issueKey string, err error) error {
	var fetchErr *worklog.FetchError
	if errors.As(err, &fetchErr) {
		return err
	}
	return &worklog.FetchError{Backend: backend, IssueKey: issueKey, Err: err}
}
