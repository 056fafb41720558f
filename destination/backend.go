package destination

import (
	"context"
	"errors"

	"timemachine/config"
	"timemachine/jira"
	"timemachine/tempo"
	"timemachine/worklog"
)

const (
	BackendJira  = "destination jira"
	BackendTempo = "destination tempo"
)

// Backend reads and writes worklogs on the destination instance.
// Written comments always carry the marker of the source record.
type Backend interface {
	Name() string
	ListIssueWorklogs(ctx context.Context, issueKey string) ([]worklog.DestinationWorklog, error)
	CreateWorklog(ctx context.Context, issueKey string, record worklog.Record) (string, error)
	UpdateWorklog(ctx context.Context, existing worklog.DestinationWorklog, record worklog.Record) error
}

type Clients struct {
	Jira  jira.Client
	Tempo tempo.Client
}

// NewBackend picks the Tempo backend when the destination has a Tempo token.
// Tempo needs the destination account id as author of new worklogs.
func NewBackend(ctx context.Context, cfg config.DestinationJira, clients Clients) (Backend, error) {
	if clients.Jira == nil {
		return nil, errors.New("destination jira client is required")
	}
	if !cfg.UsesTempo() {
		return NewJiraBackend(clients.Jira), nil
	}

	if clients.Tempo == nil {
		return nil, errors.New("destination tempo client is required when tempo_token is set")
	}
	self, err := clients.Jira.Myself(ctx)
	if err != nil {
		return nil, &worklog.FetchError{Backend: BackendTempo, Err: err}
	}
	return NewTempoBackend(clients.Tempo, self.ID()), nil
}
