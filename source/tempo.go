package source

import (
	"context"
	"strconv"

	"timemachine/internal/logging"
	"timemachine/internal/timeutil"
	"timemachine/tempo"
	"timemachine/worklog"
)

// TempoFetcher reads worklogs from Tempo across all projects. The Jira worklog
// id is used as source id, so enabling or disabling Tempo on the source keeps
// worklog identities stable.
type TempoFetcher struct {
	client    tempo.Client
	accountID string
	allUsers  bool
}

func NewTempoFetcher(client tempo.Client, accountID string, opts Options) *TempoFetcher {
	return &TempoFetcher{client: client, accountID: accountID, allUsers: opts.AllUsers}
}

func (f *TempoFetcher) Name() string {
	return BackendTempo
}

func (f *TempoFetcher) Fetch(ctx context.Context, window timeutil.Window) ([]worklog.Record, error) {
	var (
		rows []tempo.Worklog
		err  error
	)
	if f.allUsers {
		rows, err = f.client.ListAllWorklogs(ctx, window.Start, window.End)
	} else {
		rows, err = f.client.ListUserWorklogs(ctx, f.accountID, window.Start, window.End)
	}
	if err != nil {
		return nil, fetchError(BackendTempo, "", err)
	}

	records := make([]worklog.Record, 0, len(rows))
	for _, row := range rows {
		if !f.allUsers && row.Author.AccountID != f.accountID {
			continue
		}
		if row.JiraWorklogID == nil {
			logging.Warn("skip tempo worklog without jira worklog id", "tempo_id", row.TempoWorklogID, "issue", row.Issue.Key)
			continue
		}
		started, err := row.Started()
		if err != nil {
			return nil, fetchError(BackendTempo, row.Issue.Key, err)
		}

		record := worklog.Record{
			SourceID:         strconv.FormatInt(*row.JiraWorklogID, 10),
			IssueKey:         row.Issue.Key,
			Author:           row.Author.AccountID,
			StartedAt:        started,
			TimeSpentSeconds: row.TimeSpentSeconds,
			Comment:          row.Description,
		}
		if accept(record, window) {
			records = append(records, record)
		}
	}
	return records, nil
}
