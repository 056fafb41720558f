package destination

import (
	"context"
	"fmt"
	"strconv"

	"timemachine/tempo"
	"timemachine/worklog"
)

// TempoBackend writes through Tempo. Worklog ids are Tempo worklog ids.
type TempoBackend struct {
	client    tempo.Client
	accountID string
}

func NewTempoBackend(client tempo.Client, accountID string) *TempoBackend {
	return &TempoBackend{client: client, accountID: accountID}
}

func (b *TempoBackend) Name() string {
	return BackendTempo
}

func (b *TempoBackend) ListIssueWorklogs(ctx context.Context, issueKey string) ([]worklog.DestinationWorklog, error) {
	rows, err := b.client.ListIssueWorklogs(ctx, issueKey)
	if err != nil {
		return nil, err
	}

	result := make([]worklog.DestinationWorklog, 0, len(rows))
	for _, row := range rows {
		started, err := row.Started()
		if err != nil {
			return nil, err
		}
		result = append(result, worklog.DestinationWorklog{
			ID:               strconv.FormatInt(row.TempoWorklogID, 10),
			IssueKey:         issueKey,
			Author:           row.Author.AccountID,
			StartedAt:        started,
			TimeSpentSeconds: row.TimeSpentSeconds,
			Comment:          row.Description,
		}.WithMarker())
	}
	return result, nil
}

func (b *TempoBackend) CreateWorklog(ctx context.Context, issueKey string, record worklog.Record) (string, error) {
	created, err := b.client.CreateWorklog(ctx, b.input(issueKey, record))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(created.TempoWorklogID, 10), nil
}

func (b *TempoBackend) UpdateWorklog(ctx context.Context, existing worklog.DestinationWorklog, record worklog.Record) error {
	tempoID, err := strconv.ParseInt(existing.ID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid tempo worklog id %q: %w", existing.ID, err)
	}
	_, err = b.client.UpdateWorklog(ctx, tempoID, b.input(existing.IssueKey, record))
	return err
}

func (b *TempoBackend) input(issueKey string, record worklog.Record) tempo.WorklogInput {
	return tempo.WorklogInput{
		IssueKey:         issueKey,
		AuthorAccountID:  b.accountID,
		Started:          record.StartedAt,
		TimeSpentSeconds: record.TimeSpentSeconds,
		Description:      record.DestinationComment(),
	}
}
