package destination

import (
	"context"

	"timemachine/jira"
	"timemachine/worklog"
)

type JiraBackend struct {
	client jira.Client
}

func NewJiraBackend(client jira.Client) *JiraBackend {
	return &JiraBackend{client: client}
}

func (b *JiraBackend) Name() string {
	return BackendJira
}

func (b *JiraBackend) ListIssueWorklogs(ctx context.Context, issueKey string) ([]worklog.DestinationWorklog, error) {
	items, err := b.client.ListWorklogs(ctx, issueKey)
	if err != nil {
		return nil, err
	}

	result := make([]worklog.DestinationWorklog, 0, len(items))
	for _, item := range items {
		result = append(result, worklog.DestinationWorklog{
			ID:               item.ID,
			IssueKey:         issueKey,
			Author:           item.Author.ID(),
			StartedAt:        item.Started,
			TimeSpentSeconds: item.TimeSpentSeconds,
			Comment:          item.Comment,
		}.WithMarker())
	}
	return result, nil
}

func (b *JiraBackend) CreateWorklog(ctx context.Context, issueKey string, record worklog.Record) (string, error) {
	created, err := b.client.AddWorklog(ctx, issueKey, jiraInput(record))
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

func (b *JiraBackend) UpdateWorklog(ctx context.Context, existing worklog.DestinationWorklog, record worklog.Record) error {
	_, err := b.client.UpdateWorklog(ctx, existing.IssueKey, existing.ID, jiraInput(record))
	return err
}

func jiraInput(record worklog.Record) jira.WorklogInput {
	return jira.WorklogInput{
		Started:          record.StartedAt,
		TimeSpentSeconds: record.TimeSpentSeconds,
		Comment:          record.DestinationComment(),
	}
}
