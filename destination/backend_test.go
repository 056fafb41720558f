package destination

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timemachine/config"
	"timemachine/jira"
	"timemachine/tempo"
	"timemachine/worklog"
)

type fakeJira struct {
	self     jira.User
	worklogs []jira.Worklog
	added    []jira.WorklogInput
	updated  map[string]jira.WorklogInput
}

func (f *fakeJira) Myself(context.Context) (jira.User, error) {
	return f.self, nil
}

func (f *fakeJira) SearchIssueKeys(context.Context, string, int, int) ([]string, error) {
	return nil, errors.New("not used")
}

func (f *fakeJira) ListWorklogs(context.Context, string) ([]jira.Worklog, error) {
	return f.worklogs, nil
}

func (f *fakeJira) AddWorklog(_ context.Context, _ string, input jira.WorklogInput) (jira.Worklog, error) {
	f.added = append(f.added, input)
	return jira.Worklog{ID: "777"}, nil
}

func (f *fakeJira) UpdateWorklog(_ context.Context, _ string, worklogID string, input jira.WorklogInput) (jira.Worklog, error) {
	if f.updated == nil {
		f.updated = map[string]jira.WorklogInput{}
	}
	f.updated[worklogID] = input
	return jira.Worklog{ID: worklogID}, nil
}

type fakeTempo struct {
	tempo.Client
	rows    []tempo.Worklog
	created []tempo.WorklogInput
	updated map[int64]tempo.WorklogInput
}

func (f *fakeTempo) ListIssueWorklogs(context.Context, string) ([]tempo.Worklog, error) {
	return f.rows, nil
}

func (f *fakeTempo) CreateWorklog(_ context.Context, input tempo.WorklogInput) (tempo.Worklog, error) {
	f.created = append(f.created, input)
	return tempo.Worklog{TempoWorklogID: 4242}, nil
}

func (f *fakeTempo) UpdateWorklog(_ context.Context, id int64, input tempo.WorklogInput) (tempo.Worklog, error) {
	if f.updated == nil {
		f.updated = map[int64]tempo.WorklogInput{}
	}
	f.updated[id] = input
	return tempo.Worklog{TempoWorklogID: id}, nil
}

var sampleRecord = worklog.Record{
	SourceID:         "124",
	IssueKey:         "SRC-1",
	Author:           "me",
	StartedAt:        time.Date(2026, 10, 12, 8, 30, 0, 0, time.UTC),
	TimeSpentSeconds: 1440,
	Comment:          "Code review",
}

func TestNewBackend_SelectsStrategy(t *testing.T) {
	t.Parallel()

	client := &fakeJira{self: jira.User{AccountID: "dst-acc"}}
	backend, err := NewBackend(context.Background(), config.DestinationJira{}, Clients{Jira: client})
	require.NoError(t, err)
	assert.Equal(t, BackendJira, backend.Name())

	cfg := config.DestinationJira{Backend: config.Backend{TempoToken: "t"}}
	backend, err = NewBackend(context.Background(), cfg, Clients{Jira: client, Tempo: &fakeTempo{}})
	require.NoError(t, err)
	require.IsType(t, &TempoBackend{}, backend)
	assert.Equal(t, "dst-acc", backend.(*TempoBackend).accountID)

	_, err = NewBackend(context.Background(), cfg, Clients{Jira: client})
	assert.Error(t, err)
}

func TestJiraBackend_WritesMarkedComments(t *testing.T) {
	t.Parallel()

	client := &fakeJira{worklogs: []jira.Worklog{
		{ID: "1", Comment: "TIMEMACHINE_WID 124: Code review", TimeSpentSeconds: 60},
		{ID: "2", Comment: "lunch"},
	}}
	backend := NewJiraBackend(client)

	listed, err := backend.ListIssueWorklogs(context.Background(), "ARIJ-1")
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "124", listed[0].SourceID)
	assert.Equal(t, "ARIJ-1", listed[0].IssueKey)
	assert.False(t, listed[1].Marked())

	id, err := backend.CreateWorklog(context.Background(), "ARIJ-1", sampleRecord)
	require.NoError(t, err)
	assert.Equal(t, "777", id)
	require.Len(t, client.added, 1)
	assert.Equal(t, "TIMEMACHINE_WID 124: Code review", client.added[0].Comment)
	assert.Equal(t, 1440, client.added[0].TimeSpentSeconds)

	require.NoError(t, backend.UpdateWorklog(context.Background(), listed[0], sampleRecord))
	assert.Equal(t, sampleRecord.StartedAt, client.updated["1"].Started)
}

func TestTempoBackend_UsesTempoIDsAndDestinationAuthor(t *testing.T) {
	t.Parallel()

	client := &fakeTempo{rows: []tempo.Worklog{
		{TempoWorklogID: 55, Description: "TIMEMACHINE_WID 124: old", StartDate: "2026-10-12", StartTime: "08:00:00", TimeSpentSeconds: 60},
	}}
	backend := NewTempoBackend(client, "dst-acc")

	listed, err := backend.ListIssueWorklogs(context.Background(), "ARIJ-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "55", listed[0].ID)
	assert.Equal(t, "old", listed[0].OriginalComment)

	id, err := backend.CreateWorklog(context.Background(), "ARIJ-1", sampleRecord)
	require.NoError(t, err)
	assert.Equal(t, "4242", id)
	require.Len(t, client.created, 1)
	assert.Equal(t, "dst-acc", client.created[0].AuthorAccountID)
	assert.Equal(t, "ARIJ-1", client.created[0].IssueKey)

	require.NoError(t, backend.UpdateWorklog(context.Background(), listed[0], sampleRecord))
	assert.Equal(t, "TIMEMACHINE_WID 124: Code review", client.updated[55].Description)

	err = backend.UpdateWorklog(context.Background(), worklog.DestinationWorklog{ID: "abc"}, sampleRecord)
	assert.Error(t, err)
}
