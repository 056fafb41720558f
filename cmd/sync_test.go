package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timemachine/config"
	"timemachine/internal/classify"
	"timemachine/internal/timeutil"
	"timemachine/source"
	"timemachine/submitter"
)

type fakeWorklog struct {
	ID               string         `json:"id"`
	Comment          string         `json:"comment"`
	Started          string         `json:"started"`
	TimeSpentSeconds int            `json:"timeSpentSeconds"`
	Author           map[string]any `json:"author,omitempty"`
}

// fakeJiraServer serves the Jira REST endpoints used by sync from memory.
type fakeJiraServer struct {
	mu        sync.Mutex
	accountID string
	issues    []string
	worklogs  map[string][]fakeWorklog
	nextID    int
	writes    int
}

func newFakeJiraServer(t *testing.T, accountID string) (*fakeJiraServer, *httptest.Server) {
	t.Helper()
	fake := &fakeJiraServer{accountID: accountID, worklogs: map[string][]fakeWorklog{}, nextID: 5000}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	return fake, server
}

func (f *fakeJiraServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/rest/api/2/")
	parts := strings.Split(path, "/")
	switch {
	case path == "myself":
		writeFakeJSON(w, map[string]any{"accountId": f.accountID})
	case path == "search":
		issues := make([]map[string]any, 0, len(f.issues))
		for i, key := range f.issues {
			issues = append(issues, map[string]any{"id": strconv.Itoa(i + 1), "key": key})
		}
		writeFakeJSON(w, map[string]any{"startAt": 0, "maxResults": 50, "total": len(issues), "issues": issues})
	case len(parts) >= 3 && parts[0] == "issue" && parts[2] == "worklog":
		f.serveWorklogs(w, r, parts)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeJiraServer) serveWorklogs(w http.ResponseWriter, r *http.Request, parts []string) {
	issue := parts[1]
	switch r.Method {
	case http.MethodGet:
		items := f.worklogs[issue]
		writeFakeJSON(w, map[string]any{"startAt": 0, "maxResults": len(items), "total": len(items), "worklogs": items})
	case http.MethodPost:
		var item fakeWorklog
		if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.nextID++
		f.writes++
		item.ID = strconv.Itoa(f.nextID)
		f.worklogs[issue] = append(f.worklogs[issue], item)
		writeFakeJSON(w, item)
	case http.MethodPut:
		var item fakeWorklog
		if err := json.NewDecoder(r.Body).Decode(&item); err != nil || len(parts) < 4 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.writes++
		for i, existing := range f.worklogs[issue] {
			if existing.ID == parts[3] {
				item.ID = existing.ID
				f.worklogs[issue][i] = item
			}
		}
		writeFakeJSON(w, item)
	}
}

func writeFakeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

func testConfig(sourceURL, destinationURL string) *config.Config {
	return &config.Config{
		Source: config.SourceJira{
			Backend:    config.Backend{URL: sourceURL, Email: "me@example.com", JiraToken: "src"},
			ProjectKey: "JIRA",
		},
		Destination: config.DestinationJira{
			Backend: config.Backend{URL: destinationURL, Email: "me@example.com", JiraToken: "dst"},
			Issue:   "ARIJ-1",
		},
		IssueMap: map[string]string{"SRC-1": "DST-1"},
		Sync:     config.SyncConfig{Parallelism: 2, RequestTimeout: 5 * time.Second},
	}
}

func TestSync_EndToEndAgainstJiraAPIs(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	window, err := timeutil.ResolveWindow(1, now)
	require.NoError(t, err)

	src, srcServer := newFakeJiraServer(t, "src-me")
	src.issues = []string{"JIRA-101"}
	src.worklogs["JIRA-101"] = []fakeWorklog{
		{ID: "124", Comment: "Code review", Started: "2026-10-15T08:30:00.000+0000", TimeSpentSeconds: 1440, Author: map[string]any{"accountId": "src-me"}},
		{ID: "125", Comment: "someone else", Started: "2026-10-15T09:00:00.000+0000", TimeSpentSeconds: 60, Author: map[string]any{"accountId": "other"}},
	}
	dst, dstServer := newFakeJiraServer(t, "dst-me")
	dst.worklogs["ARIJ-1"] = []fakeWorklog{{ID: "1", Comment: "manual entry", Started: "2026-10-15T07:00:00.000+0000", TimeSpentSeconds: 600}}

	cfg := testConfig(srcServer.URL, dstServer.URL)

	plan, err := buildPlan(ctx, cfg, window, source.Options{})
	require.NoError(t, err)
	require.Len(t, plan.Decisions, 1)
	assert.Len(t, classify.Mismatches(plan.Decisions, plan.Index.Duplicates()), 1)

	report := submitter.Apply(ctx, plan.Destination, plan.Decisions, submitter.Options{Parallelism: 2})
	require.NoError(t, report.Err())
	assert.Equal(t, 1, report.Created)

	require.Len(t, dst.worklogs["ARIJ-1"], 2)
	copied := dst.worklogs["ARIJ-1"][1]
	assert.Equal(t, "TIMEMACHINE_WID 124: Code review", copied.Comment)
	assert.Equal(t, 1440, copied.TimeSpentSeconds)
	assert.Equal(t, "manual entry", dst.worklogs["ARIJ-1"][0].Comment)

	rerun, err := buildPlan(ctx, cfg, window, source.Options{})
	require.NoError(t, err)
	assert.Empty(t, rerun.Pending())
	assert.Empty(t, classify.Mismatches(rerun.Decisions, rerun.Index.Duplicates()))

	src.worklogs["JIRA-101"][0].TimeSpentSeconds = 1800
	changed, err := buildPlan(ctx, cfg, window, source.Options{})
	require.NoError(t, err)
	report = submitter.Apply(ctx, changed.Destination, changed.Decisions, submitter.Options{})
	require.NoError(t, report.Err())
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1800, dst.worklogs["ARIJ-1"][1].TimeSpentSeconds)
	assert.Equal(t, 2, dst.writes)
}

func TestBuildClients_CreatesTempoClientOnlyWithToken(t *testing.T) {
	t.Parallel()

	plain, err := buildClients(config.Backend{URL: "https://jira.example.com", JiraToken: "x"}, config.SyncConfig{})
	require.NoError(t, err)
	assert.NotNil(t, plain.Jira)
	assert.Nil(t, plain.Tempo)

	withTempo, err := buildClients(config.Backend{URL: "https://jira.example.com", JiraToken: "x", TempoToken: "t", TempoURL: config.DefaultTempoURL}, config.SyncConfig{})
	require.NoError(t, err)
	assert.NotNil(t, withTempo.Tempo)
}
