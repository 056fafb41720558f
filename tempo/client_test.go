package tempo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

type fakeDoer struct {
	fn func(r *http.Request) (*http.Response, error)
}

func (f fakeDoer) Do(r *http.Request) (*http.Response, error) {
	return f.fn(r)
}

func jsonResponse(payload any) *http.Response {
	body, _ := json.Marshal(payload)
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(string(body))),
		Header:     make(http.Header),
	}
}

func int64Ptr(value int64) *int64 {
	return &value
}

func TestNewClient_Validation(t *testing.T) {
	t.Parallel()

	if _, err := NewClient(ClientConfig{Token: ""}); err == nil {
		t.Fatalf("expected error for missing token")
	}
	if _, err := NewClient(ClientConfig{BaseURL: "not a url", Token: "x"}); err == nil {
		t.Fatalf("expected error for invalid base URL")
	}
	client, err := NewClient(ClientConfig{Token: "x"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.baseURL != DefaultBaseURL {
		t.Fatalf("unexpected base URL: %q", client.baseURL)
	}
}

func TestHTTPClient_ListUserWorklogsPaginates(t *testing.T) {
	t.Parallel()

	var offsets []string
	doer := fakeDoer{fn: func(r *http.Request) (*http.Response, error) {
		if r.Method != http.MethodGet || r.URL.Path != "/core/3/worklogs/user/acc-1" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		query := r.URL.Query()
		if query.Get("from") != "2026-10-10" || query.Get("to") != "2026-10-15" {
			t.Fatalf("unexpected date range: %s", r.URL.RawQuery)
		}
		if query.Get("limit") != "2" {
			t.Fatalf("unexpected limit: %q", query.Get("limit"))
		}
		offsets = append(offsets, query.Get("offset"))

		switch query.Get("offset") {
		case "0":
			return jsonResponse(worklogPage{
				Metadata: pageMetadata{Count: 2, Offset: 0, Limit: 2, Next: "https://api.tempo.io/core/3/worklogs/user/acc-1?offset=2"},
				Results: []Worklog{
					{TempoWorklogID: 1, JiraWorklogID: int64Ptr(101), Issue: Issue{Key: "JIRA-1"}, TimeSpentSeconds: 60, StartDate: "2026-10-10", StartTime: "09:00:00"},
					{TempoWorklogID: 2, JiraWorklogID: int64Ptr(102), Issue: Issue{Key: "JIRA-1"}, TimeSpentSeconds: 120, StartDate: "2026-10-11", StartTime: "10:00:00"},
				},
			}), nil
		case "2":
			return jsonResponse(worklogPage{
				Metadata: pageMetadata{Count: 1, Offset: 2, Limit: 2},
				Results: []Worklog{
					{TempoWorklogID: 3, JiraWorklogID: int64Ptr(103), Issue: Issue{Key: "JIRA-2"}, TimeSpentSeconds: 180, StartDate: "2026-10-12", StartTime: "11:00:00"},
				},
			}), nil
		default:
			t.Fatalf("unexpected offset %q", query.Get("offset"))
			return nil, nil
		}
	}}

	client, err := NewClient(ClientConfig{BaseURL: "https://api.tempo.io/core/3/", PageSize: 2, HTTPClient: doer})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	from := time.Date(2026, 10, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 10, 15, 14, 0, 0, 0, time.UTC)
	worklogs, err := client.ListUserWorklogs(context.Background(), "acc-1", from, to)
	if err != nil {
		t.Fatalf("list worklogs: %v", err)
	}
	if len(worklogs) != 3 {
		t.Fatalf("expected 3 worklogs, got %d", len(worklogs))
	}
	if strings.Join(offsets, ",") != "0,2" {
		t.Fatalf("unexpected offsets: %v", offsets)
	}
	started, err := worklogs[2].Started()
	if err != nil {
		t.Fatalf("started: %v", err)
	}
	if !started.Equal(time.Date(2026, 10, 12, 11, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start: %s", started)
	}
}

func TestHTTPClient_ListIssueWorklogsStopsOnEmptyPage(t *testing.T) {
	t.Parallel()

	calls := 0
	doer := fakeDoer{fn: func(r *http.Request) (*http.Response, error) {
		calls++
		if r.URL.Path != "/core/3/worklogs/issue/ARIJ-1" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("offset") == "0" {
			return jsonResponse(worklogPage{
				Metadata: pageMetadata{Count: 1, Next: "more"},
				Results:  []Worklog{{TempoWorklogID: 7, Issue: Issue{Key: "ARIJ-1"}, Description: "TIMEMACHINE_WID 1:"}},
			}), nil
		}
		return jsonResponse(worklogPage{Metadata: pageMetadata{Next: "more"}}), nil
	}}

	client, err := NewClient(ClientConfig{HTTPClient: doer})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	worklogs, err := client.ListIssueWorklogs(context.Background(), "ARIJ-1")
	if err != nil {
		t.Fatalf("list issue worklogs: %v", err)
	}
	if len(worklogs) != 1 || calls != 2 {
		t.Fatalf("unexpected result: worklogs=%d calls=%d", len(worklogs), calls)
	}
}

func TestHTTPClient_CreateAndUpdatePayload(t *testing.T) {
	t.Parallel()

	var seen []string
	doer := fakeDoer{fn: func(r *http.Request) (*http.Response, error) {
		var payload worklogPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode payload: %v", err)
		}
		if payload.IssueKey != "ARIJ-1" || payload.AuthorAccountID != "dst-acc" {
			t.Fatalf("unexpected payload identity: %+v", payload)
		}
		if payload.StartDate != "2026-10-12" || payload.StartTime != "07:15:00" {
			t.Fatalf("unexpected payload start: %s %s", payload.StartDate, payload.StartTime)
		}
		if payload.Attributes == nil {
			t.Fatalf("attributes must be sent as an empty list")
		}
		seen = append(seen, fmt.Sprintf("%s %s", r.Method, r.URL.Path))
		return jsonResponse(Worklog{TempoWorklogID: 99, Issue: Issue{Key: payload.IssueKey}, Description: payload.Description}), nil
	}}

	client, err := NewClient(ClientConfig{HTTPClient: doer})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	input := WorklogInput{
		IssueKey:         "ARIJ-1",
		AuthorAccountID:  "dst-acc",
		Started:          time.Date(2026, 10, 12, 9, 15, 0, 0, time.FixedZone("CEST", 2*60*60)),
		TimeSpentSeconds: 900,
		Description:      "TIMEMACHINE_WID 1: standup",
	}
	created, err := client.CreateWorklog(context.Background(), input)
	if err != nil {
		t.Fatalf("create worklog: %v", err)
	}
	if created.TempoWorklogID != 99 {
		t.Fatalf("unexpected created id: %d", created.TempoWorklogID)
	}
	if _, err := client.UpdateWorklog(context.Background(), 99, input); err != nil {
		t.Fatalf("update worklog: %v", err)
	}

	want := []string{"POST /core/3/worklogs", "PUT /core/3/worklogs/99"}
	if strings.Join(seen, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected requests: %v", seen)
	}
}

func TestHTTPClient_StatusErrorIncludesBody(t *testing.T) {
	t.Parallel()

	doer := fakeDoer{fn: func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusUnauthorized,
			Body:       io.NopCloser(strings.NewReader(`{"errors":[{"message":"bad token"}]}`)),
			Header:     make(http.Header),
		}, nil
	}}

	client, err := NewClient(ClientConfig{HTTPClient: doer})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.ListAllWorklogs(context.Background(), time.Now(), time.Now())
	if err == nil || !strings.Contains(err.Error(), "status 401") || !strings.Contains(err.Error(), "bad token") {
		t.Fatalf("unexpected error: %v", err)
	}
}
