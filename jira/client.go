package jira

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	gojira "github.com/andygrunwald/go-jira"
)

// SearchPageSize is the number of issues requested per search page.
const SearchPageSize = 50

// Client defines the Jira REST operations needed to read and write worklogs.
type Client interface {
	Myself(ctx context.Context) (User, error)
	SearchIssueKeys(ctx context.Context, jql string, startAt, maxResults int) ([]string, error)
	ListWorklogs(ctx context.Context, issueKey string) ([]Worklog, error)
	AddWorklog(ctx context.Context, issueKey string, input WorklogInput) (Worklog, error)
	UpdateWorklog(ctx context.Context, issueKey, worklogID string, input WorklogInput) (Worklog, error)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	BaseURL  string
	Email    string
	APIToken string
	// HTTPClient replaces the basic auth transport, mostly for tests.
	HTTPClient httpDoer
	Timeout    time.Duration
}

type HTTPClient struct {
	api *gojira.Client
}

type User struct {
	AccountID   string
	Name        string
	DisplayName string
}

// ID returns the identifier used to compare worklog authors.
// Jira Cloud exposes account ids, Jira Server only user names.
func (u User) ID() string {
	if u.AccountID != "" {
		return u.AccountID
	}
	return u.Name
}

type Worklog struct {
	ID               string
	IssueKey         string
	Author           User
	Started          time.Time
	TimeSpentSeconds int
	Comment          string
}

type WorklogInput struct {
	Started          time.Time
	TimeSpentSeconds int
	Comment          string
}

func NewClient(cfg ClientConfig) (*HTTPClient, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, errors.New("base URL is required")
	}

	doer := cfg.HTTPClient
	if doer == nil {
		transport := gojira.BasicAuthTransport{
			Username: strings.TrimSpace(cfg.Email),
			Password: strings.TrimSpace(cfg.APIToken),
		}
		httpClient := transport.Client()
		httpClient.Timeout = cfg.Timeout
		doer = httpClient
	}

	api, err := gojira.NewClient(doer, baseURL)
	if err != nil {
		return nil, fmt.Errorf("create jira client for %q: %w", cfg.BaseURL, err)
	}
	return &HTTPClient{api: api}, nil
}

func (c *HTTPClient) Myself(ctx context.Context) (User, error) {
	self, resp, err := c.api.User.GetSelfWithContext(ctx)
	if err != nil {
		return User{}, wrapResponseError("get current user", resp, err)
	}
	return toUser(self), nil
}

func (c *HTTPClient) SearchIssueKeys(ctx context.Context, jql string, startAt, maxResults int) ([]string, error) {
	issues, resp, err := c.api.Issue.SearchWithContext(ctx, jql, &gojira.SearchOptions{
		StartAt:    startAt,
		MaxResults: maxResults,
		Fields:     []string{"key"},
	})
	if err != nil {
		return nil, wrapResponseError("search issues", resp, err)
	}

	keys := make([]string, 0, len(issues))
	for _, issue := range issues {
		keys = append(keys, issue.Key)
	}
	return keys, nil
}

// ListWorklogs returns every worklog of an issue, following startAt pagination.
func (c *HTTPClient) ListWorklogs(ctx context.Context, issueKey string) ([]Worklog, error) {
	result := make([]Worklog, 0)
	startAt := 0
	for {
		page, resp, err := c.api.Issue.GetWorklogsWithContext(ctx, issueKey, withStartAt(startAt))
		if err != nil {
			return nil, wrapResponseError("list worklogs of "+issueKey, resp, err)
		}
		for _, record := range page.Worklogs {
			result = append(result, toWorklog(issueKey, record))
		}

		startAt += len(page.Worklogs)
		if len(page.Worklogs) == 0 || startAt >= page.Total {
			return result, nil
		}
	}
}

func (c *HTTPClient) AddWorklog(ctx context.Context, issueKey string, input WorklogInput) (Worklog, error) {
	record, resp, err := c.api.Issue.AddWorklogRecordWithContext(ctx, issueKey, toRecord(input))
	if err != nil {
		return Worklog{}, wrapResponseError("add worklog to "+issueKey, resp, err)
	}
	return toWorklog(issueKey, *record), nil
}

func (c *HTTPClient) UpdateWorklog(ctx context.Context, issueKey, worklogID string, input WorklogInput) (Worklog, error) {
	record, resp, err := c.api.Issue.UpdateWorklogRecordWithContext(ctx, issueKey, worklogID, toRecord(input))
	if err != nil {
		return Worklog{}, wrapResponseError(fmt.Sprintf("update worklog %s on %s", worklogID, issueKey), resp, err)
	}
	return toWorklog(issueKey, *record), nil
}

func withStartAt(startAt int) func(*http.Request) error {
	return func(req *http.Request) error {
		query := req.URL.Query()
		query.Set("startAt", strconv.Itoa(startAt))
		req.URL.RawQuery = query.Encode()
		return nil
	}
}

func toRecord(input WorklogInput) *gojira.WorklogRecord {
	started := gojira.Time(input.Started.UTC())
	return &gojira.WorklogRecord{
		Comment:          input.Comment,
		Started:          &started,
		TimeSpentSeconds: input.TimeSpentSeconds,
	}
}

func toWorklog(issueKey string, record gojira.WorklogRecord) Worklog {
	worklog := Worklog{
		ID:               record.ID,
		IssueKey:         issueKey,
		TimeSpentSeconds: record.TimeSpentSeconds,
		Comment:          record.Comment,
	}
	if record.Author != nil {
		worklog.Author = toUser(record.Author)
	}
	if record.Started != nil {
		worklog.Started = time.Time(*record.Started).UTC()
	}
	return worklog
}

func toUser(user *gojira.User) User {
	if user == nil {
		return User{}
	}
	return User{
		AccountID:   user.AccountID,
		Name:        user.Name,
		DisplayName: user.DisplayName,
	}
}

func wrapResponseError(operation string, resp *gojira.Response, err error) error {
	if resp != nil && resp.Response != nil {
		return fmt.Errorf("%s failed with status %d: %w", operation, resp.StatusCode, gojira.NewJiraError(resp, err))
	}
	return fmt.Errorf("%s failed: %w", operation, err)
}
