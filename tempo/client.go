package tempo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"

	DefaultBaseURL  = "https://api.tempo.io/core/3"
	DefaultPageSize = 500
)

// Client defines the Tempo Cloud worklog operations.
type Client interface {
	ListUserWorklogs(ctx context.Context, accountID string, from, to time.Time) ([]Worklog, error)
	ListAllWorklogs(ctx context.Context, from, to time.Time) ([]Worklog, error)
	ListIssueWorklogs(ctx context.Context, issueKey string) ([]Worklog, error)
	CreateWorklog(ctx context.Context, input WorklogInput) (Worklog, error)
	UpdateWorklog(ctx context.Context, tempoWorklogID int64, input WorklogInput) (Worklog, error)
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type ClientConfig struct {
	BaseURL  string
	Token    string
	PageSize int
	Timeout  time.Duration
	// HTTPClient is used as is; the bearer token is then expected to be set by the caller.
	HTTPClient httpDoer
}

type HTTPClient struct {
	baseURL    string
	pageSize   int
	httpClient httpDoer
}

func NewClient(cfg ClientConfig) (*HTTPClient, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	parsedBase, err := url.Parse(baseURL)
	if err != nil || parsedBase.Scheme == "" || parsedBase.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", cfg.BaseURL)
	}

	doer := cfg.HTTPClient
	if doer == nil {
		token := strings.TrimSpace(cfg.Token)
		if token == "" {
			return nil, errors.New("tempo token is required")
		}
		httpClient := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
		}))
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient.Timeout = timeout
		doer = httpClient
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	return &HTTPClient{
		baseURL:    baseURL,
		pageSize:   pageSize,
		httpClient: doer,
	}, nil
}

type Issue struct {
	ID  int64  `json:"id"`
	Key string `json:"key"`
}

type Author struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName"`
}

// Worklog is a Tempo worklog row. StartDate and StartTime carry no zone and are read as UTC.
type Worklog struct {
	TempoWorklogID   int64  `json:"tempoWorklogId"`
	JiraWorklogID    *int64 `json:"jiraWorklogId"`
	Issue            Issue  `json:"issue"`
	TimeSpentSeconds int    `json:"timeSpentSeconds"`
	StartDate        string `json:"startDate"`
	StartTime        string `json:"startTime"`
	Description      string `json:"description"`
	Author           Author `json:"author"`
}

func (w Worklog) Started() (time.Time, error) {
	startTime := strings.TrimSpace(w.StartTime)
	if startTime == "" {
		startTime = "00:00:00"
	}
	started, err := time.ParseInLocation(dateLayout+" "+timeLayout, strings.TrimSpace(w.StartDate)+" "+startTime, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse start of tempo worklog %d: %w", w.TempoWorklogID, err)
	}
	return started, nil
}

type WorklogInput struct {
	IssueKey         string
	AuthorAccountID  string
	Started          time.Time
	TimeSpentSeconds int
	Description      string
}

type worklogPayload struct {
	Attributes       []any  `json:"attributes"`
	AuthorAccountID  string `json:"authorAccountId"`
	Description      string `json:"description"`
	IssueKey         string `json:"issueKey"`
	StartDate        string `json:"startDate"`
	StartTime        string `json:"startTime"`
	TimeSpentSeconds int    `json:"timeSpentSeconds"`
}

func (in WorklogInput) payload() worklogPayload {
	started := in.Started.UTC()
	return worklogPayload{
		Attributes:       []any{},
		AuthorAccountID:  in.AuthorAccountID,
		Description:      in.Description,
		IssueKey:         in.IssueKey,
		StartDate:        started.Format(dateLayout),
		StartTime:        started.Format(timeLayout),
		TimeSpentSeconds: in.TimeSpentSeconds,
	}
}

type pageMetadata struct {
	Count  int    `json:"count"`
	Offset int    `json:"offset"`
	Limit  int    `json:"limit"`
	Next   string `json:"next"`
}

type worklogPage struct {
	Metadata pageMetadata `json:"metadata"`
	Results  []Worklog    `json:"results"`
}

// ListUserWorklogs returns worklogs of one account whose start date lies in [from, to], both inclusive days.
func (c *HTTPClient) ListUserWorklogs(ctx context.Context, accountID string, from, to time.Time) ([]Worklog, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return nil, errors.New("account id is required")
	}
	return c.listPaged(ctx, "/worklogs/user/"+url.PathEscape(accountID), dateRange(from, to))
}

func (c *HTTPClient) ListAllWorklogs(ctx context.Context, from, to time.Time) ([]Worklog, error) {
	return c.listPaged(ctx, "/worklogs", dateRange(from, to))
}

func (c *HTTPClient) ListIssueWorklogs(ctx context.Context, issueKey string) ([]Worklog, error) {
	issueKey = strings.TrimSpace(issueKey)
	if issueKey == "" {
		return nil, errors.New("issue key is required")
	}
	return c.listPaged(ctx, "/worklogs/issue/"+url.PathEscape(issueKey), url.Values{})
}

func (c *HTTPClient) CreateWorklog(ctx context.Context, input WorklogInput) (Worklog, error) {
	var out Worklog
	if err := c.doJSON(ctx, http.MethodPost, "/worklogs", input.payload(), &out); err != nil {
		return Worklog{}, err
	}
	return out, nil
}

func (c *HTTPClient) UpdateWorklog(ctx context.Context, tempoWorklogID int64, input WorklogInput) (Worklog, error) {
	var out Worklog
	endpointPath := "/worklogs/" + strconv.FormatInt(tempoWorklogID, 10)
	if err := c.doJSON(ctx, http.MethodPut, endpointPath, input.payload(), &out); err != nil {
		return Worklog{}, err
	}
	return out, nil
}

// listPaged walks offset pagination until a page is empty or the server reports no next page.
func (c *HTTPClient) listPaged(ctx context.Context, endpointPath string, query url.Values) ([]Worklog, error) {
	result := make([]Worklog, 0)
	offset := 0
	for {
		query.Set("offset", strconv.Itoa(offset))
		query.Set("limit", strconv.Itoa(c.pageSize))

		var page worklogPage
		if err := c.doJSON(ctx, http.MethodGet, endpointPath+"?"+query.Encode(), nil, &page); err != nil {
			return nil, err
		}
		result = append(result, page.Results...)

		if len(page.Results) == 0 || strings.TrimSpace(page.Metadata.Next) == "" {
			return result, nil
		}
		offset += len(page.Results)
	}
}

func dateRange(from, to time.Time) url.Values {
	query := url.Values{}
	query.Set("from", from.UTC().Format(dateLayout))
	query.Set("to", to.UTC().Format(dateLayout))
	return query
}

func (c *HTTPClient) doJSON(ctx context.Context, method, endpointPath string, body any, out any) error {
	var bodyReader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpointPath, bodyReader)
	if err != nil {
		return fmt.Errorf("create request %s %s: %w", method, endpointPath, err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s failed: %w", method, endpointPath, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		responseBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf(
			"request %s %s failed with status %d: %s",
			method,
			endpointPath,
			resp.StatusCode,
			strings.TrimSpace(string(responseBody)),
		)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode response %s %s: %w", method, endpointPath, err)
	}
	return nil
}
