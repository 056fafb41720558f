package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"timemachine/internal/logging"
	"timemachine/internal/timeutil"
	"timemachine/jira"
	"timemachine/worklog"
)

const jqlDateLayout = "2006-01-02"

// JiraFetcher reads worklogs through the plain Jira API. It is limited to one
// project because Jira has no cross-project worklog search.
type JiraFetcher struct {
	client      jira.Client
	projectKey  string
	accountID   string
	allUsers    bool
	parallelism int
}

func NewJiraFetcher(client jira.Client, projectKey, accountID string, opts Options) *JiraFetcher {
	return &JiraFetcher{
		client:      client,
		projectKey:  projectKey,
		accountID:   accountID,
		allUsers:    opts.AllUsers,
		parallelism: opts.Parallelism,
	}
}

func (f *JiraFetcher) Name() string {
	return BackendJira
}

func (f *JiraFetcher) Fetch(ctx context.Context, window timeutil.Window) ([]worklog.Record, error) {
	issueKeys, err := f.updatedIssues(ctx, window)
	if err != nil {
		return nil, err
	}
	logging.Info("listing source worklogs", "project", f.projectKey, "issues", len(issueKeys))

	perIssue := make([][]jira.Worklog, len(issueKeys))
	p := pool.New().
		WithContext(ctx).
		WithMaxGoroutines(max(f.parallelism, 1)).
		WithCancelOnError().
		WithFirstError()
	for i, issueKey := range issueKeys {
		p.Go(func(ctx context.Context) error {
			worklogs, err := f.client.ListWorklogs(ctx, issueKey)
			if err != nil {
				return fetchError(BackendJira, issueKey, err)
			}
			perIssue[i] = worklogs
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	records := make([]worklog.Record, 0)
	for _, worklogs := range perIssue {
		for _, item := range worklogs {
			if !f.allUsers && item.Author.ID() != f.accountID {
				continue
			}
			record := worklog.Record{
				SourceID:         item.ID,
				IssueKey:         item.IssueKey,
				Author:           item.Author.ID(),
				StartedAt:        item.Started,
				TimeSpentSeconds: item.TimeSpentSeconds,
				Comment:          item.Comment,
			}
			if accept(record, window) {
				records = append(records, record)
			}
		}
	}
	return records, nil
}

// updatedIssues pages through the project issues updated since the window start.
func (f *JiraFetcher) updatedIssues(ctx context.Context, window timeutil.Window) ([]string, error) {
	jql := IssueJQL(f.projectKey, window)

	keys := make([]string, 0)
	startAt := 0
	for {
		page, err := f.client.SearchIssueKeys(ctx, jql, startAt, jira.SearchPageSize)
		if err != nil {
			return nil, fetchError(BackendJira, "", err)
		}
		keys = append(keys, page...)
		if len(page) < jira.SearchPageSize {
			return keys, nil
		}
		startAt += len(page)
	}
}

// IssueJQL selects issues that may carry worklogs started inside the window.
// A worklog cannot start after its issue was last updated.
func IssueJQL(projectKey string, window timeutil.Window) string {
	project := strings.ReplaceAll(projectKey, `"`, `\"`)
	return fmt.Sprintf(`project = "%s" AND updated >= "%s" ORDER BY key ASC`, project, window.Start.UTC().Format(jqlDateLayout))
}
