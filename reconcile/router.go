package reconcile

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNoDestination is returned when an issue is not mapped and no default issue is configured.
var ErrNoDestination = errors.New("no destination issue configured")

// Router maps source issue keys to destination issue keys.
type Router struct {
	issueMap     map[string]string
	defaultIssue string
}

func NewRouter(issueMap map[string]string, defaultIssue string) *Router {
	normalized := make(map[string]string, len(issueMap))
	for source, destination := range issueMap {
		normalized[normalizeKey(source)] = normalizeKey(destination)
	}
	return &Router{
		issueMap:     normalized,
		defaultIssue: normalizeKey(defaultIssue),
	}
}

func (r *Router) Route(issueKey string) (string, error) {
	if destination, ok := r.issueMap[normalizeKey(issueKey)]; ok {
		return destination, nil
	}
	if r.defaultIssue != "" {
		return r.defaultIssue, nil
	}
	return "", fmt.Errorf("%w for issue %s", ErrNoDestination, issueKey)
}

// Issues returns every destination issue a record can be routed to, sorted.
// Only these issues are scanned for previously synced worklogs.
func (r *Router) Issues() []string {
	unique := make(map[string]struct{}, len(r.issueMap)+1)
	for _, destination := range r.issueMap {
		unique[destination] = struct{}{}
	}
	if r.defaultIssue != "" {
		unique[r.defaultIssue] = struct{}{}
	}

	out := make([]string, 0, len(unique))
	for issue := range unique {
		out = append(out, issue)
	}
	sort.Strings(out)
	return out
}

func normalizeKey(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}
