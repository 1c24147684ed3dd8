// Package lookup resolves ticket keys to summaries, restricted to the
// projects known to the JIRA instance.
package lookup

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/danielolaszy/slackjira/internal/logging"
	"github.com/danielolaszy/slackjira/pkg/models"
)

var ticketKeyRe = regexp.MustCompile(`(?i)^[A-Z]{1,10}-[0-9]+$`)

// SummaryFields are the issue fields requested for a summary.
var SummaryFields = []string{
	"summary",
	"description",
	"priority",
	"status",
	"timetracking",
	"assignee",
}

// Tracker is the subset of the JIRA client used by the Gateway.
type Tracker interface {
	ListProjectKeys(ctx context.Context) ([]string, error)
	GetIssue(ctx context.Context, key string, fields []string) (*models.IssueRecord, error)
}

// Gateway fetches ticket summaries. It is safe for concurrent use.
type Gateway struct {
	tracker Tracker

	mu       sync.RWMutex
	projects map[string]bool
}

// NewGateway creates a Gateway and loads the known projects.
func NewGateway(ctx context.Context, tracker Tracker) (*Gateway, error) {
	g := &Gateway{tracker: tracker}
	if err := g.Refresh(ctx); err != nil {
		return nil, err
	}
	return g, nil
}

// Refresh reloads the known projects from JIRA.
func (g *Gateway) Refresh(ctx context.Context) error {
	keys, err := g.tracker.ListProjectKeys(ctx)
	if err != nil {
		return fmt.Errorf("failed to load jira projects: %w", err)
	}

	projects := make(map[string]bool, len(keys))
	for _, key := range keys {
		projects[strings.ToUpper(key)] = true
	}

	g.mu.Lock()
	g.projects = projects
	g.mu.Unlock()

	logging.Info("loaded jira projects", "count", len(projects))
	return nil
}

// Projects returns the known project keys, sorted.
func (g *Gateway) Projects() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	keys := make([]string, 0, len(g.projects))
	for key := range g.projects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// IsProject reports whether project is a known project key.
func (g *Gateway) IsProject(project string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.projects[project]
}

// Fetch returns the summary of the ticket with the given key. It returns
// false when the key is malformed, belongs to an unknown project or JIRA
// could not return the issue.
func (g *Gateway) Fetch(ctx context.Context, key string) (*models.TicketSummary, bool) {
	if !ticketKeyRe.MatchString(key) {
		logging.Warn("attempted to retrieve invalid ticket", "ticket", key)
		return nil, false
	}

	project, number, _ := strings.Cut(key, "-")
	project = strings.ToUpper(project)
	key = project + "-" + number

	if !g.IsProject(project) {
		logging.Warn("attempted to retrieve ticket of unknown project",
			"ticket", key,
			"project", project)
		return nil, false
	}

	record, err := g.tracker.GetIssue(ctx, key, SummaryFields)
	if err != nil {
		logging.Error("error loading issue",
			"ticket", key,
			"error", err)
		return nil, false
	}

	return toSummary(key, record), true
}

func toSummary(key string, record *models.IssueRecord) *models.TicketSummary {
	summary := &models.TicketSummary{
		Key:         key,
		Title:       record.Summary,
		Status:      record.Status,
		Priority:    record.Priority,
		Description: record.Description,
		Link:        record.Permalink,
		Assignee:    record.Assignee,
	}

	if record.OriginalEstimate != nil && record.RemainingEstimate != nil &&
		*record.OriginalEstimate != "" && *record.RemainingEstimate != "" {
		summary.Estimate = &models.Estimate{
			Original:  *record.OriginalEstimate,
			Remaining: *record.RemainingEstimate,
		}
	}

	return summary
}
