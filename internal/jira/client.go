// Package jira provides the JIRA client used to look up tickets.
package jira

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	jira "github.com/andygrunwald/go-jira"
	"github.com/danielolaszy/slackjira/internal/config"
	"github.com/danielolaszy/slackjira/internal/logging"
	"github.com/danielolaszy/slackjira/pkg/models"
	"golang.org/x/oauth2"
)

// ErrNotInitialized is returned by methods of a Client without a JIRA
// connection.
var ErrNotInitialized = errors.New("JIRA client not initialized")

// Client handles interactions with the JIRA API
type Client struct {
	client  *jira.Client
	baseURL string
}

// NewClient creates a new JIRA client from the given configuration.
func NewClient(cfg config.JiraConfig) (*Client, error) {
	if err := config.ValidateJiraConfig(&config.Config{Jira: cfg}); err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultJiraTimeout
	}

	var httpClient *http.Client
	switch cfg.Auth {
	case config.JiraAuthToken:
		// Personal access tokens are sent as bearer tokens
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	default:
		tp := jira.BasicAuthTransport{
			Username: cfg.Username,
			Password: cfg.Token,
		}
		httpClient = tp.Client()
	}
	httpClient.Timeout = timeout

	baseURL := strings.TrimSuffix(cfg.URL, "/")
	client, err := jira.NewClient(httpClient, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create jira client: %w", err)
	}

	logging.Debug("jira client created",
		"url", baseURL,
		"auth", cfg.Auth,
		"username", cfg.Username,
		"token", logging.MaskSensitive(cfg.Token),
		"timeout", timeout)

	return &Client{
		client:  client,
		baseURL: baseURL,
	}, nil
}

// ListProjectKeys returns the keys of all projects visible to the
// authenticated user.
func (c *Client) ListProjectKeys(ctx context.Context) ([]string, error) {
	if c.client == nil {
		return nil, ErrNotInitialized
	}

	projects, resp, err := c.client.Project.GetListWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list jira projects: %w", wrapResponseError(resp, err))
	}

	keys := make([]string, 0, len(*projects))
	for _, project := range *projects {
		keys = append(keys, project.Key)
	}

	return keys, nil
}

// GetIssue fetches the given fields of an issue.
func (c *Client) GetIssue(ctx context.Context, key string, fields []string) (*models.IssueRecord, error) {
	if c.client == nil {
		return nil, ErrNotInitialized
	}

	issue, resp, err := c.client.Issue.GetWithContext(ctx, key, &jira.GetQueryOptions{
		Fields: strings.Join(fields, ","),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get jira issue %s: %w", key, wrapResponseError(resp, err))
	}
	if issue.Fields == nil {
		return nil, fmt.Errorf("jira issue %s has no fields", key)
	}

	return c.toRecord(issue), nil
}

// Permalink returns the browser URL of an issue.
func (c *Client) Permalink(key string) string {
	return fmt.Sprintf("%s/browse/%s", c.baseURL, key)
}

func (c *Client) toRecord(issue *jira.Issue) *models.IssueRecord {
	fields := issue.Fields
	record := &models.IssueRecord{
		Key:         issue.Key,
		Summary:     fields.Summary,
		Description: fields.Description,
		Permalink:   c.Permalink(issue.Key),
	}

	if fields.Status != nil {
		record.Status = fields.Status.Name
	}
	if fields.Priority != nil {
		record.Priority = fields.Priority.Name
	}
	if fields.Assignee != nil && fields.Assignee.DisplayName != "" {
		record.Assignee = stringPtr(fields.Assignee.DisplayName)
	}
	if tt := fields.TimeTracking; tt != nil {
		if tt.OriginalEstimate != "" {
			record.OriginalEstimate = stringPtr(tt.OriginalEstimate)
		}
		if tt.RemainingEstimate != "" {
			record.RemainingEstimate = stringPtr(tt.RemainingEstimate)
		}
	}

	return record
}

// wrapResponseError adds the HTTP status to err when JIRA answered.
func wrapResponseError(resp *jira.Response, err error) error {
	if resp == nil || resp.Response == nil {
		return err
	}
	return fmt.Errorf("%w (status: %d)", err, resp.StatusCode)
}

func stringPtr(s string) *string {
	return &s
}
