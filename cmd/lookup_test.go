package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/danielolaszy/slackjira/internal/config"
	"github.com/danielolaszy/slackjira/internal/mention"
	"github.com/danielolaszy/slackjira/pkg/models"
	"github.com/stretchr/testify/assert"
)

type stubFetcher map[string]models.TicketSummary

func (s stubFetcher) Fetch(ctx context.Context, key string) (*models.TicketSummary, bool) {
	summary, ok := s[key]
	if !ok {
		return nil, false
	}
	return &summary, true
}

func testFetcher() stubFetcher {
	assignee := "Jane Doe"
	return stubFetcher{
		"TICK-1": {
			Key:         "TICK-1",
			Title:       "Fix the login page",
			Status:      "Open",
			Priority:    "Major",
			Description: "Step one\nStep two",
			Link:        "https://jira.example.com/browse/TICK-1",
			Assignee:    &assignee,
			Estimate:    &models.Estimate{Original: "2d", Remaining: "1d"},
		},
	}
}

func TestPrintSummaries(t *testing.T) {
	testCases := []struct {
		name     string
		keys     []string
		full     bool
		expected string
		missing  []string
	}{
		{
			name: "Short summary",
			keys: []string{"tick-1"},
			expected: `[TICK-1] - Open - Fix the login page
  https://jira.example.com/browse/TICK-1
  Assigned to Jane Doe

`,
		},
		{
			name: "Full summary",
			keys: []string{"TICK-1"},
			full: true,
			expected: `[TICK-1] - Open - Fix the login page
  https://jira.example.com/browse/TICK-1
  Priority: Major
  Status: Open
  Original Estimate / Remaining Estimate: 2d / 1d
  | Step one
  | Step two
  Assigned to Jane Doe

`,
		},
		{
			name:    "Missing tickets are reported",
			keys:    []string{"FAKE-1", "fake-2"},
			missing: []string{"FAKE-1", "FAKE-2"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			missing := printSummaries(context.Background(), &buf, testFetcher(), tc.keys, tc.full)

			assert.Equal(t, tc.expected, buf.String())
			assert.Equal(t, tc.missing, missing)
		})
	}
}

func TestHandlerConfig(t *testing.T) {
	got := handlerConfig(config.HandlerConfig{
		MaxIssues:         7,
		ResponseThreshold: 2 * time.Minute,
		TicketCacheSize:   12,
		FullAttachments:   true,
	})

	assert.Equal(t, mention.Config{
		MaxIssues:         7,
		ResponseThreshold: 2 * time.Minute,
		TicketCacheSize:   12,
		FullAttachments:   true,
	}, got)
}
