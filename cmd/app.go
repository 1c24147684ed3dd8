package cmd

import (
	"context"
	"fmt"

	"github.com/danielolaszy/slackjira/internal/config"
	"github.com/danielolaszy/slackjira/internal/jira"
	"github.com/danielolaszy/slackjira/internal/lookup"
	"github.com/danielolaszy/slackjira/internal/mention"
)

// newGateway connects to JIRA and loads the known projects.
func newGateway(ctx context.Context, cfg *config.Config) (*lookup.Gateway, error) {
	if err := config.ValidateJiraConfig(cfg); err != nil {
		return nil, err
	}

	jiraClient, err := jira.NewClient(cfg.Jira)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize jira client: %w", err)
	}

	gateway, err := lookup.NewGateway(ctx, jiraClient)
	if err != nil {
		return nil, err
	}

	return gateway, nil
}

// handlerConfig converts the loaded settings into the mention handler's
// configuration.
func handlerConfig(cfg config.HandlerConfig) mention.Config {
	return mention.Config{
		MaxIssues:         cfg.MaxIssues,
		ResponseThreshold: cfg.ResponseThreshold,
		TicketCacheSize:   cfg.TicketCacheSize,
		FullAttachments:   cfg.FullAttachments,
	}
}
