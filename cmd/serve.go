package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danielolaszy/slackjira/internal/config"
	"github.com/danielolaszy/slackjira/internal/logging"
	"github.com/danielolaszy/slackjira/internal/mention"
	"github.com/danielolaszy/slackjira/internal/slackbot"
	"github.com/spf13/cobra"
)

// serveCmd runs the bot until it receives SIGINT or SIGTERM.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Slack bot",
	Long: `Connect to Slack over Socket Mode and answer JIRA ticket mentions.

Every message in a channel the bot is a member of, and every direct message,
is scanned for ticket keys. A ticket is only summarized again in the same
channel once the response threshold has passed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		if err := config.ValidateSlackConfig(cfg); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	logging.Info("loading configuration",
		"jira_url", cfg.Jira.URL,
		"jira_auth", cfg.Jira.Auth,
		"slack_bot_token", logging.MaskSensitive(cfg.Slack.BotToken),
		"slack_app_token", logging.MaskSensitive(cfg.Slack.AppToken))

	gateway, err := newGateway(ctx, cfg)
	if err != nil {
		return err
	}

	bot, err := slackbot.New(slackbot.Config{
		BotToken: cfg.Slack.BotToken,
		AppToken: cfg.Slack.AppToken,
		BotEmoji: cfg.Slack.BotEmoji,
		BotIcon:  cfg.Slack.BotIcon,
		ErrorsTo: cfg.Slack.ErrorsTo,
		Debug:    cfg.Slack.Debug,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize slack bot: %w", err)
	}

	handler, err := mention.NewHandler(handlerConfig(cfg.Handler), gateway, bot)
	if err != nil {
		return fmt.Errorf("failed to initialize message handler: %w", err)
	}

	effective := handler.Config()
	logging.Info("starting slack bot",
		"max_issues", effective.MaxIssues,
		"response_threshold", effective.ResponseThreshold,
		"ticket_cache_size", effective.TicketCacheSize,
		"full_attachments", effective.FullAttachments,
		"projects", len(gateway.Projects()))

	go refreshOnHangup(ctx, gateway)

	if err := bot.Run(ctx, handler); err != nil {
		return err
	}

	logging.Info("slack bot stopped")
	return nil
}

// projectRefresher reloads the known JIRA projects.
type projectRefresher interface {
	Refresh(ctx context.Context) error
}

// refreshOnHangup reloads the known projects whenever the process receives
// SIGHUP, so new JIRA projects are picked up without a restart.
func refreshOnHangup(ctx context.Context, r projectRefresher) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := r.Refresh(ctx); err != nil {
				logging.Error("failed to refresh jira projects", "error", err)
			}
		}
	}
}
