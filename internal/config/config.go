// Package config provides centralized configuration management for the application.
package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// JIRA authentication methods.
const (
	// JiraAuthBasic authenticates with username and API token
	JiraAuthBasic = "basic"
	// JiraAuthToken authenticates with a personal access token
	JiraAuthToken = "token"
)

// DefaultJiraTimeout bounds a single JIRA request.
const DefaultJiraTimeout = 10 * time.Second

// Config holds all configuration parameters for the application.
type Config struct {
	Jira    JiraConfig
	Slack   SlackConfig
	Handler HandlerConfig
	Log     LogConfig
}

// JiraConfig holds JIRA specific configuration.
type JiraConfig struct {
	URL      string
	Username string
	Token    string
	Auth     string
	Timeout  time.Duration
}

// SlackConfig holds Slack specific configuration.
type SlackConfig struct {
	BotToken string
	AppToken string
	BotEmoji string
	BotIcon  string
	ErrorsTo string
	Debug    bool
}

// HandlerConfig holds the settings of the ticket mention handler.
type HandlerConfig struct {
	MaxIssues         int
	ResponseThreshold time.Duration
	TicketCacheSize   int
	FullAttachments   bool
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// env maps configuration keys to the environment variables overriding them.
var env = map[string]string{
	"jira.url":                                "JIRA_URL",
	"jira.username":                           "JIRA_USERNAME",
	"jira.token":                              "JIRA_TOKEN",
	"jira.auth":                               "JIRA_AUTH",
	"jira.timeout":                            "JIRA_TIMEOUT",
	"slack.bot_token":                         "SLACK_BOT_TOKEN",
	"slack.app_token":                         "SLACK_APP_TOKEN",
	"slack.bot_emoji":                         "SLACK_BOT_EMOJI",
	"slack.bot_icon":                          "SLACK_BOT_ICON",
	"slack.errors_to":                         "SLACK_ERRORS_TO",
	"slack.debug":                             "SLACK_DEBUG",
	"jira_message_handler.max_issues":         "MAX_ISSUES",
	"jira_message_handler.response_threshold": "RESPONSE_THRESHOLD",
	"jira_message_handler.ticket_cache_size":  "TICKET_CACHE_SIZE",
	"jira_message_handler.full_attachments":   "FULL_ATTACHMENTS",
	"log.level":                               "LOG_LEVEL",
	"log.format":                              "LOG_FORMAT",
}

// legacyKeys maps configuration keys to the names used by older config
// files, read when the current key is not set.
var legacyKeys = map[string]string{
	"jira.url":        "jira.server",
	"slack.bot_token": "slackbot.api_token",
	"slack.bot_emoji": "slackbot.bot_emoji",
	"slack.bot_icon":  "slackbot.bot_icon",
	"slack.errors_to": "slackbot.errors_to",
}

// getString returns the value of key, falling back to its legacy name.
func getString(v *viper.Viper, key string) string {
	if value := v.GetString(key); value != "" {
		return value
	}
	if legacy, ok := legacyKeys[key]; ok {
		return v.GetString(legacy)
	}
	return ""
}

// LoadConfig loads configuration from the INI file at path, if path is not
// empty, and from environment variables, which take precedence.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, name := range env {
		if err := v.BindEnv(key, name); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", name, err)
		}
	}

	v.SetDefault("jira.auth", JiraAuthBasic)
	v.SetDefault("jira.timeout", int(DefaultJiraTimeout/time.Second))
	v.SetDefault("jira_message_handler.full_attachments", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	if path != "" {
		v.SetConfigFile(path)
		if filepath.Ext(path) == "" {
			v.SetConfigType("ini")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	config := &Config{
		Jira: JiraConfig{
			URL:      getString(v, "jira.url"),
			Username: v.GetString("jira.username"),
			Token:    v.GetString("jira.token"),
			Auth:     strings.ToLower(v.GetString("jira.auth")),
			Timeout:  time.Duration(v.GetInt("jira.timeout")) * time.Second,
		},
		Slack: SlackConfig{
			BotToken: getString(v, "slack.bot_token"),
			AppToken: v.GetString("slack.app_token"),
			BotEmoji: getString(v, "slack.bot_emoji"),
			BotIcon:  getString(v, "slack.bot_icon"),
			ErrorsTo: getString(v, "slack.errors_to"),
			Debug:    v.GetBool("slack.debug"),
		},
		Handler: HandlerConfig{
			MaxIssues:         v.GetInt("jira_message_handler.max_issues"),
			ResponseThreshold: time.Duration(v.GetInt("jira_message_handler.response_threshold")) * time.Second,
			TicketCacheSize:   v.GetInt("jira_message_handler.ticket_cache_size"),
			FullAttachments:   v.GetBool("jira_message_handler.full_attachments"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// validateConfig checks the settings every command depends on.
func validateConfig(config *Config) error {
	switch config.Jira.Auth {
	case JiraAuthBasic, JiraAuthToken:
	default:
		return fmt.Errorf("unsupported jira auth method %q, expected %q or %q",
			config.Jira.Auth, JiraAuthBasic, JiraAuthToken)
	}

	h := config.Handler
	if h.MaxIssues < 0 || h.ResponseThreshold < 0 || h.TicketCacheSize < 0 {
		return fmt.Errorf("jira_message_handler settings must not be negative")
	}

	return nil
}

// ValidateJiraConfig validates JIRA-specific configuration.
func ValidateJiraConfig(config *Config) error {
	var missingVars []string

	// JIRA validation
	if config.Jira.URL == "" {
		missingVars = append(missingVars, "JIRA_URL")
	}
	if config.Jira.Username == "" && config.Jira.Auth != JiraAuthToken {
		missingVars = append(missingVars, "JIRA_USERNAME")
	}
	if config.Jira.Token == "" {
		missingVars = append(missingVars, "JIRA_TOKEN")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	return nil
}

// ValidateSlackConfig validates Slack-specific configuration.
func ValidateSlackConfig(config *Config) error {
	var missingVars []string

	if config.Slack.BotToken == "" {
		missingVars = append(missingVars, "SLACK_BOT_TOKEN")
	}
	if config.Slack.AppToken == "" {
		missingVars = append(missingVars, "SLACK_APP_TOKEN")
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missingVars)
	}

	if !strings.HasPrefix(config.Slack.AppToken, "xapp-") {
		return fmt.Errorf("slack app token must start with xapp-")
	}

	return nil
}
