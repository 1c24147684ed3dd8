package cmd

import (
	"errors"
	"io/fs"
	"os"

	"github.com/danielolaszy/slackjira/internal/config"
	"github.com/danielolaszy/slackjira/internal/logging"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "config.ini"

var rootCmd = &cobra.Command{
	Use:   "slackjira",
	Short: "Slackjira answers JIRA ticket mentions in Slack",
	Long: `Slackjira is a Slack bot that watches channels for JIRA ticket keys
like PROJ-123 and replies with a summary of each ticket. Prefix a key with
'!' (e.g. !PROJ-123) to get the full summary including the description.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", defaultConfigPath, "Path to the INI configuration file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(projectsCmd)
}

// loadConfig loads the configuration named by the --config flag and applies
// its logging settings. Logs go to stderr, keeping stdout for command output.
// A missing default config file is not an error since every setting can come
// from the environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			logging.Debug("no config file found, using environment", "path", path)
			path = ""
		}
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	logging.Setup(cmd.ErrOrStderr(), logging.LogLevel(cfg.Log.Level), logging.Format(cfg.Log.Format))
	return cfg, nil
}
