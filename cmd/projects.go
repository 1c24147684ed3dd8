package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// projectsCmd lists the project keys the bot answers for.
var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List the JIRA projects visible to the bot",
	Long: `List the keys of all JIRA projects visible to the configured user.
Only tickets of these projects are looked up.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		gateway, err := newGateway(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		for _, key := range gateway.Projects() {
			fmt.Fprintln(cmd.OutOrStdout(), key)
		}
		return nil
	},
}
