package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/danielolaszy/slackjira/internal/attachment"
	"github.com/danielolaszy/slackjira/internal/mention"
	"github.com/danielolaszy/slackjira/pkg/models"
	"github.com/spf13/cobra"
)

// lookupCmd prints the summary the bot would post for each ticket.
var lookupCmd = &cobra.Command{
	Use:   "lookup KEY...",
	Short: "Print ticket summaries",
	Long: `Fetch the given tickets from JIRA and print the summary the bot would
post for them. Use --full for the verbose form.

Example:
  slackjira lookup PROJ-1 PROJ-2 --full`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		full, err := cmd.Flags().GetBool("full")
		if err != nil {
			return err
		}

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		gateway, err := newGateway(cmd.Context(), cfg)
		if err != nil {
			return err
		}

		missing := printSummaries(cmd.Context(), cmd.OutOrStdout(), gateway, args, full)
		if len(missing) > 0 {
			return fmt.Errorf("tickets not found: %s", strings.Join(missing, ", "))
		}
		return nil
	},
}

func init() {
	lookupCmd.Flags().BoolP("full", "f", false, "Print the full summary")
}

// printSummaries writes one rendered attachment per key and returns the keys
// that could not be resolved.
func printSummaries(ctx context.Context, w io.Writer, fetcher mention.TicketFetcher, keys []string, full bool) []string {
	var missing []string
	for _, key := range keys {
		key = strings.ToUpper(key)
		summary, ok := fetcher.Fetch(ctx, key)
		if !ok {
			missing = append(missing, key)
			continue
		}

		a := attachment.Short(*summary)
		if full {
			a = attachment.Full(*summary)
		}
		writeAttachment(w, a)
	}
	return missing
}

func writeAttachment(w io.Writer, a models.Attachment) {
	fmt.Fprintln(w, a.Title)
	fmt.Fprintf(w, "  %s\n", a.TitleLink)
	for _, field := range a.Fields {
		fmt.Fprintf(w, "  %s: %s\n", field.Title, field.Value)
	}
	if a.Text != "" {
		for _, line := range strings.Split(a.Text, "\n") {
			fmt.Fprintf(w, "  | %s\n", line)
		}
	}
	fmt.Fprintf(w, "  %s\n\n", a.Footer)
}
