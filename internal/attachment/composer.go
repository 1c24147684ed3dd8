// Package attachment renders JIRA ticket summaries as chat attachments.
package attachment

import (
	"fmt"
	"strings"

	"github.com/danielolaszy/slackjira/pkg/models"
)

// Label colors used by JIRA for status categories.
const (
	ColorBlue   = "#4a6785"
	ColorYellow = "#ffd351"
	ColorGreen  = "#14892c"
)

const (
	unassignedFooter = "This ticket is currently unassigned."
	estimateTitle    = "Original Estimate / Remaining Estimate"
)

// StatusColor returns the attachment color for a status name. "Open"
// statuses are blue, statuses mentioning "progress" are yellow and
// everything else is green.
func StatusColor(status string) string {
	status = strings.ToLower(status)
	switch {
	case strings.Contains(status, "open"):
		return ColorBlue
	case strings.Contains(status, "progress"):
		return ColorYellow
	default:
		return ColorGreen
	}
}

// Short renders the one-line form of a ticket: key, status and title linked
// to the ticket, with the assignee in the footer.
func Short(summary models.TicketSummary) models.Attachment {
	title := fmt.Sprintf("[%s] - %s - %s", summary.Key, summary.Status, summary.Title)

	footer := unassignedFooter
	if summary.Assignee != nil && *summary.Assignee != "" {
		footer = fmt.Sprintf("Assigned to %s", *summary.Assignee)
	}

	return models.Attachment{
		Title:     title,
		TitleLink: summary.Link,
		Fallback:  title,
		Footer:    footer,
		Color:     StatusColor(summary.Status),
	}
}

// Full renders the short form together with the description, priority,
// status and, when known, the time estimates.
func Full(summary models.TicketSummary) models.Attachment {
	a := Short(summary)
	a.Text = summary.Description

	if summary.Priority != "" {
		a.Fields = append(a.Fields, models.AttachmentField{
			Title: "Priority",
			Value: summary.Priority,
			Short: true,
		})
	}
	a.Fields = append(a.Fields, models.AttachmentField{
		Title: "Status",
		Value: summary.Status,
		Short: true,
	})

	if summary.Estimate != nil {
		a.Fields = append(a.Fields, models.AttachmentField{
			Title: estimateTitle,
			Value: fmt.Sprintf("%s / %s", summary.Estimate.Original, summary.Estimate.Remaining),
		})
	}

	return a
}
