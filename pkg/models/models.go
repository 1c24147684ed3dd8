// Package models defines data structures shared across the application.
package models

// IssueRecord is a JIRA issue as returned by the tracker client. Fields that
// JIRA may omit are pointers and stay nil when absent.
type IssueRecord struct {
	// Key is the issue key (e.g., "ABC-123")
	Key string

	// Summary is the issue's title
	Summary string

	// Description is the full body text of the issue
	Description string

	// Status is the workflow status name (e.g., "In Progress")
	Status string

	// Priority is the priority name (e.g., "Major")
	Priority string

	// Permalink is the browser URL of the issue
	Permalink string

	// Assignee is the assignee's display name
	Assignee *string

	// OriginalEstimate is the original time estimate (e.g., "2d")
	OriginalEstimate *string

	// RemainingEstimate is the remaining time estimate (e.g., "1d 4h")
	RemainingEstimate *string
}

// Estimate holds the time tracking values of a ticket. It only exists when
// both values are known.
type Estimate struct {
	Original  string
	Remaining string
}

// TicketSummary is the summary of a JIRA ticket used to build a chat reply.
type TicketSummary struct {
	// Key is the ticket key (e.g., "ABC-123")
	Key string

	// Title is the ticket's summary field
	Title string

	// Status is the workflow status name
	Status string

	// Priority is the priority name, empty when JIRA did not return one
	Priority string

	// Description is the full body text of the ticket
	Description string

	// Link is the permalink to the ticket
	Link string

	// Assignee is the assignee's display name, nil when unassigned
	Assignee *string

	// Estimate is nil unless both original and remaining estimates are set
	Estimate *Estimate
}

// Message is an inbound chat message.
type Message struct {
	// Text is the raw message text
	Text string

	// ChannelID identifies the channel (or direct message) the text was posted in
	ChannelID string

	// User is the ID of the author
	User string
}

// Attachment is a rich reply attachment.
type Attachment struct {
	Title     string
	TitleLink string
	Fallback  string
	Footer    string
	Color     string
	Text      string
	Fields    []AttachmentField
}

// AttachmentField is a titled value rendered inside an attachment.
type AttachmentField struct {
	Title string
	Value string
	Short bool
}
