package mention

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielolaszy/slackjira/internal/attachment"
	"github.com/danielolaszy/slackjira/internal/logging"
	"github.com/danielolaszy/slackjira/pkg/models"
	"golang.org/x/sync/errgroup"
)

const (
	// MaxAttachments is the number of attachments Slack accepts in one
	// message and the upper bound of Config.MaxIssues.
	MaxAttachments = 20

	DefaultMaxIssues         = 5
	DefaultResponseThreshold = 900 * time.Second
	DefaultTicketCacheSize   = 5

	// fetchConcurrency bounds parallel JIRA requests for one message
	fetchConcurrency = 4
)

// Config controls how a Handler responds to ticket mentions. Zero values are
// replaced by defaults.
type Config struct {
	// MaxIssues is the number of distinct references above which a message
	// is ignored
	MaxIssues int

	// ResponseThreshold is the minimum time between two lookups of the same
	// ticket in the same channel
	ResponseThreshold time.Duration

	// TicketCacheSize is the number of tickets remembered per channel
	TicketCacheSize int

	// FullAttachments enables the verbose attachment for "!KEY" references
	FullAttachments bool
}

// DefaultConfig returns the default handler configuration.
func DefaultConfig() Config {
	return Config{
		MaxIssues:         DefaultMaxIssues,
		ResponseThreshold: DefaultResponseThreshold,
		TicketCacheSize:   DefaultTicketCacheSize,
		FullAttachments:   true,
	}
}

// normalize applies defaults and the attachment limit.
func (c Config) normalize() (Config, error) {
	if c.MaxIssues < 0 || c.ResponseThreshold < 0 || c.TicketCacheSize < 0 {
		return c, fmt.Errorf("handler settings must not be negative: max_issues=%d response_threshold=%s ticket_cache_size=%d",
			c.MaxIssues, c.ResponseThreshold, c.TicketCacheSize)
	}

	if c.MaxIssues == 0 {
		c.MaxIssues = DefaultMaxIssues
	}
	if c.ResponseThreshold == 0 {
		c.ResponseThreshold = DefaultResponseThreshold
	}
	if c.TicketCacheSize == 0 {
		c.TicketCacheSize = DefaultTicketCacheSize
	}

	if c.MaxIssues > MaxAttachments {
		logging.Warn("max issues exceeds attachment limit for one message, clamping",
			"max_issues", c.MaxIssues,
			"limit", MaxAttachments)
		c.MaxIssues = MaxAttachments
	}

	return c, nil
}

// TicketFetcher resolves a ticket key to its summary.
type TicketFetcher interface {
	Fetch(ctx context.Context, key string) (*models.TicketSummary, bool)
}

// ReplySender posts a reply to a channel.
type ReplySender interface {
	SendReply(ctx context.Context, channelID, text string, attachments []models.Attachment) error
}

// Handler answers messages that mention JIRA tickets.
type Handler struct {
	config    Config
	extractor *Extractor
	timer     *Timer
	fetcher   TicketFetcher
	sender    ReplySender
}

// Option customizes a Handler.
type Option func(*Handler) error

// WithClock sets the time source used for rate limiting.
func WithClock(now Clock) Option {
	return func(h *Handler) error {
		timer, err := NewTimer(h.config.TicketCacheSize, h.config.ResponseThreshold, now)
		if err != nil {
			return err
		}
		h.timer = timer
		return nil
	}
}

// NewHandler creates a Handler.
func NewHandler(cfg Config, fetcher TicketFetcher, sender ReplySender, opts ...Option) (*Handler, error) {
	if fetcher == nil || sender == nil {
		return nil, errors.New("ticket fetcher and reply sender are required")
	}

	cfg, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	timer, err := NewTimer(cfg.TicketCacheSize, cfg.ResponseThreshold, time.Now)
	if err != nil {
		return nil, err
	}

	h := &Handler{
		config:    cfg,
		extractor: NewExtractor(cfg.MaxIssues),
		timer:     timer,
		fetcher:   fetcher,
		sender:    sender,
	}

	for _, opt := range opts {
		if err := opt(h); err != nil {
			return nil, err
		}
	}

	return h, nil
}

// Config returns the effective configuration.
func (h *Handler) Config() Config {
	return h.config
}

// HandleMessage looks up the tickets referenced in msg and replies with one
// attachment per ticket that was found and not mentioned recently. The only
// error returned is a failure to post the reply.
func (h *Handler) HandleMessage(ctx context.Context, msg models.Message) error {
	refs, err := h.extractor.Extract(msg.Text)
	if err != nil {
		logging.Debug("ignoring ticket mentions",
			"channel", msg.ChannelID,
			"error", err)
		return nil
	}
	if len(refs) == 0 {
		return nil
	}

	if msg.ChannelID == "" {
		logging.Error("message has no channel id, dropping",
			"references", Keys(refs))
		return nil
	}

	short, full := h.compose(ctx, msg.ChannelID, refs)

	attachments := append(short, full...)
	if len(attachments) == 0 {
		return nil
	}

	logging.Info("replying with ticket summaries",
		"channel", msg.ChannelID,
		"short", len(short),
		"full", len(full))

	if err := h.sender.SendReply(ctx, msg.ChannelID, "", attachments); err != nil {
		return fmt.Errorf("failed to send reply to channel %s: %w", msg.ChannelID, err)
	}

	return nil
}

// compose filters, fetches and renders refs while holding the channel, and
// records every resolved ticket before releasing it.
func (h *Handler) compose(ctx context.Context, channelID string, refs []Reference) ([]models.Attachment, []models.Attachment) {
	release := h.timer.Acquire(channelID)
	defer release()

	eligible := make([]Reference, 0, len(refs))
	for _, ref := range refs {
		if !h.timer.Check(channelID, ref.Key) {
			logging.Debug("ticket mentioned recently, skipping",
				"channel", channelID,
				"ticket", ref.Key)
			continue
		}
		eligible = append(eligible, ref)
	}
	if len(eligible) == 0 {
		return nil, nil
	}

	summaries := h.fetchAll(ctx, eligible)

	var short, full []models.Attachment
	var resolved []string
	for i, ref := range eligible {
		summary := summaries[i]
		if summary == nil {
			continue
		}
		resolved = append(resolved, ref.Key)

		if ref.Verbose && h.config.FullAttachments {
			full = append(full, attachment.Full(*summary))
		} else {
			short = append(short, attachment.Short(*summary))
		}
	}

	h.timer.Record(channelID, resolved)
	return short, full
}

// fetchAll fetches refs concurrently. The result is indexed like refs with
// nil for tickets that could not be resolved.
func (h *Handler) fetchAll(ctx context.Context, refs []Reference) []*models.TicketSummary {
	summaries := make([]*models.TicketSummary, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, ref := range refs {
		i, ref := i, ref // per-iteration copies (pre-Go 1.22 loop semantics)
		g.Go(func() error {
			if summary, ok := h.fetcher.Fetch(gctx, ref.Key); ok {
				summaries[i] = summary
			}
			return nil
		})
	}
	// fetch failures are reported as absent summaries, never as errors
	_ = g.Wait()

	return summaries
}
