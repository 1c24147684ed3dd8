// Package slackbot connects the ticket mention handler to Slack. It receives
// messages over Socket Mode and posts replies through the Web API.
package slackbot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/danielolaszy/slackjira/internal/logging"
	"github.com/danielolaszy/slackjira/pkg/models"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
)

// Config holds configuration for the Slack bot.
type Config struct {
	BotToken string // xoxb-... Slack bot token
	AppToken string // xapp-... Slack app-level token (for Socket Mode)
	BotEmoji string // emoji used as the reply icon, e.g. ":ticket:"
	BotIcon  string // image URL used as the reply icon
	ErrorsTo string // channel receiving error reports
	Debug    bool
	APIURL   string // Override for testing; empty means default
}

// MessageHandler handles an inbound chat message.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg models.Message) error
}

// Bot is a Slack bot answering ticket mentions.
type Bot struct {
	api       *slack.Client
	socket    *socketmode.Client
	cfg       Config
	botUserID string

	wg sync.WaitGroup
}

// New creates a new Slack bot.
func New(cfg Config) (*Bot, error) {
	if cfg.BotToken == "" {
		return nil, errors.New("bot token is required")
	}
	if !strings.HasPrefix(cfg.AppToken, "xapp-") {
		return nil, errors.New("app token must start with xapp-")
	}

	opts := []slack.Option{
		slack.OptionDebug(cfg.Debug),
		slack.OptionAppLevelToken(cfg.AppToken),
	}
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}
	api := slack.New(cfg.BotToken, opts...)

	b := newBot(api, cfg)
	b.socket = socketmode.New(api, socketmode.OptionDebug(cfg.Debug))
	return b, nil
}

func newBot(api *slack.Client, cfg Config) *Bot {
	return &Bot{
		api: api,
		cfg: cfg,
	}
}

// SendReply posts attachments to a channel.
func (b *Bot) SendReply(ctx context.Context, channelID, text string, attachments []models.Attachment) error {
	opts := []slack.MsgOption{
		slack.MsgOptionText(text, false),
		slack.MsgOptionAttachments(ToSlackAttachments(attachments)...),
	}
	opts = append(opts, b.identity()...)

	if _, _, err := b.api.PostMessageContext(ctx, channelID, opts...); err != nil {
		return fmt.Errorf("failed to post message: %w", err)
	}
	return nil
}

func (b *Bot) identity() []slack.MsgOption {
	var opts []slack.MsgOption
	if b.cfg.BotEmoji != "" {
		opts = append(opts, slack.MsgOptionIconEmoji(b.cfg.BotEmoji))
	} else if b.cfg.BotIcon != "" {
		opts = append(opts, slack.MsgOptionIconURL(b.cfg.BotIcon))
	}
	return opts
}

// Run receives events until ctx is canceled or the connection fails, then
// waits for in-flight messages to be handled.
func (b *Bot) Run(ctx context.Context, handler MessageHandler) error {
	if b.socket == nil {
		return errors.New("socket mode client not initialized")
	}

	auth, err := b.api.AuthTestContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to authenticate with slack: %w", err)
	}
	b.botUserID = auth.UserID
	logging.Info("authenticated with slack",
		"team", auth.Team,
		"bot_user", auth.UserID)

	errCh := make(chan error, 1)
	go func() {
		errCh <- b.socket.RunContext(ctx)
	}()

	defer b.wg.Wait()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("socket mode connection failed: %w", err)
			}
			return nil
		case evt, ok := <-b.socket.Events:
			if !ok {
				return nil
			}
			b.handleEvent(ctx, evt, handler)
		}
	}
}

func (b *Bot) handleEvent(ctx context.Context, evt socketmode.Event, handler MessageHandler) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		logging.Info("connecting to slack socket mode")

	case socketmode.EventTypeConnected:
		logging.Info("connected to slack socket mode")

	case socketmode.EventTypeConnectionError:
		logging.Warn("slack connection error", "error", evt.Data)

	case socketmode.EventTypeEventsAPI:
		b.ack(evt)

		eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok || eventsAPIEvent.Type != slackevents.CallbackEvent {
			return
		}

		ev, ok := eventsAPIEvent.InnerEvent.Data.(*slackevents.MessageEvent)
		if !ok {
			return
		}

		msg, ok := b.messageFromEvent(ev)
		if !ok {
			return
		}

		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			b.dispatch(ctx, handler, msg)
		}()
	}
}

func (b *Bot) ack(evt socketmode.Event) {
	if b.socket != nil && evt.Request != nil {
		b.socket.Ack(*evt.Request)
	}
}

// messageFromEvent converts a message event, skipping messages from bots,
// from this bot and edits or deletions.
func (b *Bot) messageFromEvent(ev *slackevents.MessageEvent) (models.Message, bool) {
	switch ev.SubType {
	case "", "thread_broadcast", "file_share":
	default:
		return models.Message{}, false
	}

	if ev.BotID != "" || (b.botUserID != "" && ev.User == b.botUserID) {
		return models.Message{}, false
	}

	return models.Message{
		Text:      ev.Text,
		ChannelID: ev.Channel,
		User:      ev.User,
	}, true
}

// dispatch handles one message, reporting failures and panics to the errors
// channel.
func (b *Bot) dispatch(ctx context.Context, handler MessageHandler, msg models.Message) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("panic while handling message",
				"channel", msg.ChannelID,
				"panic", r)
			b.reportError(ctx, msg, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := handler.HandleMessage(ctx, msg); err != nil {
		logging.Error("failed to handle message",
			"channel", msg.ChannelID,
			"error", err)
		b.reportError(ctx, msg, err)
	}
}

func (b *Bot) reportError(ctx context.Context, msg models.Message, cause error) {
	if b.cfg.ErrorsTo == "" {
		return
	}

	text := fmt.Sprintf("[ERROR] failed to handle message in <#%s> from <@%s>: %v", msg.ChannelID, msg.User, cause)
	opts := append([]slack.MsgOption{slack.MsgOptionText(text, false)}, b.identity()...)
	if _, _, err := b.api.PostMessageContext(ctx, b.cfg.ErrorsTo, opts...); err != nil {
		logging.Error("failed to report error",
			"errors_to", b.cfg.ErrorsTo,
			"error", err)
	}
}

// ToSlackAttachments converts attachments to their Slack form.
func ToSlackAttachments(attachments []models.Attachment) []slack.Attachment {
	out := make([]slack.Attachment, 0, len(attachments))
	for _, a := range attachments {
		sa := slack.Attachment{
			Title:     a.Title,
			TitleLink: a.TitleLink,
			Fallback:  a.Fallback,
			Footer:    a.Footer,
			Color:     a.Color,
			Text:      a.Text,
		}
		for _, f := range a.Fields {
			sa.Fields = append(sa.Fields, slack.AttachmentField{
				Title: f.Title,
				Value: f.Value,
				Short: f.Short,
			})
		}
		out = append(out, sa)
	}
	return out
}
