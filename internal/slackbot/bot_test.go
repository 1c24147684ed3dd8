package slackbot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/danielolaszy/slackjira/pkg/models"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Test doubles ---

// slackAPI records chat.postMessage calls.
type slackAPI struct {
	mu    sync.Mutex
	posts []url.Values
}

func (s *slackAPI) Posts() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.posts...)
}

func newSlackAPI(t *testing.T) (*slackAPI, *slack.Client) {
	t.Helper()

	recorder := &slackAPI{}
	mux := http.NewServeMux()
	mux.HandleFunc("/chat.postMessage", func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		recorder.mu.Lock()
		recorder.posts = append(recorder.posts, r.PostForm)
		recorder.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"channel":"` + r.PostForm.Get("channel") + `","ts":"1700000000.000100"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return recorder, slack.New("xoxb-test", slack.OptionAPIURL(srv.URL+"/"))
}

type mockHandler struct {
	mu       sync.Mutex
	messages []models.Message
	err      error
	panics   bool
}

func (h *mockHandler) HandleMessage(ctx context.Context, msg models.Message) error {
	if h.panics {
		panic("boom")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, msg)
	return h.err
}

func (h *mockHandler) Messages() []models.Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]models.Message(nil), h.messages...)
}

func messageEvent(ev *slackevents.MessageEvent) socketmode.Event {
	return socketmode.Event{
		Type: socketmode.EventTypeEventsAPI,
		Data: slackevents.EventsAPIEvent{
			Type: slackevents.CallbackEvent,
			InnerEvent: slackevents.EventsAPIInnerEvent{
				Type: "message",
				Data: ev,
			},
		},
	}
}

// --- Tests ---

func TestNewValidatesTokens(t *testing.T) {
	_, err := New(Config{AppToken: "xapp-1"})
	assert.Error(t, err)

	_, err = New(Config{BotToken: "xoxb-1", AppToken: "xoxb-2"})
	assert.Error(t, err)

	bot, err := New(Config{BotToken: "xoxb-1", AppToken: "xapp-1"})
	require.NoError(t, err)
	assert.NotNil(t, bot.socket)
}

func TestSendReply(t *testing.T) {
	api, client := newSlackAPI(t)
	bot := newBot(client, Config{BotEmoji: ":ticket:"})

	err := bot.SendReply(context.Background(), "C1", "", []models.Attachment{
		{
			Title:     "[TICK-1] - Open - Fix it",
			TitleLink: "https://jira.example.com/browse/TICK-1",
			Fallback:  "[TICK-1] - Open - Fix it",
			Footer:    "Assigned to Jane Doe",
			Color:     "#4a6785",
			Fields:    []models.AttachmentField{{Title: "Priority", Value: "Major", Short: true}},
		},
	})
	require.NoError(t, err)

	posts := api.Posts()
	require.Len(t, posts, 1)
	assert.Equal(t, "C1", posts[0].Get("channel"))
	assert.Equal(t, ":ticket:", posts[0].Get("icon_emoji"))

	var attachments []struct {
		Title     string `json:"title"`
		TitleLink string `json:"title_link"`
		Color     string `json:"color"`
		Footer    string `json:"footer"`
		Fields    []struct {
			Title string `json:"title"`
			Value string `json:"value"`
			Short bool   `json:"short"`
		} `json:"fields"`
	}
	require.NoError(t, json.Unmarshal([]byte(posts[0].Get("attachments")), &attachments))
	require.Len(t, attachments, 1)
	assert.Equal(t, "[TICK-1] - Open - Fix it", attachments[0].Title)
	assert.Equal(t, "https://jira.example.com/browse/TICK-1", attachments[0].TitleLink)
	assert.Equal(t, "#4a6785", attachments[0].Color)
	assert.Equal(t, "Assigned to Jane Doe", attachments[0].Footer)
	require.Len(t, attachments[0].Fields, 1)
	assert.Equal(t, "Major", attachments[0].Fields[0].Value)
	assert.True(t, attachments[0].Fields[0].Short)
}

func TestHandleEventFiltersMessages(t *testing.T) {
	_, client := newSlackAPI(t)
	bot := newBot(client, Config{})
	bot.botUserID = "UBOT"
	handler := &mockHandler{}
	ctx := context.Background()

	events := []*slackevents.MessageEvent{
		{Channel: "C1", User: "U1", Text: "TICK-1 please"},
		{Channel: "D1", User: "U2", Text: "!TICK-2", ChannelType: "im"},
		{Channel: "C1", User: "U1", Text: "edited TICK-3", SubType: "message_changed"},
		{Channel: "C1", BotID: "B1", Text: "TICK-4 from another bot"},
		{Channel: "C1", User: "UBOT", Text: "TICK-5 from ourselves"},
	}
	for _, ev := range events {
		bot.handleEvent(ctx, messageEvent(ev), handler)
	}
	bot.handleEvent(ctx, socketmode.Event{Type: socketmode.EventTypeConnected}, handler)
	bot.wg.Wait()

	assert.ElementsMatch(t, []models.Message{
		{Text: "TICK-1 please", ChannelID: "C1", User: "U1"},
		{Text: "!TICK-2", ChannelID: "D1", User: "U2"},
	}, handler.Messages())
}

func TestDispatchReportsErrors(t *testing.T) {
	testCases := []struct {
		name    string
		handler *mockHandler
	}{
		{name: "Handler error", handler: &mockHandler{err: errors.New("failed to post message: channel_not_found")}},
		{name: "Handler panic", handler: &mockHandler{panics: true}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api, client := newSlackAPI(t)
			bot := newBot(client, Config{ErrorsTo: "CERR"})

			bot.dispatch(context.Background(), tc.handler, models.Message{Text: "TICK-1", ChannelID: "C1", User: "U1"})

			posts := api.Posts()
			require.Len(t, posts, 1)
			assert.Equal(t, "CERR", posts[0].Get("channel"))
			assert.Contains(t, posts[0].Get("text"), "<#C1>")
		})
	}
}

func TestDispatchWithoutErrorsChannel(t *testing.T) {
	api, client := newSlackAPI(t)
	bot := newBot(client, Config{})

	bot.dispatch(context.Background(), &mockHandler{err: errors.New("nope")}, models.Message{ChannelID: "C1"})

	assert.Empty(t, api.Posts())
}

func TestToSlackAttachments(t *testing.T) {
	in := []models.Attachment{
		{Title: "short", Color: "#14892c"},
		{
			Title: "full",
			Text:  "description",
			Fields: []models.AttachmentField{
				{Title: "Status", Value: "Done", Short: true},
				{Title: "Original Estimate / Remaining Estimate", Value: "1d / 0m"},
			},
		},
	}

	out := ToSlackAttachments(in)

	require.Len(t, out, 2)
	assert.Equal(t, "short", out[0].Title)
	assert.Empty(t, out[0].Fields)
	assert.Equal(t, "description", out[1].Text)
	assert.Equal(t, []slack.AttachmentField{
		{Title: "Status", Value: "Done", Short: true},
		{Title: "Original Estimate / Remaining Estimate", Value: "1d / 0m"},
	}, out[1].Fields)
}
