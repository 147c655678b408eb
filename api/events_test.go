package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ModMate/ledger"
	"ModMate/messages"
	"ModMate/moderation"
	"ModMate/summarizer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	sent    []string
	dms     []string
	history []messages.Message
}

func (s *stubGateway) SendMessage(_ context.Context, channelID, message string) error {
	s.sent = append(s.sent, message)
	return nil
}
func (s *stubGateway) SendDM(_ context.Context, userID, message string) error {
	s.dms = append(s.dms, message)
	return nil
}
func (s *stubGateway) DeleteMessage(context.Context, string, string) error { return nil }
func (s *stubGateway) BanUser(context.Context, string, string) error { return nil }
func (s *stubGateway) UnbanUser(context.Context, string, string) error { return nil }
func (s *stubGateway) KickUser(context.Context, string, string) error { return nil }
func (s *stubGateway) ChannelHistory(_ context.Context, channelID string, limit int) ([]messages.Message, error) {
	if limit < len(s.history) {
		return s.history[len(s.history)-limit:], nil
	}
	return s.history, nil
}

type stubOracle struct {
	reply  string
	called int
}

func (s *stubOracle) Converse(_ context.Context, userPrompt, systemPrompt string) (string, error) {
	s.called++
	return s.reply, nil
}

func newTestHandler(t *testing.T, oracle *stubOracle, gw *stubGateway) (*Handler, *messages.Store) {
	t.Helper()
	led := ledger.New(t.TempDir())
	store := messages.NewStore()
	moderator := moderation.New(store, led, oracle, moderation.NewDispatcher(gw, led, nil))
	return NewHandler(moderator, store, gw, summarizer.New(oracle)), store
}

func postEvent(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleEvents(rec, req)
	return rec
}

const serverEvent = `{
	"type": "message",
	"event_id": "ev1",
	"message": {
		"id": "101",
		"content": "hello world",
		"author": {"id": "u1", "name": "alice"},
		"channel": {"id": "c1", "name": "general"},
		"guild": {"id": "s1", "name": "Test Server"}
	}
}`

func TestHandleEvents(t *testing.T) {
	t.Run("server message is recorded and moderated", func(t *testing.T) {
		oracle := &stubOracle{reply: "all good"}
		h, store := newTestHandler(t, oracle, &stubGateway{})

		rec := postEvent(t, h, serverEvent)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, oracle.called)

		history := store.RecentHistory("s1", "c1")
		require.Len(t, history, 1)
		assert.Equal(t, "hello world", history[0].Content)
	})

	t.Run("invalid json is rejected", func(t *testing.T) {
		h, _ := newTestHandler(t, &stubOracle{}, &stubGateway{})
		rec := postEvent(t, h, "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("non-message events are acknowledged and ignored", func(t *testing.T) {
		oracle := &stubOracle{}
		h, store := newTestHandler(t, oracle, &stubGateway{})

		rec := postEvent(t, h, `{"type": "typing_start", "event_id": "ev2", "message": {"id": "102"}}`)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Zero(t, oracle.called)
		assert.Empty(t, store.RecentHistory("", ""))
	})

	t.Run("command message skips the oracle and replies", func(t *testing.T) {
		oracle := &stubOracle{}
		gw := &stubGateway{}
		h, _ := newTestHandler(t, oracle, gw)

		event := strings.Replace(serverEvent, "hello world", "!ping", 1)
		rec := postEvent(t, h, event)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Zero(t, oracle.called)
		require.Len(t, gw.sent, 1)
		assert.Equal(t, "Pong!", gw.sent[0])
	})

	t.Run("bot command is ignored", func(t *testing.T) {
		gw := &stubGateway{}
		h, _ := newTestHandler(t, &stubOracle{}, gw)

		event := `{
			"type": "message", "event_id": "ev3",
			"message": {
				"id": "103", "content": "!ping",
				"author": {"id": "b1", "name": "otherbot", "bot": true},
				"channel": {"id": "c1", "name": "general"},
				"guild": {"id": "s1", "name": "Test Server"}
			}
		}`
		postEvent(t, h, event)
		assert.Empty(t, gw.sent)
	})

	t.Run("direct message gets a DM reply", func(t *testing.T) {
		oracle := &stubOracle{reply: "Hi, I'm Joe."}
		gw := &stubGateway{}
		h, _ := newTestHandler(t, oracle, gw)

		event := `{
			"type": "message", "event_id": "ev4",
			"message": {
				"id": "104", "content": "who are you?",
				"author": {"id": "u2", "name": "bob"},
				"channel": {"id": "dm1", "name": ""}
			}
		}`
		postEvent(t, h, event)
		assert.Equal(t, 1, oracle.called)
		require.Len(t, gw.dms, 1)
		assert.Equal(t, "Hi, I'm Joe.", gw.dms[0])
	})
}

func TestToMessage(t *testing.T) {
	event := MessageEvent{
		Type:    "message",
		EventID: "ev9",
		Message: InboundMessage{
			ID:      "200",
			Content: "hey",
			Author:  EventAuthor{ID: "u1", Name: "alice", Admin: true},
			Channel: EventChannel{ID: "c1", Name: "general"},
		},
	}

	msg := event.toMessage()
	assert.True(t, msg.IsDirect(), "no guild means direct conversation")
	assert.True(t, msg.AuthorIsAdmin)

	event.Message.Guild = &EventGuild{ID: "s1", Name: "Test Server"}
	msg = event.toMessage()
	assert.False(t, msg.IsDirect())
	assert.Equal(t, "Test Server", msg.ServerName)
}
