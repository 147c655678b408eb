package api

import (
	"fmt"
	"testing"

	"ModMate/messages"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyMsg(id string) messages.Message {
	return messages.Message{
		MessageID: id,
		Content:   "message " + id,
		UserID:    "u1",
		UserName:  "alice",
		ChannelID: "c1",
	}
}

func TestSplitCommand(t *testing.T) {
	name, arg := splitCommand("!ping")
	assert.Equal(t, "ping", name)
	assert.Empty(t, arg)

	name, arg = splitCommand("!Ping hello there")
	assert.Equal(t, "ping", name)
	assert.Equal(t, "hello there", arg)

	name, arg = splitCommand("!modlog <#555>")
	assert.Equal(t, "modlog", name)
	assert.Equal(t, "<#555>", arg)
}

func TestUnreadAfter(t *testing.T) {
	history := []messages.Message{
		historyMsg("100"), historyMsg("200"), historyMsg("300"), historyMsg("400"),
	}

	t.Run("no cursor means everything is unread", func(t *testing.T) {
		unread := unreadAfter(history, "", "999")
		require.Len(t, unread, 4)
	})

	t.Run("cursor equal to the newest id yields nothing", func(t *testing.T) {
		assert.Empty(t, unreadAfter(history, "400", "999"))
	})

	t.Run("only strictly newer ids are unread", func(t *testing.T) {
		unread := unreadAfter(history, "200", "999")
		require.Len(t, unread, 2)
		assert.Equal(t, "300", unread[0].MessageID)
		assert.Equal(t, "400", unread[1].MessageID)
	})

	t.Run("the command invocation is excluded", func(t *testing.T) {
		unread := unreadAfter(history, "200", "400")
		require.Len(t, unread, 1)
		assert.Equal(t, "300", unread[0].MessageID)
	})
}

func TestCompareSnowflakes(t *testing.T) {
	assert.Negative(t, compareSnowflakes("9", "10"), "numeric comparison, not lexical")
	assert.Positive(t, compareSnowflakes("10", "9"))
	assert.Zero(t, compareSnowflakes("42", "42"))
	assert.Negative(t, compareSnowflakes("abc", "abd"), "non-numeric ids fall back to lexical order")
}

func TestHandleSummarizeUnread(t *testing.T) {
	t.Run("summarizes unread and advances the cursor", func(t *testing.T) {
		oracle := &stubOracle{reply: "they argued about tabs and spaces"}
		gw := &stubGateway{}
		for i := 1; i <= 5; i++ {
			gw.history = append(gw.history, historyMsg(fmt.Sprintf("%d00", i)))
		}
		h, store := newTestHandler(t, oracle, gw)
		store.UpdateLastRead("u9", "c1", "200")

		event := `{
			"type": "message", "event_id": "ev10",
			"message": {
				"id": "600", "content": "!summarize_unread",
				"author": {"id": "u9", "name": "carol"},
				"channel": {"id": "c1", "name": "general"},
				"guild": {"id": "s1", "name": "Test Server"}
			}
		}`
		postEvent(t, h, event)

		require.Len(t, gw.sent, 1)
		assert.Contains(t, gw.sent[0], "Summary of unread messages:")
		assert.Contains(t, gw.sent[0], "tabs and spaces")

		cursor, ok := store.LastRead("u9", "c1")
		require.True(t, ok)
		assert.Equal(t, "500", cursor)
	})

	t.Run("nothing unread replies without calling the oracle", func(t *testing.T) {
		oracle := &stubOracle{}
		gw := &stubGateway{history: []messages.Message{historyMsg("100")}}
		h, store := newTestHandler(t, oracle, gw)
		store.UpdateLastRead("u9", "c1", "100")

		event := `{
			"type": "message", "event_id": "ev11",
			"message": {
				"id": "600", "content": "!summarize_unread",
				"author": {"id": "u9", "name": "carol"},
				"channel": {"id": "c1", "name": "general"},
				"guild": {"id": "s1", "name": "Test Server"}
			}
		}`
		postEvent(t, h, event)

		assert.Zero(t, oracle.called)
		require.Len(t, gw.sent, 1)
		assert.Equal(t, noUnreadMessage, gw.sent[0])
	})
}

func TestHandleModlog(t *testing.T) {
	t.Run("non-admins are refused", func(t *testing.T) {
		gw := &stubGateway{}
		h, _ := newTestHandler(t, &stubOracle{}, gw)

		event := `{
			"type": "message", "event_id": "ev12",
			"message": {
				"id": "700", "content": "!modlog <#555>",
				"author": {"id": "u1", "name": "alice"},
				"channel": {"id": "c1", "name": "general"},
				"guild": {"id": "s1", "name": "Test Server"}
			}
		}`
		postEvent(t, h, event)

		require.Len(t, gw.sent, 1)
		assert.Equal(t, modlogAdminOnlyMessage, gw.sent[0])
	})

	t.Run("archive disabled is reported to admins", func(t *testing.T) {
		gw := &stubGateway{}
		h, _ := newTestHandler(t, &stubOracle{}, gw)

		event := `{
			"type": "message", "event_id": "ev13",
			"message": {
				"id": "701", "content": "!modlog <#555>",
				"author": {"id": "u1", "name": "alice", "admin": true},
				"channel": {"id": "c1", "name": "general"},
				"guild": {"id": "s1", "name": "Test Server"}
			}
		}`
		postEvent(t, h, event)

		require.Len(t, gw.sent, 1)
		assert.Equal(t, archiveDisabledMessage, gw.sent[0])
	})
}
