package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGateway(url string) *Discord {
	return &Discord{
		token:      "test-token",
		baseURL:    url,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestSendMessage(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := testGateway(srv.URL).SendMessage(context.Background(), "c1", "settle down")
	require.NoError(t, err)
	assert.Equal(t, "/channels/c1/messages", gotPath)
	assert.Equal(t, "Bot test-token", gotAuth)
	assert.Equal(t, "settle down", gotBody["content"])
}

func TestSendDM(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/users/@me/channels" {
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "u1", body["recipient_id"])
			json.NewEncoder(w).Encode(map[string]string{"id": "dm42"})
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := testGateway(srv.URL).SendDM(context.Background(), "u1", "warning")
	require.NoError(t, err)
	assert.Equal(t, []string{"/users/@me/channels", "/channels/dm42/messages"}, paths)
}

func TestBanAndKickPaths(t *testing.T) {
	type call struct{ method, path string }
	var calls []call
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, call{r.Method, r.URL.Path})
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	gw := testGateway(srv.URL)
	ctx := context.Background()
	require.NoError(t, gw.BanUser(ctx, "s1", "u1"))
	require.NoError(t, gw.UnbanUser(ctx, "s1", "u1"))
	require.NoError(t, gw.KickUser(ctx, "s1", "u1"))
	require.NoError(t, gw.DeleteMessage(ctx, "c1", "m1"))

	assert.Equal(t, []call{
		{http.MethodPut, "/guilds/s1/bans/u1"},
		{http.MethodDelete, "/guilds/s1/bans/u1"},
		{http.MethodDelete, "/guilds/s1/members/u1"},
		{http.MethodDelete, "/channels/c1/messages/m1"},
	}, calls)
}

func TestEntityGoneIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Unknown Message", http.StatusNotFound)
	}))
	defer srv.Close()

	err := testGateway(srv.URL).DeleteMessage(context.Background(), "c1", "gone")
	assert.NoError(t, err, "deleting an already-deleted message is not a failure")
}

func TestErrorStatusSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Missing Permissions", http.StatusForbidden)
	}))
	defer srv.Close()

	err := testGateway(srv.URL).BanUser(context.Background(), "s1", "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestChannelHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/channels/c1/messages", r.URL.Path)
		assert.Equal(t, "3", r.URL.Query().Get("limit"))
		// Newest first, as the platform returns it.
		w.Write([]byte(`[
			{"id": "300", "content": "third", "author": {"id": "u1", "username": "alice"}},
			{"id": "200", "content": "second", "author": {"id": "u2", "username": "bob", "bot": true}},
			{"id": "100", "content": "first", "author": {"id": "u1", "username": "alice"}}
		]`))
	}))
	defer srv.Close()

	history, err := testGateway(srv.URL).ChannelHistory(context.Background(), "c1", 3)
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.Equal(t, "100", history[0].MessageID)
	assert.Equal(t, "300", history[2].MessageID)
	assert.Equal(t, "c1", history[0].ChannelID)
	assert.True(t, history[1].AuthorIsBot)
	assert.Equal(t, "bob", history[1].UserName)
}
