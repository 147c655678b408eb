// Package gateway is the platform binding: it executes moderation effects
// against the Discord REST API. Calls that reference an entity which no
// longer exists are logged and swallowed; everything else surfaces an error.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ModMate/messages"

	"github.com/inconshreveable/log15"
)

var logger = log15.New("module", "gateway")

const discordAPIBaseURL = "https://discord.com/api/v10"

// Discord performs platform calls with a static bot token.
type Discord struct {
	token      string
	baseURL    string
	httpClient *http.Client
}

// NewDiscord creates a gateway using the given bot token.
func NewDiscord(token string) *Discord {
	return &Discord{
		token:      token,
		baseURL:    discordAPIBaseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SendMessage posts a message to a channel.
func (d *Discord) SendMessage(ctx context.Context, channelID, message string) error {
	path := fmt.Sprintf("/channels/%s/messages", channelID)
	return d.do(ctx, http.MethodPost, path, map[string]string{"content": message}, nil)
}

// SendDM opens (or reuses) the DM channel with a user and delivers the
// message there.
func (d *Discord) SendDM(ctx context.Context, userID, message string) error {
	var channel struct {
		ID string `json:"id"`
	}
	err := d.do(ctx, http.MethodPost, "/users/@me/channels", map[string]string{"recipient_id": userID}, &channel)
	if err != nil {
		return fmt.Errorf("SendDM: failed to open DM channel for user %s: %w", userID, err)
	}
	if channel.ID == "" {
		// Entity gone; already logged by do.
		return nil
	}
	return d.SendMessage(ctx, channel.ID, message)
}

// DeleteMessage removes a message from a channel.
func (d *Discord) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	path := fmt.Sprintf("/channels/%s/messages/%s", channelID, messageID)
	return d.do(ctx, http.MethodDelete, path, nil, nil)
}

// BanUser bans a user from a server.
func (d *Discord) BanUser(ctx context.Context, serverID, userID string) error {
	path := fmt.Sprintf("/guilds/%s/bans/%s", serverID, userID)
	return d.do(ctx, http.MethodPut, path, map[string]string{}, nil)
}

// UnbanUser lifts a ban.
func (d *Discord) UnbanUser(ctx context.Context, serverID, userID string) error {
	path := fmt.Sprintf("/guilds/%s/bans/%s", serverID, userID)
	return d.do(ctx, http.MethodDelete, path, nil, nil)
}

// KickUser removes a user from a server without banning.
func (d *Discord) KickUser(ctx context.Context, serverID, userID string) error {
	path := fmt.Sprintf("/guilds/%s/members/%s", serverID, userID)
	return d.do(ctx, http.MethodDelete, path, nil, nil)
}

type channelMessage struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Author  struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Bot      bool   `json:"bot"`
	} `json:"author"`
}

// ChannelHistory fetches the latest messages of a channel fresh from the
// platform and returns them in chronological order. This is the live
// sequence unread cursors resolve against, not the bounded in-memory window.
func (d *Discord) ChannelHistory(ctx context.Context, channelID string, limit int) ([]messages.Message, error) {
	path := fmt.Sprintf("/channels/%s/messages?limit=%s", channelID, url.QueryEscape(strconv.Itoa(limit)))

	var raw []channelMessage
	if err := d.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, fmt.Errorf("ChannelHistory: failed to fetch channel %s: %w", channelID, err)
	}

	// Discord returns newest first.
	out := make([]messages.Message, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		out = append(out, messages.Message{
			MessageID:   raw[i].ID,
			Content:     raw[i].Content,
			UserID:      raw[i].Author.ID,
			UserName:    raw[i].Author.Username,
			ChannelID:   channelID,
			AuthorIsBot: raw[i].Author.Bot,
		})
	}
	return out, nil
}

func (d *Discord) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+d.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		// The referenced user/channel/message is gone; nothing to enforce.
		logger.Warn("platform entity no longer exists", "method", method, "path", path)
		return nil
	}
	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("platform responded with status %s: %s", resp.Status, data)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
