package api

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"ModMate/db"
	"ModMate/messages"
	"ModMate/moderation"
)

// handleCommand runs the human-facing command surface. The message has
// already been recorded in context by the orchestrator; commands never reach
// the oracle's moderation path.
func (h *Handler) handleCommand(ctx context.Context, msg messages.Message) {
	name, arg := splitCommand(msg.Content)

	switch name {
	case "ping":
		h.handlePing(ctx, msg, arg)
	case "summarize":
		h.handleSummarize(ctx, msg)
	case "summarize_unread":
		h.handleSummarizeUnread(ctx, msg)
	case "modlog":
		h.handleModlog(ctx, msg, arg)
	default:
		logger.Info("unknown command ignored", "command", name, "user", msg.UserID)
	}
}

func splitCommand(content string) (name, arg string) {
	content = strings.TrimPrefix(content, moderation.CommandPrefix)
	name, arg, _ = strings.Cut(content, " ")
	return strings.ToLower(name), strings.TrimSpace(arg)
}

func (h *Handler) handlePing(ctx context.Context, msg messages.Message, arg string) {
	reply := "Pong!"
	if arg != "" {
		reply = fmt.Sprintf("Pong! Your argument was %s", arg)
	}
	h.reply(ctx, msg.ChannelID, reply)
}

// handleSummarize condenses the last SummaryMessageLimit channel messages,
// fetched fresh from the platform.
func (h *Handler) handleSummarize(ctx context.Context, msg messages.Message) {
	history, err := h.gateway.ChannelHistory(ctx, msg.ChannelID, SummaryMessageLimit)
	if err != nil {
		logger.Error("summarize: failed to fetch history", "channel", msg.ChannelID, "err", err)
		return
	}

	summary, err := h.summarizer.SummarizeMessages(ctx, history)
	if err != nil {
		logger.Error("summarize: oracle failed", "channel", msg.ChannelID, "err", err)
		return
	}
	h.reply(ctx, msg.ChannelID, fmt.Sprintf("Summary of the last %d messages:\n%s", SummaryMessageLimit, summary))
}

// handleSummarizeUnread summarizes the messages strictly after the caller's
// last-read cursor. Unread resolves against a fresh platform fetch ordered
// by snowflake id, never against the bounded in-memory window.
func (h *Handler) handleSummarizeUnread(ctx context.Context, msg messages.Message) {
	history, err := h.gateway.ChannelHistory(ctx, msg.ChannelID, unreadFetchLimit)
	if err != nil {
		logger.Error("summarize_unread: failed to fetch history", "channel", msg.ChannelID, "err", err)
		return
	}

	cursor, _ := h.store.LastRead(msg.UserID, msg.ChannelID)
	unread := unreadAfter(history, cursor, msg.MessageID)
	if len(unread) == 0 {
		h.reply(ctx, msg.ChannelID, noUnreadMessage)
		return
	}

	summary, err := h.summarizer.SummarizeMessages(ctx, unread)
	if err != nil {
		logger.Error("summarize_unread: oracle failed", "channel", msg.ChannelID, "err", err)
		return
	}
	h.reply(ctx, msg.ChannelID, "Summary of unread messages:\n"+summary)

	h.store.UpdateLastRead(msg.UserID, msg.ChannelID, unread[len(unread)-1].MessageID)
}

// unreadAfter keeps messages whose snowflake id is numerically greater than
// the cursor, in chronological order. No cursor means everything is unread.
// The command invocation itself is excluded.
func unreadAfter(history []messages.Message, cursor, triggerID string) []messages.Message {
	var unread []messages.Message
	for _, m := range history {
		if m.MessageID == triggerID {
			continue
		}
		if cursor != "" && compareSnowflakes(m.MessageID, cursor) <= 0 {
			continue
		}
		unread = append(unread, m)
	}
	return unread
}

func compareSnowflakes(a, b string) int {
	na, errA := strconv.ParseUint(a, 10, 64)
	nb, errB := strconv.ParseUint(b, 10, 64)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	switch {
	case na < nb:
		return -1
	case na > nb:
		return 1
	default:
		return 0
	}
}

// handleModlog lets a server administrator choose the daily digest channel.
func (h *Handler) handleModlog(ctx context.Context, msg messages.Message, arg string) {
	if msg.IsDirect() {
		return
	}
	if !msg.AuthorIsAdmin {
		h.reply(ctx, msg.ChannelID, modlogAdminOnlyMessage)
		return
	}
	if !db.Enabled() {
		h.reply(ctx, msg.ChannelID, archiveDisabledMessage)
		return
	}

	channelID := strings.Trim(arg, "<#>")
	if channelID == "" {
		h.reply(ctx, msg.ChannelID, modlogUsageMessage)
		return
	}

	if err := db.UpsertServerConfig(msg.ServerID, msg.ServerName, channelID); err != nil {
		logger.Error("modlog: failed to save config", "server", msg.ServerID, "err", err)
		h.reply(ctx, msg.ChannelID, "Couldn't update the digest channel. Please try again.")
		return
	}
	h.reply(ctx, msg.ChannelID, fmt.Sprintf("Daily mod-log digest will be posted to <#%s>.", channelID))
}

func (h *Handler) reply(ctx context.Context, channelID, text string) {
	if err := h.gateway.SendMessage(ctx, channelID, text); err != nil {
		logger.Error("failed to send reply", "channel", channelID, "err", err)
	}
}
