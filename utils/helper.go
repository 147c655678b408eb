package utils

import (
	"fmt"
	"strings"

	"ModMate/messages"
)

// FormatMessage renders a message record the way it appears in prompts.
func FormatMessage(m messages.Message) string {
	if m.IsDirect() {
		return fmt.Sprintf("%s (user id: %s, message id: %s):\n%s",
			m.UserName, m.UserID, m.MessageID, m.Content)
	}
	return fmt.Sprintf("%s (user id: %s, message id: %s) in %s (channel id: %s) in server %s (server id: %s):\n%s",
		m.UserName, m.UserID, m.MessageID,
		m.ChannelName, m.ChannelID,
		m.ServerName, m.ServerID,
		m.Content)
}

// FormatMessages renders a chronological window of messages, one per block.
func FormatMessages(msgs []messages.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, FormatMessage(m))
	}
	return strings.Join(lines, "\n")
}
