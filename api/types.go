package api

import "ModMate/messages"

// MessageEvent is the payload the platform relay posts to /events for every
// message it observes.
type MessageEvent struct {
	Type    string         `json:"type"`
	EventID string         `json:"event_id"`
	Message InboundMessage `json:"message"`
}

// InboundMessage mirrors the platform's message object. Guild is nil for a
// direct conversation.
type InboundMessage struct {
	ID      string       `json:"id"`
	Content string       `json:"content"`
	Author  EventAuthor  `json:"author"`
	Channel EventChannel `json:"channel"`
	Guild   *EventGuild  `json:"guild,omitempty"`
}

type EventAuthor struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Bot   bool   `json:"bot"`
	Admin bool   `json:"admin"`
}

type EventChannel struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type EventGuild struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// toMessage converts the wire event into the core message record.
func (e MessageEvent) toMessage() messages.Message {
	m := messages.Message{
		MessageID:     e.Message.ID,
		Content:       e.Message.Content,
		UserID:        e.Message.Author.ID,
		UserName:      e.Message.Author.Name,
		ChannelID:     e.Message.Channel.ID,
		ChannelName:   e.Message.Channel.Name,
		AuthorIsBot:   e.Message.Author.Bot,
		AuthorIsAdmin: e.Message.Author.Admin,
	}
	if e.Message.Guild != nil {
		m.ServerID = e.Message.Guild.ID
		m.ServerName = e.Message.Guild.Name
	}
	return m
}
