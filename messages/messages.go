package messages

import (
	"sync"
)

// MaxMessageContext is the number of messages kept per conversation scope.
const MaxMessageContext = 10

// Message is an immutable record of one observed chat message.
type Message struct {
	MessageID   string `json:"message_id"`
	Content     string `json:"content"`
	UserID      string `json:"user_id"`
	UserName    string `json:"user_name"`
	ChannelID   string `json:"channel_id"`
	ChannelName string `json:"channel_name"`
	ServerID    string `json:"server_id"`
	ServerName  string `json:"server_name"`

	AuthorIsBot   bool `json:"author_is_bot,omitempty"`
	AuthorIsAdmin bool `json:"author_is_admin,omitempty"`
}

// IsDirect reports whether the message belongs to a direct (non-server)
// conversation.
func (m Message) IsDirect() bool {
	return m.ServerID == ""
}

type channelKey struct {
	serverID  string
	channelID string
}

type cursorKey struct {
	channelID string
	userID    string
}

// Store holds the bounded per-scope conversation history and the per-user
// last-read cursors. Conversation history is ephemeral; only the ledger is
// persisted.
type Store struct {
	mu       sync.Mutex
	channels map[channelKey][]Message
	dms      map[string][]Message
	lastRead map[cursorKey]string
	cap      int
}

// NewStore creates an empty store with the default history cap.
func NewStore() *Store {
	return &Store{
		channels: make(map[channelKey][]Message),
		dms:      make(map[string][]Message),
		lastRead: make(map[cursorKey]string),
		cap:      MaxMessageContext,
	}
}

// Record appends the message to its scope's history, evicting the oldest
// entry once the cap is exceeded. Appends to the same scope are atomic.
func (s *Store) Record(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.IsDirect() {
		s.dms[m.UserID] = appendBounded(s.dms[m.UserID], m, s.cap)
		return
	}
	key := channelKey{serverID: m.ServerID, channelID: m.ChannelID}
	s.channels[key] = appendBounded(s.channels[key], m, s.cap)
}

func appendBounded(window []Message, m Message, cap int) []Message {
	window = append(window, m)
	if len(window) > cap {
		window = window[len(window)-cap:]
	}
	return window
}

// RecentHistory returns the current window for a (server, channel) scope,
// oldest first. The returned slice is a copy.
func (s *Store) RecentHistory(serverID, channelID string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	window := s.channels[channelKey{serverID: serverID, channelID: channelID}]
	out := make([]Message, len(window))
	copy(out, window)
	return out
}

// DMHistory returns the current direct-conversation window for a user,
// oldest first.
func (s *Store) DMHistory(userID string) []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	window := s.dms[userID]
	out := make([]Message, len(window))
	copy(out, window)
	return out
}

// UpdateLastRead moves the user's cursor in a channel to the given message id.
func (s *Store) UpdateLastRead(userID, channelID, messageID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRead[cursorKey{channelID: channelID, userID: userID}] = messageID
}

// LastRead returns the user's cursor in a channel, if one has been set.
func (s *Store) LastRead(userID, channelID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.lastRead[cursorKey{channelID: channelID, userID: userID}]
	return id, ok
}
