package ledger

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"ModMate/messages"

	"github.com/inconshreveable/log15"
)

var logger = log15.New("module", "ledger")

// DefaultRules is the policy text a server starts with before an
// administrator (or the model) replaces it.
const DefaultRules = "Allow everything and don't do anything."

const (
	// MaxRecentActions caps a server's chronological recent-action log.
	MaxRecentActions = 20
	// MaxUserActions caps each per-user action history on the write side.
	MaxUserActions = 100
	// MaxActionsForUser caps the aggregated read-side view.
	MaxActionsForUser = 20
)

// ErrServerNotFound is returned when a rule update names an unknown server.
var ErrServerNotFound = errors.New("server not found")

// ModAction records one enforcement action together with the message that
// triggered it.
type ModAction struct {
	Action  string           `json:"action"`
	Message messages.Message `json:"message"`
}

// Server is the durable per-server moderation state.
type Server struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Rules         string                 `json:"rules"`
	RecentActions []ModAction            `json:"recent_actions"`
	Actions       map[string][]ModAction `json:"actions"`
}

// Ledger holds every server's rules and action history plus the
// direct-conversation message-id history, and snapshots itself to disk on
// every mutation. Persistence is best-effort: a failed write is logged and
// the in-memory state stays authoritative.
type Ledger struct {
	mu        sync.Mutex
	servers   map[string]*Server
	dmHistory map[string][]string
	dir       string
}

// New creates an empty ledger that snapshots into dir.
func New(dir string) *Ledger {
	return &Ledger{
		servers:   make(map[string]*Server),
		dmHistory: make(map[string][]string),
		dir:       dir,
	}
}

// EnsureServer creates the server record with the default policy text if it
// does not exist yet. Existing records are never overwritten.
func (l *Ledger) EnsureServer(serverID, name string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.servers[serverID]; ok {
		return
	}
	l.servers[serverID] = &Server{
		ID:      serverID,
		Name:    name,
		Rules:   DefaultRules,
		Actions: make(map[string][]ModAction),
	}
	logger.Info("registered server", "server", serverID, "name", name)
	l.saveLocked()
}

// SetRules replaces the server's policy text wholesale.
func (l *Ledger) SetRules(serverID, rules string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	server, ok := l.servers[serverID]
	if !ok {
		return fmt.Errorf("set rules for %s: %w", serverID, ErrServerNotFound)
	}
	server.Rules = rules
	logger.Info("rules updated", "server", serverID)
	l.saveLocked()
	return nil
}

// Rules returns the server's current policy text.
func (l *Ledger) Rules(serverID string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	server, ok := l.servers[serverID]
	if !ok {
		return "", fmt.Errorf("rules for %s: %w", serverID, ErrServerNotFound)
	}
	return server.Rules, nil
}

// ServerName returns the display name recorded for a server.
func (l *Ledger) ServerName(serverID string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if server, ok := l.servers[serverID]; ok {
		return server.Name
	}
	return serverID
}

// RecordAction appends the action to the user's history and to the server's
// bounded recent log. Both views are updated under one lock, then the ledger
// is snapshotted.
func (l *Ledger) RecordAction(serverID, userID, action string, trigger messages.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()

	server, ok := l.servers[serverID]
	if !ok {
		// A server record exists before any action is recorded against it;
		// an unknown id here means the action named a foreign server.
		logger.Warn("action against unknown server dropped", "server", serverID, "action", action)
		return
	}

	entry := ModAction{Action: action, Message: trigger}

	server.Actions[userID] = append(server.Actions[userID], entry)
	if len(server.Actions[userID]) > MaxUserActions {
		server.Actions[userID] = server.Actions[userID][len(server.Actions[userID])-MaxUserActions:]
	}

	server.RecentActions = append(server.RecentActions, entry)
	if len(server.RecentActions) > MaxRecentActions {
		server.RecentActions = server.RecentActions[len(server.RecentActions)-MaxRecentActions:]
	}

	logger.Info("action recorded", "server", serverID, "user", userID, "action", action)
	l.saveLocked()
}

// RecentActions returns up to n of the server's most recent actions,
// oldest first. An unknown server yields nil.
func (l *Ledger) RecentActions(serverID string, n int) []ModAction {
	l.mu.Lock()
	defer l.mu.Unlock()

	server, ok := l.servers[serverID]
	if !ok {
		return nil
	}
	recent := server.RecentActions
	if len(recent) > n {
		recent = recent[len(recent)-n:]
	}
	out := make([]ModAction, len(recent))
	copy(out, recent)
	return out
}

// ActionsForUser concatenates the user's action histories across the given
// servers, in serverIDs order, and keeps the newest MaxActionsForUser entries
// of the concatenation. Entries are chronological within a server; truncating
// from the front means one server's old backlog never masks another server's
// history. Unknown server ids are skipped.
func (l *Ledger) ActionsForUser(userID string, serverIDs []string) []ModAction {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []ModAction
	for _, serverID := range serverIDs {
		server, ok := l.servers[serverID]
		if !ok {
			continue
		}
		out = append(out, server.Actions[userID]...)
	}
	if len(out) > MaxActionsForUser {
		out = out[len(out)-MaxActionsForUser:]
	}
	return out
}

// ServerIDs returns every known server id, sorted.
func (l *Ledger) ServerIDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	ids := make([]string, 0, len(l.servers))
	for id := range l.servers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RuleSummaries returns each server's display name and policy text, for the
// direct-conversation prompt.
func (l *Ledger) RuleSummaries() map[string]string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string]string, len(l.servers))
	for _, server := range l.servers {
		out[server.Name] = server.Rules
	}
	return out
}

// RecordDirectMessageID appends a message id to the user's direct-conversation
// history and snapshots the ledger.
func (l *Ledger) RecordDirectMessageID(userID, messageID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.dmHistory[userID] = append(l.dmHistory[userID], messageID)
	l.saveLocked()
}

// DirectMessageIDs returns the recorded direct-conversation message ids for
// a user, oldest first.
func (l *Ledger) DirectMessageIDs(userID string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]string, len(l.dmHistory[userID]))
	copy(out, l.dmHistory[userID])
	return out
}
