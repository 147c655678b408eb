// Package moderation is the orchestration core: one inbound message is
// recorded, judged by the oracle, and the oracle's decoded actions are
// executed exactly once each. Failures are contained per message and per
// action; nothing here terminates the process.
package moderation

import (
	"context"
	"fmt"
	"strings"

	"ModMate/agent"
	"ModMate/ledger"
	"ModMate/messages"

	"github.com/inconshreveable/log15"
)

var logger = log15.New("module", "moderation")

// CommandPrefix marks messages handled by the command surface instead of
// the oracle.
const CommandPrefix = "!"

// Oracle is the opaque language model: one user turn in, one free-text
// reply out. Retries and model selection are its transport's concern.
type Oracle interface {
	Converse(ctx context.Context, userPrompt, systemPrompt string) (string, error)
}

// Moderator sequences the per-message pipeline: context record, prompt
// assembly, oracle call, decode, dispatch.
type Moderator struct {
	store      *messages.Store
	ledger     *ledger.Ledger
	oracle     Oracle
	dispatcher *Dispatcher
}

// New wires a moderator over explicitly owned stores; there is no ambient
// registry.
func New(store *messages.Store, led *ledger.Ledger, oracle Oracle, dispatcher *Dispatcher) *Moderator {
	return &Moderator{
		store:      store,
		ledger:     led,
		oracle:     oracle,
		dispatcher: dispatcher,
	}
}

// Moderate processes one in-server message. The message is always recorded
// in the bounded history first, so a failed cycle still leaves it visible to
// future turns. Bot authors and command invocations never reach the oracle.
func (m *Moderator) Moderate(ctx context.Context, msg messages.Message) error {
	m.ledger.EnsureServer(msg.ServerID, msg.ServerName)
	m.store.Record(msg)

	if msg.AuthorIsBot || strings.HasPrefix(msg.Content, CommandPrefix) {
		return nil
	}

	rules, err := m.ledger.Rules(msg.ServerID)
	if err != nil {
		return fmt.Errorf("moderate: %w", err)
	}
	systemPrompt := buildSystemPrompt(rules, msg.ServerName, m.ledger.RecentActions(msg.ServerID, 3), msg.AuthorIsAdmin)
	userPrompt := buildUserPrompt(msg, m.store.RecentHistory(msg.ServerID, msg.ChannelID))

	reply, err := m.oracle.Converse(ctx, userPrompt, systemPrompt)
	if err != nil {
		logger.Error("oracle call failed", "server", msg.ServerID, "channel", msg.ChannelID, "err", err)
		return fmt.Errorf("moderate: oracle: %w", err)
	}

	return m.dispatch(ctx, reply, msg)
}

// RespondDirect processes one direct (non-server) message: same pipeline,
// but the prompt carries cross-server rule summaries and the user's
// aggregated action history instead of a single server's log.
func (m *Moderator) RespondDirect(ctx context.Context, msg messages.Message) error {
	m.store.Record(msg)
	m.ledger.RecordDirectMessageID(msg.UserID, msg.MessageID)

	if msg.AuthorIsBot || strings.HasPrefix(msg.Content, CommandPrefix) {
		return nil
	}

	actions := m.ledger.ActionsForUser(msg.UserID, m.ledger.ServerIDs())
	systemPrompt := buildDirectSystemPrompt(m.ledger.RuleSummaries(), actions)
	userPrompt := buildDirectUserPrompt(msg, m.store.DMHistory(msg.UserID))

	reply, err := m.oracle.Converse(ctx, userPrompt, systemPrompt)
	if err != nil {
		logger.Error("oracle call failed", "user", msg.UserID, "err", err)
		return fmt.Errorf("respond direct: oracle: %w", err)
	}

	if err := m.dispatch(ctx, reply, msg); err != nil {
		return err
	}

	// A DM conversation expects an answer even when no action was taken.
	if text := replyText(reply); text != "" {
		if err := m.dispatcher.gateway.SendDM(ctx, msg.UserID, text); err != nil {
			logger.Error("failed to deliver DM reply", "user", msg.UserID, "err", err)
		}
	}
	return nil
}

// dispatch decodes the reply and executes every action independently: one
// action failing (invalid kind, gateway error) does not stop the rest.
// A malformed segment aborts dispatch for the whole reply.
func (m *Moderator) dispatch(ctx context.Context, reply string, msg messages.Message) error {
	calls, err := agent.ExtractToolCalls(reply)
	if err != nil {
		logger.Error("malformed oracle reply", "channel", msg.ChannelID, "err", err)
		return fmt.Errorf("dispatch: %w", err)
	}

	for _, call := range calls {
		if err := m.dispatcher.Execute(ctx, call, msg); err != nil {
			logger.Error("action failed", "action", call.Action, "err", err)
		}
	}
	return nil
}

// replyText strips every tool segment from the reply, leaving the
// conversational remainder.
func replyText(reply string) string {
	for {
		start := strings.Index(reply, "<tool>")
		if start < 0 {
			return strings.TrimSpace(reply)
		}
		end := strings.Index(reply[start:], "</tool>")
		if end < 0 {
			return strings.TrimSpace(reply[:start])
		}
		reply = reply[:start] + reply[start+end+len("</tool>"):]
	}
}
