package moderation

import (
	"context"
	"errors"
	"fmt"

	"ModMate/agent"
	"ModMate/ledger"
	"ModMate/messages"
)

// ErrInvalidAction marks a decoded action whose kind is not in the
// vocabulary. The caller logs it, skips the action, and keeps dispatching
// the rest of the reply.
var ErrInvalidAction = errors.New("invalid action")

// Gateway is what the dispatcher needs from the platform binding.
type Gateway interface {
	SendDM(ctx context.Context, userID, message string) error
	SendMessage(ctx context.Context, channelID, message string) error
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	BanUser(ctx context.Context, serverID, userID string) error
	UnbanUser(ctx context.Context, serverID, userID string) error
	KickUser(ctx context.Context, serverID, userID string) error
}

// Archiver is the optional durable side channel for executed actions (the
// Postgres archive behind the daily digest). Failures are logged, never
// propagated into dispatch.
type Archiver interface {
	SaveAction(serverID, userID, action string, trigger messages.Message) error
}

// Dispatcher validates decoded actions against the closed vocabulary and
// executes each exactly once: one gateway call per platform-mutating action,
// one ledger mutation for a rules update.
type Dispatcher struct {
	gateway Gateway
	ledger  *ledger.Ledger
	archive Archiver
}

// NewDispatcher wires the dispatcher. archive may be nil.
func NewDispatcher(gw Gateway, led *ledger.Ledger, archive Archiver) *Dispatcher {
	return &Dispatcher{gateway: gw, ledger: led, archive: archive}
}

// Execute runs one decoded tool call. Errors are per-action: the caller
// continues with the remaining actions of the same reply.
func (d *Dispatcher) Execute(ctx context.Context, call agent.ToolCall, trigger messages.Message) error {
	kind, err := agent.ParseActionKind(call.Action)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAction, err)
	}

	serverID := call.Args["server_id"]
	if serverID == "" {
		serverID = trigger.ServerID
	}
	targetUser := call.Args["user_id"]
	if targetUser == "" {
		targetUser = trigger.UserID
	}

	switch kind {
	case agent.ActionSendDM:
		// Message sends are state changes, not actions taken against a
		// user, so they are not recorded in the ledger.
		return d.gateway.SendDM(ctx, call.Args["user_id"], call.Args["message"])

	case agent.ActionSendMessage:
		return d.gateway.SendMessage(ctx, call.Args["channel_id"], call.Args["message"])

	case agent.ActionDeleteMessage:
		if err := d.gateway.DeleteMessage(ctx, call.Args["channel_id"], call.Args["message_id"]); err != nil {
			return err
		}

	case agent.ActionBanUser:
		if err := d.gateway.BanUser(ctx, serverID, targetUser); err != nil {
			return err
		}

	case agent.ActionUnbanUser:
		if err := d.gateway.UnbanUser(ctx, serverID, targetUser); err != nil {
			return err
		}

	case agent.ActionKickUser:
		if err := d.gateway.KickUser(ctx, serverID, targetUser); err != nil {
			return err
		}

	case agent.ActionUpdateServerRules:
		// No platform call: the rules live in the ledger, which persists
		// on mutation. Rule updates are not recorded as user actions.
		return d.ledger.SetRules(serverID, call.Args["rules"])
	}

	d.record(kind, serverID, targetUser, trigger)
	return nil
}

// record lands the executed action in both ledger views and, best-effort,
// the archive. Only reached after the gateway call succeeded.
func (d *Dispatcher) record(kind agent.ActionKind, serverID, userID string, trigger messages.Message) {
	d.ledger.RecordAction(serverID, userID, kind.String(), trigger)

	if d.archive == nil {
		return
	}
	if err := d.archive.SaveAction(serverID, userID, kind.String(), trigger); err != nil {
		logger.Error("failed to archive action", "server", serverID, "action", kind.String(), "err", err)
	}
}
