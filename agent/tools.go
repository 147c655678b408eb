package agent

import (
	"encoding/json"
	"fmt"
	"sync"
)

// ActionKind enumerates the closed set of moderation actions the model may
// request. The dispatcher matches it exhaustively.
type ActionKind int

const (
	ActionSendDM ActionKind = iota
	ActionSendMessage
	ActionDeleteMessage
	ActionBanUser
	ActionUnbanUser
	ActionKickUser
	ActionUpdateServerRules
)

var actionNames = map[ActionKind]string{
	ActionSendDM:            "send_dm",
	ActionSendMessage:       "send_message",
	ActionDeleteMessage:     "delete_message",
	ActionBanUser:           "ban_user",
	ActionUnbanUser:         "unban_user",
	ActionKickUser:          "kick_user",
	ActionUpdateServerRules: "update_server_rules",
}

var actionKinds = func() map[string]ActionKind {
	m := make(map[string]ActionKind, len(actionNames))
	for kind, name := range actionNames {
		m[name] = kind
	}
	return m
}()

func (k ActionKind) String() string {
	return actionNames[k]
}

// ParseActionKind converts a wire-level action name into an ActionKind.
// Unknown names are rejected here, at the protocol boundary.
func ParseActionKind(name string) (ActionKind, error) {
	kind, ok := actionKinds[name]
	if !ok {
		return 0, fmt.Errorf("unknown action %q", name)
	}
	return kind, nil
}

// Tool describes one action and its parameters in the schema advertised to
// the model.
type Tool struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  ToolParams `json:"parameters"`
}

// ToolParams is the parameter object schema of a tool.
type ToolParams struct {
	Type       string               `json:"type"`
	Properties map[string]ToolParam `json:"properties"`
}

// ToolParam describes a single string parameter.
type ToolParam struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

func stringParam(description string) ToolParam {
	return ToolParam{Type: "string", Description: description}
}

// Tools is the static schema for the action vocabulary.
var Tools = []Tool{
	{
		Name:        "send_dm",
		Description: "Send a direct message to a user",
		Parameters: ToolParams{Type: "object", Properties: map[string]ToolParam{
			"user_id": stringParam("The ID of the user to send the message to"),
			"message": stringParam("The message to send to the user"),
		}},
	},
	{
		Name:        "send_message",
		Description: "Send a message to a channel",
		Parameters: ToolParams{Type: "object", Properties: map[string]ToolParam{
			"channel_id": stringParam("The ID of the channel to send the message to"),
			"message":    stringParam("The message to send to the channel"),
		}},
	},
	{
		Name:        "delete_message",
		Description: "Delete a message from a channel",
		Parameters: ToolParams{Type: "object", Properties: map[string]ToolParam{
			"channel_id": stringParam("The ID of the channel the message is in"),
			"message_id": stringParam("The ID of the message to delete"),
		}},
	},
	{
		Name:        "ban_user",
		Description: "Ban a user from a server",
		Parameters: ToolParams{Type: "object", Properties: map[string]ToolParam{
			"server_id": stringParam("The ID of the server to ban the user from"),
			"user_id":   stringParam("The ID of the user to ban from the server"),
		}},
	},
	{
		Name:        "unban_user",
		Description: "Unban a user from a server",
		Parameters: ToolParams{Type: "object", Properties: map[string]ToolParam{
			"server_id": stringParam("The ID of the server to unban the user from"),
			"user_id":   stringParam("The ID of the user to unban from the server"),
		}},
	},
	{
		Name:        "kick_user",
		Description: "Kick a user from a server",
		Parameters: ToolParams{Type: "object", Properties: map[string]ToolParam{
			"server_id": stringParam("The ID of the server to kick the user from"),
			"user_id":   stringParam("The ID of the user to kick from the server"),
		}},
	},
	{
		Name:        "update_server_rules",
		Description: "Update the rules of a server",
		Parameters: ToolParams{Type: "object", Properties: map[string]ToolParam{
			"server_id": stringParam("The ID of the server to update the rules of"),
			"rules":     stringParam("The full set of new rules for the server"),
		}},
	},
}

var (
	toolSchemaOnce sync.Once
	toolSchemaJSON string
)

// ToolSchemaJSON returns the action vocabulary serialized for inclusion in
// outbound prompts. The schema is static; it is encoded once.
func ToolSchemaJSON() string {
	toolSchemaOnce.Do(func() {
		data, err := json.Marshal(Tools)
		if err != nil {
			// Tools is a fixed literal; this cannot happen at runtime.
			panic(fmt.Sprintf("encode tool schema: %v", err))
		}
		toolSchemaJSON = string(data)
	})
	return toolSchemaJSON
}
