package agent

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	toolOpenTag  = "<tool>"
	toolCloseTag = "</tool>"
)

// ToolCall is one structured action request extracted from a model reply.
// Action is kept as the wire string; ParseActionKind validates it against
// the vocabulary.
type ToolCall struct {
	Action string            `json:"action"`
	Args   map[string]string `json:"args"`
}

// DecodeError reports a delimited segment whose body was not a valid
// tool-call payload. One bad segment fails the whole reply.
type DecodeError struct {
	Segment string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode tool segment %q: %v", e.Segment, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ExtractToolCalls scans the reply for all non-overlapping <tool>...</tool>
// segments and parses each body as a JSON tool call. A reply with no
// segments is a valid empty result. An open tag without a matching close tag
// is not a segment and is ignored.
func ExtractToolCalls(reply string) ([]ToolCall, error) {
	var calls []ToolCall

	rest := reply
	for {
		start := strings.Index(rest, toolOpenTag)
		if start < 0 {
			return calls, nil
		}
		rest = rest[start+len(toolOpenTag):]

		end := strings.Index(rest, toolCloseTag)
		if end < 0 {
			return calls, nil
		}
		body := strings.TrimSpace(rest[:end])
		rest = rest[end+len(toolCloseTag):]

		call, err := decodeToolCall(body)
		if err != nil {
			return nil, &DecodeError{Segment: body, Err: err}
		}
		calls = append(calls, call)
	}
}

func decodeToolCall(body string) (ToolCall, error) {
	var call ToolCall
	if err := json.Unmarshal([]byte(body), &call); err != nil {
		return ToolCall{}, err
	}
	if call.Action == "" {
		return ToolCall{}, fmt.Errorf("missing action field")
	}
	if call.Args == nil {
		call.Args = make(map[string]string)
	}
	return call, nil
}
