package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
)

// Kind discriminates the message variants a run history may hold.
type Kind int

const (
	KindUser Kind = iota + 1
	KindAssistant
	KindToolResult
	// KindSystem only appears in the retrieval sub-session seed.
	KindSystem
)

func (k Kind) String() string {
	switch k {
	case KindUser:
		return "user"
	case KindAssistant:
		return "assistant"
	case KindToolResult:
		return "tool_result"
	case KindSystem:
		return "system"
	default:
		return "unknown"
	}
}

var (
	ErrNilMessage       = errors.New("message is nil")
	ErrUnknownRole      = errors.New("unknown message role")
	ErrMissingCallID    = errors.New("tool result has no tool_call_id")
	ErrMalformedRequest = errors.New("malformed tool request")
)

// KindOf classifies m. Malformed messages are rejected rather than guessed at.
func KindOf(m *schema.Message) (Kind, error) {
	if m == nil {
		return 0, ErrNilMessage
	}
	switch m.Role {
	case schema.User:
		return KindUser, nil
	case schema.Assistant:
		if err := validateToolCalls(m.ToolCalls); err != nil {
			return 0, err
		}
		return KindAssistant, nil
	case schema.Tool:
		if strings.TrimSpace(m.ToolCallID) == "" {
			return 0, ErrMissingCallID
		}
		return KindToolResult, nil
	case schema.System:
		return KindSystem, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRole, m.Role)
	}
}

// RequestsTools reports whether m is an assistant turn asking for tool execution.
func RequestsTools(m *schema.Message) bool {
	kind, err := KindOf(m)
	return err == nil && kind == KindAssistant && len(m.ToolCalls) > 0
}

// IsTerminalAnswer reports whether m is an assistant turn with no tool requests.
func IsTerminalAnswer(m *schema.Message) bool {
	kind, err := KindOf(m)
	return err == nil && kind == KindAssistant && len(m.ToolCalls) == 0
}

func NewUserMessage(content string) *schema.Message {
	return schema.UserMessage(content)
}

func NewSystemMessage(content string) *schema.Message {
	return schema.SystemMessage(content)
}

// NewAssistantMessage builds an assistant turn, rejecting tool requests
// without an id or sharing one. An empty tool name is left for the invoker
// to report as an unknown tool.
func NewAssistantMessage(content string, calls []schema.ToolCall) (*schema.Message, error) {
	if err := validateToolCalls(calls); err != nil {
		return nil, err
	}
	return schema.AssistantMessage(content, calls), nil
}

// NewToolResult builds the tool turn answering the request with callID.
func NewToolResult(callID, toolName, content string) (*schema.Message, error) {
	if strings.TrimSpace(callID) == "" {
		return nil, ErrMissingCallID
	}
	return &schema.Message{
		Role:       schema.Tool,
		Content:    content,
		ToolCallID: callID,
		ToolName:   toolName,
	}, nil
}

// DecodeArguments decodes the arguments of a tool request. Empty arguments
// decode to an empty map.
func DecodeArguments(raw string) (map[string]any, error) {
	args := map[string]any{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("%w: arguments are not a JSON object: %v", ErrMalformedRequest, err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// Call ids answer tool results one to one, so they must be unique per turn.
func validateToolCalls(calls []schema.ToolCall) error {
	seen := make(map[string]struct{}, len(calls))
	for _, call := range calls {
		if strings.TrimSpace(call.ID) == "" {
			return fmt.Errorf("%w: missing id for %q", ErrMalformedRequest, call.Function.Name)
		}
		if _, dup := seen[call.ID]; dup {
			return fmt.Errorf("%w: duplicate id %q", ErrMalformedRequest, call.ID)
		}
		seen[call.ID] = struct{}{}
	}
	return nil
}
