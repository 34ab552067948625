// Package conversations builds and reads message histories.
package conversations

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/slasia/smart-restaurant/internal/agent/model"
)

// SessionContext returns the opening turns of a retrieval sub-session.
func SessionContext(system *schema.Message, query string) []*schema.Message {
	return []*schema.Message{system, model.NewUserMessage(query)}
}

// FinalReply returns the content of the latest assistant turn without tool
// requests, or "" when there is none.
func FinalReply(history []*schema.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if model.IsTerminalAnswer(history[i]) {
			return history[i].Content
		}
	}
	return ""
}

// Render writes the last maxTurns turns as a readable transcript. A
// non-positive maxTurns renders everything.
func Render(history []*schema.Message, maxTurns int) string {
	recent := trimTail(history, maxTurns)

	var b strings.Builder
	for _, msg := range recent {
		kind, err := model.KindOf(msg)
		if err != nil {
			fmt.Fprintf(&b, "InvalidMessage(%v)\n", err)
			continue
		}
		switch kind {
		case model.KindUser:
			b.WriteString("UserMessage(" + msg.Content + ")\n")
		case model.KindSystem:
			b.WriteString("SystemMessage(" + msg.Content + ")\n")
		case model.KindAssistant:
			if len(msg.ToolCalls) == 0 {
				b.WriteString("AssistantMessage(" + msg.Content + ")\n")
				continue
			}
			calls := make([]string, 0, len(msg.ToolCalls))
			for _, c := range msg.ToolCalls {
				calls = append(calls, fmt.Sprintf("%s#%s %s", c.Function.Name, c.ID, c.Function.Arguments))
			}
			b.WriteString("AssistantMessage(tool_requests: " + strings.Join(calls, "; ") + ")\n")
		case model.KindToolResult:
			b.WriteString("ToolResult(" + msg.ToolCallID + ": " + msg.Content + ")\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// ====================== Helper function ======================
func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if maxTurns <= 0 || len(messages) <= maxTurns {
		result := make([]*schema.Message, len(messages))
		copy(result, messages)
		return result
	}
	source := messages[len(messages)-maxTurns:]
	result := make([]*schema.Message, len(source))
	copy(result, source)
	return result
}
