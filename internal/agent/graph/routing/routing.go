// Package routing holds the decision points of the recommendation graph.
// Every function here is pure: the route depends only on the state passed in.
package routing

import (
	"github.com/slasia/smart-restaurant/internal/agent/model"
)

// Route names the stage a decision point selects.
type Route string

const (
	ContinueToConversation Route = "continue_to_conversation"
	GoToFinalize           Route = "go_to_finalize"

	RunTools Route = "run_tools"
	Finalize Route = "finalize"
)

// AfterRetrieval sends the run to the conversation loop when retrieval
// reported the not-found sentinel and straight to finalize otherwise.
func AfterRetrieval(s model.State) Route {
	if s.PreferenceSummary == model.NotFoundSentinel {
		return ContinueToConversation
	}
	return GoToFinalize
}

// AfterConversation runs tools while the last turn is an assistant asking
// for them. Everything else, including an empty history or a trailing tool
// result, finalizes.
func AfterConversation(s model.State) Route {
	last := s.LastMessage()
	if last == nil {
		return Finalize
	}
	kind, err := model.KindOf(last)
	if err != nil {
		return Finalize
	}
	switch kind {
	case model.KindAssistant:
		if len(last.ToolCalls) > 0 {
			return RunTools
		}
		return Finalize
	case model.KindToolResult, model.KindUser, model.KindSystem:
		return Finalize
	default:
		return Finalize
	}
}
