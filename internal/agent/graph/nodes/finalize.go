package nodes

import (
	"strings"

	"github.com/slasia/smart-restaurant/internal/agent/model"
)

// Finalize picks the final answer: a usable preference summary first, then
// the latest assistant turn without tool requests, then the last turn of
// any kind, then the placeholder. It never touches the history, so calling
// it again yields the same answer.
func Finalize(s model.State) model.State {
	if s.UsableSummary() {
		s.FinalAnswer = s.PreferenceSummary
		s.AnswerSource = model.SourceRetrieval
		return s
	}

	text, found := lastTerminalAnswer(s)
	if !found {
		if last := s.LastMessage(); last != nil {
			text, found = last.Content, true
		}
	}

	trimmed := strings.TrimSpace(text)
	if !found || trimmed == "" || trimmed == model.NotFoundSentinel {
		s.FinalAnswer = model.NoAnswerPlaceholder
		s.AnswerSource = model.SourcePlaceholder
		return s
	}
	s.FinalAnswer = text
	s.AnswerSource = model.SourceConversation
	return s
}

func lastTerminalAnswer(s model.State) (string, bool) {
	for i := len(s.History) - 1; i >= 0; i-- {
		if model.IsTerminalAnswer(s.History[i]) {
			return s.History[i].Content, true
		}
	}
	return "", false
}
