package model

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
)

func TestAppendDoesNotAlias(t *testing.T) {
	base := NewState("run", "pasta", 3).Append(NewUserMessage("one"))
	// leave spare capacity so a naive append would share the backing array
	base.History = append(make([]*schema.Message, 0, 8), base.History...)

	left := base.Append(schema.AssistantMessage("left", nil))
	right := base.Append(schema.AssistantMessage("right", nil))

	assert.Len(t, base.History, 1)
	assert.Equal(t, "left", left.LastMessage().Content)
	assert.Equal(t, "right", right.LastMessage().Content)
	assert.True(t, HistoryHasPrefix(base.History, left.History))
	assert.True(t, HistoryHasPrefix(base.History, right.History))
}

func TestHistoryHasPrefix(t *testing.T) {
	a := NewUserMessage("a")
	b := schema.AssistantMessage("b", nil)

	assert.True(t, HistoryHasPrefix(nil, []*schema.Message{a}))
	assert.True(t, HistoryHasPrefix([]*schema.Message{a}, []*schema.Message{a, b}))
	assert.False(t, HistoryHasPrefix([]*schema.Message{a, b}, []*schema.Message{a}))
	assert.False(t, HistoryHasPrefix([]*schema.Message{a, b}, []*schema.Message{b, a}))
}

func TestUsableSummary(t *testing.T) {
	s := NewState("run", "q", 1)
	assert.False(t, s.UsableSummary())
	assert.False(t, s.WithSummary("").UsableSummary())
	assert.False(t, s.WithSummary("   ").UsableSummary())
	assert.False(t, s.WithSummary(NotFoundSentinel).UsableSummary())
	assert.False(t, s.WithSummary(NoContentSentinel).UsableSummary())
	assert.True(t, s.WithSummary("La Vieja Rotisería").UsableSummary())
}

func TestLastMessageEmpty(t *testing.T) {
	assert.Nil(t, State{}.LastMessage())
}

func TestAnswerFound(t *testing.T) {
	assert.True(t, Answer{Text: "Try X", Source: SourceConversation}.Found())
	assert.False(t, Answer{Text: NoAnswerPlaceholder, Source: SourcePlaceholder}.Found())
	assert.False(t, Answer{Text: CouldNotCompleteAnswer, Source: SourceConversation}.Found())
}

func TestRunStatsSteps(t *testing.T) {
	assert.Equal(t, 0, (&RunStats{}).Steps())
	stats := &RunStats{Visits: map[string]int{"Retrieval": 1, "Conversation": 3, "Tools": 2}}
	assert.Equal(t, 6, stats.Steps())
}

func TestUsageAdd(t *testing.T) {
	var u Usage
	u.Add(&schema.TokenUsage{PromptTokens: 1_000_000, CompletionTokens: 1_000_000}, ResolvePricing("gemini-2.5-flash"))
	u.Add(nil, Pricing{})

	assert.Equal(t, 2, u.ModelCalls)
	assert.Equal(t, 1_000_000, u.PromptTokens)
	assert.InDelta(t, 2.80, u.TotalCostUSD, 1e-9)
	assert.Equal(t, Pricing{}, ResolvePricing("unknown-model"))
}

func TestUsageMergeAndToAnswer(t *testing.T) {
	s := NewState("run-7", "pizza", 2)
	s.Usage = Usage{ModelCalls: 1, PromptTokens: 10}
	s.Usage.Merge(Usage{ModelCalls: 2, ToolCalls: 1, CompletionTokens: 5, TotalCostUSD: 0.5})
	s.Iterations = 1
	s.FinalAnswer = "Try X"
	s.AnswerSource = SourceConversation

	a := s.ToAnswer()
	assert.Equal(t, Answer{
		RunID:      "run-7",
		Query:      "pizza",
		Text:       "Try X",
		Source:     SourceConversation,
		Iterations: 1,
		Usage:      Usage{ModelCalls: 3, ToolCalls: 1, PromptTokens: 10, CompletionTokens: 5, TotalCostUSD: 0.5},
	}, a)
}
