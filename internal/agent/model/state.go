package model

import (
	"slices"
	"strings"

	"github.com/cloudwego/eino/schema"
)

const (
	// NotFoundSentinel is written by the retrieval stage when the knowledge
	// base could not answer the query.
	NotFoundSentinel = "false"
	// NoContentSentinel marks a retrieval hit whose reply was empty.
	NoContentSentinel = "No response from RAG"
	// NoAnswerPlaceholder is returned when a run produced nothing usable.
	NoAnswerPlaceholder = "No response generated"
	// CouldNotCompleteAnswer terminates a conversation that ran out of
	// iterations or whose model call failed.
	CouldNotCompleteAnswer = "Could not complete the recommendation: the assistant did not reach a final answer."
)

// Answer sources.
const (
	SourceRetrieval    = "retrieval"
	SourceConversation = "conversation"
	SourcePlaceholder  = "placeholder"
)

// QueryInput represents the input for one recommendation run.
type QueryInput struct {
	Query string `json:"query"`
}

// State is the request state threaded through every stage of one run.
// Stages take a State by value and return a new one; use Append to grow the
// history so earlier states never observe the change.
type State struct {
	RunID string
	Query string

	// PreferenceSummary is the answer in progress. HasSummary distinguishes an
	// absent summary from an empty one.
	PreferenceSummary string
	HasSummary        bool

	History []*schema.Message

	// IterationsRemaining is the number of model calls the conversation stage
	// may still make before it is forced to finalize.
	IterationsRemaining int
	// Iterations counts model calls made by the conversation stage.
	Iterations int

	Usage Usage

	// FinalAnswer and AnswerSource are set by the finalizer.
	FinalAnswer  string
	AnswerSource string
}

// NewState creates the state for a fresh run.
func NewState(runID, query string, maxIterations int) State {
	return State{
		RunID:               runID,
		Query:               query,
		IterationsRemaining: maxIterations,
	}
}

// Append returns a copy of s whose history has msgs added at the end.
func (s State) Append(msgs ...*schema.Message) State {
	history := make([]*schema.Message, 0, len(s.History)+len(msgs))
	history = append(history, s.History...)
	history = append(history, msgs...)
	s.History = history
	return s
}

// WithSummary returns a copy of s carrying summary as the answer in progress.
func (s State) WithSummary(summary string) State {
	s.PreferenceSummary = summary
	s.HasSummary = true
	return s
}

// LastMessage returns the most recent history entry, or nil.
func (s State) LastMessage() *schema.Message {
	if len(s.History) == 0 {
		return nil
	}
	return s.History[len(s.History)-1]
}

// UsableSummary reports whether the summary is a real answer rather than
// absent, empty or one of the internal sentinels.
func (s State) UsableSummary() bool {
	if !s.HasSummary || strings.TrimSpace(s.PreferenceSummary) == "" {
		return false
	}
	return s.PreferenceSummary != NotFoundSentinel && s.PreferenceSummary != NoContentSentinel
}

// HistoryHasPrefix reports whether next extends prev without dropping or
// reordering entries.
func HistoryHasPrefix(prev, next []*schema.Message) bool {
	if len(next) < len(prev) {
		return false
	}
	return slices.Equal(prev, next[:len(prev)])
}

// Usage accumulates token usage and cost across the model calls of a run.
type Usage struct {
	ModelCalls       int     `json:"model_calls"`
	ToolCalls        int     `json:"tool_calls"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalCostUSD     float64 `json:"total_cost_usd"`
}

// RunStats is the graph local state of one run.
// Concurrency model:
//   - Registered through compose.WithGenLocalState, so every Invoke gets its own.
//   - Only touched inside state handlers or compose.ProcessState, which eino
//     serialises; no extra locking is needed.
type RunStats struct {
	Usage Usage
	// Visits counts node executions by node key.
	Visits map[string]int
}

// Steps is the number of node executions so far.
func (r *RunStats) Steps() int {
	n := 0
	for _, v := range r.Visits {
		n += v
	}
	return n
}

// Answer is what the caller receives at the end of a run.
type Answer struct {
	RunID      string `json:"run_id"`
	Query      string `json:"query"`
	Text       string `json:"text"`
	Source     string `json:"source"`
	Iterations int    `json:"iterations"`
	Usage      Usage  `json:"usage"`
}

// ToAnswer converts a finalized state into the caller facing result.
func (s State) ToAnswer() Answer {
	return Answer{
		RunID:      s.RunID,
		Query:      s.Query,
		Text:       s.FinalAnswer,
		Source:     s.AnswerSource,
		Iterations: s.Iterations,
		Usage:      s.Usage,
	}
}

// Found reports whether the answer is a real recommendation.
func (a Answer) Found() bool {
	return a.Source != SourcePlaceholder && a.Text != CouldNotCompleteAnswer
}
