package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/slasia/smart-restaurant/internal/agent/graph/routing"
	"github.com/slasia/smart-restaurant/internal/agent/model"
	logx "github.com/slasia/smart-restaurant/pkg/logger"
)

const (
	NodeRetrieval    = "Retrieval"
	NodeConversation = "Conversation"
	NodeTools        = "Tools"
	NodeFinalize     = "Finalize"
)

// Stage is one unit of work over the request state.
type Stage interface {
	Run(ctx context.Context, s model.State) (model.State, error)
}

// Capabilities is everything the recommendation graph's stages need.
// It is passed to the graph builder explicitly.
type Capabilities struct {
	Retrieval    Stage
	Conversation Stage
	Tools        Stage
}

func (c Capabilities) Validate() error {
	if c.Retrieval == nil || c.Conversation == nil || c.Tools == nil {
		return fmt.Errorf("capabilities are incomplete")
	}
	return nil
}

// NewStageNode wraps a stage as a graph lambda.
func NewStageNode(stage Stage) *compose.Lambda {
	return compose.InvokableLambda(stage.Run)
}

// NewFinalizeNode creates the Finalize node.
func NewFinalizeNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, s model.State) (model.State, error) {
		out := Finalize(s)
		logx.Ctx(ctx).Debug().
			Str("source", out.AnswerSource).
			Int("iterations", out.Iterations).
			Int("history", len(out.History)).
			Msg("Run finalized")
		return out, nil
	})
}

// NewAfterRetrievalCondition routes the Retrieval node's output.
func NewAfterRetrievalCondition() func(context.Context, model.State) (string, error) {
	return func(ctx context.Context, s model.State) (string, error) {
		switch routing.AfterRetrieval(s) {
		case routing.ContinueToConversation:
			logx.Ctx(ctx).Debug().Msg("Knowledge base had no answer - routing to Conversation")
			return NodeConversation, nil
		default:
			logx.Ctx(ctx).Debug().Msg("Knowledge base answered - routing to Finalize")
			return NodeFinalize, nil
		}
	}
}

// NewAfterConversationCondition routes the Conversation node's output to
// the tools node or to done, which is Finalize in the main graph and END in
// the retrieval sub-session.
func NewAfterConversationCondition(done string) func(context.Context, model.State) (string, error) {
	return func(ctx context.Context, s model.State) (string, error) {
		switch routing.AfterConversation(s) {
		case routing.RunTools:
			logx.Ctx(ctx).Debug().Int("tool_count", len(s.LastMessage().ToolCalls)).Msg("Routing to Tools")
			return NodeTools, nil
		default:
			logx.Ctx(ctx).Debug().Msg("No tool calls - routing to " + done)
			return done, nil
		}
	}
}

// NewStatsPostHandler records the node visit and the running usage in the
// graph local state.
func NewStatsPostHandler(node string) func(context.Context, model.State, *model.RunStats) (model.State, error) {
	return func(ctx context.Context, out model.State, stats *model.RunStats) (model.State, error) {
		if stats.Visits == nil {
			stats.Visits = map[string]int{}
		}
		stats.Visits[node]++
		stats.Usage = out.Usage
		return out, nil
	}
}

// NewFinalizePostHandler records the Finalize visit and logs the path the
// run took.
func NewFinalizePostHandler() func(context.Context, model.State, *model.RunStats) (model.State, error) {
	record := NewStatsPostHandler(NodeFinalize)
	return func(ctx context.Context, out model.State, stats *model.RunStats) (model.State, error) {
		out, err := record(ctx, out, stats)
		if err != nil {
			return out, err
		}
		logx.Ctx(ctx).Debug().
			Interface("visits", stats.Visits).
			Int("steps", stats.Steps()).
			Str("source", out.AnswerSource).
			Msg("Run path")
		return out, nil
	}
}

// NewConversationPostHandler logs the usage of the model call just made on
// top of the visit bookkeeping.
func NewConversationPostHandler(node, modelName string) func(context.Context, model.State, *model.RunStats) (model.State, error) {
	record := NewStatsPostHandler(node)
	return func(ctx context.Context, out model.State, stats *model.RunStats) (model.State, error) {
		before := stats.Usage
		out, err := record(ctx, out, stats)
		if err != nil {
			return out, err
		}
		if out.Usage.ModelCalls == before.ModelCalls {
			return out, nil
		}
		logx.Ctx(ctx).Debug().
			Str("node", node).
			Str("model", modelName).
			Int("prompt_tokens", out.Usage.PromptTokens-before.PromptTokens).
			Int("completion_tokens", out.Usage.CompletionTokens-before.CompletionTokens).
			Float64("call_cost_usd", out.Usage.TotalCostUSD-before.TotalCostUSD).
			Float64("total_cost_usd", out.Usage.TotalCostUSD).
			Int("iterations_remaining", out.IterationsRemaining).
			Msg("LLM usage")
		return out, nil
	}
}
