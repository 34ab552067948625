package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/schema"

	"github.com/slasia/smart-restaurant/internal/agent/model"
	logx "github.com/slasia/smart-restaurant/pkg/logger"
)

// SeedFunc builds the opening turns of a conversation from its query.
type SeedFunc func(ctx context.Context, query string) ([]*schema.Message, error)

// Converser is the conversational stage: one model call per entry, bounded
// by the iteration budget carried in the state.
type Converser struct {
	Model     ChatModel
	ModelName string
	// Name labels model callbacks, e.g. "Conversation".
	Name string
	Seed SeedFunc
}

func NewConverser(cm ChatModel, modelName, name string, seed SeedFunc) *Converser {
	return &Converser{Model: cm, ModelName: modelName, Name: name, Seed: seed}
}

// Run appends exactly one assistant turn to the history. With the budget
// spent, that turn is the could-not-complete answer and the model is not
// called. A model failure is turned into the same answer; only cancellation
// is returned as an error.
func (c *Converser) Run(ctx context.Context, s model.State) (model.State, error) {
	if len(s.History) == 0 {
		seed, err := c.Seed(ctx, s.Query)
		if err != nil {
			return s, fmt.Errorf("seed conversation: %w", err)
		}
		s = s.Append(seed...)
	}

	if s.IterationsRemaining <= 0 {
		logx.Ctx(ctx).Warn().
			Str("node", c.Name).
			Int("iterations", s.Iterations).
			Msg("Iteration budget exhausted - finalizing without an answer")
		return s.Append(schema.AssistantMessage(model.CouldNotCompleteAnswer, nil)), nil
	}
	s.IterationsRemaining--
	s.Iterations++

	mctx := callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      c.Name,
		Type:      "Gemini",
		Component: components.ComponentOfChatModel,
	})
	reply, err := c.Model.Generate(mctx, s.History)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return s, ctxErr
		}
		logx.Ctx(ctx).Error().Err(err).Str("node", c.Name).Msg("Model call failed - finalizing without an answer")
		s.Usage.Add(nil, model.Pricing{})
		return s.Append(schema.AssistantMessage(model.CouldNotCompleteAnswer, nil)), nil
	}

	reply, err = normalizeReply(reply, nextCallSeq(s.History))
	if err != nil {
		return s, fmt.Errorf("%s reply: %w", c.Name, err)
	}
	var usage *schema.TokenUsage
	if reply.ResponseMeta != nil {
		usage = reply.ResponseMeta.Usage
	}
	s.Usage.Add(usage, model.ResolvePricing(c.ModelName))

	if len(reply.ToolCalls) > 0 {
		logx.Ctx(ctx).Debug().Str("node", c.Name).Int("tool_count", len(reply.ToolCalls)).Msg("Calling tools")
	} else {
		logx.Ctx(ctx).Debug().Str("node", c.Name).Msg("AI response ready")
	}
	return s.Append(reply), nil
}

// normalizeReply rebuilds reply as an assistant turn whose tool requests
// carry unique ids. Some providers omit ids or reuse the function name.
func normalizeReply(reply *schema.Message, seq int) (*schema.Message, error) {
	if reply == nil {
		return model.NewAssistantMessage("", nil)
	}
	var calls []schema.ToolCall
	if len(reply.ToolCalls) > 0 {
		calls = make([]schema.ToolCall, len(reply.ToolCalls))
		copy(calls, reply.ToolCalls)
		taken := make(map[string]bool, len(calls))
		for _, call := range calls {
			taken[call.ID] = true
		}
		seen := make(map[string]bool, len(calls))
		for i := range calls {
			id := calls[i].ID
			switch {
			case strings.TrimSpace(id) == "":
				seq++
				for taken[fmt.Sprintf("call_%d", seq)] {
					seq++
				}
				id = fmt.Sprintf("call_%d", seq)
			case seen[id]:
				k := 2
				for taken[fmt.Sprintf("%s_%d", id, k)] {
					k++
				}
				id = fmt.Sprintf("%s_%d", id, k)
			}
			calls[i].ID = id
			seen[id] = true
			taken[id] = true
		}
	}
	msg, err := model.NewAssistantMessage(reply.Content, calls)
	if err != nil {
		return nil, err
	}
	msg.ResponseMeta = reply.ResponseMeta
	msg.ReasoningContent = reply.ReasoningContent
	msg.Extra = reply.Extra
	return msg, nil
}

// nextCallSeq counts the tool requests already in history so synthesized
// ids stay unique within a run.
func nextCallSeq(history []*schema.Message) int {
	n := 0
	for _, m := range history {
		if m != nil && m.Role == schema.Assistant {
			n += len(m.ToolCalls)
		}
	}
	return n
}
