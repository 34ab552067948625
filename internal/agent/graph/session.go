package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/slasia/smart-restaurant/internal/agent/graph/conversations"
	"github.com/slasia/smart-restaurant/internal/agent/graph/nodes"
	"github.com/slasia/smart-restaurant/internal/agent/graph/prompts"
	"github.com/slasia/smart-restaurant/internal/agent/model"
	logx "github.com/slasia/smart-restaurant/pkg/logger"
)

const subSessionConversation = "RetrievalConversation"

// SessionConfig holds what the retrieval sub-session needs.
type SessionConfig struct {
	Model     nodes.ChatModel
	ModelName string
	// Tools must resolve the retrieve tool bound to Model.
	Tools         nodes.ToolLookup
	Locale        string
	MaxIterations int
}

// RetrievalSession answers a query from the knowledge base with its own
// model loop and history. The history is discarded once the reply is read.
type RetrievalSession struct {
	runnable      compose.Runnable[model.State, model.State]
	maxIterations int
}

var _ nodes.AnswerSession = (*RetrievalSession)(nil)

// NewRetrievalSession compiles the sub-session graph:
// Conversation -> (tool calls ? Tools -> Conversation : END).
func NewRetrievalSession(ctx context.Context, cfg SessionConfig) (*RetrievalSession, error) {
	if cfg.Model == nil || cfg.Tools == nil {
		return nil, fmt.Errorf("retrieval session: model and tools are required")
	}
	maxIter := nodes.NormalizeMaxIterations(cfg.MaxIterations)
	locale := cfg.Locale

	seed := func(ctx context.Context, query string) ([]*schema.Message, error) {
		system, err := prompts.RenderRetrievalSystem(ctx, locale)
		if err != nil {
			return nil, err
		}
		return conversations.SessionContext(system, query), nil
	}

	g := compose.NewGraph[model.State, model.State](
		compose.WithGenLocalState(func(ctx context.Context) *model.RunStats {
			return &model.RunStats{}
		}),
	)
	if err := g.AddLambdaNode(nodes.NodeConversation,
		nodes.NewStageNode(nodes.NewConverser(cfg.Model, cfg.ModelName, subSessionConversation, seed)),
		compose.WithStatePostHandler(nodes.NewConversationPostHandler(subSessionConversation, cfg.ModelName)),
	); err != nil {
		return nil, fmt.Errorf("retrieval session: %w", err)
	}
	if err := g.AddLambdaNode(nodes.NodeTools,
		nodes.NewStageNode(nodes.NewToolInvoker(cfg.Tools)),
		compose.WithStatePostHandler(nodes.NewStatsPostHandler(nodes.NodeTools)),
	); err != nil {
		return nil, fmt.Errorf("retrieval session: %w", err)
	}
	if err := g.AddEdge(compose.START, nodes.NodeConversation); err != nil {
		return nil, fmt.Errorf("retrieval session: %w", err)
	}
	if err := g.AddEdge(nodes.NodeTools, nodes.NodeConversation); err != nil {
		return nil, fmt.Errorf("retrieval session: %w", err)
	}
	branch := compose.NewGraphBranch(
		nodes.NewAfterConversationCondition(compose.END),
		map[string]bool{nodes.NodeTools: true, compose.END: true},
	)
	if err := g.AddBranch(nodes.NodeConversation, branch); err != nil {
		return nil, fmt.Errorf("retrieval session: %w", err)
	}

	runnable, err := g.Compile(ctx,
		compose.WithGraphName("RetrievalSession"),
		compose.WithMaxRunSteps(nodes.MaxRunSteps(maxIter)),
	)
	if err != nil {
		return nil, fmt.Errorf("retrieval session: compile: %w", err)
	}
	return &RetrievalSession{runnable: runnable, maxIterations: maxIter}, nil
}

// Answer runs one sub-session for query and returns its final reply.
func (s *RetrievalSession) Answer(ctx context.Context, query string) (nodes.SessionResult, error) {
	out, err := s.runnable.Invoke(ctx, model.NewState(logx.RunID(ctx), query, s.maxIterations))
	if err != nil {
		return nodes.SessionResult{}, fmt.Errorf("retrieval session: %w", err)
	}
	res := nodes.SessionResult{
		Reply:      conversations.FinalReply(out.History),
		Iterations: out.Iterations,
		Usage:      out.Usage,
	}
	logx.Ctx(ctx).Debug().
		Int("iterations", res.Iterations).
		Int("history", len(out.History)).
		Int("reply_len", len(res.Reply)).
		Msg("Retrieval session finished")
	return res, nil
}
