package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/slasia/smart-restaurant/internal/agent/graph/classifier"
	"github.com/slasia/smart-restaurant/internal/agent/graph/nodes"
	"github.com/slasia/smart-restaurant/internal/agent/graph/observers"
	"github.com/slasia/smart-restaurant/internal/agent/graph/prompts"
	"github.com/slasia/smart-restaurant/internal/agent/graph/tools"
	"github.com/slasia/smart-restaurant/internal/agent/model"
	"github.com/slasia/smart-restaurant/internal/agent/rag"
	"github.com/slasia/smart-restaurant/internal/agent/repo"
	"github.com/slasia/smart-restaurant/internal/agent/search"
	errx "github.com/slasia/smart-restaurant/internal/core/error"
	logx "github.com/slasia/smart-restaurant/pkg/logger"
)

// Config holds everything needed to compose the full recommendation graph
// end-to-end.
type Config struct {
	APIKey    string
	BaseURL   string
	Run       model.RunConfig
	Chat      model.ConversationModelConfig
	Retrieval model.RetrievalModelConfig
	Embedding model.EmbeddingConfig
	Knowledge model.KnowledgeConfig
	Search    model.SearchConfig
	// Redis enables the search result cache when set.
	Redis redis.Cmdable
}

// GraphConfig holds the graph level settings of BuildGraph.
type GraphConfig struct {
	MaxIterations         int
	ConversationModelName string
}

// Runner executes the compiled graph. It is safe for concurrent use: every
// run owns its State and its graph local state.
type Runner struct {
	runnable      compose.Runnable[model.State, model.State]
	maxIterations int
}

// BuildRecommendationGraph creates the models, the knowledge base, the web
// search backend and the tools, then builds the graph. Any failure here is
// an initialisation error and no run can start.
func BuildRecommendationGraph(ctx context.Context, cfg Config) (*Runner, error) {
	cms, err := nodes.NewChatModels(ctx, nodes.ChatModelConfig{
		APIKey:       cfg.APIKey,
		BaseURL:      cfg.BaseURL,
		Conversation: &cfg.Chat,
		Retrieval:    &cfg.Retrieval,
	})
	if err != nil {
		return nil, errx.WrapInit("chat models", err)
	}

	store, err := buildKnowledgeBase(ctx, cfg, cms)
	if err != nil {
		return nil, err
	}

	lexicon := classifier.DefaultLexicon()
	if cfg.Knowledge.LexiconPath != "" {
		if lexicon, err = classifier.LoadLexicon(cfg.Knowledge.LexiconPath); err != nil {
			return nil, errx.WrapInit("lexicon", err)
		}
	}
	heuristic := classifier.NewHeuristic(lexicon.WithKeyword(cfg.Knowledge.Locale))
	policy, err := classifier.ParsePolicy(cfg.Knowledge.DecisionPolicy)
	if err != nil {
		return nil, errx.WrapInit("decision policy", err)
	}

	searcher, err := search.New(cfg.Search)
	if err != nil {
		return nil, errx.WrapInit("web search", err)
	}
	if cfg.Redis != nil {
		searcher = repo.NewRedisSearchCache(cfg.Redis, searcher, cfg.Search.CacheTTL)
		logx.Debug().Dur("ttl", cfg.Search.CacheTTL).Msg("Search cache enabled")
	}

	mainTools, err := tools.NewRecommendationRegistry(ctx, tools.NewRestaurantSearch(searcher))
	if err != nil {
		return nil, errx.WrapInit("tools", err)
	}
	if err := nodes.BindTools(cms.Conversation, mainTools.Infos()); err != nil {
		return nil, errx.WrapInit("conversation model", err)
	}

	ragTools, err := tools.NewRegistry(ctx, tools.NewRetrieveTool(store, cfg.Knowledge.TopK))
	if err != nil {
		return nil, errx.WrapInit("retrieval tools", err)
	}
	if err := nodes.BindTools(cms.Retrieval, ragTools.Infos()); err != nil {
		return nil, errx.WrapInit("retrieval model", err)
	}

	session, err := NewRetrievalSession(ctx, SessionConfig{
		Model:         nodes.GeminiCallIDs(cms.Retrieval),
		ModelName:     cms.RetrievalModelName,
		Tools:         ragTools,
		Locale:        cfg.Knowledge.Locale,
		MaxIterations: cfg.Run.SubSessionMaxIterations,
	})
	if err != nil {
		return nil, errx.WrapInit("retrieval session", err)
	}

	caps := nodes.Capabilities{
		Retrieval: &nodes.Retrieval{
			Retriever:  store,
			TopK:       cfg.Knowledge.TopK,
			Session:    session,
			Relevance:  heuristic,
			Classifier: heuristic,
			Policy:     policy,
		},
		Conversation: nodes.NewConverser(nodes.GeminiCallIDs(cms.Conversation), cms.ConversationModelName, nodes.NodeConversation, recommendationSeed),
		Tools:        nodes.NewToolInvoker(mainTools),
	}

	runner, err := BuildGraph(ctx, caps, GraphConfig{
		MaxIterations:         cfg.Run.MaxIterations,
		ConversationModelName: cms.ConversationModelName,
	})
	if err != nil {
		return nil, errx.WrapInit("graph", err)
	}

	logx.Debug().
		Strs("tools", mainTools.Names()).
		Str("policy", string(policy)).
		Msg("Recommendation graph built successfully")
	return runner, nil
}

func buildKnowledgeBase(ctx context.Context, cfg Config, cms *nodes.ChatModels) (*rag.Store, error) {
	embed, err := rag.NewEmbedding(cfg.Embedding, cms.Client)
	if err != nil {
		return nil, errx.WrapInit("embedding", err)
	}
	store, err := rag.NewStore(cfg.Knowledge.Collection, embed, cfg.Knowledge.TopK)
	if err != nil {
		return nil, errx.WrapInit("knowledge base", err)
	}
	splitter, err := rag.NewSplitter(ctx, cfg.Knowledge.ChunkSize, cfg.Knowledge.ChunkOverlap)
	if err != nil {
		return nil, errx.WrapInit("splitter", err)
	}

	start := time.Now()
	n, err := rag.Build(ctx, store, cfg.Knowledge.SourcePath, splitter)
	if err != nil {
		return nil, errx.WrapInit("knowledge base", err)
	}
	logx.Info().
		Str("source", cfg.Knowledge.SourcePath).
		Int("chunks", n).
		Dur("took", time.Since(start)).
		Msg("Knowledge base loaded")
	return store, nil
}

func recommendationSeed(ctx context.Context, query string) ([]*schema.Message, error) {
	msg, err := prompts.RenderRecommendation(ctx, query)
	if err != nil {
		return nil, err
	}
	return []*schema.Message{msg}, nil
}

// BuildGraph constructs the compiled recommendation graph from caps.
func BuildGraph(ctx context.Context, caps nodes.Capabilities, cfg GraphConfig) (*Runner, error) {
	if err := caps.Validate(); err != nil {
		return nil, err
	}
	maxIter := nodes.NormalizeMaxIterations(cfg.MaxIterations)

	g := compose.NewGraph[model.State, model.State](
		compose.WithGenLocalState(func(ctx context.Context) *model.RunStats {
			return &model.RunStats{Visits: map[string]int{}}
		}),
	)

	if err := addNodes(g, caps, cfg.ConversationModelName); err != nil {
		return nil, err
	}
	if err := addEdges(g); err != nil {
		return nil, err
	}
	if err := addBranches(g); err != nil {
		return nil, err
	}

	runnable, err := g.Compile(ctx,
		compose.WithGraphName("RecommendationGraph"),
		compose.WithMaxRunSteps(nodes.MaxRunSteps(maxIter)),
	)
	if err != nil {
		logx.Error().Err(err).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling graph: %w", err)
	}

	logx.Debug().Int("max_iterations", maxIter).Msg("Graph compiled successfully")
	return &Runner{runnable: runnable, maxIterations: maxIter}, nil
}

// addNodes adds all processing nodes to the graph
func addNodes(g *compose.Graph[model.State, model.State], caps nodes.Capabilities, modelName string) error {
	steps := []struct {
		key  string
		node *compose.Lambda
		post func(context.Context, model.State, *model.RunStats) (model.State, error)
	}{
		{nodes.NodeRetrieval, nodes.NewStageNode(caps.Retrieval), nodes.NewStatsPostHandler(nodes.NodeRetrieval)},
		{nodes.NodeConversation, nodes.NewStageNode(caps.Conversation), nodes.NewConversationPostHandler(nodes.NodeConversation, modelName)},
		{nodes.NodeTools, nodes.NewStageNode(caps.Tools), nodes.NewStatsPostHandler(nodes.NodeTools)},
		{nodes.NodeFinalize, nodes.NewFinalizeNode(), nodes.NewFinalizePostHandler()},
	}
	for _, s := range steps {
		if err := g.AddLambdaNode(s.key, s.node, compose.WithStatePostHandler(s.post)); err != nil {
			return fmt.Errorf("error adding node %s: %w", s.key, err)
		}
	}
	return nil
}

// addEdges creates the unconditional connections between nodes
func addEdges(g *compose.Graph[model.State, model.State]) error {
	edges := [][2]string{
		{compose.START, nodes.NodeRetrieval},
		{nodes.NodeTools, nodes.NodeConversation},
		{nodes.NodeFinalize, compose.END},
	}
	for _, edge := range edges {
		if err := g.AddEdge(edge[0], edge[1]); err != nil {
			return fmt.Errorf("error adding edge %s -> %s: %w", edge[0], edge[1], err)
		}
	}
	return nil
}

// addBranches creates conditional routing branches
func addBranches(g *compose.Graph[model.State, model.State]) error {
	retrievalBranch := compose.NewGraphBranch(
		nodes.NewAfterRetrievalCondition(),
		map[string]bool{
			nodes.NodeConversation: true,
			nodes.NodeFinalize:     true,
		},
	)
	if err := g.AddBranch(nodes.NodeRetrieval, retrievalBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding retrieval branch")
		return fmt.Errorf("error adding retrieval branch: %w", err)
	}

	conversationBranch := compose.NewGraphBranch(
		nodes.NewAfterConversationCondition(nodes.NodeFinalize),
		map[string]bool{
			nodes.NodeTools:    true,
			nodes.NodeFinalize: true,
		},
	)
	if err := g.AddBranch(nodes.NodeConversation, conversationBranch); err != nil {
		logx.Error().Err(err).Msg("Error adding conversation branch")
		return fmt.Errorf("error adding conversation branch: %w", err)
	}
	return nil
}

// Run executes one run and returns its final state.
func (r *Runner) Run(ctx context.Context, in model.QueryInput) (model.State, error) {
	runID := uuid.NewString()
	ctx = logx.WithRunID(ctx, runID)
	log := logx.Ctx(ctx)

	start := time.Now()
	log.Info().Str("query", in.Query).Msg("Run started")

	out, err := r.runnable.Invoke(ctx, model.NewState(runID, in.Query, r.maxIterations),
		compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		log.Error().Err(err).Dur("took", time.Since(start)).Msg("Run abandoned")
		return model.State{}, err
	}

	log.Info().
		Str("source", out.AnswerSource).
		Bool("found", out.ToAnswer().Found()).
		Int("iterations", out.Iterations).
		Int("model_calls", out.Usage.ModelCalls).
		Int("tool_calls", out.Usage.ToolCalls).
		Float64("total_cost_usd", out.Usage.TotalCostUSD).
		Dur("took", time.Since(start)).
		Msg("Run finished")
	return out, nil
}

// Invoke executes one run and returns the caller facing answer.
func (r *Runner) Invoke(ctx context.Context, in model.QueryInput) (model.Answer, error) {
	out, err := r.Run(ctx, in)
	if err != nil {
		return model.Answer{}, err
	}
	return out.ToAnswer(), nil
}

// InvokeBatch runs independent queries concurrently, at most limit at a
// time (unbounded when limit <= 0). Answers keep the order of ins. A failed
// run leaves a zero Answer at its index and never stops the others; the
// error joins every failure.
func (r *Runner) InvokeBatch(ctx context.Context, ins []model.QueryInput, limit int) ([]model.Answer, error) {
	answers := make([]model.Answer, len(ins))
	errs := make([]error, len(ins))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, in := range ins {
		g.Go(func() error {
			answer, err := r.Invoke(ctx, in)
			if err != nil {
				errs[i] = fmt.Errorf("query %d: %w", i, err)
				return nil
			}
			answers[i] = answer
			return nil
		})
	}
	_ = g.Wait()
	return answers, errors.Join(errs...)
}
