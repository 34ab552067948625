package nodes

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"

	"github.com/slasia/smart-restaurant/internal/agent/graph/classifier"
	"github.com/slasia/smart-restaurant/internal/agent/model"
	logx "github.com/slasia/smart-restaurant/pkg/logger"
)

// SessionResult is the outcome of one retrieval sub-session.
type SessionResult struct {
	Reply      string
	Iterations int
	Usage      model.Usage
}

// AnswerSession answers a query from the knowledge base with its own model
// loop and history.
type AnswerSession interface {
	Answer(ctx context.Context, query string) (SessionResult, error)
}

// RelevanceChecker judges whether retrieved documents concern the domain.
type RelevanceChecker interface {
	Relevant(docs []*schema.Document) bool
}

// Retrieval is the retrieval stage. It writes the sub-session reply to the
// preference summary when the policy accepts it and the not-found sentinel
// otherwise. It fails only when ctx is done.
type Retrieval struct {
	Retriever  retriever.Retriever
	TopK       int
	Session    AnswerSession
	Relevance  RelevanceChecker
	Classifier classifier.Classifier
	Policy     classifier.Policy
}

func (r *Retrieval) Run(ctx context.Context, s model.State) (model.State, error) {
	log := logx.Ctx(ctx)

	rctx := callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      "KnowledgeBase",
		Type:      "Chromem",
		Component: components.ComponentOfRetriever,
	})
	docs, err := r.Retriever.Retrieve(rctx, s.Query, retriever.WithTopK(r.TopK))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return s, ctxErr
		}
		log.Warn().Err(err).Msg("Retrieval failed - falling back to conversation")
		return s.WithSummary(model.NotFoundSentinel), nil
	}
	if len(docs) == 0 {
		log.Debug().Msg("Knowledge base returned nothing")
		return s.WithSummary(model.NotFoundSentinel), nil
	}

	relevant := r.Relevance.Relevant(docs)
	if r.Policy.NeedsRelevance() && !relevant {
		log.Debug().Int("documents", len(docs)).Msg("Retrieved documents are not relevant")
		return s.WithSummary(model.NotFoundSentinel), nil
	}

	res, err := r.Session.Answer(ctx, s.Query)
	s.Usage.Merge(res.Usage)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return s, ctxErr
		}
		log.Warn().Err(err).Msg("Retrieval session failed - falling back to conversation")
		return s.WithSummary(model.NotFoundSentinel), nil
	}

	verdict := classifier.Unknown
	if r.Policy.NeedsAnswer() {
		verdict = r.Classifier.Classify(res.Reply)
	}
	accepted := r.Policy.Accept(relevant, verdict)
	log.Debug().
		Bool("relevant", relevant).
		Str("verdict", verdict.String()).
		Str("policy", string(r.Policy)).
		Bool("accepted", accepted).
		Msg("Retrieval decision")

	if !accepted {
		return s.WithSummary(model.NotFoundSentinel), nil
	}
	if strings.TrimSpace(res.Reply) == "" {
		return s.WithSummary(model.NoContentSentinel), nil
	}
	return s.WithSummary(res.Reply), nil
}
