package rag

import (
	"context"
	"fmt"
	"runtime"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/document"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/philippgille/chromem-go"

	logx "github.com/slasia/smart-restaurant/pkg/logger"
)

const DefaultTopK = 2

// Store is an in-memory vector store exposed as an eino retriever.
type Store struct {
	col  *chromem.Collection
	topK int
}

var _ retriever.Retriever = (*Store)(nil)

// NewStore creates an empty collection embedding with embed.
func NewStore(name string, embed chromem.EmbeddingFunc, topK int) (*Store, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(name, nil, embed)
	if err != nil {
		return nil, fmt.Errorf("create collection %q: %w", name, err)
	}
	return &Store{col: col, topK: topK}, nil
}

// Add embeds and stores docs.
func (s *Store) Add(ctx context.Context, docs []*schema.Document) error {
	if len(docs) == 0 {
		return nil
	}
	cdocs := make([]chromem.Document, 0, len(docs))
	for _, d := range docs {
		cdocs = append(cdocs, chromem.Document{
			ID:       d.ID,
			Content:  d.Content,
			Metadata: stringMeta(d.MetaData),
		})
	}
	if err := s.col.AddDocuments(ctx, cdocs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	logx.Ctx(ctx).Debug().Int("documents", len(docs)).Int("total", s.col.Count()).Msg("knowledge base indexed")
	return nil
}

func (s *Store) Count() int {
	return s.col.Count()
}

// Retrieve returns the documents most similar to query, best first.
func (s *Store) Retrieve(ctx context.Context, query string, opts ...retriever.Option) (docs []*schema.Document, err error) {
	topK := s.topK
	options := retriever.GetCommonOptions(&retriever.Options{TopK: &topK}, opts...)
	if options.TopK != nil && *options.TopK > 0 {
		topK = *options.TopK
	}

	ctx = callbacks.OnStart(ctx, &retriever.CallbackInput{Query: query, TopK: topK})
	defer func() {
		if err != nil {
			callbacks.OnError(ctx, err)
			return
		}
		callbacks.OnEnd(ctx, &retriever.CallbackOutput{Docs: docs})
	}()

	n := min(topK, s.col.Count())
	if n == 0 {
		return nil, nil
	}
	results, err := s.col.Query(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	docs = make([]*schema.Document, 0, len(results))
	for _, r := range results {
		meta := make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			meta[k] = v
		}
		doc := &schema.Document{ID: r.ID, Content: r.Content, MetaData: meta}
		doc.WithScore(float64(r.Similarity))
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *Store) GetType() string {
	return "Chromem"
}

func (s *Store) IsCallbacksEnabled() bool {
	return true
}

func stringMeta(in map[string]any) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = fmt.Sprint(v)
	}
	return out
}

// Build loads the CSV at path, splits it and indexes the chunks.
func Build(ctx context.Context, store *Store, path string, splitter document.Transformer) (int, error) {
	docs, err := LoadCSV(path)
	if err != nil {
		return 0, err
	}
	chunks, err := splitter.Transform(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("split %s: %w", path, err)
	}
	if err := store.Add(ctx, chunks); err != nil {
		return 0, err
	}
	return len(chunks), nil
}
