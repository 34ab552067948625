package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"

	"github.com/slasia/smart-restaurant/internal/agent/model"
	"github.com/slasia/smart-restaurant/internal/agent/search"
)

// scriptedModel replies with its script in order and records every input.
type scriptedModel struct {
	mu      sync.Mutex
	replies []*schema.Message
	errs    []error
	seen    [][]*schema.Message
}

func (m *scriptedModel) Generate(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, append([]*schema.Message(nil), input...))
	i := len(m.seen) - 1
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i >= len(m.replies) {
		return nil, errors.New("script exhausted")
	}
	return m.replies[i], nil
}

func (m *scriptedModel) inputs() [][]*schema.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]*schema.Message(nil), m.seen...)
}

// loopingModel asks for the same tool on every call.
type loopingModel struct {
	mu    sync.Mutex
	calls int
}

func (m *loopingModel) Generate(context.Context, []*schema.Message, ...einomodel.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return schema.AssistantMessage("", []schema.ToolCall{
		toolCall(fmt.Sprintf("loop_%d", m.calls), "restaurant_search", `{"query":"pizza"}`),
	}), nil
}

// echoModel searches for the user's query, then answers with the tool
// result. It keeps no per-run state so runs may share it.
type echoModel struct{}

func (echoModel) Generate(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	last := input[len(input)-1]
	if last.Role == schema.Tool {
		return schema.AssistantMessage("Answer: "+last.Content, nil), nil
	}
	query := strings.TrimPrefix(last.Content, "prefs: ")
	return schema.AssistantMessage("", []schema.ToolCall{
		toolCall("echo_1", "restaurantSearch", fmt.Sprintf(`{"input":%q}`, query)),
	}), nil
}

type stubRetriever struct {
	docs []*schema.Document
	err  error
}

func (r *stubRetriever) Retrieve(ctx context.Context, _ string, _ ...retriever.Option) ([]*schema.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.docs, r.err
}

// fakeSearcher returns one hit named after the query.
type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, q search.Query) ([]model.SearchResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q.Text)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return []model.SearchResult{{Title: "Hit for " + q.Text, Address: "Main St 1"}}, nil
}

func userSeed(_ context.Context, query string) ([]*schema.Message, error) {
	return []*schema.Message{schema.UserMessage("prefs: " + query)}, nil
}

func toolCall(id, name, args string) schema.ToolCall {
	return schema.ToolCall{ID: id, Type: "function", Function: schema.FunctionCall{Name: name, Arguments: args}}
}

func tandilDocs() []*schema.Document {
	return []*schema.Document{
		{ID: "restaurants.csv#1", Content: "name: La Vieja Esquina\ncity: Tandil\ncuisine: parrilla", MetaData: map[string]any{"source": "restaurants.csv"}},
	}
}
