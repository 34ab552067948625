package nodes

import (
	"context"
	"errors"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
)

// scriptedModel replies with its script in order and records what it saw.
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

func (m *scriptedModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}

// funcTool is a tool backed by a function.
type funcTool struct {
	name string
	fn   func(ctx context.Context, args string) (string, error)
}

func (f *funcTool) Info(context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{Name: f.name}, nil
}

func (f *funcTool) InvokableRun(ctx context.Context, args string, _ ...tool.Option) (string, error) {
	return f.fn(ctx, args)
}

type lookupMap map[string]tool.InvokableTool

func (l lookupMap) Lookup(name string) (tool.InvokableTool, bool) {
	t, ok := l[name]
	return t, ok
}

func userSeed(_ context.Context, query string) ([]*schema.Message, error) {
	return []*schema.Message{schema.UserMessage("prefs: " + query)}, nil
}

func toolCall(id, name, args string) schema.ToolCall {
	return schema.ToolCall{ID: id, Type: "function", Function: schema.FunctionCall{Name: name, Arguments: args}}
}
