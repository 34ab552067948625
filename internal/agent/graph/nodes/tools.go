package nodes

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/slasia/smart-restaurant/internal/agent/model"
	logx "github.com/slasia/smart-restaurant/pkg/logger"
)

// ToolLookup resolves a requested tool name.
type ToolLookup interface {
	Lookup(name string) (tool.InvokableTool, bool)
}

// ToolInvoker executes the tool requests of the last assistant turn and
// appends one result per request, in request order. Tool failures and
// unknown tools become result text; the run goes on.
type ToolInvoker struct {
	Tools ToolLookup
}

func NewToolInvoker(tools ToolLookup) *ToolInvoker {
	return &ToolInvoker{Tools: tools}
}

func (ti *ToolInvoker) Run(ctx context.Context, s model.State) (model.State, error) {
	last := s.LastMessage()
	if !model.RequestsTools(last) {
		logx.Ctx(ctx).Warn().Msg("Tools stage entered without tool requests - nothing to do")
		return s, nil
	}

	results := make([]*schema.Message, 0, len(last.ToolCalls))
	for _, call := range last.ToolCalls {
		content, err := ti.invoke(ctx, call)
		if err != nil {
			return s, err
		}
		result, err := model.NewToolResult(call.ID, call.Function.Name, content)
		if err != nil {
			return s, err
		}
		results = append(results, result)
		s.Usage.ToolCalls++
	}
	return s.Append(results...), nil
}

// invoke returns the result text for one request. The error is non-nil
// only when ctx is done.
func (ti *ToolInvoker) invoke(ctx context.Context, call schema.ToolCall) (content string, err error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := call.Function.Name

	t, ok := ti.Tools.Lookup(name)
	if !ok {
		logx.Ctx(ctx).Warn().
			Str("tool_name", name).
			Str("arguments", call.Function.Arguments).
			Msg("Unknown or invalid tool call; returning fallback result")
		return fmt.Sprintf("Tool %s not found", name), nil
	}

	ctx = callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      name,
		Type:      name,
		Component: components.ComponentOfTool,
	})
	ctx = callbacks.OnStart(ctx, &tool.CallbackInput{ArgumentsInJSON: call.Function.Arguments})

	defer func() {
		if r := recover(); r != nil {
			perr := fmt.Errorf("tool %s panicked: %v", name, r)
			callbacks.OnError(ctx, perr)
			content, err = "Error: "+perr.Error(), nil
		}
	}()

	out, runErr := t.InvokableRun(ctx, call.Function.Arguments)
	if runErr != nil {
		callbacks.OnError(ctx, runErr)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "Error: " + runErr.Error(), nil
	}
	callbacks.OnEnd(ctx, &tool.CallbackOutput{Response: out})
	return out, nil
}
