package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/slasia/smart-restaurant/internal/agent/graph/tools"
	"github.com/slasia/smart-restaurant/internal/agent/model"
)

//go:embed template/recommendation_prompt.txt
var recommendationPrompt string

//go:embed template/retrieval_prompt.txt
var retrievalPrompt string

// RenderRecommendation renders the user turn that opens the conversation
// stage. Rendering goes through the eino prompt component so prompt
// callbacks fire.
func RenderRecommendation(ctx context.Context, query string) (*schema.Message, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		model.NewUserMessage(strings.TrimSpace(recommendationPrompt)),
	)
	return render(ctx, "RecommendationPrompt", tpl, map[string]any{
		"Query":      query,
		"SearchTool": tools.ToolRestaurantSearch,
	})
}

// RenderRetrievalSystem renders the system turn of the retrieval sub-session.
func RenderRetrievalSystem(ctx context.Context, locale string) (*schema.Message, error) {
	if strings.TrimSpace(locale) == "" {
		return nil, fmt.Errorf("retrieval prompt: locale is empty")
	}
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		model.NewSystemMessage(strings.TrimSpace(retrievalPrompt)),
	)
	return render(ctx, "RetrievalPrompt", tpl, map[string]any{
		"Locale":       locale,
		"RetrieveTool": tools.ToolRetrieve,
	})
}

func render(ctx context.Context, name string, tpl prompt.ChatTemplate, vars map[string]any) (*schema.Message, error) {
	ctx = callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
		Name:      name,
		Type:      "DefaultChatTemplate",
		Component: components.ComponentOfPrompt,
	})
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("%s render: %w", name, err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return nil, fmt.Errorf("%s render: empty result", name)
	}
	return msgs[0], nil
}
