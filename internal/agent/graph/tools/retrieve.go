package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

// ===================================
// Retrieve Tool
// ===================================

type RetrieveInput struct {
	Query string `json:"query"`
}

const noDocuments = "No documents found."

// NewRetrieveTool exposes the knowledge base to the retrieval sub-session.
// Passages are rendered as "Source: ...\nContent: ..." blocks.
func NewRetrieveTool(r retriever.Retriever, topK int) tool.InvokableTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolRetrieve,
			Desc: "Retrieve information related to a query.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     schema.String,
					Desc:     "What to look up in the restaurant documents.",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, in *RetrieveInput) (string, error) {
			if strings.TrimSpace(in.Query) == "" {
				return "", fmt.Errorf("query is required")
			}
			rctx := callbacks.ReuseHandlers(ctx, &callbacks.RunInfo{
				Name:      "KnowledgeBase",
				Type:      "Chromem",
				Component: components.ComponentOfRetriever,
			})
			docs, err := r.Retrieve(rctx, in.Query, retriever.WithTopK(topK))
			if err != nil {
				return "", err
			}
			return SerializeDocuments(docs), nil
		},
	)
}

// SerializeDocuments renders documents the way the retrieve tool returns them.
func SerializeDocuments(docs []*schema.Document) string {
	parts := make([]string, 0, len(docs))
	for _, d := range docs {
		if d == nil {
			continue
		}
		source := ""
		if d.MetaData != nil {
			if s, ok := d.MetaData["source"]; ok {
				source = fmt.Sprint(s)
			}
		}
		parts = append(parts, fmt.Sprintf("Source: %s\nContent: %s", source, d.Content))
	}
	if len(parts) == 0 {
		return noDocuments
	}
	return strings.Join(parts, "\n")
}
