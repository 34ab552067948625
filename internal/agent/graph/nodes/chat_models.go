package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/slasia/smart-restaurant/internal/agent/model"
	logx "github.com/slasia/smart-restaurant/pkg/logger"
)

// ChatModel is the part of an eino chat model the stages use.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error)
}

// ChatModelConfig holds the configuration for chat model creation
type ChatModelConfig struct {
	APIKey       string
	BaseURL      string
	Conversation *model.ConversationModelConfig
	Retrieval    *model.RetrievalModelConfig
}

// ChatModels holds the conversation and retrieval chat models and the
// Gemini client they share.
type ChatModels struct {
	Client                *genai.Client
	Conversation          *gemini.ChatModel
	Retrieval             *gemini.ChatModel
	ConversationModelName string
	RetrievalModelName    string
}

// NewGenAIClient creates the Gemini client shared by chat and embedding models.
func NewGenAIClient(ctx context.Context, apiKey, baseURL string) (*genai.Client, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions.BaseURL = baseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}
	return client, nil
}

// NewChatModels creates both chat models with the given configuration
func NewChatModels(ctx context.Context, config ChatModelConfig) (*ChatModels, error) {
	if config.Conversation == nil || config.Retrieval == nil {
		return nil, fmt.Errorf("chat model config is incomplete")
	}

	client, err := NewGenAIClient(ctx, config.APIKey, config.BaseURL)
	if err != nil {
		return nil, err
	}

	chatModelConversation, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Conversation.Model,
		Temperature: &config.Conversation.Temperature,
		MaxTokens:   &config.Conversation.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Conversation model")
		return nil, fmt.Errorf("error creating Conversation model: %w", err)
	}

	// The retrieval model only answers from retrieved passages; no thinking budget.
	chatModelRetrieval, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Retrieval.Model,
		Temperature: &config.Retrieval.Temperature,
		MaxTokens:   &config.Retrieval.MaxTokens,
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr(int32(0)),
		},
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Retrieval model")
		return nil, fmt.Errorf("error creating Retrieval model: %w", err)
	}

	return &ChatModels{
		Client:                client,
		Conversation:          chatModelConversation,
		Retrieval:             chatModelRetrieval,
		ConversationModelName: config.Conversation.Model,
		RetrievalModelName:    config.Retrieval.Model,
	}, nil
}

// GeminiCallIDs adapts a history for the Gemini adapter before each call.
// Gemini matches a function response to its call by function name and
// rejects empty arguments, while the history keys results by unique call id.
func GeminiCallIDs(cm ChatModel) ChatModel {
	return geminiCallIDs{cm}
}

type geminiCallIDs struct {
	ChatModel
}

func (g geminiCallIDs) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	out := make([]*schema.Message, len(input))
	for i, m := range input {
		out[i] = m
		if m == nil {
			continue
		}
		switch {
		case m.Role == schema.Tool && m.ToolName != "":
			cp := *m
			cp.ToolCallID = m.ToolName
			out[i] = &cp
		case len(m.ToolCalls) > 0:
			cp := *m
			cp.ToolCalls = make([]schema.ToolCall, len(m.ToolCalls))
			copy(cp.ToolCalls, m.ToolCalls)
			for j := range cp.ToolCalls {
				if strings.TrimSpace(cp.ToolCalls[j].Function.Arguments) == "" {
					cp.ToolCalls[j].Function.Arguments = "{}"
				}
			}
			out[i] = &cp
		}
	}
	return g.ChatModel.Generate(ctx, out, opts...)
}

// BindTools binds tools to a chat model.
func BindTools(cm *gemini.ChatModel, tools []*schema.ToolInfo) error {
	if err := cm.BindTools(tools); err != nil {
		logx.Error().Err(err).Msg("Failed to bind tools")
		return fmt.Errorf("failed to bind tools: %w", err)
	}

	logx.Debug().Int("tools", len(tools)).Msg("Successfully bound tools")
	return nil
}
