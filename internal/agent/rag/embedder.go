package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/philippgille/chromem-go"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"github.com/slasia/smart-restaurant/internal/agent/model"
)

const (
	EmbeddingGemini = "gemini"
	EmbeddingOpenAI = "openai"
)

// NewGeminiEmbedding embeds text with a Gemini embedding model.
func NewGeminiEmbedding(client *genai.Client, modelName string) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		resp, err := client.Models.EmbedContent(ctx, modelName, genai.Text(text), nil)
		if err != nil {
			return nil, fmt.Errorf("gemini embed: %w", err)
		}
		if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil {
			return nil, errors.New("gemini embed: empty response")
		}
		return resp.Embeddings[0].Values, nil
	}
}

// NewOpenAIEmbedding embeds text with an OpenAI embedding model.
func NewOpenAIEmbedding(client *openai.Client, modelName string) chromem.EmbeddingFunc {
	m := openai.EmbeddingModel(modelName)
	if modelName == "" {
		m = openai.LargeEmbedding3
	}
	return func(ctx context.Context, text string) ([]float32, error) {
		resp, err := client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: []string{text},
			Model: m,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embed: %w", err)
		}
		if len(resp.Data) == 0 {
			return nil, errors.New("openai embed: empty response")
		}
		return resp.Data[0].Embedding, nil
	}
}

// NewEmbedding picks the embedding provider named in cfg. The Gemini client
// is shared with the chat models.
func NewEmbedding(cfg model.EmbeddingConfig, gemini *genai.Client) (chromem.EmbeddingFunc, error) {
	switch strings.ToLower(cfg.Provider) {
	case EmbeddingGemini, "":
		if gemini == nil {
			return nil, errors.New("gemini embedding: client is nil")
		}
		return NewGeminiEmbedding(gemini, cfg.Model), nil
	case EmbeddingOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, errors.New("openai embedding: OPENAI_API_KEY is not set")
		}
		modelName := cfg.Model
		if !strings.HasPrefix(modelName, "text-embedding-3") && !strings.HasPrefix(modelName, "text-embedding-ada") {
			modelName = string(openai.LargeEmbedding3)
		}
		return NewOpenAIEmbedding(openai.NewClient(cfg.OpenAIAPIKey), modelName), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
