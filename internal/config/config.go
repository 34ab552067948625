package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/redis/go-redis/v9"

	"github.com/slasia/smart-restaurant/internal/agent/graph"
	"github.com/slasia/smart-restaurant/internal/agent/model"
	"github.com/slasia/smart-restaurant/internal/core"
	pkgredis "github.com/slasia/smart-restaurant/pkg/redis"
)

const DefaultEnvFile = ".env"

// AppConfig defines all configurable parameters of the service,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment core.Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string           `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Run          model.RunConfig
	Conversation model.ConversationModelConfig
	Retrieval    model.RetrievalModelConfig
	Embedding    model.EmbeddingConfig
	Knowledge    model.KnowledgeConfig
	Search       model.SearchConfig
}

// Load reads envFile into the process environment and binds AppConfig.
// A missing envFile is only an error when required is set.
func Load(envFile string, required bool) (*AppConfig, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if required || !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("load %s: %w", envFile, err)
			}
		}
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}
	return &cfg, nil
}

// Graph builds the recommendation graph configuration. rdb may be nil.
func (c *AppConfig) Graph(rdb redis.Cmdable) graph.Config {
	cfg := graph.Config{
		APIKey:    c.APIKey,
		BaseURL:   c.BaseURL,
		Run:       c.Run,
		Chat:      c.Conversation,
		Retrieval: c.Retrieval,
		Embedding: c.Embedding,
		Knowledge: c.Knowledge,
		Search:    c.Search,
	}
	if rdb != nil {
		cfg.Redis = rdb
	}
	return cfg
}
