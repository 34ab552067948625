package model

import "time"

// ================ Config ================

type RunConfig struct {
	MaxIterations           int `envconfig:"RUN_MAX_ITERATIONS" default:"6"`
	SubSessionMaxIterations int `envconfig:"RUN_SUBSESSION_MAX_ITERATIONS" default:"4"`
}

type ConversationModelConfig struct {
	Model       string  `envconfig:"CONVERSATION_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"CONVERSATION_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"CONVERSATION_TEMPERATURE" default:"0.4"`
}

type RetrievalModelConfig struct {
	Model       string  `envconfig:"RAG_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"RAG_MAX_TOKENS" default:"1500"`
	Temperature float32 `envconfig:"RAG_TEMPERATURE" default:"0.1"`
}

type EmbeddingConfig struct {
	Provider     string `envconfig:"EMBEDDING_PROVIDER" default:"gemini"`
	Model        string `envconfig:"EMBEDDING_MODEL" default:"text-embedding-004"`
	OpenAIAPIKey string `envconfig:"OPENAI_API_KEY"`
}

type KnowledgeConfig struct {
	SourcePath   string `envconfig:"RAG_SOURCE_PATH" default:"data/restaurants.csv"`
	Collection   string `envconfig:"RAG_COLLECTION" default:"restaurants"`
	ChunkSize    int    `envconfig:"RAG_CHUNK_SIZE" default:"1000"`
	ChunkOverlap int    `envconfig:"RAG_CHUNK_OVERLAP" default:"200"`
	TopK         int    `envconfig:"RAG_TOP_K" default:"2"`
	// DecisionPolicy combines the relevance and answer heuristics: both, relevance or answer.
	DecisionPolicy string `envconfig:"RAG_DECISION_POLICY" default:"both"`
	// LexiconPath points at a YAML lexicon; the embedded one is used when empty.
	LexiconPath string `envconfig:"RAG_LEXICON_PATH"`
	// Locale names the area the knowledge base covers.
	Locale string `envconfig:"RAG_LOCALE" default:"Tandil"`
}

type SearchConfig struct {
	Provider   string        `envconfig:"SEARCH_PROVIDER" default:"serpapi"`
	SerpAPIKey string        `envconfig:"SERPAPI_API_KEY"`
	SerpAPIURL string        `envconfig:"SERPAPI_BASE_URL" default:"https://serpapi.com"`
	SearxngURL string        `envconfig:"SEARXNG_BASE_URL" default:"http://localhost:8080"`
	Location   string        `envconfig:"SEARCH_LOCATION"`
	Language   string        `envconfig:"SEARCH_LANGUAGE" default:"en"`
	MaxResults int           `envconfig:"SEARCH_MAX_RESULTS" default:"5"`
	Timeout    time.Duration `envconfig:"SEARCH_TIMEOUT" default:"15s"`
	CacheTTL   time.Duration `envconfig:"SEARCH_CACHE_TTL" default:"30m"`
}
