// Package search queries web search backends for restaurants.
package search

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/slasia/smart-restaurant/internal/agent/model"
)

const (
	ProviderSerpAPI = "serpapi"
	ProviderSearxng = "searxng"
)

// Query is one web search request.
type Query struct {
	Text     string
	Location string
	Limit    int
}

// Searcher runs a web search.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]model.SearchResult, error)
}

type Config struct {
	baseURL    string
	apiKey     string
	language   string
	location   string
	maxResults int
	httpClient *http.Client
}

type Option func(*Config)

func WithBaseURL(baseURL string) Option {
	return func(c *Config) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.apiKey = key
	}
}

func WithLanguage(lang string) Option {
	return func(c *Config) {
		c.language = lang
	}
}

// WithLocation sets the location used when a query carries none.
func WithLocation(loc string) Option {
	return func(c *Config) {
		c.location = loc
	}
}

func WithMaxResults(n int) Option {
	return func(c *Config) {
		c.maxResults = n
	}
}

func WithHttpClient(clt *http.Client) Option {
	return func(c *Config) {
		c.httpClient = clt
	}
}

func newConfig(opts []Option) Config {
	var c Config
	for _, opt := range opts {
		opt(&c)
	}
	if c.maxResults <= 0 {
		c.maxResults = 5
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}
	return c
}

func (c Config) limit(q Query) int {
	if q.Limit > 0 && q.Limit < c.maxResults {
		return q.Limit
	}
	return c.maxResults
}

func (c Config) locationFor(q Query) string {
	if q.Location != "" {
		return q.Location
	}
	return c.location
}

// New builds the searcher named by cfg.Provider.
func New(cfg model.SearchConfig) (Searcher, error) {
	opts := []Option{
		WithLanguage(cfg.Language),
		WithLocation(cfg.Location),
		WithMaxResults(cfg.MaxResults),
		WithHttpClient(&http.Client{Timeout: cfg.Timeout}),
	}
	switch strings.ToLower(cfg.Provider) {
	case ProviderSerpAPI, "":
		if cfg.SerpAPIKey == "" {
			return nil, fmt.Errorf("serpapi: SERPAPI_API_KEY is not set")
		}
		return NewSerpAPI(append(opts, WithBaseURL(cfg.SerpAPIURL), WithAPIKey(cfg.SerpAPIKey))...), nil
	case ProviderSearxng:
		return NewSearxng(append(opts, WithBaseURL(cfg.SearxngURL))...), nil
	default:
		return nil, fmt.Errorf("unknown search provider %q", cfg.Provider)
	}
}

// plainText strips markup some engines leave in snippets.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
