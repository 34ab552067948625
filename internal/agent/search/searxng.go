package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/slasia/smart-restaurant/internal/agent/model"
)

// Searxng queries a self-hosted SearxNG instance.
type Searxng struct {
	Config
}

func NewSearxng(opts ...Option) *Searxng {
	ret := &Searxng{Config: newConfig(opts)}
	if ret.baseURL == "" {
		ret.baseURL = "http://localhost:8080"
	}
	return ret
}

type searxngItem struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type searxngResponse struct {
	Query   string        `json:"query"`
	Results []searxngItem `json:"results"`
}

func (t *Searxng) Search(ctx context.Context, q Query) ([]model.SearchResult, error) {
	text := q.Text
	if loc := t.locationFor(q); loc != "" && !strings.Contains(strings.ToLower(text), strings.ToLower(loc)) {
		text = text + " " + loc
	}
	values := url.Values{}
	values.Set("q", text)
	values.Set("safesearch", "0")
	values.Set("format", "json")
	values.Set("categories", "general")
	if t.language != "" {
		values.Set("language", t.language)
	}
	searchURL := fmt.Sprintf("%s/search?%s", t.baseURL, values.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}

	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error querying searxng: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("non-200 response from searxng: %d", httpResp.StatusCode)
	}

	var resp searxngResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode searxng response: %w", err)
	}

	limit := t.limit(q)
	results := make([]model.SearchResult, 0, limit)
	for _, item := range resp.Results {
		if len(results) == limit {
			break
		}
		results = append(results, model.SearchResult{
			Title:   plainText(item.Title),
			Link:    item.URL,
			Snippet: plainText(item.Content),
		})
	}
	return results, nil
}
