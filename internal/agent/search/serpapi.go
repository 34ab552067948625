package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/slasia/smart-restaurant/internal/agent/model"
)

// SerpAPI queries Google through serpapi.com. Local (maps) results come
// first because they carry addresses and ratings.
type SerpAPI struct {
	Config
}

func NewSerpAPI(opts ...Option) *SerpAPI {
	ret := &SerpAPI{Config: newConfig(opts)}
	if ret.baseURL == "" {
		ret.baseURL = "https://serpapi.com"
	}
	return ret
}

type serpPlace struct {
	Title   string  `json:"title"`
	Address string  `json:"address"`
	Rating  float64 `json:"rating"`
	Website string  `json:"website"`
	Type    string  `json:"type"`
	Snippet string  `json:"description"`
}

type serpOrganic struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

type serpResponse struct {
	Error          string          `json:"error"`
	LocalResults   json.RawMessage `json:"local_results"`
	OrganicResults []serpOrganic   `json:"organic_results"`
}

// places handles both shapes of local_results: an object with a places list
// (google engine) and a bare list (google_maps engine).
func (r serpResponse) places() []serpPlace {
	if len(r.LocalResults) == 0 {
		return nil
	}
	var wrapped struct {
		Places []serpPlace `json:"places"`
	}
	if err := json.Unmarshal(r.LocalResults, &wrapped); err == nil && len(wrapped.Places) > 0 {
		return wrapped.Places
	}
	var list []serpPlace
	if err := json.Unmarshal(r.LocalResults, &list); err == nil {
		return list
	}
	return nil
}

func (t *SerpAPI) Search(ctx context.Context, q Query) ([]model.SearchResult, error) {
	values := url.Values{}
	values.Set("engine", "google")
	values.Set("q", q.Text)
	values.Set("api_key", t.apiKey)
	if loc := t.locationFor(q); loc != "" {
		values.Set("location", loc)
	}
	if t.language != "" {
		values.Set("hl", t.language)
	}
	searchURL := fmt.Sprintf("%s/search.json?%s", t.baseURL, values.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, err
	}

	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("error querying serpapi: %w", err)
	}
	defer httpResp.Body.Close()

	var resp serpResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		if httpResp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("non-200 response from serpapi: %d", httpResp.StatusCode)
		}
		return nil, fmt.Errorf("decode serpapi response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("serpapi: %s", resp.Error)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("non-200 response from serpapi: %d", httpResp.StatusCode)
	}

	limit := t.limit(q)
	results := make([]model.SearchResult, 0, limit)
	for _, p := range resp.places() {
		if len(results) == limit {
			return results, nil
		}
		snippet := p.Snippet
		if snippet == "" {
			snippet = p.Type
		}
		results = append(results, model.SearchResult{
			Title:   p.Title,
			Link:    p.Website,
			Snippet: plainText(snippet),
			Address: p.Address,
			Rating:  p.Rating,
		})
	}
	for _, o := range resp.OrganicResults {
		if len(results) == limit {
			break
		}
		results = append(results, model.SearchResult{
			Title:   o.Title,
			Link:    o.Link,
			Snippet: plainText(o.Snippet),
		})
	}
	return results, nil
}
