package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/go-playground/validator/v10"

	"github.com/slasia/smart-restaurant/internal/agent/model"
	"github.com/slasia/smart-restaurant/internal/agent/search"
	errx "github.com/slasia/smart-restaurant/internal/core/error"
)

const (
	ToolRestaurantSearch = "restaurant_search"
	ToolRetrieve         = "retrieve"

	maxSearchResults = 10
)

// ===================================
// Restaurant Search Tool
// ===================================

type RestaurantSearchInput struct {
	Query      string `json:"query" validate:"required,max=300"`
	Location   string `json:"location,omitempty" validate:"max=120"`
	MaxResults int    `json:"max_results,omitempty" validate:"min=0,max=10"`
}

// RestaurantSearch searches the web for restaurants. It accepts the query
// under "query" or "input", and falls back to the raw arguments when neither
// is present.
type RestaurantSearch struct {
	searcher search.Searcher
	validate *validator.Validate
}

var _ tool.InvokableTool = (*RestaurantSearch)(nil)

func NewRestaurantSearch(s search.Searcher) *RestaurantSearch {
	return &RestaurantSearch{searcher: s, validate: validator.New()}
}

func (t *RestaurantSearch) Info(_ context.Context) (*schema.ToolInfo, error) {
	return &schema.ToolInfo{
		Name: ToolRestaurantSearch,
		Desc: "Search the web for restaurants matching the user's preferences. Returns names, addresses, ratings and links.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query": {
				Type:     schema.String,
				Desc:     "What to search for, e.g. \"vegan restaurants open late\". Include cuisine, budget and area when known.",
				Required: true,
			},
			"location": {
				Type: schema.String,
				Desc: "Optional city or area to search in.",
			},
			"max_results": {
				Type: schema.Integer,
				Desc: "Maximum number of results (default 5, max 10).",
			},
		}),
	}, nil
}

func (t *RestaurantSearch) InvokableRun(ctx context.Context, argumentsInJSON string, _ ...tool.Option) (string, error) {
	in := ParseRestaurantSearchInput(argumentsInJSON)
	if err := t.validate.Struct(in); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	results, err := t.searcher.Search(ctx, search.Query{
		Text:     in.Query,
		Location: in.Location,
		Limit:    in.MaxResults,
	})
	if err != nil {
		return "", errx.WrapSearch(err)
	}
	return FormatResults(in.Query, results), nil
}

// ParseRestaurantSearchInput sanitizes whatever the model sent. It never
// fails; validation reports what is still wrong.
func ParseRestaurantSearchInput(arguments string) *RestaurantSearchInput {
	in := &RestaurantSearchInput{}
	raw := strings.TrimSpace(arguments)

	m, err := model.DecodeArguments(raw)
	if err != nil {
		// a bare JSON string or plain text is the query itself
		var s string
		if json.Unmarshal([]byte(raw), &s) == nil {
			raw = s
		}
		in.Query = strings.TrimSpace(raw)
		return in
	}

	for _, key := range []string{"input", "query"} {
		if q := stringArg(m[key]); q != "" {
			in.Query = q
			break
		}
	}
	if in.Query == "" && len(m) > 0 {
		in.Query = raw
	}
	in.Location = stringArg(m["location"])

	switch v := m["max_results"].(type) {
	case float64:
		in.MaxResults = clampInt(int(v), 1, maxSearchResults)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			in.MaxResults = clampInt(n, 1, maxSearchResults)
		}
	}
	return in
}

func stringArg(v any) string {
	switch vv := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(vv)
	case map[string]any, []any:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(vv))
	}
}

// FormatResults renders search hits as a Markdown list for the model.
func FormatResults(query string, results []model.SearchResult) string {
	if len(results) == 0 {
		return fmt.Sprintf("No restaurants found for %q.", query)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Results for %q:\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "%d. **%s**", i+1, r.Title)
		if r.Rating > 0 {
			fmt.Fprintf(&b, " (rating %.1f)", r.Rating)
		}
		if r.Address != "" {
			fmt.Fprintf(&b, " - %s", r.Address)
		}
		b.WriteString("\n")
		if r.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", r.Snippet)
		}
		if r.Link != "" {
			fmt.Fprintf(&b, "   %s\n", r.Link)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// clampInt returns v limited to [min, max].
func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
