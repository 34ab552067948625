package tools

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slasia/smart-restaurant/internal/agent/model"
	"github.com/slasia/smart-restaurant/internal/agent/search"
	errx "github.com/slasia/smart-restaurant/internal/core/error"
)

type fakeSearcher struct {
	got     search.Query
	results []model.SearchResult
	err     error
}

func (f *fakeSearcher) Search(_ context.Context, q search.Query) ([]model.SearchResult, error) {
	f.got = q
	return f.results, f.err
}

type fakeRetriever struct {
	topK int
	docs []*schema.Document
	err  error
}

func (f *fakeRetriever) Retrieve(_ context.Context, _ string, opts ...retriever.Option) ([]*schema.Document, error) {
	o := retriever.GetCommonOptions(&retriever.Options{}, opts...)
	if o.TopK != nil {
		f.topK = *o.TopK
	}
	return f.docs, f.err
}

func TestParseRestaurantSearchInput(t *testing.T) {
	cases := []struct {
		name string
		args string
		want RestaurantSearchInput
	}{
		{"query", `{"query": "  vegan  "}`, RestaurantSearchInput{Query: "vegan"}},
		{"input wins", `{"input": "pizza", "query": "pasta"}`, RestaurantSearchInput{Query: "pizza"}},
		{"empty input falls to query", `{"input": "", "query": "pasta"}`, RestaurantSearchInput{Query: "pasta"}},
		{"whole arguments", `{"cuisine":"thai"}`, RestaurantSearchInput{Query: `{"cuisine":"thai"}`}},
		{"bare string", `"sushi"`, RestaurantSearchInput{Query: "sushi"}},
		{"plain text", `steak near me`, RestaurantSearchInput{Query: "steak near me"}},
		{"number query coerced", `{"query": 42}`, RestaurantSearchInput{Query: "42"}},
		{"max results clamped", `{"query": "a", "max_results": 50}`, RestaurantSearchInput{Query: "a", MaxResults: 10}},
		{"max results string", `{"query": "a", "max_results": " 3 "}`, RestaurantSearchInput{Query: "a", MaxResults: 3}},
		{"max results garbage", `{"query": "a", "max_results": "many"}`, RestaurantSearchInput{Query: "a"}},
		{"location", `{"query": "a", "location": " Tandil "}`, RestaurantSearchInput{Query: "a", Location: "Tandil"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, *ParseRestaurantSearchInput(tc.args))
		})
	}
}

func TestRestaurantSearchRun(t *testing.T) {
	s := &fakeSearcher{results: []model.SearchResult{
		{Title: "La Rueda", Address: "Av. España 400", Rating: 4.6, Snippet: "Parrilla", Link: "https://larueda.example"},
		{Title: "Cafe"},
	}}
	rs := NewRestaurantSearch(s)

	out, err := rs.InvokableRun(context.Background(), `{"input": "steak", "max_results": 2}`)
	require.NoError(t, err)
	assert.Equal(t, search.Query{Text: "steak", Limit: 2}, s.got)
	assert.Equal(t, "Results for \"steak\":\n"+
		"1. **La Rueda** (rating 4.6) - Av. España 400\n"+
		"   Parrilla\n"+
		"   https://larueda.example\n"+
		"2. **Cafe**", out)
}

func TestRestaurantSearchErrors(t *testing.T) {
	rs := NewRestaurantSearch(&fakeSearcher{err: errors.New("quota exceeded")})

	_, err := rs.InvokableRun(context.Background(), `{"query": "x"}`)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, errx.StatusOf(err))
	assert.ErrorContains(t, err, "quota exceeded")

	_, err = rs.InvokableRun(context.Background(), `{}`)
	assert.ErrorContains(t, err, "invalid arguments")
}

func TestRestaurantSearchNoResults(t *testing.T) {
	out, err := NewRestaurantSearch(&fakeSearcher{}).InvokableRun(context.Background(), `{"query": "martian food"}`)
	require.NoError(t, err)
	assert.Equal(t, `No restaurants found for "martian food".`, out)
}

func TestRecommendationRegistry(t *testing.T) {
	ctx := context.Background()
	rs := NewRestaurantSearch(&fakeSearcher{})
	reg, err := NewRecommendationRegistry(ctx, rs)
	require.NoError(t, err)

	for _, name := range []string{ToolRestaurantSearch, "restaurantSearch", "search"} {
		got, ok := reg.Lookup(name)
		assert.True(t, ok, name)
		assert.Same(t, rs, got)
	}
	_, ok := reg.Lookup("")
	assert.False(t, ok)
	_, ok = reg.Lookup("book_table")
	assert.False(t, ok)

	assert.Equal(t, []string{"restaurantSearch", ToolRestaurantSearch, "search"}, reg.Names())
	require.Len(t, reg.Infos(), 1)
	assert.Equal(t, ToolRestaurantSearch, reg.Infos()[0].Name)

	assert.Error(t, reg.Alias("x", "missing"))
	assert.Error(t, reg.Alias(ToolRestaurantSearch, ToolRestaurantSearch))
	_, err = NewRegistry(ctx, rs, rs)
	assert.Error(t, err)
}

func TestRetrieveTool(t *testing.T) {
	ctx := context.Background()
	r := &fakeRetriever{docs: []*schema.Document{
		{Content: "name: La Rueda", MetaData: map[string]any{"source": "restaurants.csv"}},
		{Content: "name: Epoca", MetaData: map[string]any{"source": "restaurants.csv"}},
	}}
	rt := NewRetrieveTool(r, 2)

	info, err := rt.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, ToolRetrieve, info.Name)

	out, err := rt.InvokableRun(ctx, `{"query": "steak"}`)
	require.NoError(t, err)
	assert.Equal(t, 2, r.topK)
	assert.Equal(t, "Source: restaurants.csv\nContent: name: La Rueda\nSource: restaurants.csv\nContent: name: Epoca", out)

	_, err = rt.InvokableRun(ctx, `{"query": " "}`)
	assert.Error(t, err)

	r.err = errors.New("index down")
	_, err = rt.InvokableRun(ctx, `{"query": "steak"}`)
	assert.ErrorContains(t, err, "index down")
}

func TestSerializeDocumentsEmpty(t *testing.T) {
	assert.Equal(t, noDocuments, SerializeDocuments(nil))
	assert.Equal(t, "Source: \nContent: x", SerializeDocuments([]*schema.Document{{Content: "x"}}))
}
