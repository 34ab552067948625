package rag

import (
	"context"
	"hash/fnv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCSV = `name,cuisine,address
La Rueda,Parrilla,Av. España 400
Epoca de Quesos, Cheese and wine ,San Martín 802
Sushi Club,Sushi
`

// bagOfWords is a deterministic embedding: words hashed into a fixed number
// of buckets plus a constant component so no vector is zero.
func bagOfWords(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, 33)
	v[32] = 0.01
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,:")
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[h.Sum32()%32]++
	}
	return v, nil
}

func TestReadCSV(t *testing.T) {
	docs, err := ReadCSV(strings.NewReader(sampleCSV), "data/restaurants.csv")
	require.NoError(t, err)
	require.Len(t, docs, 3)

	assert.Equal(t, "restaurants.csv#0", docs[0].ID)
	assert.Equal(t, "name: La Rueda\ncuisine: Parrilla\naddress: Av. España 400", docs[0].Content)
	assert.Equal(t, "data/restaurants.csv", docs[0].MetaData[MetaSource])
	assert.Equal(t, 1, docs[1].MetaData[MetaRow])
	assert.Contains(t, docs[1].Content, "cuisine: Cheese and wine\n")
	assert.True(t, strings.HasSuffix(docs[2].Content, "address: "))

	docs, err = ReadCSV(strings.NewReader(""), "empty.csv")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestNewSplitterValidates(t *testing.T) {
	ctx := context.Background()
	_, err := NewSplitter(ctx, 0, 0)
	assert.Error(t, err)
	_, err = NewSplitter(ctx, 100, 100)
	assert.Error(t, err)
	_, err = NewSplitter(ctx, 1000, 200)
	assert.NoError(t, err)
}

func TestSplitterShortRowIsOneChunk(t *testing.T) {
	ctx := context.Background()
	s, err := NewSplitter(ctx, 1000, 200)
	require.NoError(t, err)

	chunks, err := s.Transform(ctx, []*schema.Document{{
		ID:       "r.csv#0",
		Content:  "name: La Rueda\ncuisine: Parrilla",
		MetaData: map[string]any{MetaSource: "r.csv"},
	}})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "r.csv#0/0", chunks[0].ID)
	assert.Contains(t, chunks[0].Content, "name: La Rueda")
	assert.Equal(t, "r.csv", chunks[0].MetaData[MetaSource])
}

func TestSplitterRespectsChunkSize(t *testing.T) {
	ctx := context.Background()
	s, err := NewSplitter(ctx, 40, 10)
	require.NoError(t, err)

	text := strings.TrimSpace(strings.Repeat("palabra ", 60))
	chunks, err := s.Transform(ctx, []*schema.Document{{ID: "long", Content: text}})
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)
	for i, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Content), 40)
		assert.Equal(t, "long/"+strconv.Itoa(i), c.ID)
	}
}

func TestSplitterKeepsMetadataPerRow(t *testing.T) {
	ctx := context.Background()
	docs, err := ReadCSV(strings.NewReader(sampleCSV), "r.csv")
	require.NoError(t, err)
	s, err := NewSplitter(ctx, 25, 5)
	require.NoError(t, err)

	chunks, err := s.Transform(ctx, docs)
	require.NoError(t, err)
	require.Greater(t, len(chunks), len(docs))

	ids := map[string]bool{}
	for _, c := range chunks {
		assert.Equal(t, "r.csv", c.MetaData[MetaSource])
		assert.Contains(t, c.ID, "r.csv#")
		assert.False(t, ids[c.ID], "duplicate chunk id %s", c.ID)
		ids[c.ID] = true
	}
	assert.Equal(t, "r.csv#0/0", chunks[0].ID)
}

func TestStoreRetrieve(t *testing.T) {
	ctx := context.Background()
	store, err := NewStore("restaurants", bagOfWords, 2)
	require.NoError(t, err)

	empty, err := store.Retrieve(ctx, "anything")
	require.NoError(t, err)
	assert.Empty(t, empty)

	docs, err := ReadCSV(strings.NewReader(sampleCSV), "restaurants.csv")
	require.NoError(t, err)
	require.NoError(t, store.Add(ctx, docs))
	assert.Equal(t, 3, store.Count())

	got, err := store.Retrieve(ctx, "sushi")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "restaurants.csv#2", got[0].ID)
	assert.Equal(t, "restaurants.csv", got[0].MetaData[MetaSource])
	assert.GreaterOrEqual(t, got[0].Score(), got[1].Score())

	got, err = store.Retrieve(ctx, "sushi", retriever.WithTopK(10))
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestBuild(t *testing.T) {
	path := filepath.Join(t.TempDir(), "restaurants.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o600))

	store, err := NewStore("kb", bagOfWords, 0)
	require.NoError(t, err)
	s, err := NewSplitter(context.Background(), 1000, 200)
	require.NoError(t, err)

	n, err := Build(context.Background(), store, path, s)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, store.Count())
}
