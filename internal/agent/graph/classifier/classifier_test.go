package classifier

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slasia/smart-restaurant/internal/agent/model"
)

func TestHeuristicClassify(t *testing.T) {
	h := NewHeuristic(DefaultLexicon())

	cases := []struct {
		name string
		text string
		want Verdict
	}{
		{"empty", "", Negative},
		{"short", "  yes   ", Negative},
		{"sentinel", "false", Negative},
		{"spanish negative", "Lo siento, no encontré opciones para esa consulta", Negative},
		{"negative beats keyword", "No hay restaurantes de sushi en Tandil registrados", Negative},
		{"keyword", "Try restaurant Epoca", Positive},
		{"locale keyword", "Tandil has El Molino", Positive},
		{"long answer", strings.Repeat("good food ", 6), Positive},
		{"medium without keyword", "Maybe try the grill", Unknown},
		{"budget exhausted", "Could not complete the recommendation: the assistant did not reach a final answer.", Negative},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, h.Classify(tc.text))
		})
	}
}

func TestUnfinishedReplyIsNegativeWithAnyLexicon(t *testing.T) {
	lex, err := ParseLexicon([]byte("keywords: [recommendation]\nnegative_phrases: [nope]\n"))
	require.NoError(t, err)
	h := NewHeuristic(lex)

	assert.Equal(t, Negative, h.Classify(model.CouldNotCompleteAnswer))
	assert.Equal(t, Negative, h.Classify("  "+model.CouldNotCompleteAnswer+"\n"))
	assert.Equal(t, Positive, h.Classify("My recommendation is La Rueda"))
	assert.Equal(t, Negative, NewHeuristic(DefaultLexicon()).Classify(model.CouldNotCompleteAnswer))
}

func TestHeuristicRelevant(t *testing.T) {
	h := NewHeuristic(DefaultLexicon())

	assert.False(t, h.Relevant(nil))
	assert.False(t, h.Relevant([]*schema.Document{{Content: "a bakery in Azul"}}))
	assert.True(t, h.Relevant([]*schema.Document{nil, {Content: "Parrilla in TANDIL centre"}}))
}

func TestPolicyAccept(t *testing.T) {
	assert.True(t, PolicyBoth.Accept(true, Positive))
	assert.False(t, PolicyBoth.Accept(false, Positive))
	assert.False(t, PolicyBoth.Accept(true, Unknown))

	assert.True(t, PolicyRelevance.Accept(true, Negative))
	assert.False(t, PolicyRelevance.Accept(false, Positive))

	assert.True(t, PolicyAnswer.Accept(false, Positive))
	assert.False(t, PolicyAnswer.Accept(true, Negative))

	assert.False(t, PolicyRelevance.NeedsAnswer())
	assert.True(t, PolicyBoth.NeedsAnswer())

	assert.True(t, PolicyBoth.NeedsRelevance())
	assert.True(t, PolicyRelevance.NeedsRelevance())
	assert.False(t, PolicyAnswer.NeedsRelevance())
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyBoth, p)

	p, err = ParsePolicy(" Answer ")
	require.NoError(t, err)
	assert.Equal(t, PolicyAnswer, p)

	_, err = ParsePolicy("majority")
	assert.Error(t, err)
}

func TestLoadLexicon(t *testing.T) {
	lex, err := LoadLexicon("")
	require.NoError(t, err)
	assert.Contains(t, lex.Keywords, "tandil")
	assert.Equal(t, 10, lex.MinLength)
	assert.Equal(t, 50, lex.LongLength)

	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keywords: [Pizzeria]\nnegative_phrases: [nope]\n"), 0o600))

	lex, err = LoadLexicon(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"pizzeria"}, lex.Keywords)
	assert.Equal(t, 10, lex.MinLength)

	h := NewHeuristic(lex.WithKeyword("Azul"))
	assert.Equal(t, Positive, h.Classify("a pizzeria downtown"))
	assert.Equal(t, Positive, h.Classify("check out Azul centro"))
	assert.Equal(t, Negative, h.Classify("nope, nothing there"))

	_, err = ParseLexicon([]byte("negative_phrases: [x]"))
	assert.Error(t, err)
	_, err = LoadLexicon(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
