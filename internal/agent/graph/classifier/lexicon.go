package classifier

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lexicon.yaml
var defaultLexicon []byte

// Lexicon holds the word lists the heuristic classifier matches against.
type Lexicon struct {
	Keywords        []string `yaml:"keywords"`
	NegativePhrases []string `yaml:"negative_phrases"`
	// MinLength is the trimmed length below which a reply is negative.
	MinLength int `yaml:"min_length"`
	// LongLength is the length above which a non-negative reply is positive.
	LongLength int `yaml:"long_length"`
}

// DefaultLexicon returns the lexicon compiled into the binary.
func DefaultLexicon() Lexicon {
	lex, err := ParseLexicon(defaultLexicon)
	if err != nil {
		panic(fmt.Sprintf("embedded lexicon: %v", err))
	}
	return lex
}

// LoadLexicon reads a lexicon from path. An empty path returns the default.
func LoadLexicon(path string) (Lexicon, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultLexicon(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Lexicon{}, fmt.Errorf("read lexicon: %w", err)
	}
	return ParseLexicon(b)
}

// ParseLexicon decodes YAML. Missing thresholds fall back to 10 and 50.
func ParseLexicon(b []byte) (Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(b, &lex); err != nil {
		return Lexicon{}, fmt.Errorf("decode lexicon: %w", err)
	}
	if len(lex.Keywords) == 0 {
		return Lexicon{}, fmt.Errorf("decode lexicon: no keywords")
	}
	if lex.MinLength <= 0 {
		lex.MinLength = 10
	}
	if lex.LongLength <= 0 {
		lex.LongLength = 50
	}
	lex.Keywords = normalize(lex.Keywords)
	lex.NegativePhrases = normalize(lex.NegativePhrases)
	return lex, nil
}

// WithKeyword returns a copy of l that also matches kw.
func (l Lexicon) WithKeyword(kw string) Lexicon {
	kw = strings.ToLower(strings.TrimSpace(kw))
	if kw == "" {
		return l
	}
	for _, k := range l.Keywords {
		if k == kw {
			return l
		}
	}
	l.Keywords = append(append([]string(nil), l.Keywords...), kw)
	return l
}

func normalize(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return out
}
