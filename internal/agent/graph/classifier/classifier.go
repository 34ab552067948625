// Package classifier decides whether knowledge base output answers a query.
package classifier

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"

	"github.com/slasia/smart-restaurant/internal/agent/model"
)

// Verdict is the outcome of classifying a reply.
type Verdict int

const (
	Unknown Verdict = iota
	Positive
	Negative
)

func (v Verdict) String() string {
	switch v {
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	default:
		return "unknown"
	}
}

// Classifier judges a candidate answer.
type Classifier interface {
	Classify(text string) Verdict
}

// Heuristic is the keyword and length based classifier.
type Heuristic struct {
	lex Lexicon
}

func NewHeuristic(lex Lexicon) *Heuristic {
	return &Heuristic{lex: lex}
}

// Classify returns Negative for short replies, replies carrying a negative
// phrase and the unfinished conversation reply, Positive for replies with a keyword or long enough to be an answer,
// and Unknown otherwise.
func (h *Heuristic) Classify(text string) Verdict {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	if trimmed == model.CouldNotCompleteAnswer {
		return Negative
	}
	if utf8.RuneCountInString(trimmed) < h.lex.MinLength || containsAny(lower, h.lex.NegativePhrases) {
		return Negative
	}
	if containsAny(lower, h.lex.Keywords) || utf8.RuneCountInString(trimmed) > h.lex.LongLength {
		return Positive
	}
	return Unknown
}

// Relevant reports whether any document mentions a keyword.
func (h *Heuristic) Relevant(docs []*schema.Document) bool {
	for _, d := range docs {
		if d != nil && containsAny(strings.ToLower(d.Content), h.lex.Keywords) {
			return true
		}
	}
	return false
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// Policy combines the relevance check with the answer verdict.
type Policy string

const (
	// PolicyBoth accepts only relevant documents with a positive answer.
	PolicyBoth Policy = "both"
	// PolicyRelevance accepts on relevant documents alone.
	PolicyRelevance Policy = "relevance"
	// PolicyAnswer accepts on a positive answer alone.
	PolicyAnswer Policy = "answer"
)

// ParsePolicy maps a config value onto a Policy.
func ParsePolicy(v string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(v))); p {
	case "":
		return PolicyBoth, nil
	case PolicyBoth, PolicyRelevance, PolicyAnswer:
		return p, nil
	default:
		return "", fmt.Errorf("unknown decision policy %q", v)
	}
}

// Accept applies the policy.
func (p Policy) Accept(relevant bool, verdict Verdict) bool {
	switch p {
	case PolicyRelevance:
		return relevant
	case PolicyAnswer:
		return verdict == Positive
	default:
		return relevant && verdict == Positive
	}
}

// NeedsRelevance reports whether irrelevant documents alone reject the
// retrieval result.
func (p Policy) NeedsRelevance() bool {
	return p != PolicyAnswer
}

// NeedsAnswer reports whether the policy looks at the answer verdict at all.
func (p Policy) NeedsAnswer() bool {
	return p != PolicyRelevance
}
