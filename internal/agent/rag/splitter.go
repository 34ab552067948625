package rag

import (
	"context"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/cloudwego/eino-ext/components/document/transformer/splitter/recursive"
	"github.com/cloudwego/eino/components/document"
)

// Paragraphs, then lines, then words.
var chunkSeparators = []string{"\n\n", "\n", " "}

// NewSplitter returns the transformer that cuts knowledge base rows into
// overlapping chunks. Sizes count runes. Chunk ids are "<row id>/<n>".
func NewSplitter(ctx context.Context, size, overlap int) (document.Transformer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap %d must be in [0, %d)", overlap, size)
	}
	return recursive.NewSplitter(ctx, &recursive.Config{
		ChunkSize:   size,
		OverlapSize: overlap,
		Separators:  chunkSeparators,
		LenFunc:     utf8.RuneCountInString,
		KeepType:    recursive.KeepTypeNone,
		IDGenerator: chunkID,
	})
}

func chunkID(_ context.Context, originalID string, splitIndex int) string {
	return originalID + "/" + strconv.Itoa(splitIndex)
}
