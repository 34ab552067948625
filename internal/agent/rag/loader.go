// Package rag builds the restaurant knowledge base the retrieval stage queries.
package rag

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cloudwego/eino/schema"
)

const (
	MetaSource = "source"
	MetaRow    = "row"
)

// LoadCSV reads a CSV file into one document per data row. Each document is
// the row rendered as "column: value" lines.
func LoadCSV(path string) ([]*schema.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open knowledge base: %w", err)
	}
	defer f.Close()
	return ReadCSV(f, path)
}

// ReadCSV is LoadCSV over an arbitrary reader; source is recorded in metadata.
func ReadCSV(r io.Reader, source string) ([]*schema.Document, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	base := filepath.Base(source)
	var docs []*schema.Document
	for row := 0; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", row, err)
		}

		lines := make([]string, 0, len(header))
		for i, col := range header {
			value := ""
			if i < len(rec) {
				value = strings.TrimSpace(rec[i])
			}
			lines = append(lines, col+": "+value)
		}
		docs = append(docs, &schema.Document{
			ID:      base + "#" + strconv.Itoa(row),
			Content: strings.Join(lines, "\n"),
			MetaData: map[string]any{
				MetaSource: source,
				MetaRow:    row,
			},
		})
	}
	return docs, nil
}
