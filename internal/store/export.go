package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteJSON writes records as an indented JSON array of
// {chunk_id, source_file, url, token_length, chunk_content} objects.
// Non-ASCII text is written as-is.
func WriteJSON(w io.Writer, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode chunks: %w", err)
	}
	return nil
}

// ExportFile writes every chunk in s to path, replacing the file atomically.
func ExportFile(ctx context.Context, s Store, path string) (int, error) {
	records, err := s.AllChunks(ctx)
	if err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".lexchunk-export-*.json")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteJSON(tmp, records); err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("rename export: %w", err)
	}
	return len(records), nil
}
