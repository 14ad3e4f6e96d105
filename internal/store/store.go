// Package store persists merged chunks. Chunk IDs are global, sequential
// and start at 1; each source document is appended at most once.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/lexchunk/internal/doctree"
)

var (
	// ErrAlreadyProcessed is returned when a source was appended before.
	ErrAlreadyProcessed = errors.New("source already processed")
	// ErrNotFound is returned when a requested source doesn't exist.
	ErrNotFound = errors.New("not found")
)

// DocumentMeta is the per-source record kept alongside its chunks.
type DocumentMeta struct {
	Source      string    `json:"source_file"`
	Title       string    `json:"title"`
	HasAppendix bool      `json:"has_appendix"`
	Unassigned  []string  `json:"unassigned,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// MetaFor builds the metadata record for a parsed document.
func MetaFor(doc *doctree.Document) DocumentMeta {
	return DocumentMeta{
		Source:      doc.Source,
		Title:       doc.Title,
		HasAppendix: doc.HasAppendix,
		Unassigned:  doc.Unassigned,
		ProcessedAt: time.Now().UTC(),
	}
}

// Record is a persisted chunk.
type Record struct {
	ID int64 `json:"chunk_id"`
	doctree.FinalChunk
}

// SourceInfo summarises one processed source.
type SourceInfo struct {
	DocumentMeta
	Chunks  int   `json:"chunks"`
	FirstID int64 `json:"first_id,omitempty"`
	LastID  int64 `json:"last_id,omitempty"`
}

// Stats aggregates the whole store.
type Stats struct {
	Sources     int     `json:"sources"`
	Chunks      int     `json:"chunks"`
	TotalTokens int64   `json:"total_tokens"`
	MaxTokens   int     `json:"max_tokens"`
	AvgTokens   float64 `json:"avg_tokens"`
	LastID      int64   `json:"last_id"`
}

// Store is an append-only chunk store.
type Store interface {
	// Init creates or migrates the schema. Safe to call repeatedly.
	Init(ctx context.Context) error
	// AppendDocument stores meta and chunks in one transaction, assigning
	// IDs after the current maximum. It returns ErrAlreadyProcessed when
	// meta.Source is already present; nothing is written in that case.
	AppendDocument(ctx context.Context, meta DocumentMeta, chunks []doctree.FinalChunk) ([]Record, error)
	IsProcessed(ctx context.Context, source string) (bool, error)
	Sources(ctx context.Context) ([]SourceInfo, error)
	// Chunks returns the chunks of one source in ID order, or ErrNotFound.
	Chunks(ctx context.Context, source string) ([]Record, error)
	AllChunks(ctx context.Context) ([]Record, error)
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Open picks a backend from dsn: postgres:// and postgresql:// URLs use
// PostgreSQL, anything else is treated as a SQLite file path. The returned
// store is initialised.
func Open(ctx context.Context, dsn string, log *slog.Logger) (Store, error) {
	var (
		s   Store
		err error
	)
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		s, err = OpenPostgres(ctx, dsn, WithLogger(log))
	} else {
		s, err = OpenSQLite(dsn, WithLogger(log))
	}
	if err != nil {
		return nil, err
	}
	if err := s.Init(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("init store: %w", err)
	}
	return s, nil
}

// Option configures a backend.
type Option func(*options)

type options struct {
	log *slog.Logger
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{log: slog.New(slog.DiscardHandler)}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func avg(total int64, n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(total) / float64(n)
}
