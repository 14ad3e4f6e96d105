package chunker

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/dgallion1/lexchunk/internal/doctree"
)

// Config controls chunking behavior.
type Config struct {
	MaxTokens int          // Token budget per merged chunk.
	Model     string       // Model hint passed to Counter.
	Counter   TokenCounter // Defaults to EstimateCounter.
	URL       string       // Copied into every emitted chunk.
	Logger    *slog.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens: 800,
		Model:     "gpt-4o",
		Counter:   EstimateCounter{},
	}
}

// Oversized identifies a chunk that exceeds the budget because its single
// path-chunk already did.
type Oversized struct {
	Index  int `json:"index"`
	Tokens int `json:"tokens"`
}

// Report carries the non-fatal diagnostics for one document.
type Report struct {
	Source     string      `json:"source"`
	Title      string      `json:"title"`
	Unassigned []string    `json:"unassigned,omitempty"`
	PathChunks int         `json:"path_chunks"`
	Oversized  []Oversized `json:"oversized,omitempty"`
}

// Result is the output of Chunk.
type Result struct {
	Chunks []doctree.FinalChunk
	Report Report
}

// Chunk runs path extraction, merging and coverage verification over doc.
// A *CoverageError is returned when structural content was lost; the
// chunks must then be discarded.
func Chunk(doc *doctree.Document, cfg Config) (*Result, error) {
	if cfg.MaxTokens <= 0 {
		return nil, errors.New("chunker: max tokens must be positive")
	}
	if cfg.Counter == nil {
		cfg.Counter = EstimateCounter{}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("source", doc.Source)

	paths := ExtractPaths(doc, cfg.Counter, cfg.Model)
	merged := Merge(paths, cfg.MaxTokens, cfg.Counter, cfg.Model)

	res := &Result{
		Chunks: make([]doctree.FinalChunk, 0, len(merged)),
		Report: Report{
			Source:     doc.Source,
			Title:      doc.Title,
			Unassigned: doc.Unassigned,
			PathChunks: len(paths),
		},
	}
	for i, m := range merged {
		if m.TokenCount > cfg.MaxTokens {
			res.Report.Oversized = append(res.Report.Oversized, Oversized{Index: i, Tokens: m.TokenCount})
		}
		res.Chunks = append(res.Chunks, doctree.FinalChunk{
			Source:     doc.Source,
			URL:        cfg.URL,
			TokenCount: m.TokenCount,
			Content:    strings.Join(m.Lines, " "),
			Lines:      m.Lines,
		})
	}

	if err := Verify(doc, res.Chunks); err != nil {
		return nil, err
	}

	if n := len(res.Report.Unassigned); n > 0 {
		log.Warn("lines before first heading excluded from chunks", "count", n)
	}
	if n := len(res.Report.Oversized); n > 0 {
		log.Warn("chunks exceed token budget", "count", n, "max_tokens", cfg.MaxTokens)
	}
	return res, nil
}
