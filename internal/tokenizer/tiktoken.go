// Package tokenizer provides TokenCounter implementations backed by real
// BPE vocabularies.
package tokenizer

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/dgallion1/lexchunk/internal/chunker"
)

// DefaultEncoding is used for model hints tiktoken does not recognise.
const DefaultEncoding = "cl100k_base"

// Tiktoken counts tokens with the BPE encoding of the hinted model.
// Encodings are loaded lazily and kept per model.
type Tiktoken struct {
	mu        sync.Mutex
	encodings map[string]*tiktoken.Tiktoken
	warned    bool
	log       *slog.Logger
}

// NewTiktoken returns an empty Tiktoken counter.
func NewTiktoken(log *slog.Logger) *Tiktoken {
	if log == nil {
		log = slog.Default()
	}
	return &Tiktoken{encodings: make(map[string]*tiktoken.Tiktoken), log: log}
}

// Preload resolves the encoding for model so a missing vocabulary is
// reported at startup instead of on the first document.
func (t *Tiktoken) Preload(model string) error {
	_, err := t.encoding(model)
	return err
}

// Count implements chunker.TokenCounter. If no encoding can be loaded at all
// it degrades to the word estimate.
func (t *Tiktoken) Count(text, model string) int {
	if text == "" {
		return 0
	}
	enc, err := t.encoding(model)
	if err != nil {
		t.mu.Lock()
		if !t.warned {
			t.log.Warn("tiktoken unavailable, using word estimate", "model", model, "error", err)
			t.warned = true
		}
		t.mu.Unlock()
		return chunker.EstimateTokens(text)
	}
	return len(enc.Encode(text, nil, nil))
}

func (t *Tiktoken) encoding(model string) (*tiktoken.Tiktoken, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if enc, ok := t.encodings[model]; ok {
		return enc, nil
	}

	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(DefaultEncoding)
		if err != nil {
			return nil, fmt.Errorf("load encoding %s: %w", DefaultEncoding, err)
		}
	}
	t.encodings[model] = enc
	return enc, nil
}
