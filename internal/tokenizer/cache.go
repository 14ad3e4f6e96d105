package tokenizer

import (
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dgallion1/lexchunk/internal/chunker"
)

// Kinds accepted by New.
const (
	KindTiktoken = "tiktoken"
	KindEstimate = "estimate"
)

type cacheKey struct {
	model string
	text  string
}

// CachedCounter memoises another counter by (model, text).
type CachedCounter struct {
	next  chunker.TokenCounter
	cache *lru.Cache[cacheKey, int]
}

// Cached wraps next with an LRU of the given size.
func Cached(next chunker.TokenCounter, size int) (*CachedCounter, error) {
	cache, err := lru.New[cacheKey, int](size)
	if err != nil {
		return nil, fmt.Errorf("create token cache: %w", err)
	}
	return &CachedCounter{next: next, cache: cache}, nil
}

// Count implements chunker.TokenCounter.
func (c *CachedCounter) Count(text, model string) int {
	k := cacheKey{model: model, text: text}
	if n, ok := c.cache.Get(k); ok {
		return n
	}
	n := c.next.Count(text, model)
	c.cache.Add(k, n)
	return n
}

// Len returns the number of cached entries.
func (c *CachedCounter) Len() int { return c.cache.Len() }

// New builds the counter named by kind, wrapped in a cache when cacheSize
// is positive.
func New(kind string, cacheSize int, log *slog.Logger) (chunker.TokenCounter, error) {
	var counter chunker.TokenCounter
	switch kind {
	case KindTiktoken, "":
		counter = NewTiktoken(log)
	case KindEstimate:
		counter = chunker.EstimateCounter{}
	default:
		return nil, fmt.Errorf("unknown tokenizer %q", kind)
	}

	if cacheSize <= 0 {
		return counter, nil
	}
	return Cached(counter, cacheSize)
}
