package chunker

import "strings"

// TokenCounter measures text the way the downstream embedding model will.
// model is a hint; implementations fall back to a default encoding for
// names they do not know.
type TokenCounter interface {
	Count(text, model string) int
}

// CounterFunc adapts an ordinary function to TokenCounter.
type CounterFunc func(text, model string) int

// Count calls f.
func (f CounterFunc) Count(text, model string) int { return f(text, model) }

// EstimateTokens gives a rough token count from the number of words.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// EstimateCounter is a TokenCounter that needs no vocabulary download.
// The model hint is ignored.
type EstimateCounter struct{}

// Count implements TokenCounter.
func (EstimateCounter) Count(text, _ string) int { return EstimateTokens(text) }
