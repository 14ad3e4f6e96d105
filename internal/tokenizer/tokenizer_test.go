package tokenizer

import (
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/lexchunk/internal/chunker"
)

func TestCached_HitsSkipUnderlyingCounter(t *testing.T) {
	var calls atomic.Int32
	inner := chunker.CounterFunc(func(text, _ string) int {
		calls.Add(1)
		return len(strings.Fields(text))
	})

	c, err := Cached(inner, 8)
	require.NoError(t, err)

	assert.Equal(t, 3, c.Count("Điều 1 Luật", "gpt-4o"))
	assert.Equal(t, 3, c.Count("Điều 1 Luật", "gpt-4o"))
	assert.Equal(t, int32(1), calls.Load())

	// Same text under another model is a separate entry.
	c.Count("Điều 1 Luật", "text-embedding-3-small")
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 2, c.Len())
}

func TestCached_Evicts(t *testing.T) {
	c, err := Cached(chunker.EstimateCounter{}, 2)
	require.NoError(t, err)

	c.Count("a", "")
	c.Count("b", "")
	c.Count("c", "")
	assert.Equal(t, 2, c.Len())
}

func TestCached_InvalidSize(t *testing.T) {
	_, err := Cached(chunker.EstimateCounter{}, 0)
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	c, err := New(KindEstimate, 0, nil)
	require.NoError(t, err)
	assert.IsType(t, chunker.EstimateCounter{}, c)

	c, err = New(KindEstimate, 16, nil)
	require.NoError(t, err)
	assert.IsType(t, &CachedCounter{}, c)

	c, err = New(KindTiktoken, 0, nil)
	require.NoError(t, err)
	assert.IsType(t, &Tiktoken{}, c)

	_, err = New("sentencepiece", 0, nil)
	assert.Error(t, err)
}

func TestTiktoken_Count(t *testing.T) {
	if os.Getenv("LEXCHUNK_TEST_TIKTOKEN") != "1" {
		t.Skip("set LEXCHUNK_TEST_TIKTOKEN=1 to run (downloads BPE ranks)")
	}

	tk := NewTiktoken(nil)
	require.NoError(t, tk.Preload("gpt-4o"))

	n := tk.Count("Điều 1. Phạm vi điều chỉnh", "gpt-4o")
	assert.Greater(t, n, 0)

	// Unknown hints fall back to the default encoding rather than failing.
	assert.Greater(t, tk.Count("Điều 1.", "no-such-model"), 0)
	assert.Zero(t, tk.Count("", "gpt-4o"))
}
