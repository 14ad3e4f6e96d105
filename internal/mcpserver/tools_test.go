package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/lexchunk/internal/chunker"
	"github.com/dgallion1/lexchunk/internal/doctree"
	"github.com/dgallion1/lexchunk/internal/store"
)

var wordCounter = chunker.CounterFunc(func(text, _ string) int {
	return len(strings.Fields(text))
})

func testServer(t *testing.T) (*Server, store.Store) {
	t.Helper()
	st, err := store.OpenSQLite(filepath.Join(t.TempDir(), "mcp.db"))
	require.NoError(t, err)
	require.NoError(t, st.Init(context.Background()))
	t.Cleanup(func() { st.Close() })

	cfg := chunker.Config{MaxTokens: 100, Counter: wordCounter}
	return NewServer(st, cfg, slog.New(slog.DiscardHandler)), st
}

func call(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	}
}

func resultJSON(t *testing.T, res *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	return out
}

func TestChunkText(t *testing.T) {
	s, _ := testServer(t)

	res, err := s.handleChunkText(context.Background(), call("chunk_text", map[string]interface{}{
		"text":   "Luật X\nĐiều 1\nA. Quy định\nB. Áp dụng\n",
		"source": "x.txt",
	}))
	require.NoError(t, err)

	out := resultJSON(t, res)
	assert.Equal(t, "x.txt", out["source"])
	assert.Equal(t, "Luật X Điều 1", out["title"])
	chunks := out["chunks"].([]interface{})
	require.Len(t, chunks, 1)
	assert.Equal(t, "Luật X Điều 1. Điều 1. A. Quy định. B. Áp dụng.", chunks[0].(map[string]interface{})["chunk_content"])
}

func TestChunkText_MaxTokens(t *testing.T) {
	s, _ := testServer(t)

	res, err := s.handleChunkText(context.Background(), call("chunk_text", map[string]interface{}{
		"text":       "Luật X\nĐiều 1\nA. Quy định\nB. Áp dụng\n",
		"max_tokens": float64(8),
	}))
	require.NoError(t, err)
	out := resultJSON(t, res)
	assert.Equal(t, "input.txt", out["source"])
	assert.Len(t, out["chunks"].([]interface{}), 2)
}

func TestChunkText_InvalidParams(t *testing.T) {
	s, _ := testServer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		args interface{}
	}{
		{"not a map", "text"},
		{"missing text", map[string]interface{}{}},
		{"blank text", map[string]interface{}{"text": "  "}},
		{"bad budget", map[string]interface{}{"text": "Điều 1", "max_tokens": float64(0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.handleChunkText(ctx, mcp.CallToolRequest{Params: mcp.CallToolParams{Arguments: tt.args}})
			var mcpErr *MCPError
			require.ErrorAs(t, err, &mcpErr)
			assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
		})
	}
}

func TestListSourcesAndGetChunks(t *testing.T) {
	s, st := testServer(t)
	ctx := context.Background()

	out := resultJSON(t, must(s.handleListSources(ctx, call("list_sources", nil))))
	assert.Equal(t, float64(0), out["count"])
	assert.Equal(t, []interface{}{}, out["sources"])

	_, err := st.AppendDocument(ctx, store.DocumentMeta{Source: "a.txt", Title: "Luật A"}, []doctree.FinalChunk{
		{Source: "a.txt", TokenCount: 3, Content: "Luật A. Điều 1."},
	})
	require.NoError(t, err)

	out = resultJSON(t, must(s.handleListSources(ctx, call("list_sources", nil))))
	assert.Equal(t, float64(1), out["count"])

	out = resultJSON(t, must(s.handleGetChunks(ctx, call("get_chunks", map[string]interface{}{"source": "a.txt"}))))
	chunks := out["chunks"].([]interface{})
	require.Len(t, chunks, 1)
	assert.Equal(t, float64(1), chunks[0].(map[string]interface{})["chunk_id"])

	_, err = s.handleGetChunks(ctx, call("get_chunks", map[string]interface{}{"source": "b.txt"}))
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeSourceNotFound, mcpErr.Code)
}

func must(res *mcp.CallToolResult, err error) *mcp.CallToolResult {
	if err != nil {
		panic(err)
	}
	return res
}
