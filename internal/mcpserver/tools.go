package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dgallion1/lexchunk/internal/chunker"
	"github.com/dgallion1/lexchunk/internal/doctree"
	"github.com/dgallion1/lexchunk/internal/hierarchy"
	"github.com/dgallion1/lexchunk/internal/parser"
	"github.com/dgallion1/lexchunk/internal/store"
)

// MCP error codes
const (
	ErrorCodeInvalidParams  = -32602
	ErrorCodeInternalError  = -32603
	ErrorCodeCoverage       = -32001 // chunks lost structural lines
	ErrorCodeSourceNotFound = -32002
)

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{Code: code, Message: message, Data: data}
}

func (s *Server) handleChunkText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	text, ok := args["text"].(string)
	if !ok || strings.TrimSpace(text) == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "text parameter is required", map[string]interface{}{
			"param":  "text",
			"reason": "missing or empty",
		})
	}
	source := getStringDefault(args, "source", "input.txt")

	cfg := s.chunkCfg
	cfg.Logger = s.log
	cfg.MaxTokens = getIntDefault(args, "max_tokens", cfg.MaxTokens)
	if cfg.MaxTokens <= 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "max_tokens must be positive", map[string]interface{}{
			"param": "max_tokens",
			"value": cfg.MaxTokens,
		})
	}

	lines := parser.NormalizeLines(strings.Split(text, "\n"))
	doc := hierarchy.Parse(source, lines)
	res, err := chunker.Chunk(doc, cfg)
	if err != nil {
		var covErr *chunker.CoverageError
		if errors.As(err, &covErr) {
			return nil, newMCPError(ErrorCodeCoverage, err.Error(), map[string]interface{}{
				"missing": covErr.Missing,
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "chunking failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	chunks := res.Chunks
	if chunks == nil {
		chunks = []doctree.FinalChunk{}
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"source":     source,
		"title":      doc.Title,
		"max_tokens": cfg.MaxTokens,
		"chunks":     chunks,
		"report":     res.Report,
	})), nil
}

func (s *Server) handleListSources(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sources, err := s.store.Sources(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list sources", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if sources == nil {
		sources = []store.SourceInfo{}
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"sources": sources,
		"count":   len(sources),
	})), nil
}

func (s *Server) handleGetChunks(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	source, ok := args["source"].(string)
	if !ok || source == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "source parameter is required", map[string]interface{}{
			"param":  "source",
			"reason": "missing or empty",
		})
	}

	recs, err := s.store.Chunks(ctx, source)
	if errors.Is(err, store.ErrNotFound) {
		return nil, newMCPError(ErrorCodeSourceNotFound, "source not processed", map[string]interface{}{
			"source": source,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to read chunks", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if recs == nil {
		recs = []store.Record{}
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"source": source,
		"chunks": recs,
	})), nil
}

func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok && val != "" {
		return val
	}
	return defaultValue
}
