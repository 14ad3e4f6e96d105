// Package mcpserver exposes chunking and the chunk store as MCP tools over
// stdio.
package mcpserver

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dgallion1/lexchunk/internal/chunker"
	"github.com/dgallion1/lexchunk/internal/store"
)

const (
	// ServerName is the MCP server name
	ServerName = "lexchunk"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	store    store.Store
	chunkCfg chunker.Config
	log      *slog.Logger
}

// NewServer creates the MCP server and registers its tools.
func NewServer(st store.Store, chunkCfg chunker.Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		mcp:      server.NewMCPServer(ServerName, ServerVersion),
		store:    st,
		chunkCfg: chunkCfg,
		log:      log,
	}
	s.registerTools()
	return s
}

// Serve runs the server on stdio and blocks until stdin closes.
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(chunkTextTool(), s.handleChunkText)
	s.mcp.AddTool(listSourcesTool(), s.handleListSources)
	s.mcp.AddTool(getChunksTool(), s.handleGetChunks)
}
