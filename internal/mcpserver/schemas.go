package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func chunkTextTool() mcp.Tool {
	return mcp.Tool{
		Name:        "chunk_text",
		Description: "Split Vietnamese legal text into hierarchy-aware chunks, each prefixed with its heading path",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Document text, one line per paragraph or heading",
				},
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Source identifier copied into every chunk",
					"default":     "input.txt",
				},
				"max_tokens": map[string]interface{}{
					"type":        "integer",
					"description": "Token budget per chunk",
					"minimum":     1,
				},
			},
			Required: []string{"text"},
		},
	}
}

func listSourcesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_sources",
		Description: "List processed source documents with their titles and chunk ID ranges",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

func getChunksTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_chunks",
		Description: "Return the stored chunks of one processed source",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Source identifier as listed by list_sources",
				},
			},
			Required: []string{"source"},
		},
	}
}
