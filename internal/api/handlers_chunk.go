package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dgallion1/lexchunk/internal/chunker"
	"github.com/dgallion1/lexchunk/internal/doctree"
	"github.com/dgallion1/lexchunk/internal/pipeline"
)

// handleChunk chunks one uploaded document and returns the result without
// storing anything.
func (s *Server) handleChunk(w http.ResponseWriter, r *http.Request) {
	source, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	worker := s.orchestrator.Worker()
	cfg := worker.ChunkConfig()
	if v := r.FormValue("max_tokens"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			jsonError(w, "max_tokens must be a positive integer", http.StatusBadRequest)
			return
		}
		cfg.MaxTokens = n
	}
	if v := r.FormValue("url"); v != "" {
		cfg.URL = v
	}

	p, err := worker.PrepareWith(r.Context(), source, data, cfg)
	if err != nil {
		var covErr *chunker.CoverageError
		var inErr *pipeline.InputError
		switch {
		case errors.As(err, &covErr):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":   err.Error(),
				"missing": covErr.Missing,
			})
		case errors.As(err, &inErr):
			jsonError(w, err.Error(), http.StatusBadRequest)
		default:
			s.log.Error("chunk failed", "source", source, "error", err)
			jsonError(w, "chunking failed", http.StatusInternalServerError)
		}
		return
	}

	chunks := p.Result.Chunks
	if chunks == nil {
		chunks = []doctree.FinalChunk{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"source":       source,
		"title":        p.Doc.Title,
		"has_appendix": p.Doc.HasAppendix,
		"max_tokens":   cfg.MaxTokens,
		"chunks":       chunks,
		"report":       p.Result.Report,
	})
}
