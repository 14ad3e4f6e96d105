package api

import (
	"errors"
	"net/http"

	"github.com/dgallion1/lexchunk/internal/store"
)

// handleListSources lists every processed source with its chunk range.
func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.store.Sources(r.Context())
	if err != nil {
		jsonError(w, "failed to list sources: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if sources == nil {
		sources = []store.SourceInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sources": sources})
}

// handleListChunks returns the stored chunks of one source.
func (s *Server) handleListChunks(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		jsonError(w, "source query parameter is required", http.StatusBadRequest)
		return
	}

	recs, err := s.store.Chunks(r.Context(), source)
	if errors.Is(err, store.ErrNotFound) {
		jsonError(w, "source not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jsonError(w, "failed to read chunks: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []store.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"source": source, "chunks": recs})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.store.Stats(r.Context())
	if err != nil {
		jsonError(w, "failed to read stats: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"store":       st,
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
