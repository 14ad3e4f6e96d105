package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dgallion1/lexchunk/internal/parser"
	"github.com/dgallion1/lexchunk/internal/pipeline"
)

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	source, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	job := pipeline.NewJob(source, data)
	if err := s.orchestrator.Submit(r.Context(), job); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, pipeline.ErrQueueFull) || errors.Is(err, pipeline.ErrStopped) {
			status = http.StatusServiceUnavailable
		}
		jsonError(w, err.Error(), status)
		return
	}

	snap := job.Snapshot()
	code := http.StatusAccepted
	if snap.Status == pipeline.StatusSkipped {
		code = http.StatusOK
	}
	writeJSON(w, code, map[string]any{
		"job_id":   snap.ID,
		"source":   snap.Source,
		"status":   snap.Status,
		"poll_url": fmt.Sprintf("/api/ingest/%s/status", snap.ID),
	})
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, job.Snapshot())
}

// readUpload reads the multipart "file" field and resolves the source
// identifier: the "source" field when given, else the uploaded file name.
// It writes the error response itself and reports ok=false on failure.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	maxBytes := s.cfg.Server.MaxUploadBytes
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return "", nil, false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return "", nil, false
	}
	defer file.Close()

	source := strings.TrimSpace(r.FormValue("source"))
	if source == "" {
		source = sanitizeFilename(header.Filename)
	}
	if !parser.IsSupportedExtension(source) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(source)), http.StatusBadRequest)
		return "", nil, false
	}

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return "", nil, false
	}
	if int64(len(data)) > maxBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", maxBytes), http.StatusRequestEntityTooLarge)
		return "", nil, false
	}
	return source, data, true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
