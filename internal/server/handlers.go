package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/schemasnap/schemasnap/pkg/cache"
	"github.com/schemasnap/schemasnap/pkg/errors"
	snapio "github.com/schemasnap/schemasnap/pkg/io"
	"github.com/schemasnap/schemasnap/pkg/observability"
	"github.com/schemasnap/schemasnap/pkg/render/dot"
	"github.com/schemasnap/schemasnap/pkg/render/readable"
	"github.com/schemasnap/schemasnap/pkg/snapshot"
	"github.com/schemasnap/schemasnap/pkg/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

// handleRender renders a posted snapshot document without storing it.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	snap, err := snapio.ReadSnapshot(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	text, err := s.render(r, snap)
	if err != nil {
		writeError(w, err)
		return
	}
	writeText(w, http.StatusOK, text)
}

// handleCreate imports a snapshot document, renders it, and archives both.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	snap, err := snapio.ReadSnapshot(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	text, err := s.render(r, snap)
	if err != nil {
		writeError(w, err)
		return
	}

	archive, err := store.NewArchive(snap, text)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.Put(r.Context(), archive); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":          archive.ID,
		"captured_at": archive.CapturedAt,
	})
}

// listEntry is the metadata shape returned by handleList. The document and
// rendered text stay behind the per-snapshot endpoints.
type listEntry struct {
	ID         string          `json:"id"`
	Source     snapshot.Source `json:"source"`
	CapturedAt time.Time       `json:"captured_at"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	archives, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	entries := make([]listEntry, 0, len(archives))
	for _, a := range archives {
		entries = append(entries, listEntry{ID: a.ID, Source: a.Source, CapturedAt: a.CapturedAt})
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	archive, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, archive)
}

// handleText serves the rendered document, re-rendering when a non-default
// expand depth is requested. Renders are cached by snapshot ID and depth.
func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	archive, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	depth := expandDepth(r)
	if depth == readable.DefaultExpandDepth && archive.Rendered != "" {
		writeText(w, http.StatusOK, archive.Rendered)
		return
	}

	key := s.keyer.RenderKey(id, cache.RenderKeyOpts{ExpandDepth: depth})
	if data, hit, err := s.cache.Get(r.Context(), key); err == nil && hit {
		writeText(w, http.StatusOK, string(data))
		return
	}

	snap, err := archive.Snapshot()
	if err != nil {
		writeError(w, err)
		return
	}
	text, err := serialize(r.Context(), snap, depth)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.cache.Set(r.Context(), key, []byte(text), time.Hour); err != nil {
		s.logger.Warn("caching render failed", "id", id, "err", err)
	}
	writeText(w, http.StatusOK, text)
}

func (s *Server) handleDOT(w http.ResponseWriter, r *http.Request) {
	archive, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := archive.Snapshot()
	if err != nil {
		writeError(w, err)
		return
	}

	detailed := r.URL.Query().Get("detailed") == "true"
	src := dot.ToDOT(snap, dot.Options{Detailed: detailed})

	w.Header().Set("Content-Type", "text/vnd.graphviz")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(src))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// render serializes a snapshot at the depth requested by the query string.
func (s *Server) render(r *http.Request, snap *snapshot.Snapshot) (string, error) {
	return serialize(r.Context(), snap, expandDepth(r))
}

// serialize renders the readable document, reporting the serialization to
// the observability hooks.
func serialize(ctx context.Context, snap *snapshot.Snapshot, depth int) (string, error) {
	start := time.Now()
	observability.Snapshot().OnSerializeStart(ctx, readable.FileExtension)

	ser := readable.New()
	ser.ExpandDepth = depth
	text, err := ser.Serialize(snap)

	observability.Snapshot().OnSerializeComplete(ctx, readable.FileExtension, len(text), time.Since(start), err)
	return text, err
}

// expandDepth reads the expand_depth query parameter, defaulting to the
// serializer's default. Negative and malformed values fall back too.
func expandDepth(r *http.Request) int {
	raw := r.URL.Query().Get("expand_depth")
	if raw == "" {
		return readable.DefaultExpandDepth
	}
	depth, err := strconv.Atoi(raw)
	if err != nil || depth < 0 {
		return readable.DefaultExpandDepth
	}
	return depth
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeText(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(text))
}

// writeError maps error codes to HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.ErrCodeSnapshotNotFound, errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeInvalidSnapshot, errors.ErrCodeInvalidInput,
		errors.ErrCodeInvalidManifest, errors.ErrCodeInvalidPath:
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{
		"error":   string(errors.GetCode(err)),
		"message": errors.UserMessage(err),
	})
}
