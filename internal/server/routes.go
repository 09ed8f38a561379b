package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"cortex/internal/domain"
	"cortex/internal/logger"
	"cortex/internal/usecase"
)

// sourceView is a document without its text.
type sourceView struct {
	ID               string              `json:"id"`
	Title            string              `json:"title"`
	Path             string              `json:"path,omitempty"`
	Type             domain.DocumentType `json:"type"`
	Processed        bool                `json:"processed"`
	IncludeInContext bool                `json:"include_in_context"`
	Eligible         bool                `json:"eligible"`
	Chars            int                 `json:"chars"`
	AddedAt          time.Time           `json:"added_at"`
}

func (s *Server) view(doc domain.Document) sourceView {
	return sourceView{
		ID:               doc.ID,
		Title:            doc.DisplayTitle(),
		Path:             doc.Path,
		Type:             doc.Type,
		Processed:        doc.Processed,
		IncludeInContext: doc.IncludeInContext,
		Eligible:         s.retrieve.Eligible(doc),
		Chars:            utf8.RuneCountInString(doc.Text),
		AddedAt:          doc.AddedAt,
	}
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	docs, err := s.store.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	views := make([]sourceView, 0, len(docs))
	for _, doc := range docs {
		views = append(views, s.view(doc))
	}
	writeJSON(w, http.StatusOK, views)
}

type addSourceRequest struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	Path  string `json:"path"`
}

func (s *Server) handleAddSource(w http.ResponseWriter, r *http.Request) {
	var req addSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch {
	case strings.TrimSpace(req.Path) != "":
		path, err := s.sourcePath(strings.TrimSpace(req.Path))
		if err != nil {
			writeError(w, http.StatusForbidden, err.Error())
			return
		}
		result, err := s.ingest.IngestPath(r.Context(), path, nil)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		views := make([]sourceView, 0, len(result.Added))
		for _, doc := range result.Added {
			views = append(views, s.view(doc))
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"added":   views,
			"skipped": result.Skipped,
			"errors":  result.Errors,
		})
	case strings.TrimSpace(req.Text) != "":
		doc, err := s.ingest.AddText(req.Title, req.Text)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, s.view(doc))
	default:
		writeError(w, http.StatusBadRequest, "either text or path is required")
	}
}

var errPathIngestDisabled = errors.New("path ingestion is disabled")

// sourcePath resolves a requested path against the root directory and
// rejects anything that lands outside it. Relative paths are taken from
// the root.
func (s *Server) sourcePath(path string) (string, error) {
	if s.cfg.Root == "" {
		return "", errPathIngestDisabled
	}
	root, err := filepath.Abs(s.cfg.Root)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	path = filepath.Clean(path)
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}

	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside the library root", path)
	}
	return path, nil
}

type updateSourceRequest struct {
	Title   *string `json:"title"`
	Include *bool   `json:"include_in_context"`
}

func (s *Server) handleUpdateSource(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req updateSourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == nil && req.Include == nil {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	if req.Title != nil {
		if err := s.store.Rename(id, strings.TrimSpace(*req.Title)); err != nil {
			writeStoreError(w, err)
			return
		}
	}
	if req.Include != nil {
		if err := s.store.SetIncluded(id, *req.Include); err != nil {
			writeStoreError(w, err)
			return
		}
	}

	doc, err := s.store.Get(id)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.view(doc))
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(chi.URLParam(r, "id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type searchRequest struct {
	Query   string `json:"query"`
	MaxHits *int   `json:"max_hits"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	maxHits := s.maxHits
	if req.MaxHits != nil {
		maxHits = *req.MaxHits
	}

	docs, err := s.store.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query": req.Query,
		"hits":  s.retrieve.Search(req.Query, docs, maxHits),
	})
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	docs, err := s.store.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	result, err := s.chat.Chat(r.Context(), req.Message, docs)
	if err != nil {
		logger.Error("chat failed: %v", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type studioRequest struct {
	Type         string `json:"type"`
	Instructions string `json:"instructions"`
}

func (s *Server) handleStudio(w http.ResponseWriter, r *http.Request) {
	var req studioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	at, err := usecase.ParseArtifactType(req.Type)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	docs, err := s.store.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	artifact, err := s.studio.Generate(r.Context(), at, req.Instructions, docs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, artifact)
}

func writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrDocumentNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
