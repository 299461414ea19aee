package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/bisa-app/factcheck/internal/factcheck"
	"github.com/bisa-app/factcheck/internal/pipeline"
	"github.com/bisa-app/factcheck/internal/posts"
	"github.com/bisa-app/factcheck/internal/store"
	"github.com/go-chi/chi/v5"
)

const maxAnalyzeBody = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRunCheck triggers a run. A FAILED run is still a persisted result
// and is returned with 200.
func (s *Server) handleRunCheck(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "postID")
	checkedBy := r.URL.Query().Get("checkedBy")

	result, err := s.service.CheckPost(r.Context(), postID, checkedBy)
	if err != nil && result == nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetLatest(w http.ResponseWriter, r *http.Request) {
	result, err := s.service.GetLatest(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	size, err := queryInt(r, "size", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	history, err := s.service.GetHistory(r.Context(), chi.URLParam(r, "postID"), page, size)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, history)
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.service.GetStatus(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var in pipeline.Input
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAnalyzeBody)).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	analysis, err := s.service.Analyze(r.Context(), in)
	if err != nil {
		s.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, analysis)
}

func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, factcheck.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, posts.ErrPostNotFound), errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, factcheck.ErrAlreadyInProgress):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, factcheck.ErrBackendTimeout):
		respondError(w, http.StatusGatewayTimeout, err.Error())
	case errors.Is(err, factcheck.ErrBackend):
		respondError(w, http.StatusBadGateway, err.Error())
	default:
		log.Printf("request failed: %v", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + name + " parameter")
	}
	return n, nil
}
