package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/interviewace/simulation-engine/internal/storage"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "healthy",
		"sessions": s.manager.SessionCount(),
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	// Readiness hinges on the archive database; sessions themselves
	// live in memory and need no backend.
	if s.repo != nil {
		if err := s.repo.Ping(r.Context()); err != nil {
			respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// Scenario handlers

func (s *Server) handleListScenarios(w http.ResponseWriter, r *http.Request) {
	scenarios := s.catalog.List()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"scenarios": scenarios,
		"total":     len(scenarios),
	})
}

func (s *Server) handleGetScenario(w http.ResponseWriter, r *http.Request) {
	roleType := chi.URLParam(r, "roleType")
	if roleType == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "role type is required")
		return
	}

	scenario := s.catalog.Get(roleType)
	if scenario == nil {
		respondError(w, http.StatusNotFound, "not_found", "scenario not found")
		return
	}

	respondJSON(w, http.StatusOK, scenario)
}

// Report handlers

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "session id is required")
		return
	}

	if s.repo == nil {
		respondError(w, http.StatusNotFound, "not_found", "report archive is not configured")
		return
	}

	report, err := s.repo.GetReport(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, storage.ErrReportNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "report not found")
			return
		}
		slog.Error("failed to get report", "error", err, "session_id", sessionID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get report")
		return
	}

	respondJSON(w, http.StatusOK, report)
}
