package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/interviewace/simulation-engine/internal/models"
	"github.com/interviewace/simulation-engine/internal/simulation"
)

// Simulation handlers

func (s *Server) handleStartSimulation(w http.ResponseWriter, r *http.Request) {
	var req models.StartSimulationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.RoleType == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "role_type is required")
		return
	}

	resp, err := s.manager.Start(r.Context(), req)
	if err != nil {
		if errors.Is(err, simulation.ErrScenarioNotFound) {
			respondError(w, http.StatusNotFound, "scenario_not_found", "no scenario for role type: "+req.RoleType)
			return
		}
		slog.Error("failed to start simulation", "error", err, "role_type", req.RoleType)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to start simulation")
		return
	}

	respondJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleExecuteTurn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "simulation id is required")
		return
	}

	var req models.ExecuteTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.UserAction == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "user_action is required")
		return
	}

	result, err := s.manager.ExecuteTurn(r.Context(), id, req.UserAction)
	if err != nil {
		switch {
		case errors.Is(err, simulation.ErrSessionNotFound):
			respondError(w, http.StatusNotFound, "not_found", "simulation not found")
		case errors.Is(err, simulation.ErrSessionEnded):
			respondError(w, http.StatusConflict, "session_ended", "simulation has already ended")
		default:
			slog.Error("failed to execute turn", "error", err, "id", id)
			respondError(w, http.StatusInternalServerError, "internal_error", "failed to execute turn")
		}
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "simulation id is required")
		return
	}

	status, err := s.manager.Status(id)
	if err != nil {
		if errors.Is(err, simulation.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "simulation not found")
			return
		}
		slog.Error("failed to get status", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get status")
		return
	}

	respondJSON(w, http.StatusOK, status)
}

func (s *Server) handleEndSimulation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "simulation id is required")
		return
	}

	report, err := s.manager.End(r.Context(), id)
	if err != nil {
		if errors.Is(err, simulation.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "simulation not found")
			return
		}
		slog.Error("failed to end simulation", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to end simulation")
		return
	}

	respondJSON(w, http.StatusOK, report)
}
