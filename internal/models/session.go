package models

import (
	"encoding/json"
	"time"
)

// StartAction is the sentinel user action recorded for the synthetic
// opening turn of every session.
const StartAction = "SIMULATION_START"

// SessionStatus represents the lifecycle state of a session. The only
// transition is active -> ended; it never reverses.
type SessionStatus string

const (
	SessionActive SessionStatus = "active"
	SessionEnded  SessionStatus = "ended"
)

// TurnResult is one structured scenario transition, either produced by
// the model or by the scripted fallback. Field names mirror the JSON
// contract the model is instructed to emit.
type TurnResult struct {
	ResponseText         string          `json:"responseText"`
	UpdatedState         SimState        `json:"updatedState"`
	IsStakeholderMessage bool            `json:"isStakeholderMessage"`
	IsSimulationOver     bool            `json:"isSimulationOver"`
	FinalArtifact        json.RawMessage `json:"finalArtifact,omitempty"`

	// Degraded marks results produced by the fallback responder so
	// callers can tell scripted output from genuine model output.
	Degraded bool `json:"degraded"`
}

// Turn is one exchange: what the user submitted and what came back.
// Immutable once appended to a session's history.
type Turn struct {
	UserAction string     `json:"user_action"`
	Result     TurnResult `json:"result"`
	Timestamp  time.Time  `json:"timestamp"`
}

// Session is one in-progress simulation. Mutated only by the
// simulation manager while holding the session's store lock.
type Session struct {
	ID           string            `json:"id"`
	RoleType     string            `json:"role_type"`
	Difficulty   Difficulty        `json:"difficulty"`
	State        SimState          `json:"state"`
	History      []Turn            `json:"history"`
	Status       SessionStatus     `json:"status"`
	UserProfile  map[string]string `json:"user_profile,omitempty"`
	StartedAt    time.Time         `json:"started_at"`
	LastActivity time.Time         `json:"last_activity"`

	// Template is reattached from the catalog on snapshot recovery,
	// so it is not serialized.
	Template *ScenarioTemplate `json:"-"`
}

// IsActive reports whether the session still accepts turns.
func (s *Session) IsActive() bool {
	return s.Status == SessionActive
}

// IdleSince returns how long ago the session last saw a turn.
func (s *Session) IdleSince(now time.Time) time.Duration {
	return now.Sub(s.LastActivity)
}

// Report summarizes a finished session. Derived once at session end
// and archived; never mutated afterwards.
type Report struct {
	SessionID        string         `json:"session_id"`
	RoleType         string         `json:"role_type"`
	Difficulty       Difficulty     `json:"difficulty"`
	OverallScore     int            `json:"overall_score"` // 0-100
	CompetencyScores map[string]int `json:"competency_scores"`
	Strengths        []string       `json:"strengths"`
	Improvements     []string       `json:"improvements"`
	TotalSteps       int            `json:"total_steps"`
	CompletedAt      time.Time      `json:"completed_at"`
}

// --- API request/response shapes ---

// StartSimulationRequest creates a new session.
type StartSimulationRequest struct {
	RoleType    string            `json:"role_type"`
	Difficulty  Difficulty        `json:"difficulty,omitempty"`
	UserProfile map[string]string `json:"user_profile,omitempty"`
}

// SimulationMetadata accompanies a freshly started session.
type SimulationMetadata struct {
	RoleType          string     `json:"role_type"`
	RoleName          string     `json:"role_name"`
	Difficulty        Difficulty `json:"difficulty"`
	EstimatedDuration int        `json:"estimated_duration"` // minutes
	Competencies      []string   `json:"competencies"`
}

// StartSimulationResponse is returned by StartSimulation.
type StartSimulationResponse struct {
	SessionID     string             `json:"session_id"`
	InitialResult TurnResult         `json:"initial_result"`
	Metadata      SimulationMetadata `json:"metadata"`
}

// ExecuteTurnRequest advances a session by one user action.
type ExecuteTurnRequest struct {
	UserAction string `json:"user_action"`
}

// SimulationStatus is the read-only view served by GetStatus.
type SimulationStatus struct {
	SessionID     string    `json:"session_id"`
	RoleType      string    `json:"role_type"`
	State         SimState  `json:"state"`
	HistoryLength int       `json:"history_length"`
	IsActive      bool      `json:"is_active"`
	StartedAt     time.Time `json:"started_at"`
	Competencies  []string  `json:"competencies"`
}
