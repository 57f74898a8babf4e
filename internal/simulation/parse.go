package simulation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/interviewace/simulation-engine/internal/models"
)

// ErrMalformedReply means the model's reply could not be parsed into a
// turn result. Recovered locally by the fallback responder, never
// surfaced to callers.
var ErrMalformedReply = errors.New("malformed model reply")

// wireTurnResult mirrors TurnResult with pointer fields so missing
// keys are distinguishable from zero values.
type wireTurnResult struct {
	ResponseText         *string          `json:"responseText"`
	UpdatedState         *models.SimState `json:"updatedState"`
	IsStakeholderMessage *bool            `json:"isStakeholderMessage"`
	IsSimulationOver     *bool            `json:"isSimulationOver"`
	FinalArtifact        json.RawMessage  `json:"finalArtifact"`
}

// parseTurnResult extracts and validates a turn result from raw model
// output. The model is told to reply with bare JSON but routinely
// wraps it in markdown fences or prose, so the parser hunts for the
// outermost object. All four required fields must be present;
// finalArtifact is optional.
func parseTurnResult(raw string) (models.TurnResult, error) {
	payload, ok := extractJSON(raw)
	if !ok {
		return models.TurnResult{}, fmt.Errorf("%w: no JSON object found", ErrMalformedReply)
	}

	var wire wireTurnResult
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return models.TurnResult{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	switch {
	case wire.ResponseText == nil:
		return models.TurnResult{}, fmt.Errorf("%w: missing responseText", ErrMalformedReply)
	case wire.UpdatedState == nil:
		return models.TurnResult{}, fmt.Errorf("%w: missing updatedState", ErrMalformedReply)
	case wire.IsStakeholderMessage == nil:
		return models.TurnResult{}, fmt.Errorf("%w: missing isStakeholderMessage", ErrMalformedReply)
	case wire.IsSimulationOver == nil:
		return models.TurnResult{}, fmt.Errorf("%w: missing isSimulationOver", ErrMalformedReply)
	}

	artifact := wire.FinalArtifact
	if string(artifact) == "null" {
		artifact = nil
	}

	return models.TurnResult{
		ResponseText:         *wire.ResponseText,
		UpdatedState:         *wire.UpdatedState,
		IsStakeholderMessage: *wire.IsStakeholderMessage,
		IsSimulationOver:     *wire.IsSimulationOver,
		FinalArtifact:        artifact,
	}, nil
}

// extractJSON returns the outermost JSON object in the text, stripping
// markdown code fences if present.
func extractJSON(raw string) (string, bool) {
	text := raw
	if idx := strings.Index(text, "```json"); idx >= 0 {
		text = text[idx+len("```json"):]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
	} else if idx := strings.Index(text, "```"); idx >= 0 {
		text = text[idx+len("```"):]
		if end := strings.Index(text, "```"); end >= 0 {
			text = text[:end]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

// sanitizeState applies the invariants the model is not trusted with:
// budget and time are clamped at zero and the step counter never moves
// backwards.
func sanitizeState(state *models.SimState, prevStep int) {
	state.Clamp()
	if state.Step < prevStep {
		state.Step = prevStep
	}
}
