package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// SimState is the numeric state of a running simulation. Budget, Time
// and Step are the fixed core every scenario carries; Extra holds
// scenario-specific metrics (e.g. systemReliability for a cloud
// scenario). On the wire the whole thing is a single flat JSON object,
// which is the shape the model is asked to produce.
type SimState struct {
	Budget int // currency units, never negative
	Time   int // minutes remaining, never negative
	Step   int // current step, starts at 1

	Extra map[string]float64
}

// reserved core keys in the flat wire representation
const (
	stateKeyBudget = "budget"
	stateKeyTime   = "time"
	stateKeyStep   = "step"
)

// Clamp forces budget and time to be non-negative.
func (s *SimState) Clamp() {
	if s.Budget < 0 {
		s.Budget = 0
	}
	if s.Time < 0 {
		s.Time = 0
	}
}

// Clone returns a deep copy.
func (s SimState) Clone() SimState {
	out := s
	if s.Extra != nil {
		out.Extra = make(map[string]float64, len(s.Extra))
		for k, v := range s.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// MarshalJSON flattens core fields and Extra into one object.
func (s SimState) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, len(s.Extra)+3)
	for k, v := range s.Extra {
		flat[k] = v
	}
	flat[stateKeyBudget] = s.Budget
	flat[stateKeyTime] = s.Time
	flat[stateKeyStep] = s.Step
	return json.Marshal(flat)
}

// UnmarshalJSON accepts a flat object with arbitrary numeric keys.
// Non-numeric values are rejected so a malformed model reply cannot
// smuggle strings into the state.
func (s *SimState) UnmarshalJSON(data []byte) error {
	var flat map[string]json.Number
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&flat); err != nil {
		return fmt.Errorf("state must be a flat numeric object: %w", err)
	}

	out := SimState{}
	for k, n := range flat {
		v, err := n.Float64()
		if err != nil {
			return fmt.Errorf("state field %q is not numeric: %w", k, err)
		}
		switch k {
		case stateKeyBudget:
			out.Budget = int(math.Round(v))
		case stateKeyTime:
			out.Time = int(math.Round(v))
		case stateKeyStep:
			out.Step = int(math.Round(v))
		default:
			if out.Extra == nil {
				out.Extra = make(map[string]float64)
			}
			out.Extra[k] = v
		}
	}

	*s = out
	return nil
}
