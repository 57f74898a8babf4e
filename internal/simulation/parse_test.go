package simulation

import (
	"errors"
	"testing"

	"github.com/interviewace/simulation-engine/internal/models"
)

const validReply = `{
	"responseText": "You provision the VPC.",
	"updatedState": {"budget": 14000, "time": 450, "step": 2},
	"isStakeholderMessage": false,
	"isSimulationOver": false,
	"finalArtifact": null
}`

func TestParseTurnResultValid(t *testing.T) {
	result, err := parseTurnResult(validReply)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if result.ResponseText != "You provision the VPC." {
		t.Errorf("unexpected responseText: %q", result.ResponseText)
	}
	if result.UpdatedState.Budget != 14000 || result.UpdatedState.Time != 450 || result.UpdatedState.Step != 2 {
		t.Errorf("unexpected state: %+v", result.UpdatedState)
	}
	if result.IsSimulationOver {
		t.Error("isSimulationOver should be false")
	}
	if result.FinalArtifact != nil {
		t.Errorf("null finalArtifact should become nil, got %s", result.FinalArtifact)
	}
	if result.Degraded {
		t.Error("parsed model output should not be marked degraded")
	}
}

func TestParseTurnResultStripsMarkdownFences(t *testing.T) {
	wrapped := "Here is the result:\n```json\n" + validReply + "\n```\nLet me know if you need anything else."
	result, err := parseTurnResult(wrapped)
	if err != nil {
		t.Fatalf("parse failed on fenced reply: %v", err)
	}
	if result.UpdatedState.Budget != 14000 {
		t.Errorf("unexpected budget: %d", result.UpdatedState.Budget)
	}
}

func TestParseTurnResultMissingFields(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no json", "I am sorry, I cannot comply."},
		{"empty object", "{}"},
		{"missing state", `{"responseText":"x","isStakeholderMessage":false,"isSimulationOver":false}`},
		{"missing flags", `{"responseText":"x","updatedState":{"budget":1,"time":1,"step":1}}`},
		{"state not object", `{"responseText":"x","updatedState":"broke","isStakeholderMessage":false,"isSimulationOver":false}`},
	}

	for _, tt := range tests {
		if _, err := parseTurnResult(tt.raw); !errors.Is(err, ErrMalformedReply) {
			t.Errorf("%s: got %v, want ErrMalformedReply", tt.name, err)
		}
	}
}

func TestParseTurnResultKeepsFinalArtifact(t *testing.T) {
	raw := `{
		"responseText": "Done.",
		"updatedState": {"budget": 0, "time": 0, "step": 9},
		"isStakeholderMessage": false,
		"isSimulationOver": true,
		"finalArtifact": {"summary": "shipped"}
	}`

	result, err := parseTurnResult(raw)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !result.IsSimulationOver {
		t.Error("isSimulationOver should be true")
	}
	if string(result.FinalArtifact) != `{"summary": "shipped"}` {
		t.Errorf("unexpected artifact: %s", result.FinalArtifact)
	}
}

func TestSanitizeState(t *testing.T) {
	state := models.SimState{Budget: -200, Time: -5, Step: 1}
	sanitizeState(&state, 3)

	if state.Budget != 0 || state.Time != 0 {
		t.Errorf("state not clamped: %+v", state)
	}
	if state.Step != 3 {
		t.Errorf("step regressed: %d, want 3", state.Step)
	}

	state = models.SimState{Budget: 10, Time: 10, Step: 5}
	sanitizeState(&state, 3)
	if state.Step != 5 {
		t.Errorf("forward step should be kept: %d", state.Step)
	}
}
