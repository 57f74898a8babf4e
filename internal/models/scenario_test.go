package models

import "testing"

func TestStartingStateDifficultyMultipliers(t *testing.T) {
	tmpl := &ScenarioTemplate{
		RoleType: "cloud-architect",
		Budget:   15000,
		Time:     480,
	}

	tests := []struct {
		difficulty Difficulty
		budget     int
		time       int
	}{
		{DifficultyBeginner, 22500, 624},
		{DifficultyIntermediate, 15000, 480},
		{DifficultyAdvanced, 12000, 384},
		{Difficulty("nightmare"), 15000, 480}, // unknown falls back to intermediate
		{Difficulty(""), 15000, 480},
	}

	for _, tt := range tests {
		state := tmpl.StartingState(tt.difficulty)
		if state.Budget != tt.budget {
			t.Errorf("%s: budget = %d, want %d", tt.difficulty, state.Budget, tt.budget)
		}
		if state.Time != tt.time {
			t.Errorf("%s: time = %d, want %d", tt.difficulty, state.Time, tt.time)
		}
		if state.Step != 1 {
			t.Errorf("%s: step = %d, want 1", tt.difficulty, state.Step)
		}
	}
}

func TestStartingStateRoundsHalfUp(t *testing.T) {
	tmpl := &ScenarioTemplate{Budget: 8000, Time: 245}

	state := tmpl.StartingState(DifficultyAdvanced)
	if state.Budget != 6400 {
		t.Errorf("budget = %d, want 6400", state.Budget)
	}
	// 245 * 0.8 = 196
	if state.Time != 196 {
		t.Errorf("time = %d, want 196", state.Time)
	}
}

func TestSessionIsActive(t *testing.T) {
	sess := &Session{Status: SessionActive}
	if !sess.IsActive() {
		t.Error("active session reported inactive")
	}

	sess.Status = SessionEnded
	if sess.IsActive() {
		t.Error("ended session reported active")
	}
}
