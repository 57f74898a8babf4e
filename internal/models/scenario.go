package models

import (
	"math"
)

// Difficulty selects the multiplier set applied to a scenario's
// initial resources at session creation.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// DifficultyAdjustment holds per-difficulty multipliers. Multipliers
// are always > 0.
type DifficultyAdjustment struct {
	BudgetMultiplier float64 `yaml:"budget_multiplier" json:"budget_multiplier"`
	TimeMultiplier   float64 `yaml:"time_multiplier" json:"time_multiplier"`
}

var difficultyAdjustments = map[Difficulty]DifficultyAdjustment{
	DifficultyBeginner:     {BudgetMultiplier: 1.5, TimeMultiplier: 1.3},
	DifficultyIntermediate: {BudgetMultiplier: 1.0, TimeMultiplier: 1.0},
	DifficultyAdvanced:     {BudgetMultiplier: 0.8, TimeMultiplier: 0.8},
}

// AdjustmentFor returns the multipliers for a difficulty. Unknown
// values fall back to intermediate.
func AdjustmentFor(d Difficulty) DifficultyAdjustment {
	if adj, ok := difficultyAdjustments[d]; ok {
		return adj
	}
	return difficultyAdjustments[DifficultyIntermediate]
}

// EventLibrary holds the events a scenario master may inject.
type EventLibrary struct {
	Stakeholder []string `yaml:"stakeholder" json:"stakeholder"`
	Technical   []string `yaml:"technical" json:"technical"`
}

// ScenarioTemplate is a static, immutable description of a role-based
// exercise. Templates are loaded at startup and shared read-only
// across sessions.
type ScenarioTemplate struct {
	RoleType     string            `yaml:"role_type" json:"role_type"`
	RoleName     string            `yaml:"role_name" json:"role_name"`
	Title        string            `yaml:"title" json:"title"`
	Objective    string            `yaml:"objective" json:"objective"`
	Competencies []string          `yaml:"competencies" json:"competencies"`
	Budget       int               `yaml:"budget" json:"budget"`
	Time         int               `yaml:"time" json:"time"` // minutes
	Events       EventLibrary      `yaml:"events" json:"events"`
	Rubric       map[string]string `yaml:"rubric" json:"rubric,omitempty"`
}

// StartingState applies the difficulty multipliers to the template's
// initial resources. Step always starts at 1.
func (t *ScenarioTemplate) StartingState(d Difficulty) SimState {
	adj := AdjustmentFor(d)
	return SimState{
		Budget: int(math.Round(float64(t.Budget) * adj.BudgetMultiplier)),
		Time:   int(math.Round(float64(t.Time) * adj.TimeMultiplier)),
		Step:   1,
	}
}
