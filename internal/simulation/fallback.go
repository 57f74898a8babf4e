package simulation

import (
	"math/rand"

	"github.com/interviewace/simulation-engine/internal/models"
)

// Fixed decrements applied by the scripted fallback. The numeric
// transform is deterministic so a degraded session still advances
// predictably.
const (
	fallbackBudgetDecrement = 1000
	fallbackTimeDecrement   = 30
)

// fallbackDefaultRole is used when a role type has no text pool.
const fallbackDefaultRole = "cloud-architect"

type fallbackScript struct {
	start  string
	action string
}

var fallbackScripts = map[string]fallbackScript{
	"cloud-architect": {
		start:  "Welcome to your Cloud Architecture simulation. You are the lead architect for a fast-growing fintech platform. Your mission: design a cloud infrastructure that handles 50,000+ daily transactions at 99.9% uptime while staying inside budget. What is your first step?",
		action: "Good thinking. Your approach shows a solid grasp of cloud architecture principles. Consider the cost implications against your remaining budget. What is your next move?",
	},
	"devops-engineer": {
		start:  "Welcome to your DevOps Engineering simulation. You are joining a rapidly scaling e-commerce platform. Your challenge: build a CI/CD pipeline that enables zero-downtime deployments across web and mobile. How do you begin?",
		action: "Solid choice. This will noticeably improve deployment reliability, and your stakeholders are pleased with the progress. Time to tackle the next phase of the pipeline.",
	},
	"cybersecurity-analyst": {
		start:  "Welcome to your Cybersecurity simulation. You are the lead security analyst on call. URGENT: suspicious network activity suggests a potential data breach. Assess, contain, and keep the regulator informed. What is your immediate action?",
		action: "Smart response. Your quick thinking helps contain the potential threat, and the incident response team is coordinating with you. What is your next priority?",
	},
	"ux-designer": {
		start:  "Welcome to your UX Design simulation. You are the senior designer on a digital inclusion initiative: a mobile banking app that must work on feature phones, offline, and in three languages. Where do you start?",
		action: "Great approach. Your user-centered thinking will drive better adoption, and the research insights feed directly into the next design phase. How do you proceed?",
	},
}

// FallbackResponder produces scripted turn results when the model is
// unavailable or its output unusable. It is a correctness backstop: it
// always yields a valid result and never ends a scenario on its own.
type FallbackResponder struct {
	// rng drives the one randomized field, isStakeholderMessage.
	// Injectable for tests.
	rng func() float64
}

// NewFallbackResponder creates a responder using the default RNG.
func NewFallbackResponder() *FallbackResponder {
	return &FallbackResponder{rng: rand.Float64}
}

// Respond generates a scripted turn result. The numeric transform is
// pure: action turns drop budget and time by fixed decrements (clamped
// at zero) and advance the step. The opening narration leaves the
// starting state untouched.
func (f *FallbackResponder) Respond(tmpl *models.ScenarioTemplate, kind TurnKind, current models.SimState) models.TurnResult {
	state := current.Clone()
	if kind == TurnAction {
		state.Budget -= fallbackBudgetDecrement
		state.Time -= fallbackTimeDecrement
		state.Clamp()
		state.Step++
	}

	script, ok := fallbackScripts[tmpl.RoleType]
	if !ok {
		script = fallbackScripts[fallbackDefaultRole]
	}
	text := script.action
	if kind == TurnStart {
		text = script.start
	}

	return models.TurnResult{
		ResponseText:         text,
		UpdatedState:         state,
		IsStakeholderMessage: f.rng() > 0.7,
		IsSimulationOver:     false,
		Degraded:             true,
	}
}
