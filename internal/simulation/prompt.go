package simulation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/interviewace/simulation-engine/internal/models"
)

// TurnKind distinguishes the synthetic opening turn from a reaction to
// a user action.
type TurnKind int

const (
	TurnStart TurnKind = iota
	TurnAction
)

func (k TurnKind) String() string {
	if k == TurnStart {
		return "start"
	}
	return "action"
}

const promptPreamble = `### SIMULATION MASTER PROMPT ###

**1. PERSONA & MISSION:**
You are the Simulation Master for a skills-simulation platform. You guide the user through a multi-step professional scenario.

**2. RULES OF ENGAGEMENT:**
- Adhere to the scenario data below; never invent resources the user does not have.
- Evaluate every user action against the listed competencies.
- Manage the numeric state: decrement budget and time to reflect the cost of the action, and advance the step counter.
- Occasionally inject an event from the event library, marking it as a stakeholder message when it comes from a stakeholder.
- End the simulation when the objective is met or the budget or time is exhausted.

**3. CRITICAL RESPONSE FORMAT:**
Your ENTIRE reply MUST be a single JSON object of this exact shape:

{
  "responseText": "your narration or reaction",
  "updatedState": {"budget": 0, "time": 0, "step": 0},
  "isStakeholderMessage": false,
  "isSimulationOver": false,
  "finalArtifact": null
}
`

// buildTurnPrompt renders the model-facing prompt for one turn:
// fixed rules, the scenario template, the live state, and the action.
func buildTurnPrompt(tmpl *models.ScenarioTemplate, state models.SimState, userAction string, kind TurnKind) string {
	var b strings.Builder
	b.WriteString(promptPreamble)

	scenarioJSON, _ := json.MarshalIndent(tmpl, "", "  ")
	stateJSON, _ := json.Marshal(state)

	b.WriteString("\n**[SCENARIO DATA]**\n")
	b.Write(scenarioJSON)
	b.WriteString("\n\n**[CURRENT STATE]**\n")
	b.Write(stateJSON)
	b.WriteString("\n\n")

	if kind == TurnStart {
		b.WriteString("INITIALIZATION REQUEST: Start the simulation with an opening narration that sets the scene and asks for the user's first move.\n")
	} else {
		fmt.Fprintf(&b, "USER ACTION: %q\n", userAction)
	}

	return b.String()
}
