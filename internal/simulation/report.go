package simulation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/interviewace/simulation-engine/internal/llm"
	"github.com/interviewace/simulation-engine/internal/models"
)

// ReportGenerator summarizes a finished session. With a model client
// it asks for a real evaluation of the transcript; without one, or on
// any failure, it degrades to placeholder band scoring. Generate is
// total: it never fails on a well-formed session.
type ReportGenerator struct {
	client llm.Client // nil disables model evaluation
	rng    *rand.Rand
	now    func() time.Time
}

// NewReportGenerator creates a generator. client may be nil.
func NewReportGenerator(client llm.Client) *ReportGenerator {
	return &ReportGenerator{
		client: client,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now,
	}
}

// Generate builds the final report for a session. The session is read,
// never mutated.
func (g *ReportGenerator) Generate(ctx context.Context, sess *models.Session) *models.Report {
	report := &models.Report{
		SessionID:        sess.ID,
		RoleType:         sess.RoleType,
		Difficulty:       sess.Difficulty,
		CompetencyScores: make(map[string]int),
		Strengths:        []string{},
		Improvements:     []string{},
		TotalSteps:       len(sess.History),
		CompletedAt:      g.now().UTC(),
	}

	// A session that never produced a turn has nothing to score.
	if len(sess.History) == 0 {
		return report
	}

	if g.client != nil {
		if ok := g.evaluateWithModel(ctx, sess, report); ok {
			return report
		}
	}

	g.scorePlaceholder(sess, report)
	return report
}

// wireEvaluation is the JSON shape the evaluation prompt requests.
type wireEvaluation struct {
	OverallScore     *int           `json:"overallScore"`
	CompetencyScores map[string]int `json:"competencyScores"`
	Strengths        []string       `json:"strengths"`
	Improvements     []string       `json:"improvements"`
}

func (g *ReportGenerator) evaluateWithModel(ctx context.Context, sess *models.Session, report *models.Report) bool {
	reply, err := g.client.Complete(ctx, buildEvaluationPrompt(sess))
	if err != nil {
		slog.Warn("report evaluation call failed, using placeholder scoring", "error", err, "id", sess.ID)
		return false
	}

	payload, ok := extractJSON(reply)
	if !ok {
		slog.Warn("report evaluation reply had no JSON, using placeholder scoring", "id", sess.ID)
		return false
	}

	var wire wireEvaluation
	if err := json.Unmarshal([]byte(payload), &wire); err != nil || wire.OverallScore == nil {
		slog.Warn("report evaluation reply unparsable, using placeholder scoring", "id", sess.ID)
		return false
	}

	report.OverallScore = clampScore(*wire.OverallScore)
	for comp, score := range wire.CompetencyScores {
		report.CompetencyScores[comp] = clampScore(score)
	}
	if wire.Strengths != nil {
		report.Strengths = wire.Strengths
	}
	if wire.Improvements != nil {
		report.Improvements = wire.Improvements
	}
	return true
}

// scorePlaceholder fills the report with band scores: 70-99 overall,
// 70-94 per competency.
func (g *ReportGenerator) scorePlaceholder(sess *models.Session, report *models.Report) {
	report.OverallScore = 70 + g.rng.Intn(30)
	if sess.Template != nil {
		for _, comp := range sess.Template.Competencies {
			report.CompetencyScores[comp] = 70 + g.rng.Intn(25)
		}
	}
	report.Strengths = []string{"Consistent engagement across all scenario steps"}
	report.Improvements = []string{"Weigh cost implications of each decision more carefully"}
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func buildEvaluationPrompt(sess *models.Session) string {
	var b strings.Builder
	b.WriteString(`You are a performance evaluator for professional skills simulations.
Score the following completed session transcript.

Reply with a single JSON object of this exact shape:
{
  "overallScore": 0,
  "competencyScores": {"Competency Name": 0},
  "strengths": ["..."],
  "improvements": ["..."]
}
All scores are integers from 0 to 100.
`)

	if sess.Template != nil {
		fmt.Fprintf(&b, "\nROLE: %s\nCOMPETENCIES: %s\n", sess.Template.RoleName, strings.Join(sess.Template.Competencies, ", "))
	}

	b.WriteString("\nTRANSCRIPT:\n")
	for i, turn := range sess.History {
		fmt.Fprintf(&b, "[%d] user: %s\n    master: %s\n", i+1, turn.UserAction, turn.Result.ResponseText)
	}

	return b.String()
}
