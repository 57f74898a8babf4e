package simulation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/interviewace/simulation-engine/internal/catalog"
	"github.com/interviewace/simulation-engine/internal/events"
	"github.com/interviewace/simulation-engine/internal/llm"
	"github.com/interviewace/simulation-engine/internal/models"
	"github.com/interviewace/simulation-engine/internal/session"
)

// Common errors
var (
	ErrScenarioNotFound = errors.New("scenario not found")
	ErrSessionNotFound  = session.ErrNotFound
	ErrSessionEnded     = errors.New("session already ended")
)

// Archive persists finished sessions. Implemented by the Postgres
// repository; nil disables archival.
type Archive interface {
	SaveReport(ctx context.Context, report *models.Report, sess *models.Session) error
}

// Config tunes the manager.
type Config struct {
	// LLMTimeout bounds every model call so a hung upstream cannot
	// wedge a session's lock.
	LLMTimeout time.Duration
}

// Manager owns the simulation lifecycle: it creates sessions from the
// catalog, advances them one turn at a time, and turns finished
// sessions into reports. All session mutation happens while holding
// the session's store lock, so turns for one session are strictly
// serialized.
type Manager struct {
	catalog     *catalog.Catalog
	store       *session.Store
	client      llm.Client // nil = permanent fallback mode
	fallback    *FallbackResponder
	reports     *ReportGenerator
	broadcaster *events.Broadcaster
	archive     Archive
	llmTimeout  time.Duration
	now         func() time.Time
}

// NewManager creates a simulation manager. client and archive may be
// nil; broadcaster must not be.
func NewManager(cat *catalog.Catalog, store *session.Store, client llm.Client, archive Archive, broadcaster *events.Broadcaster, cfg Config) *Manager {
	timeout := cfg.LLMTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Manager{
		catalog:     cat,
		store:       store,
		client:      client,
		fallback:    NewFallbackResponder(),
		reports:     NewReportGenerator(client),
		broadcaster: broadcaster,
		archive:     archive,
		llmTimeout:  timeout,
		now:         time.Now,
	}
}

// ReattachTemplate restores the catalog template on a session loaded
// from a snapshot. Returns false if the scenario no longer exists.
func (m *Manager) ReattachTemplate(sess *models.Session) bool {
	tmpl := m.catalog.Get(sess.RoleType)
	if tmpl == nil {
		return false
	}
	sess.Template = tmpl
	return true
}

// Start creates a session for the requested scenario and executes the
// synthetic opening turn. Unknown role types fail before any session
// is created.
func (m *Manager) Start(ctx context.Context, req models.StartSimulationRequest) (*models.StartSimulationResponse, error) {
	tmpl := m.catalog.Get(req.RoleType)
	if tmpl == nil {
		return nil, ErrScenarioNotFound
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = models.DifficultyIntermediate
	}

	now := m.now().UTC()
	initial := tmpl.StartingState(difficulty)
	sess := &models.Session{
		ID:           "sim-" + uuid.New().String()[:12],
		RoleType:     req.RoleType,
		Difficulty:   difficulty,
		Template:     tmpl,
		State:        initial,
		Status:       models.SessionActive,
		UserProfile:  req.UserProfile,
		StartedAt:    now,
		LastActivity: now,
	}

	// The session is not published to the store yet, so the opening
	// turn needs no lock.
	result := m.produceTurn(ctx, sess, models.StartAction, TurnStart)
	m.apply(sess, models.StartAction, result)

	m.store.Insert(sess)
	m.store.Persist(ctx, sess)
	m.publish(sess, models.StartAction, result)

	slog.Info("simulation started",
		"id", sess.ID,
		"role_type", req.RoleType,
		"difficulty", difficulty,
		"degraded", result.Degraded,
	)

	return &models.StartSimulationResponse{
		SessionID:     sess.ID,
		InitialResult: result,
		Metadata: models.SimulationMetadata{
			RoleType:          tmpl.RoleType,
			RoleName:          tmpl.RoleName,
			Difficulty:        difficulty,
			EstimatedDuration: initial.Time,
			Competencies:      tmpl.Competencies,
		},
	}, nil
}

// ExecuteTurn advances one session by one user action. The caller
// always gets a turn result: model failures degrade to the scripted
// fallback, they never fail the call.
func (m *Manager) ExecuteTurn(ctx context.Context, id, userAction string) (models.TurnResult, error) {
	h, err := m.store.Acquire(id)
	if err != nil {
		return models.TurnResult{}, err
	}
	defer h.Release()

	sess := h.Session()
	if !sess.IsActive() {
		return models.TurnResult{}, ErrSessionEnded
	}

	result := m.produceTurn(ctx, sess, userAction, TurnAction)
	m.apply(sess, userAction, result)
	m.store.Persist(ctx, sess)
	m.publish(sess, userAction, result)

	return result, nil
}

// Status returns a read-only view of a session.
func (m *Manager) Status(id string) (*models.SimulationStatus, error) {
	h, err := m.store.Acquire(id)
	if err != nil {
		return nil, err
	}
	defer h.Release()

	sess := h.Session()
	status := &models.SimulationStatus{
		SessionID:     sess.ID,
		RoleType:      sess.RoleType,
		State:         sess.State.Clone(),
		HistoryLength: len(sess.History),
		IsActive:      sess.IsActive(),
		StartedAt:     sess.StartedAt,
	}
	if sess.Template != nil {
		status.Competencies = sess.Template.Competencies
	}
	return status, nil
}

// End terminates a session, generates its report, archives it, and
// removes the session from the store. A second End for the same id
// gets ErrSessionNotFound; the archived report stays fetchable.
func (m *Manager) End(ctx context.Context, id string) (*models.Report, error) {
	h, err := m.store.Acquire(id)
	if err != nil {
		return nil, err
	}
	defer h.Release()

	sess := h.Session()
	sess.Status = models.SessionEnded

	evalCtx, cancel := context.WithTimeout(ctx, m.llmTimeout)
	report := m.reports.Generate(evalCtx, sess)
	cancel()

	if m.archive != nil {
		if err := m.archive.SaveReport(ctx, report, sess); err != nil {
			slog.Error("failed to archive report", "error", err, "id", sess.ID)
		}
	}

	h.Remove()
	m.broadcaster.CloseSession(id)

	slog.Info("simulation ended",
		"id", sess.ID,
		"total_steps", report.TotalSteps,
		"overall_score", report.OverallScore,
	)

	return report, nil
}

// SessionCount returns the number of live sessions.
func (m *Manager) SessionCount() int {
	return m.store.Len()
}

// IdleSessionIDs lists sessions idle longer than ttl, for the eviction
// worker.
func (m *Manager) IdleSessionIDs(ttl time.Duration) []string {
	return m.store.IdleIDs(m.now(), ttl)
}

// produceTurn obtains one turn result, from the model when possible,
// from the fallback responder otherwise.
func (m *Manager) produceTurn(ctx context.Context, sess *models.Session, userAction string, kind TurnKind) models.TurnResult {
	if m.client == nil {
		return m.fallback.Respond(sess.Template, kind, sess.State)
	}

	callCtx, cancel := context.WithTimeout(ctx, m.llmTimeout)
	defer cancel()

	prompt := buildTurnPrompt(sess.Template, sess.State, userAction, kind)
	reply, err := m.client.Complete(callCtx, prompt)
	if err != nil {
		slog.Warn("model call failed, using fallback", "error", err, "id", sess.ID, "kind", kind.String())
		return m.fallback.Respond(sess.Template, kind, sess.State)
	}

	result, err := parseTurnResult(reply)
	if err != nil {
		slog.Warn("model reply unusable, using fallback", "error", err, "id", sess.ID, "kind", kind.String())
		return m.fallback.Respond(sess.Template, kind, sess.State)
	}

	sanitizeState(&result.UpdatedState, sess.State.Step)
	return result
}

// apply mutates the session with a produced turn result: history grows
// by exactly one, state is replaced, and the status transition to
// ended happens here and only here.
func (m *Manager) apply(sess *models.Session, userAction string, result models.TurnResult) {
	now := m.now().UTC()
	sess.History = append(sess.History, models.Turn{
		UserAction: userAction,
		Result:     result,
		Timestamp:  now,
	})
	sess.State = result.UpdatedState
	sess.LastActivity = now

	if result.IsSimulationOver {
		sess.Status = models.SessionEnded
	}
}

func (m *Manager) publish(sess *models.Session, userAction string, result models.TurnResult) {
	m.broadcaster.Publish(events.TurnEvent{
		SessionID:  sess.ID,
		UserAction: userAction,
		Result:     result,
		State:      sess.State.Clone(),
		Step:       sess.State.Step,
		Timestamp:  m.now().UTC(),
	})
}
