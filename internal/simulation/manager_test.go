package simulation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/interviewace/simulation-engine/internal/catalog"
	"github.com/interviewace/simulation-engine/internal/events"
	"github.com/interviewace/simulation-engine/internal/llm"
	"github.com/interviewace/simulation-engine/internal/models"
	"github.com/interviewace/simulation-engine/internal/session"
)

// recordingArchive captures archived reports for verification.
type recordingArchive struct {
	mu      sync.Mutex
	reports []*models.Report
	fail    bool
}

func (a *recordingArchive) SaveReport(_ context.Context, report *models.Report, _ *models.Session) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.fail {
		return errors.New("archive down")
	}
	a.reports = append(a.reports, report)
	return nil
}

func newTestManager(t *testing.T, client llm.Client) (*Manager, *session.Store, *recordingArchive) {
	t.Helper()
	store := session.NewStore(nil)
	archive := &recordingArchive{}
	m := NewManager(catalog.New(), store, client, archive, events.NewBroadcaster(), Config{})
	return m, store, archive
}

func failingClient() llm.Client {
	return llm.CompleteFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", llm.ErrUnavailable
	})
}

func TestStartCloudArchitectIntermediate(t *testing.T) {
	m, store, _ := newTestManager(t, failingClient())

	resp, err := m.Start(context.Background(), models.StartSimulationRequest{
		RoleType:   "cloud-architect",
		Difficulty: models.DifficultyIntermediate,
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if resp.SessionID == "" {
		t.Fatal("empty session id")
	}
	if resp.Metadata.RoleName != "Senior Cloud Solutions Architect" {
		t.Errorf("role name = %q", resp.Metadata.RoleName)
	}
	if resp.Metadata.EstimatedDuration != 480 {
		t.Errorf("estimated duration = %d, want 480", resp.Metadata.EstimatedDuration)
	}
	if !resp.InitialResult.Degraded {
		t.Error("initial result with failing model should be degraded")
	}

	status, err := m.Status(resp.SessionID)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.State.Budget != 15000 || status.State.Time != 480 || status.State.Step != 1 {
		t.Errorf("state = %+v, want {15000 480 1}", status.State)
	}
	if status.HistoryLength != 1 {
		t.Errorf("history length = %d, want 1", status.HistoryLength)
	}
	if !status.IsActive {
		t.Error("fresh session should be active")
	}
	if store.Len() != 1 {
		t.Errorf("store size = %d, want 1", store.Len())
	}
}

func TestExecuteTurnFallsBackOnModelFailure(t *testing.T) {
	m, _, _ := newTestManager(t, failingClient())

	resp, err := m.Start(context.Background(), models.StartSimulationRequest{
		RoleType:   "cloud-architect",
		Difficulty: models.DifficultyIntermediate,
	})
	if err != nil {
		t.Fatal(err)
	}

	result, err := m.ExecuteTurn(context.Background(), resp.SessionID, "Deploy to a single region")
	if err != nil {
		t.Fatalf("ExecuteTurn failed: %v", err)
	}

	if !result.Degraded {
		t.Error("fallback turn should be degraded")
	}
	if result.IsSimulationOver {
		t.Error("fallback must not end the simulation")
	}
	if result.UpdatedState.Budget >= 15000 {
		t.Errorf("budget should strictly decrease: %d", result.UpdatedState.Budget)
	}
	if result.UpdatedState.Time >= 480 {
		t.Errorf("time should strictly decrease: %d", result.UpdatedState.Time)
	}
	if result.UpdatedState.Step != 2 {
		t.Errorf("step = %d, want 2", result.UpdatedState.Step)
	}

	status, _ := m.Status(resp.SessionID)
	if status.HistoryLength != 2 {
		t.Errorf("history length = %d, want 2", status.HistoryLength)
	}
}

func TestStartUnknownRoleType(t *testing.T) {
	m, store, _ := newTestManager(t, failingClient())

	_, err := m.Start(context.Background(), models.StartSimulationRequest{RoleType: "astronaut"})
	if !errors.Is(err, ErrScenarioNotFound) {
		t.Fatalf("got %v, want ErrScenarioNotFound", err)
	}
	if store.Len() != 0 {
		t.Errorf("store size = %d after failed start, want 0", store.Len())
	}
}

func TestExecuteTurnUsesModelOutput(t *testing.T) {
	client := llm.CompleteFunc(func(ctx context.Context, prompt string) (string, error) {
		return `{
			"responseText": "The region deploys cleanly.",
			"updatedState": {"budget": -50, "time": 400, "step": 1, "systemReliability": 99.9},
			"isStakeholderMessage": true,
			"isSimulationOver": false
		}`, nil
	})
	m, _, _ := newTestManager(t, client)

	resp, err := m.Start(context.Background(), models.StartSimulationRequest{
		RoleType:   "cloud-architect",
		Difficulty: models.DifficultyIntermediate,
	})
	if err != nil {
		t.Fatal(err)
	}

	result, err := m.ExecuteTurn(context.Background(), resp.SessionID, "Deploy everything")
	if err != nil {
		t.Fatal(err)
	}

	if result.Degraded {
		t.Error("model-produced result should not be degraded")
	}
	if result.ResponseText != "The region deploys cleanly." {
		t.Errorf("unexpected text: %q", result.ResponseText)
	}
	// Model-supplied state is sanitized: negative budget clamps to 0,
	// step never regresses below the previous value.
	if result.UpdatedState.Budget != 0 {
		t.Errorf("budget = %d, want 0 (clamped)", result.UpdatedState.Budget)
	}
	if result.UpdatedState.Step != 1 {
		t.Errorf("step = %d, want 1", result.UpdatedState.Step)
	}
	if result.UpdatedState.Extra["systemReliability"] != 99.9 {
		t.Errorf("extra state lost: %v", result.UpdatedState.Extra)
	}
	if !result.IsStakeholderMessage {
		t.Error("stakeholder flag lost")
	}
}

func TestSimulationOverEndsSession(t *testing.T) {
	client := llm.CompleteFunc(func(ctx context.Context, prompt string) (string, error) {
		return `{
			"responseText": "The project ships. Simulation complete.",
			"updatedState": {"budget": 2000, "time": 0, "step": 8},
			"isStakeholderMessage": false,
			"isSimulationOver": true,
			"finalArtifact": {"verdict": "shipped"}
		}`, nil
	})
	m, _, _ := newTestManager(t, client)

	resp, err := m.Start(context.Background(), models.StartSimulationRequest{RoleType: "devops-engineer"})
	if err != nil {
		t.Fatal(err)
	}

	// The start turn already carries isSimulationOver from the fake,
	// so the session ends immediately.
	status, err := m.Status(resp.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if status.IsActive {
		t.Error("session should be inactive after isSimulationOver")
	}

	if _, err := m.ExecuteTurn(context.Background(), resp.SessionID, "one more thing"); !errors.Is(err, ErrSessionEnded) {
		t.Errorf("turn on ended session: got %v, want ErrSessionEnded", err)
	}
}

func TestEndSessionIdempotence(t *testing.T) {
	m, store, archive := newTestManager(t, failingClient())

	resp, err := m.Start(context.Background(), models.StartSimulationRequest{RoleType: "ux-designer"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.ExecuteTurn(context.Background(), resp.SessionID, "run user interviews"); err != nil {
		t.Fatal(err)
	}

	report, err := m.End(context.Background(), resp.SessionID)
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if report.SessionID != resp.SessionID {
		t.Errorf("report session id = %q", report.SessionID)
	}
	if report.TotalSteps != 2 {
		t.Errorf("total steps = %d, want 2", report.TotalSteps)
	}
	if store.Len() != 0 {
		t.Errorf("store size = %d after end, want 0", store.Len())
	}
	if len(archive.reports) != 1 {
		t.Errorf("archived reports = %d, want 1", len(archive.reports))
	}

	// Second end: the session is gone.
	if _, err := m.End(context.Background(), resp.SessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second End: got %v, want ErrSessionNotFound", err)
	}
}

func TestEndSurvivesArchiveFailure(t *testing.T) {
	store := session.NewStore(nil)
	archive := &recordingArchive{fail: true}
	m := NewManager(catalog.New(), store, failingClient(), archive, events.NewBroadcaster(), Config{})

	resp, err := m.Start(context.Background(), models.StartSimulationRequest{RoleType: "cybersecurity-analyst"})
	if err != nil {
		t.Fatal(err)
	}

	report, err := m.End(context.Background(), resp.SessionID)
	if err != nil {
		t.Fatalf("End should succeed despite archive failure: %v", err)
	}
	if report == nil {
		t.Fatal("nil report")
	}
}

func TestExecuteTurnUnknownSession(t *testing.T) {
	m, _, _ := newTestManager(t, failingClient())

	if _, err := m.ExecuteTurn(context.Background(), "sim-missing", "act"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("got %v, want ErrSessionNotFound", err)
	}
	if _, err := m.Status("sim-missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Status: got %v, want ErrSessionNotFound", err)
	}
}

func TestBudgetAndTimeNeverNegative(t *testing.T) {
	m, _, _ := newTestManager(t, failingClient())

	resp, err := m.Start(context.Background(), models.StartSimulationRequest{
		RoleType:   "cybersecurity-analyst",
		Difficulty: models.DifficultyAdvanced,
	})
	if err != nil {
		t.Fatal(err)
	}

	// Enough fallback turns to exhaust budget (6400) and time (192).
	for i := 0; i < 12; i++ {
		result, err := m.ExecuteTurn(context.Background(), resp.SessionID, "investigate")
		if err != nil {
			t.Fatal(err)
		}
		if result.UpdatedState.Budget < 0 || result.UpdatedState.Time < 0 {
			t.Fatalf("turn %d produced negative resources: %+v", i, result.UpdatedState)
		}
	}

	status, _ := m.Status(resp.SessionID)
	if status.State.Budget != 0 || status.State.Time != 0 {
		t.Errorf("resources should bottom out at zero: %+v", status.State)
	}
}

func TestTurnEventsArePublished(t *testing.T) {
	broadcaster := events.NewBroadcaster()
	m := NewManager(catalog.New(), session.NewStore(nil), failingClient(), nil, broadcaster, Config{})

	resp, err := m.Start(context.Background(), models.StartSimulationRequest{RoleType: "cloud-architect"})
	if err != nil {
		t.Fatal(err)
	}

	sub := broadcaster.Subscribe(resp.SessionID)
	if _, err := m.ExecuteTurn(context.Background(), resp.SessionID, "scale out"); err != nil {
		t.Fatal(err)
	}

	select {
	case ev := <-sub:
		if ev.SessionID != resp.SessionID {
			t.Errorf("event for wrong session: %s", ev.SessionID)
		}
		if ev.UserAction != "scale out" {
			t.Errorf("event action = %q", ev.UserAction)
		}
		if ev.Step != 2 {
			t.Errorf("event step = %d, want 2", ev.Step)
		}
	default:
		t.Fatal("no event published for executed turn")
	}

	// Ending the session closes the subscription.
	if _, err := m.End(context.Background(), resp.SessionID); err != nil {
		t.Fatal(err)
	}
	if _, ok := <-sub; ok {
		t.Error("subscriber channel should be closed after End")
	}
}
