package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/interviewace/simulation-engine/internal/models"
)

// ErrNotFound is returned when a session id does not exist (or was
// already removed).
var ErrNotFound = errors.New("session not found")

// Store is a concurrency-safe mapping of session id to Session. The
// outer map guards insert/remove; each entry carries its own mutex so
// turn execution for one session never interleaves while unrelated
// sessions proceed in parallel.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	snap    Snapshotter
}

type entry struct {
	mu   sync.Mutex
	sess *models.Session
	gone bool
}

// Snapshotter persists session state outside the process so sessions
// survive a restart. A nil Snapshotter disables persistence.
type Snapshotter interface {
	Save(ctx context.Context, sess *models.Session) error
	Delete(ctx context.Context, id string) error
	LoadAll(ctx context.Context) ([]*models.Session, error)
}

// NewStore creates an empty store. snap may be nil.
func NewStore(snap Snapshotter) *Store {
	return &Store{
		entries: make(map[string]*entry),
		snap:    snap,
	}
}

// Insert registers a new session.
func (s *Store) Insert(sess *models.Session) {
	s.mu.Lock()
	s.entries[sess.ID] = &entry{sess: sess}
	s.mu.Unlock()
}

// Handle is an acquired, exclusively locked session. Callers must call
// Release exactly once.
type Handle struct {
	store    *Store
	e        *entry
	released bool
}

// Session returns the locked session. Valid until Release.
func (h *Handle) Session() *models.Session {
	return h.e.sess
}

// Release unlocks the session.
func (h *Handle) Release() {
	if h.released {
		return
	}
	h.released = true
	h.e.mu.Unlock()
}

// Remove deletes the session from the store while still holding its
// lock. A goroutine blocked in Acquire on the same id observes the
// tombstone and gets ErrNotFound: late turns against a removed session
// are rejected, never silently applied.
func (h *Handle) Remove() {
	h.e.gone = true
	h.store.mu.Lock()
	delete(h.store.entries, h.e.sess.ID)
	h.store.mu.Unlock()

	if h.store.snap != nil {
		if err := h.store.snap.Delete(context.Background(), h.e.sess.ID); err != nil {
			slog.Warn("failed to delete session snapshot", "error", err, "id", h.e.sess.ID)
		}
	}
}

// Acquire locks the session with the given id for exclusive use.
func (s *Store) Acquire(id string) (*Handle, error) {
	s.mu.RLock()
	e := s.entries[id]
	s.mu.RUnlock()

	if e == nil {
		return nil, ErrNotFound
	}

	e.mu.Lock()
	if e.gone {
		e.mu.Unlock()
		return nil, ErrNotFound
	}

	return &Handle{store: s, e: e}, nil
}

// Persist writes the session's current state to the snapshotter, if
// one is configured. Must be called while holding the session's
// handle. Snapshot failures are logged, never propagated: losing a
// snapshot degrades restart recovery, not the live session.
func (s *Store) Persist(ctx context.Context, sess *models.Session) {
	if s.snap == nil {
		return
	}
	if err := s.snap.Save(ctx, sess); err != nil {
		slog.Warn("failed to snapshot session", "error", err, "id", sess.ID)
	}
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// IdleIDs returns the ids of sessions whose last activity is older
// than ttl.
func (s *Store) IdleIDs(now time.Time, ttl time.Duration) []string {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	var ids []string
	for _, e := range entries {
		e.mu.Lock()
		if !e.gone && e.sess.IdleSince(now) > ttl {
			ids = append(ids, e.sess.ID)
		}
		e.mu.Unlock()
	}
	return ids
}

// Recover reloads snapshotted sessions into the store. reattach is
// called for each recovered session to restore fields that are not
// serialized (the scenario template); returning false skips the
// session (e.g. its template no longer exists).
func (s *Store) Recover(ctx context.Context, reattach func(*models.Session) bool) error {
	if s.snap == nil {
		return nil
	}

	sessions, err := s.snap.LoadAll(ctx)
	if err != nil {
		return err
	}

	recovered := 0
	for _, sess := range sessions {
		if !reattach(sess) {
			slog.Warn("skipping snapshot with unknown scenario", "id", sess.ID, "role_type", sess.RoleType)
			continue
		}
		s.Insert(sess)
		recovered++
	}

	if recovered > 0 {
		slog.Info("sessions recovered from snapshots", "count", recovered)
	}
	return nil
}
