package events

import (
	"sync"
	"time"

	"github.com/interviewace/simulation-engine/internal/models"
)

// TurnEvent is published after a turn has been applied to a session.
type TurnEvent struct {
	SessionID  string            `json:"session_id"`
	UserAction string            `json:"user_action"`
	Result     models.TurnResult `json:"result"`
	State      models.SimState   `json:"state"`
	Step       int               `json:"step"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Subscriber receives the turn events of a single session.
type Subscriber chan TurnEvent

// Broadcaster fans completed turns out to per-session observers
// (the websocket watch endpoint). Publishing never blocks: slow
// subscribers drop events.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[string]map[Subscriber]struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[string]map[Subscriber]struct{})}
}

// Subscribe registers an observer for one session's turns. The channel
// is buffered so Publish never blocks on a slow client.
func (b *Broadcaster) Subscribe(sessionID string) Subscriber {
	ch := make(Subscriber, 16)
	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[Subscriber]struct{})
	}
	b.subs[sessionID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes an observer and closes its channel.
func (b *Broadcaster) Unsubscribe(sessionID string, sub Subscriber) {
	b.mu.Lock()
	if set, ok := b.subs[sessionID]; ok {
		if _, ok := set[sub]; ok {
			delete(set, sub)
			close(sub)
		}
		if len(set) == 0 {
			delete(b.subs, sessionID)
		}
	}
	b.mu.Unlock()
}

// Publish sends an event to every observer of the session. Events are
// dropped for subscribers whose buffer is full.
func (b *Broadcaster) Publish(ev TurnEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs[ev.SessionID] {
		select {
		case sub <- ev:
		default:
		}
	}
}

// CloseSession closes all observers of a session, signalling that no
// further turns will arrive.
func (b *Broadcaster) CloseSession(sessionID string) {
	b.mu.Lock()
	for sub := range b.subs[sessionID] {
		close(sub)
	}
	delete(b.subs, sessionID)
	b.mu.Unlock()
}

// SubscriberCount returns the number of observers for a session.
func (b *Broadcaster) SubscriberCount(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[sessionID])
}
