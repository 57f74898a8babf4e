package events

import (
	"testing"

	"github.com/interviewace/simulation-engine/internal/models"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := NewBroadcaster()
	a := b.Subscribe("sim-1")
	c := b.Subscribe("sim-1")
	other := b.Subscribe("sim-2")

	b.Publish(TurnEvent{SessionID: "sim-1", UserAction: "act", Step: 2})

	for _, sub := range []Subscriber{a, c} {
		select {
		case ev := <-sub:
			if ev.Step != 2 {
				t.Errorf("step = %d, want 2", ev.Step)
			}
		default:
			t.Fatal("subscriber missed event")
		}
	}

	select {
	case <-other:
		t.Error("subscriber of another session received event")
	default:
	}
}

func TestPublishNeverBlocksOnFullSubscriber(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe("sim-1")

	// Overflow the buffer; extra events are dropped, not blocked on.
	for i := 0; i < cap(sub)+10; i++ {
		b.Publish(TurnEvent{SessionID: "sim-1", Step: i})
	}

	if len(sub) != cap(sub) {
		t.Errorf("buffer length = %d, want %d", len(sub), cap(sub))
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster()
	sub := b.Subscribe("sim-1")
	b.Unsubscribe("sim-1", sub)

	if _, ok := <-sub; ok {
		t.Error("channel should be closed after Unsubscribe")
	}
	if b.SubscriberCount("sim-1") != 0 {
		t.Errorf("subscriber count = %d, want 0", b.SubscriberCount("sim-1"))
	}

	// Double unsubscribe is a no-op, not a double-close panic.
	b.Unsubscribe("sim-1", sub)
}

func TestCloseSessionClosesAll(t *testing.T) {
	b := NewBroadcaster()
	a := b.Subscribe("sim-1")
	c := b.Subscribe("sim-1")

	b.CloseSession("sim-1")

	for _, sub := range []Subscriber{a, c} {
		if _, ok := <-sub; ok {
			t.Error("channel should be closed after CloseSession")
		}
	}

	// Publishing to a closed session is a no-op.
	b.Publish(TurnEvent{SessionID: "sim-1"})

	result := models.TurnResult{ResponseText: "x"}
	b.Publish(TurnEvent{SessionID: "sim-gone", Result: result})
}
