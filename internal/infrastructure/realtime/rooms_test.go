package realtime

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/alumnet/alumnet-go/internal/domain/events"
)

func testRouter() *RoomRouter {
	return NewRoomRouter(slog.Default())
}

func drainFrames(t *testing.T, s *Session) []events.Envelope {
	t.Helper()
	var frames []events.Envelope
	for {
		select {
		case raw := <-s.Send:
			var env events.Envelope
			if err := json.Unmarshal(raw, &env); err != nil {
				t.Fatalf("malformed frame: %v", err)
			}
			frames = append(frames, env)
		default:
			return frames
		}
	}
}

func TestPublishReachesSubscribersOnly(t *testing.T) {
	r := testRouter()

	a := r.Register("c1", "u1", "Alice")
	b := r.Register("c2", "u2", "Bob")
	r.Subscribe("c1", "thread:t1")

	if err := r.Publish("thread:t1", "test:event", map[string]string{"k": "v"}, ""); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if got := len(drainFrames(t, a)); got != 1 {
		t.Fatalf("subscriber expected 1 frame, got %d", got)
	}
	if got := len(drainFrames(t, b)); got != 0 {
		t.Fatalf("non-subscriber expected 0 frames, got %d", got)
	}
}

func TestPublishExcludesOriginator(t *testing.T) {
	r := testRouter()

	a := r.Register("c1", "u1", "Alice")
	b := r.Register("c2", "u2", "Bob")
	r.Subscribe("c1", "thread:t1")
	r.Subscribe("c2", "thread:t1")

	if err := r.Publish("thread:t1", "test:event", nil, "c2"); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	if got := len(drainFrames(t, a)); got != 1 {
		t.Fatalf("other subscriber expected 1 frame, got %d", got)
	}
	if got := len(drainFrames(t, b)); got != 0 {
		t.Fatalf("excluded originator expected 0 frames, got %d", got)
	}
}

func TestPublishToEmptyTopicIsNoop(t *testing.T) {
	r := testRouter()
	if err := r.Publish("thread:ghost", "test:event", nil, ""); err != nil {
		t.Fatalf("publish to empty topic returned error: %v", err)
	}
}

func TestPublishOrderingPerTopic(t *testing.T) {
	r := testRouter()

	a := r.Register("c1", "u1", "Alice")
	r.Subscribe("c1", "thread:t1")

	for i := 0; i < 5; i++ {
		if err := r.Publish("thread:t1", "test:event", map[string]int{"seq": i}, ""); err != nil {
			t.Fatalf("publish %d failed: %v", i, err)
		}
	}

	frames := drainFrames(t, a)
	if len(frames) != 5 {
		t.Fatalf("expected 5 frames, got %d", len(frames))
	}
	for i, env := range frames {
		var payload struct {
			Seq int `json:"seq"`
		}
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			t.Fatalf("bad payload: %v", err)
		}
		if payload.Seq != i {
			t.Fatalf("frame %d carried seq %d, order not preserved", i, payload.Seq)
		}
	}
}

func TestUnsubscribePrunesTopic(t *testing.T) {
	r := testRouter()

	r.Register("c1", "u1", "Alice")
	r.Subscribe("c1", "thread:t1")
	r.Unsubscribe("c1", "thread:t1")

	if topics := r.Topics(); len(topics) != 0 {
		t.Fatalf("expected empty topic to be pruned, got %v", topics)
	}
}

func TestUnregisterCleansSubscriptions(t *testing.T) {
	r := testRouter()

	s := r.Register("c1", "u1", "Alice")
	r.Subscribe("c1", "thread:t1")
	r.Subscribe("c1", "user:u1")

	r.Unregister("c1")

	if count := r.SessionCount(); count != 0 {
		t.Fatalf("expected 0 sessions, got %d", count)
	}
	if topics := r.Topics(); len(topics) != 0 {
		t.Fatalf("expected all topics pruned, got %v", topics)
	}

	// Send channel is closed so the write pump exits.
	if _, ok := <-s.Send; ok {
		t.Fatal("expected send channel to be closed")
	}
}

func TestSlowSessionDropsFrame(t *testing.T) {
	r := testRouter()

	a := r.Register("c1", "u1", "Alice")
	r.Subscribe("c1", "thread:t1")

	// Fill the buffer past capacity; the publisher must never block.
	for i := 0; i < cap(a.Send)+10; i++ {
		if err := r.Publish("thread:t1", "test:event", nil, ""); err != nil {
			t.Fatalf("publish failed: %v", err)
		}
	}

	if got := len(drainFrames(t, a)); got != cap(a.Send) {
		t.Fatalf("expected exactly %d buffered frames, got %d", cap(a.Send), got)
	}
}
