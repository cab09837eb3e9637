package realtime

import (
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/alumnet/alumnet-go/internal/domain/events"
)

func newTestGateway(t *testing.T) (*Gateway, *RoomRouter) {
	t.Helper()

	router := NewRoomRouter(slog.Default())
	dispatcher := NewDispatcher(router, nil, slog.Default())
	typing := NewTypingRegistry(time.Second, nil)
	return NewGateway(router, NewPresenceRegistry(), typing, dispatcher, slog.Default()), router
}

func newConnState(userID, userName string) *connState {
	return &connState{
		viewing:  make(map[string]struct{}),
		typing:   make(map[string]struct{}),
		userID:   userID,
		userName: userName,
	}
}

func clientFrame(t *testing.T, event string, payload any) []byte {
	t.Helper()
	frame, err := events.NewEnvelope(event, payload)
	if err != nil {
		t.Fatalf("build frame: %v", err)
	}
	return frame
}

func TestReactionEventsRelayedToOtherViewers(t *testing.T) {
	g, router := newTestGateway(t)

	origin := router.Register("c1", "u1", "Alice")
	other := router.Register("c2", "u2", "Bob")
	router.Subscribe("c1", ThreadTopic("t1"))
	router.Subscribe("c2", ThreadTopic("t1"))
	state := newConnState("u1", "Alice")

	g.handleEvent("c1", state, clientFrame(t, events.ThreadReactionAdded, events.ReactionUpdatePayload{
		ThreadID:       "t1",
		ReactionType:   "like",
		TotalReactions: 5,
	}))

	if got := len(drainFrames(t, origin)); got != 0 {
		t.Fatalf("originator should not receive its own relay, got %d frames", got)
	}
	frames := drainFrames(t, other)
	if len(frames) != 1 || frames[0].Event != events.ThreadReactionUpdate {
		t.Fatalf("expected one reaction update, got %+v", frames)
	}
	var p events.ReactionUpdatePayload
	if err := json.Unmarshal(frames[0].Data, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.Action != "added" || p.TotalReactions != 5 {
		t.Fatalf("unexpected payload %+v", p)
	}
	// Identity is stamped from the session, not trusted from the frame.
	if p.UserID != "u1" || p.UserName != "Alice" {
		t.Fatalf("expected session identity on relay, got %s/%s", p.UserID, p.UserName)
	}

	g.handleEvent("c1", state, clientFrame(t, events.ThreadReactionRemoved, events.ReactionUpdatePayload{
		ThreadID:       "t1",
		ReactionType:   "like",
		TotalReactions: 4,
	}))

	frames = drainFrames(t, other)
	if len(frames) != 1 {
		t.Fatalf("expected one removal update, got %d", len(frames))
	}
	if err := json.Unmarshal(frames[0].Data, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.Action != "removed" || p.TotalReactions != 4 {
		t.Fatalf("unexpected removal payload %+v", p)
	}
}

func TestCommentEventRelayed(t *testing.T) {
	g, router := newTestGateway(t)

	router.Register("c1", "u1", "Alice")
	other := router.Register("c2", "u2", "Bob")
	router.Subscribe("c1", ThreadTopic("t1"))
	router.Subscribe("c2", ThreadTopic("t1"))

	g.handleEvent("c1", newConnState("u1", "Alice"), clientFrame(t, events.ThreadCommentAdded, events.NewCommentPayload{
		ThreadID: "t1",
		Comment:  map[string]string{"body": "count me in"},
	}))

	frames := drainFrames(t, other)
	if len(frames) != 1 || frames[0].Event != events.ThreadNewComment {
		t.Fatalf("expected one new-comment broadcast, got %+v", frames)
	}
}

func TestMilestoneEventReachesEverySession(t *testing.T) {
	g, router := newTestGateway(t)

	router.Register("c1", "u1", "Alice")
	// Not subscribed to any thread; milestone celebrations are global.
	watcher := router.Register("c2", "u2", "Bob")

	g.handleEvent("c1", newConnState("u1", "Alice"), clientFrame(t, events.ThreadMilestoneDetected, events.MilestonePayload{
		ThreadID:      "t1",
		MilestoneType: "10-reactions",
	}))

	frames := drainFrames(t, watcher)
	if len(frames) != 1 || frames[0].Event != events.MilestoneCelebration {
		t.Fatalf("expected a global celebration, got %+v", frames)
	}
	var p events.MilestonePayload
	if err := json.Unmarshal(frames[0].Data, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.UserID != "u1" || p.MilestoneType != "10-reactions" {
		t.Fatalf("unexpected payload %+v", p)
	}
}

func TestMalformedAndUnknownFramesIgnored(t *testing.T) {
	g, router := newTestGateway(t)

	other := router.Register("c2", "u2", "Bob")
	router.Register("c1", "u1", "Alice")
	router.Subscribe("c2", ThreadTopic("t1"))
	state := newConnState("u1", "Alice")

	g.handleEvent("c1", state, []byte("{not json"))
	g.handleEvent("c1", state, clientFrame(t, "thread:reboot", map[string]string{"threadId": "t1"}))
	g.handleEvent("c1", state, clientFrame(t, events.ThreadReactionAdded, events.ReactionUpdatePayload{}))

	if got := len(drainFrames(t, other)); got != 0 {
		t.Fatalf("expected no broadcasts from bad frames, got %d", got)
	}
}
