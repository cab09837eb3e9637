package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/alumnet/alumnet-go/internal/domain/entities/feed"
	"github.com/alumnet/alumnet-go/internal/domain/events"
	"github.com/alumnet/alumnet-go/internal/infrastructure/database"
	"github.com/alumnet/alumnet-go/internal/infrastructure/observability/logging"
	persistence "github.com/alumnet/alumnet-go/internal/infrastructure/persistence/feed"
	"github.com/alumnet/alumnet-go/internal/infrastructure/realtime"
)

func newTestEngagementService(t *testing.T) (*EngagementService, *realtime.RoomRouter) {
	t.Helper()

	db, err := sql.Open("sqlite3", "file::memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	if err := database.NewTableCreator().CreateSchema(db); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	logger, err := logging.NewChanneledLogger(&logging.LoggerConfig{
		OutputToFile:    false,
		OutputToConsole: false,
		JSONFormat:      true,
		DefaultLevel:    slog.LevelError,
	})
	if err != nil {
		t.Fatalf("create logger: %v", err)
	}

	router := realtime.NewRoomRouter(slog.Default())
	dispatcher := realtime.NewDispatcher(router, nil, slog.Default())
	notifications := NewNotificationService(persistence.NewNotificationRepository(db, logger), dispatcher, nil, logger)

	svc := NewEngagementService(
		persistence.NewThreadRepository(db, logger),
		persistence.NewEngagementRepository(db, logger),
		notifications,
		dispatcher,
		logger,
	)
	return svc, router
}

func receivedEvents(t *testing.T, s *realtime.Session) []events.Envelope {
	t.Helper()
	var envelopes []events.Envelope
	for {
		select {
		case raw := <-s.Send:
			var env events.Envelope
			if err := json.Unmarshal(raw, &env); err != nil {
				t.Fatalf("malformed frame: %v", err)
			}
			envelopes = append(envelopes, env)
		default:
			return envelopes
		}
	}
}

func TestCreateThreadValidation(t *testing.T) {
	svc, _ := newTestEngagementService(t)

	if _, err := svc.CreateThread("u1", "Alice", "   "); !errors.Is(err, ErrInvalidContent) {
		t.Fatalf("expected blank body rejected, got %v", err)
	}

	thread, err := svc.CreateThread("u1", "Alice", "anyone going to the reunion?")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if thread.ID == "" {
		t.Fatal("expected thread id assigned")
	}

	counters, err := svc.GetCounters(thread.ID)
	if err != nil {
		t.Fatalf("counters: %v", err)
	}
	if counters.Views != 0 || counters.Likes != 0 {
		t.Fatalf("expected zeroed counters, got %+v", counters)
	}
}

func TestUnknownThreadOperations(t *testing.T) {
	svc, _ := newTestEngagementService(t)

	if _, err := svc.GetThread("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get: expected not found, got %v", err)
	}
	if _, err := svc.RecordView("nope", "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("view: expected not found, got %v", err)
	}
	if _, err := svc.AddReaction("nope", "u2", "Bob", "like", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("reaction: expected not found, got %v", err)
	}
	if _, err := svc.AddComment("nope", "u2", "Bob", "hi", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("comment: expected not found, got %v", err)
	}
}

func TestReactionBroadcastExcludesOriginator(t *testing.T) {
	svc, router := newTestEngagementService(t)

	thread, err := svc.CreateThread("u1", "Alice", "post")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	origin := router.Register("c1", "u2", "Bob")
	other := router.Register("c2", "u3", "Carol")
	router.Subscribe("c1", realtime.ThreadTopic(thread.ID))
	router.Subscribe("c2", realtime.ThreadTopic(thread.ID))

	if _, err := svc.AddReaction(thread.ID, "u2", "Bob", "like", "c1"); err != nil {
		t.Fatalf("reaction: %v", err)
	}

	if got := receivedEvents(t, origin); len(got) != 0 {
		t.Fatalf("originator should not receive its own reaction, got %d frames", len(got))
	}
	got := receivedEvents(t, other)
	if len(got) != 1 || got[0].Event != events.ThreadReactionUpdate {
		t.Fatalf("expected one reaction update for other viewer, got %+v", got)
	}

	var payload events.ReactionUpdatePayload
	if err := json.Unmarshal(got[0].Data, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload.Action != "added" || payload.TotalReactions != 1 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestMilestoneFiresOnlyOnCrossing(t *testing.T) {
	svc, router := newTestEngagementService(t)

	thread, err := svc.CreateThread("u1", "Alice", "post")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	watcher := router.Register("c1", "u99", "Watcher")

	// Nine reactions: below the threshold, no celebration yet.
	for i := 0; i < 9; i++ {
		if _, err := svc.AddReaction(thread.ID, fmt.Sprintf("u%d", i+2), "User", "like", ""); err != nil {
			t.Fatalf("reaction %d: %v", i, err)
		}
	}
	for _, env := range receivedEvents(t, watcher) {
		if env.Event == events.MilestoneCelebration {
			t.Fatal("milestone fired before threshold")
		}
	}

	// The tenth crosses the threshold exactly once.
	if _, err := svc.AddReaction(thread.ID, "u11", "User", "like", ""); err != nil {
		t.Fatalf("tenth reaction: %v", err)
	}
	celebrations := 0
	for _, env := range receivedEvents(t, watcher) {
		if env.Event == events.MilestoneCelebration {
			celebrations++
		}
	}
	if celebrations != 1 {
		t.Fatalf("expected exactly one celebration, got %d", celebrations)
	}

	// A duplicate reaction at the threshold must not re-fire it.
	if _, err := svc.AddReaction(thread.ID, "u11", "User", "like", ""); err != nil {
		t.Fatalf("duplicate reaction: %v", err)
	}
	for _, env := range receivedEvents(t, watcher) {
		if env.Event == events.MilestoneCelebration {
			t.Fatal("milestone re-fired on duplicate reaction")
		}
	}

	// The author got a milestone notification.
	list, err := svc.notifications.List("u1", 10)
	if err != nil {
		t.Fatalf("notifications: %v", err)
	}
	found := false
	for _, n := range list {
		if n.Kind == feed.NotificationMilestone {
			found = true
		}
	}
	if !found {
		t.Fatal("expected milestone notification for author")
	}
}

func TestCommentNotifiesThreadAuthor(t *testing.T) {
	svc, _ := newTestEngagementService(t)

	thread, err := svc.CreateThread("u1", "Alice", "post")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.AddComment(thread.ID, "u2", "Bob", "welcome back", ""); err != nil {
		t.Fatalf("comment: %v", err)
	}
	// Commenting on your own thread stays quiet.
	if _, err := svc.AddComment(thread.ID, "u1", "Alice", "thanks", ""); err != nil {
		t.Fatalf("self comment: %v", err)
	}

	list, err := svc.notifications.List("u1", 10)
	if err != nil {
		t.Fatalf("notifications: %v", err)
	}
	if len(list) != 1 || list[0].Kind != feed.NotificationReply {
		t.Fatalf("expected one reply notification, got %d", len(list))
	}
}

func TestListTrendingDefaults(t *testing.T) {
	svc, _ := newTestEngagementService(t)

	thread, err := svc.CreateThread("u1", "Alice", "post")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.RecordView(thread.ID, "u2"); err != nil {
		t.Fatalf("view: %v", err)
	}

	trending, version, err := svc.ListTrending(0, 0)
	if err != nil {
		t.Fatalf("trending: %v", err)
	}
	if version != persistence.TrendingFormulaVersion {
		t.Fatalf("unexpected formula version %q", version)
	}
	if len(trending) != 1 || trending[0].ID != thread.ID {
		t.Fatalf("expected the viewed thread to trend, got %d results", len(trending))
	}
}
