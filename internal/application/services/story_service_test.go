package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/alumnet/alumnet-go/internal/domain/entities/feed"
	"github.com/alumnet/alumnet-go/internal/domain/events"
	"github.com/alumnet/alumnet-go/internal/infrastructure/database"
	"github.com/alumnet/alumnet-go/internal/infrastructure/media"
	"github.com/alumnet/alumnet-go/internal/infrastructure/observability/logging"
	persistence "github.com/alumnet/alumnet-go/internal/infrastructure/persistence/feed"
	"github.com/alumnet/alumnet-go/internal/infrastructure/realtime"
)

func newTestStoryService(t *testing.T) (*StoryService, *realtime.RoomRouter) {
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
	mediaStore := media.NewStore(t.TempDir())

	return NewStoryService(persistence.NewStoryRepository(db, logger), notifications, mediaStore, dispatcher, logger), router
}

func TestCreateRejectsInvalidSpecs(t *testing.T) {
	svc, _ := newTestStoryService(t)

	cases := []struct {
		name string
		spec *feed.StorySpec
	}{
		{"empty text", &feed.StorySpec{Variant: feed.StoryText, TextContent: "   "}},
		{"photo without media", &feed.StorySpec{Variant: feed.StoryPhoto}},
		{"poll without question", &feed.StorySpec{Variant: feed.StoryPoll, PollOptions: []string{"a", "b"}}},
		{"poll with one option", &feed.StorySpec{Variant: feed.StoryPoll, PollQuestion: "best campus?", PollOptions: []string{"a"}}},
		{"poll with blank option", &feed.StorySpec{Variant: feed.StoryPoll, PollQuestion: "best campus?", PollOptions: []string{"a", " "}}},
		{"unknown variant", &feed.StorySpec{Variant: "hologram"}},
	}

	for _, tc := range cases {
		if _, err := svc.Create("u1", "Alice", tc.spec); !errors.Is(err, ErrInvalidContent) {
			t.Fatalf("%s: expected invalid content error, got %v", tc.name, err)
		}
	}

	// A caption alone satisfies the photo/video variant.
	story, err := svc.Create("u1", "Alice", &feed.StorySpec{Variant: feed.StoryPhoto, TextContent: "throwback"})
	if err != nil {
		t.Fatalf("caption-only photo: %v", err)
	}
	if story.MediaPath != "" {
		t.Fatalf("expected no media path, got %q", story.MediaPath)
	}
}

func TestCreateClampsDuration(t *testing.T) {
	svc, _ := newTestStoryService(t)

	story, err := svc.Create("u1", "Alice", &feed.StorySpec{Variant: feed.StoryText, TextContent: "hi"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := story.ExpiresAt.Sub(story.CreatedAt); got != 24*time.Hour {
		t.Fatalf("expected default 24h lifetime, got %v", got)
	}

	story, err = svc.Create("u1", "Alice", &feed.StorySpec{Variant: feed.StoryText, TextContent: "hi", DurationHours: 500})
	if err != nil {
		t.Fatalf("create long: %v", err)
	}
	if got := story.ExpiresAt.Sub(story.CreatedAt); got != 48*time.Hour {
		t.Fatalf("expected lifetime clamped to 48h, got %v", got)
	}
}

func TestGetMissingStory(t *testing.T) {
	svc, _ := newTestStoryService(t)

	if _, err := svc.Get("nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestViewersAuthorOnly(t *testing.T) {
	svc, _ := newTestStoryService(t)

	story, err := svc.Create("u1", "Alice", &feed.StorySpec{Variant: feed.StoryText, TextContent: "hi"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.View(story.ID, "u2", "Bob"); err != nil {
		t.Fatalf("view: %v", err)
	}

	if _, err := svc.Viewers(story.ID, "u2"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized for non-author, got %v", err)
	}
	viewers, err := svc.Viewers(story.ID, "u1")
	if err != nil {
		t.Fatalf("author viewers: %v", err)
	}
	if len(viewers) != 1 || viewers[0].ViewerID != "u2" {
		t.Fatalf("unexpected viewers %+v", viewers)
	}
}

func TestDeleteOwnerOnly(t *testing.T) {
	svc, _ := newTestStoryService(t)

	story, err := svc.Create("u1", "Alice", &feed.StorySpec{Variant: feed.StoryText, TextContent: "hi"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(story.ID, "u2"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized for non-author, got %v", err)
	}
	if err := svc.Delete(story.ID, "u1"); err != nil {
		t.Fatalf("author delete: %v", err)
	}
	if err := svc.Delete(story.ID, "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestVoteValidation(t *testing.T) {
	svc, _ := newTestStoryService(t)

	text, err := svc.Create("u1", "Alice", &feed.StorySpec{Variant: feed.StoryText, TextContent: "hi"})
	if err != nil {
		t.Fatalf("create text: %v", err)
	}
	if _, err := svc.Vote(text.ID, "u2", 0); !errors.Is(err, ErrInvalidContent) {
		t.Fatalf("expected vote on non-poll rejected, got %v", err)
	}

	poll, err := svc.Create("u1", "Alice", &feed.StorySpec{
		Variant:      feed.StoryPoll,
		PollQuestion: "homecoming theme?",
		PollOptions:  []string{"retro", "formal"},
	})
	if err != nil {
		t.Fatalf("create poll: %v", err)
	}
	if _, err := svc.Vote(poll.ID, "u2", 5); !errors.Is(err, ErrInvalidContent) {
		t.Fatalf("expected out-of-range index rejected, got %v", err)
	}

	tallies, err := svc.Vote(poll.ID, "u2", 1)
	if err != nil {
		t.Fatalf("vote: %v", err)
	}
	if tallies[1] != 1 {
		t.Fatalf("expected one vote for option 1, got %v", tallies)
	}
}

func TestReplyNotifiesAuthor(t *testing.T) {
	svc, _ := newTestStoryService(t)

	story, err := svc.Create("u1", "Alice", &feed.StorySpec{Variant: feed.StoryText, TextContent: "hi"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Reply(story.ID, "u2", "Bob", "  "); !errors.Is(err, ErrInvalidContent) {
		t.Fatalf("expected blank reply rejected, got %v", err)
	}

	reply, err := svc.Reply(story.ID, "u2", "Bob", "great news")
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	if reply.AuthorID != "u2" || reply.Body != "great news" {
		t.Fatalf("unexpected reply %+v", reply)
	}

	// The author was notified; replying to yourself must not be.
	if _, err := svc.Reply(story.ID, "u1", "Alice", "thanks"); err != nil {
		t.Fatalf("self reply: %v", err)
	}
	list, err := svc.notifications.List("u1", 10)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(list) != 1 || list[0].Kind != feed.NotificationReply {
		t.Fatalf("expected exactly one reply notification, got %d", len(list))
	}
}

func TestInteractionFlagsEnforced(t *testing.T) {
	svc, _ := newTestStoryService(t)

	locked := &feed.InteractionFlags{AllowReactions: false, AllowReplies: false, AllowScreenshot: true}
	story, err := svc.Create("u1", "Alice", &feed.StorySpec{
		Variant:      feed.StoryText,
		TextContent:  "no comments please",
		Interactions: locked,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, _, err := svc.ToggleLike(story.ID, "u2"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected reactions blocked, got %v", err)
	}
	if _, err := svc.Reply(story.ID, "u2", "Bob", "but why"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected replies blocked, got %v", err)
	}

	// Defaults permit everything and echo the visibility scope.
	open, err := svc.Create("u1", "Alice", &feed.StorySpec{Variant: feed.StoryText, TextContent: "hi"})
	if err != nil {
		t.Fatalf("create open: %v", err)
	}
	if open.Visibility != feed.VisibilityEveryone || !open.Interactions.AllowReplies {
		t.Fatalf("unexpected defaults %+v", open)
	}

	if _, err := svc.Create("u1", "Alice", &feed.StorySpec{Variant: feed.StoryText, TextContent: "hi", Visibility: "martians"}); !errors.Is(err, ErrInvalidContent) {
		t.Fatalf("expected unknown visibility rejected, got %v", err)
	}
}

func TestDeleteExpiredStoryLooksMissingToOthers(t *testing.T) {
	svc, _ := newTestStoryService(t)

	// Backdate creation so the story is expired but not yet swept.
	svc.clock = func() time.Time { return time.Now().UTC().Add(-72 * time.Hour) }
	story, err := svc.Create("u1", "Alice", &feed.StorySpec{Variant: feed.StoryText, TextContent: "old news"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Get(story.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired story to read as missing, got %v", err)
	}
	if err := svc.Delete(story.ID, "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for non-author delete, got %v", err)
	}
	// The author may still clean up an expired story.
	if err := svc.Delete(story.ID, "u1"); err != nil {
		t.Fatalf("author delete: %v", err)
	}
}

func TestDeleteBroadcastsStoryExpired(t *testing.T) {
	svc, router := newTestStoryService(t)

	watcher := router.Register("c1", "u9", "Watcher")
	story, err := svc.Create("u1", "Alice", &feed.StorySpec{Variant: feed.StoryText, TextContent: "going soon"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	receivedEvents(t, watcher) // discard creation-time traffic

	if err := svc.Delete(story.ID, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	frames := receivedEvents(t, watcher)
	if len(frames) != 1 || frames[0].Event != events.StoryExpired {
		t.Fatalf("expected one expiry broadcast, got %+v", frames)
	}
	var p events.StoryExpiredPayload
	if err := json.Unmarshal(frames[0].Data, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.StoryID != story.ID {
		t.Fatalf("expected %s, got %s", story.ID, p.StoryID)
	}
}

func TestSweepBroadcastsStoryExpired(t *testing.T) {
	svc, router := newTestStoryService(t)

	svc.clock = func() time.Time { return time.Now().UTC().Add(-72 * time.Hour) }
	story, err := svc.Create("u1", "Alice", &feed.StorySpec{Variant: feed.StoryText, TextContent: "stale"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	watcher := router.Register("c1", "u9", "Watcher")
	removed, err := svc.SweepExpired()
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected one story swept, got %d", removed)
	}

	frames := receivedEvents(t, watcher)
	if len(frames) != 1 || frames[0].Event != events.StoryExpired {
		t.Fatalf("expected one expiry broadcast, got %+v", frames)
	}
	var p events.StoryExpiredPayload
	if err := json.Unmarshal(frames[0].Data, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.StoryID != story.ID {
		t.Fatalf("expected %s, got %s", story.ID, p.StoryID)
	}
}

func TestSweepExpiredEmptyStore(t *testing.T) {
	svc, _ := newTestStoryService(t)

	removed, err := svc.SweepExpired()
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected nothing to sweep, got %d", removed)
	}
}
