package feed

import (
	"testing"
	"time"

	"github.com/alumnet/alumnet-go/internal/domain/entities/feed"
	"github.com/alumnet/alumnet-go/internal/infrastructure/security"
)

func newTestStoryRepo(t *testing.T) (*StoryRepository, func(time.Duration)) {
	t.Helper()

	repo := NewStoryRepository(newTestDB(t), newTestLogger(t))
	clock, advance := fixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	repo.clock = clock
	return repo, advance
}

func insertStory(t *testing.T, repo *StoryRepository, ttl time.Duration, mediaPath, thumbPath string) *feed.Story {
	t.Helper()

	now := repo.clock()
	story := &feed.Story{
		ID:            security.GenerateULID(),
		AuthorID:      "u1",
		AuthorName:    "Alice",
		Variant:       feed.StoryText,
		Visibility:    feed.VisibilityEveryone,
		Interactions:  feed.DefaultInteractionFlags(),
		TextContent:   "hello",
		MediaPath:     mediaPath,
		ThumbnailPath: thumbPath,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	}
	if err := repo.Insert(story); err != nil {
		t.Fatalf("insert story: %v", err)
	}
	return story
}

func TestExpiredStoryBehavesLikeMissing(t *testing.T) {
	repo, advance := newTestStoryRepo(t)
	story := insertStory(t, repo, 24*time.Hour, "", "")

	found, err := repo.FindActiveByID(story.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found == nil {
		t.Fatal("expected active story to be found")
	}

	advance(25 * time.Hour)

	found, err = repo.FindActiveByID(story.ID)
	if err != nil {
		t.Fatalf("find after expiry: %v", err)
	}
	if found != nil {
		t.Fatal("expected expired story to read as missing before sweep")
	}

	active, err := repo.ListActive()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 0 {
		t.Fatalf("expected no active stories, got %d", len(active))
	}
}

func TestSweepExpiredIsIdempotent(t *testing.T) {
	repo, advance := newTestStoryRepo(t)
	expired := insertStory(t, repo, time.Hour, "stories/a.jpg", "stories/a_thumb.webp")
	alive := insertStory(t, repo, 48*time.Hour, "", "")

	advance(2 * time.Hour)

	removed, ids, paths, err := repo.SweepExpired()
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if len(ids) != 1 || ids[0] != expired.ID {
		t.Fatalf("expected swept story id returned, got %v", ids)
	}
	if len(paths) != 2 {
		t.Fatalf("expected both media paths returned, got %v", paths)
	}

	removed, ids, paths, err = repo.SweepExpired()
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if removed != 0 || len(ids) != 0 || len(paths) != 0 {
		t.Fatalf("expected second sweep to remove nothing, got %d removed, ids %v, paths %v", removed, ids, paths)
	}

	if author, err := repo.AuthorOf(expired.ID); err != nil || author != "" {
		t.Fatalf("expected swept story gone, author=%q err=%v", author, err)
	}
	if found, err := repo.FindActiveByID(alive.ID); err != nil || found == nil {
		t.Fatalf("expected unexpired story to survive sweep, found=%v err=%v", found, err)
	}
}

func TestRecordViewCountsEachViewerOnce(t *testing.T) {
	repo, _ := newTestStoryRepo(t)
	story := insertStory(t, repo, 24*time.Hour, "", "")

	count, err := repo.RecordView(story.ID, "u2", "Bob")
	if err != nil {
		t.Fatalf("record view: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 view, got %d", count)
	}

	count, err = repo.RecordView(story.ID, "u2", "Bob")
	if err != nil {
		t.Fatalf("repeat view: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected repeat view to leave count at 1, got %d", count)
	}

	count, err = repo.RecordView(story.ID, "u3", "Carol")
	if err != nil {
		t.Fatalf("second viewer: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 views, got %d", count)
	}

	viewers, err := repo.Viewers(story.ID)
	if err != nil {
		t.Fatalf("viewers: %v", err)
	}
	if len(viewers) != 2 {
		t.Fatalf("expected 2 viewers, got %d", len(viewers))
	}
}

func TestToggleLikeIsSymmetric(t *testing.T) {
	repo, _ := newTestStoryRepo(t)
	story := insertStory(t, repo, 24*time.Hour, "", "")

	liked, likes, err := repo.ToggleLike(story.ID, "u2")
	if err != nil {
		t.Fatalf("toggle on: %v", err)
	}
	if !liked || likes != 1 {
		t.Fatalf("expected liked=true likes=1, got %v %d", liked, likes)
	}

	liked, likes, err = repo.ToggleLike(story.ID, "u2")
	if err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	if liked || likes != 0 {
		t.Fatalf("expected liked=false likes=0, got %v %d", liked, likes)
	}
}

func TestPollVoteReplacesEarlierVote(t *testing.T) {
	repo, _ := newTestStoryRepo(t)
	story := insertStory(t, repo, 24*time.Hour, "", "")

	if _, err := repo.AddPollVote(story.ID, "u2", 0); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	tallies, err := repo.AddPollVote(story.ID, "u2", 1)
	if err != nil {
		t.Fatalf("revote: %v", err)
	}
	if tallies[0] != 0 || tallies[1] != 1 {
		t.Fatalf("expected revote to replace earlier vote, got %v", tallies)
	}
}

func TestDeleteCascadesChildRows(t *testing.T) {
	repo, _ := newTestStoryRepo(t)
	story := insertStory(t, repo, 24*time.Hour, "stories/b.jpg", "stories/b_thumb.webp")

	if _, err := repo.RecordView(story.ID, "u2", "Bob"); err != nil {
		t.Fatalf("record view: %v", err)
	}
	if _, _, err := repo.ToggleLike(story.ID, "u2"); err != nil {
		t.Fatalf("like: %v", err)
	}
	if _, err := repo.AddReply(story.ID, "u2", "Bob", "nice"); err != nil {
		t.Fatalf("reply: %v", err)
	}

	paths, found, err := repo.Delete(story.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !found {
		t.Fatal("expected story to be found")
	}
	if len(paths) != 2 {
		t.Fatalf("expected media paths for blob cleanup, got %v", paths)
	}

	var orphans int
	if err := repo.db.QueryRow(`SELECT COUNT(*) FROM story_views WHERE story_id = ?`, story.ID).Scan(&orphans); err != nil {
		t.Fatalf("count views: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("expected views cascade-deleted, got %d", orphans)
	}

	_, found, err = repo.Delete(story.ID)
	if err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	if found {
		t.Fatal("expected second delete to report missing")
	}
}
