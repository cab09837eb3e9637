// Package feed provides the repositories for stories, engagement, and notifications.
package feed

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alumnet/alumnet-go/internal/domain/entities/feed"
	"github.com/alumnet/alumnet-go/internal/infrastructure/observability/logging"
	"github.com/alumnet/alumnet-go/internal/infrastructure/security"
	"github.com/alumnet/alumnet-go/pkg/config"
)

type StoryRepository struct {
	db     *sql.DB
	logger *logging.ChanneledLogger
	clock  func() time.Time
}

func NewStoryRepository(db *sql.DB, logger *logging.ChanneledLogger) *StoryRepository {
	return &StoryRepository{
		db:     db,
		logger: logger,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// Insert persists a story. ID, CreatedAt, and ExpiresAt must already be set.
func (r *StoryRepository) Insert(story *feed.Story) error {
	var pollOptions string
	if len(story.PollOptions) > 0 {
		raw, err := json.Marshal(story.PollOptions)
		if err != nil {
			return fmt.Errorf("marshal poll options: %w", err)
		}
		pollOptions = string(raw)
	}

	query := `INSERT INTO stories (id, author_id, author_name, variant, visibility, allow_reactions, allow_replies, allow_screenshot, text_content, media_path, thumbnail_path, poll_question, poll_options, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	start := time.Now()
	_, err := r.db.Exec(query, story.ID, story.AuthorID, story.AuthorName, string(story.Variant),
		story.Visibility, story.Interactions.AllowReactions, story.Interactions.AllowReplies, story.Interactions.AllowScreenshot,
		story.TextContent, story.MediaPath, story.ThumbnailPath, story.PollQuestion, pollOptions,
		story.CreatedAt, story.ExpiresAt)
	if err != nil {
		r.logger.Database().Error("Story insert failed", "error", err.Error(), "id", story.ID)
		return err
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return nil
}

// FindActiveByID returns a story only while it has not logically expired.
// An expired-but-unswept story behaves exactly like a missing one.
func (r *StoryRepository) FindActiveByID(id string) (*feed.Story, error) {
	query := `SELECT id, author_id, author_name, variant, visibility, allow_reactions, allow_replies, allow_screenshot, text_content, media_path, thumbnail_path, poll_question, poll_options, created_at, expires_at,
		(SELECT COUNT(*) FROM story_views WHERE story_id = stories.id),
		(SELECT COUNT(*) FROM story_likes WHERE story_id = stories.id)
		FROM stories WHERE id = ? AND expires_at > ?`

	row := r.db.QueryRow(query, id, r.clock())
	story, err := r.scanStory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return story, nil
}

// ListActive returns all unexpired stories, newest first.
func (r *StoryRepository) ListActive() ([]*feed.Story, error) {
	query := `SELECT id, author_id, author_name, variant, visibility, allow_reactions, allow_replies, allow_screenshot, text_content, media_path, thumbnail_path, poll_question, poll_options, created_at, expires_at,
		(SELECT COUNT(*) FROM story_views WHERE story_id = stories.id),
		(SELECT COUNT(*) FROM story_likes WHERE story_id = stories.id)
		FROM stories WHERE expires_at > ? ORDER BY created_at DESC`

	start := time.Now()
	rows, err := r.db.Query(query, r.clock())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stories []*feed.Story
	for rows.Next() {
		story, err := r.scanStory(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, story)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return stories, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *StoryRepository) scanStory(row rowScanner) (*feed.Story, error) {
	var story feed.Story
	var variant string
	var textContent, mediaPath, thumbnailPath, pollQuestion, pollOptions sql.NullString

	err := row.Scan(&story.ID, &story.AuthorID, &story.AuthorName, &variant, &story.Visibility,
		&story.Interactions.AllowReactions, &story.Interactions.AllowReplies, &story.Interactions.AllowScreenshot,
		&textContent, &mediaPath, &thumbnailPath, &pollQuestion, &pollOptions,
		&story.CreatedAt, &story.ExpiresAt, &story.ViewCount, &story.LikeCount)
	if err != nil {
		return nil, err
	}

	story.Variant = feed.StoryVariant(variant)
	story.TextContent = textContent.String
	story.MediaPath = mediaPath.String
	story.ThumbnailPath = thumbnailPath.String
	story.PollQuestion = pollQuestion.String
	if pollOptions.String != "" {
		if err := json.Unmarshal([]byte(pollOptions.String), &story.PollOptions); err != nil {
			return nil, fmt.Errorf("unmarshal poll options for %s: %w", story.ID, err)
		}
	}
	return &story, nil
}

// Delete removes a story and returns its media paths for blob cleanup.
// Returns found=false when the story does not exist.
func (r *StoryRepository) Delete(id string) (mediaPaths []string, found bool, err error) {
	var mediaPath, thumbnailPath sql.NullString
	err = r.db.QueryRow(`SELECT media_path, thumbnail_path FROM stories WHERE id = ?`, id).Scan(&mediaPath, &thumbnailPath)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if _, err := r.db.Exec(`DELETE FROM stories WHERE id = ?`, id); err != nil {
		return nil, false, err
	}

	for _, p := range []string{mediaPath.String, thumbnailPath.String} {
		if p != "" {
			mediaPaths = append(mediaPaths, p)
		}
	}
	return mediaPaths, true, nil
}

// AuthorOf returns the author of a story regardless of expiry, or "" when
// the story does not exist.
func (r *StoryRepository) AuthorOf(id string) (string, error) {
	var authorID string
	err := r.db.QueryRow(`SELECT author_id FROM stories WHERE id = ?`, id).Scan(&authorID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return authorID, nil
}

// SweepExpired removes every story whose expiry has passed and returns the
// ids and media paths of the removed rows. Running it twice removes
// nothing new.
func (r *StoryRepository) SweepExpired() (removed int, ids, mediaPaths []string, err error) {
	now := r.clock()

	rows, err := r.db.Query(`SELECT id, media_path, thumbnail_path FROM stories WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, nil, nil, err
	}
	for rows.Next() {
		var id string
		var mediaPath, thumbnailPath sql.NullString
		if err := rows.Scan(&id, &mediaPath, &thumbnailPath); err != nil {
			rows.Close()
			return 0, nil, nil, err
		}
		ids = append(ids, id)
		for _, p := range []string{mediaPath.String, thumbnailPath.String} {
			if p != "" {
				mediaPaths = append(mediaPaths, p)
			}
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, nil, nil, err
	}
	rows.Close()

	result, err := r.db.Exec(`DELETE FROM stories WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, nil, nil, err
	}
	affected, _ := result.RowsAffected()
	return int(affected), ids, mediaPaths, nil
}

// RecordView marks a story as seen by a viewer. The first view per viewer
// counts; repeats leave the count unchanged. Returns the current view count.
func (r *StoryRepository) RecordView(storyID, viewerID, viewerName string) (int, error) {
	_, err := r.db.Exec(`INSERT INTO story_views (id, story_id, viewer_id, viewer_name, viewed_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(story_id, viewer_id) DO NOTHING`,
		security.GenerateULID(), storyID, viewerID, viewerName, r.clock())
	if err != nil {
		return 0, err
	}

	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM story_views WHERE story_id = ?`, storyID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Viewers lists who has seen a story, most recent first.
func (r *StoryRepository) Viewers(storyID string) ([]feed.StoryViewer, error) {
	rows, err := r.db.Query(`SELECT viewer_id, viewer_name, viewed_at FROM story_views WHERE story_id = ? ORDER BY viewed_at DESC`, storyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var viewers []feed.StoryViewer
	for rows.Next() {
		var v feed.StoryViewer
		if err := rows.Scan(&v.ViewerID, &v.ViewerName, &v.ViewedAt); err != nil {
			return nil, err
		}
		viewers = append(viewers, v)
	}
	return viewers, rows.Err()
}

// ToggleLike flips a user's like on a story. Returns whether the like is
// now present and the updated like count.
func (r *StoryRepository) ToggleLike(storyID, userID string) (liked bool, likes int, err error) {
	result, err := r.db.Exec(`DELETE FROM story_likes WHERE story_id = ? AND user_id = ?`, storyID, userID)
	if err != nil {
		return false, 0, err
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		_, err = r.db.Exec(`INSERT INTO story_likes (id, story_id, user_id, created_at) VALUES (?, ?, ?, ?)`,
			security.GenerateULID(), storyID, userID, r.clock())
		if err != nil {
			return false, 0, err
		}
		liked = true
	}

	if err := r.db.QueryRow(`SELECT COUNT(*) FROM story_likes WHERE story_id = ?`, storyID).Scan(&likes); err != nil {
		return false, 0, err
	}
	return liked, likes, nil
}

// AddReply persists a direct reply to a story.
func (r *StoryRepository) AddReply(storyID, authorID, authorName, body string) (*feed.StoryReply, error) {
	reply := &feed.StoryReply{
		ID:         security.GenerateULID(),
		StoryID:    storyID,
		AuthorID:   authorID,
		AuthorName: authorName,
		Body:       body,
		CreatedAt:  r.clock(),
	}
	_, err := r.db.Exec(`INSERT INTO story_replies (id, story_id, author_id, author_name, body, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		reply.ID, reply.StoryID, reply.AuthorID, reply.AuthorName, reply.Body, reply.CreatedAt)
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// AddPollVote records a user's vote. A second vote from the same user
// replaces the first. Returns the per-option tallies.
func (r *StoryRepository) AddPollVote(storyID, userID string, optionIndex int) (map[int]int, error) {
	_, err := r.db.Exec(`INSERT INTO story_poll_votes (id, story_id, user_id, option_index, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(story_id, user_id) DO UPDATE SET option_index = excluded.option_index, created_at = excluded.created_at`,
		security.GenerateULID(), storyID, userID, optionIndex, r.clock())
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(`SELECT option_index, COUNT(*) FROM story_poll_votes WHERE story_id = ? GROUP BY option_index`, storyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tallies := make(map[int]int)
	for rows.Next() {
		var idx, count int
		if err := rows.Scan(&idx, &count); err != nil {
			return nil, err
		}
		tallies[idx] = count
	}
	return tallies, rows.Err()
}

// AddMentions records users tagged in a story.
func (r *StoryRepository) AddMentions(storyID string, userIDs []string) error {
	for _, userID := range userIDs {
		_, err := r.db.Exec(`INSERT INTO story_mentions (id, story_id, user_id) VALUES (?, ?, ?)
			ON CONFLICT(story_id, user_id) DO NOTHING`,
			security.GenerateULID(), storyID, userID)
		if err != nil {
			return err
		}
	}
	return nil
}
