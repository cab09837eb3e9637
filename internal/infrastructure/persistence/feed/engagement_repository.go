package feed

import (
	"database/sql"
	"time"

	"github.com/alumnet/alumnet-go/internal/domain/entities/feed"
	"github.com/alumnet/alumnet-go/internal/infrastructure/observability/logging"
	"github.com/alumnet/alumnet-go/internal/infrastructure/security"
	"github.com/alumnet/alumnet-go/pkg/config"
)

// Trending score weights, formula version v1.
const (
	weightView    = 1
	weightLike    = 3
	weightComment = 4
	weightShare   = 5
)

// TrendingFormulaVersion tags responses so clients can detect reranks.
const TrendingFormulaVersion = "v1"

type EngagementRepository struct {
	db          *sql.DB
	logger      *logging.ChanneledLogger
	clock       func() time.Time
	dedupWindow time.Duration
}

func NewEngagementRepository(db *sql.DB, logger *logging.ChanneledLogger) *EngagementRepository {
	return &EngagementRepository{
		db:          db,
		logger:      logger,
		clock:       func() time.Time { return time.Now().UTC() },
		dedupWindow: config.ViewDedupWindow,
	}
}

// RecordView counts a view unless the same user viewed the thread within
// the dedup window. Returns whether it counted and the updated total.
func (r *EngagementRepository) RecordView(threadID, userID string) (*feed.ViewResult, error) {
	now := r.clock()

	var lastViewed time.Time
	var hasPrior bool
	err := r.db.QueryRow(`SELECT viewed_at FROM thread_views WHERE thread_id = ? AND user_id = ? ORDER BY viewed_at DESC LIMIT 1`,
		threadID, userID).Scan(&lastViewed)
	switch err {
	case nil:
		hasPrior = true
	case sql.ErrNoRows:
	default:
		return nil, err
	}

	if hasPrior && now.Sub(lastViewed) < r.dedupWindow {
		counters, err := r.GetCounters(threadID)
		if err != nil {
			return nil, err
		}
		return &feed.ViewResult{ThreadID: threadID, Counted: false, Views: counters.Views}, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO thread_views (id, thread_id, user_id, viewed_at) VALUES (?, ?, ?, ?)`,
		security.GenerateULID(), threadID, userID, now)
	if err != nil {
		return nil, err
	}

	var views int
	err = tx.QueryRow(`UPDATE thread_engagement SET views = views + 1, updated_at = ? WHERE thread_id = ? RETURNING views`,
		now, threadID).Scan(&views)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &feed.ViewResult{ThreadID: threadID, Counted: true, Views: views}, nil
}

// AddReaction records a reaction and bumps the like counter. Adding the
// same reaction twice is a no-op.
func (r *EngagementRepository) AddReaction(threadID, userID, reaction string) (*feed.ReactionResult, error) {
	now := r.clock()

	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`INSERT INTO thread_reactions (id, thread_id, user_id, reaction, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(thread_id, user_id, reaction) DO NOTHING`,
		security.GenerateULID(), threadID, userID, reaction, now)
	if err != nil {
		return nil, err
	}
	inserted, _ := result.RowsAffected()

	var likes int
	if inserted > 0 {
		err = tx.QueryRow(`UPDATE thread_engagement SET likes = likes + 1, updated_at = ? WHERE thread_id = ? RETURNING likes`,
			now, threadID).Scan(&likes)
	} else {
		err = tx.QueryRow(`SELECT likes FROM thread_engagement WHERE thread_id = ?`, threadID).Scan(&likes)
	}
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &feed.ReactionResult{ThreadID: threadID, Reaction: reaction, Added: inserted > 0, Likes: likes}, nil
}

// RemoveReaction deletes a reaction and decrements the like counter.
// Removing a reaction that was never added is a no-op.
func (r *EngagementRepository) RemoveReaction(threadID, userID, reaction string) (*feed.ReactionResult, error) {
	now := r.clock()

	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`DELETE FROM thread_reactions WHERE thread_id = ? AND user_id = ? AND reaction = ?`,
		threadID, userID, reaction)
	if err != nil {
		return nil, err
	}
	deleted, _ := result.RowsAffected()

	var likes int
	if deleted > 0 {
		err = tx.QueryRow(`UPDATE thread_engagement SET likes = MAX(likes - 1, 0), updated_at = ? WHERE thread_id = ? RETURNING likes`,
			now, threadID).Scan(&likes)
	} else {
		err = tx.QueryRow(`SELECT likes FROM thread_engagement WHERE thread_id = ?`, threadID).Scan(&likes)
	}
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &feed.ReactionResult{ThreadID: threadID, Reaction: reaction, Added: false, Likes: likes}, nil
}

// ReactionCounts returns per-reaction tallies and the grand total.
func (r *EngagementRepository) ReactionCounts(threadID string) (map[string]int, int, error) {
	rows, err := r.db.Query(`SELECT reaction, COUNT(*) FROM thread_reactions WHERE thread_id = ? GROUP BY reaction`, threadID)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	total := 0
	for rows.Next() {
		var reaction string
		var count int
		if err := rows.Scan(&reaction, &count); err != nil {
			return nil, 0, err
		}
		counts[reaction] = count
		total += count
	}
	return counts, total, rows.Err()
}

// AddComment persists a comment and bumps the comment counter.
func (r *EngagementRepository) AddComment(threadID, authorID, authorName, body string) (*feed.Comment, error) {
	now := r.clock()
	comment := &feed.Comment{
		ID:         security.GenerateULID(),
		ThreadID:   threadID,
		AuthorID:   authorID,
		AuthorName: authorName,
		Body:       body,
		CreatedAt:  now,
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO thread_comments (id, thread_id, author_id, author_name, body, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		comment.ID, comment.ThreadID, comment.AuthorID, comment.AuthorName, comment.Body, comment.CreatedAt)
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(`UPDATE thread_engagement SET comments = comments + 1, updated_at = ? WHERE thread_id = ?`, now, threadID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return comment, nil
}

// ListComments returns a thread's comments oldest first.
func (r *EngagementRepository) ListComments(threadID string) ([]*feed.Comment, error) {
	rows, err := r.db.Query(`SELECT id, thread_id, author_id, author_name, body, created_at FROM thread_comments WHERE thread_id = ? ORDER BY created_at ASC`, threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*feed.Comment
	for rows.Next() {
		var c feed.Comment
		if err := rows.Scan(&c.ID, &c.ThreadID, &c.AuthorID, &c.AuthorName, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, &c)
	}
	return comments, rows.Err()
}

// ToggleShare flips a user's share mark and adjusts the share counter.
func (r *EngagementRepository) ToggleShare(threadID, userID string) (shared bool, shares int, err error) {
	now := r.clock()

	tx, err := r.db.Begin()
	if err != nil {
		return false, 0, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`DELETE FROM thread_shares WHERE thread_id = ? AND user_id = ?`, threadID, userID)
	if err != nil {
		return false, 0, err
	}
	deleted, _ := result.RowsAffected()

	if deleted > 0 {
		err = tx.QueryRow(`UPDATE thread_engagement SET shares = MAX(shares - 1, 0), updated_at = ? WHERE thread_id = ? RETURNING shares`,
			now, threadID).Scan(&shares)
	} else {
		_, err = tx.Exec(`INSERT INTO thread_shares (id, thread_id, user_id, created_at) VALUES (?, ?, ?, ?)`,
			security.GenerateULID(), threadID, userID, now)
		if err != nil {
			return false, 0, err
		}
		shared = true
		err = tx.QueryRow(`UPDATE thread_engagement SET shares = shares + 1, updated_at = ? WHERE thread_id = ? RETURNING shares`,
			now, threadID).Scan(&shares)
	}
	if err != nil {
		return false, 0, err
	}
	if err := tx.Commit(); err != nil {
		return false, 0, err
	}

	return shared, shares, nil
}

// GetCounters returns the denormalized engagement totals for a thread.
func (r *EngagementRepository) GetCounters(threadID string) (*feed.EngagementCounters, error) {
	var c feed.EngagementCounters
	c.ThreadID = threadID
	err := r.db.QueryRow(`SELECT views, likes, comments, shares FROM thread_engagement WHERE thread_id = ?`, threadID).
		Scan(&c.Views, &c.Likes, &c.Comments, &c.Shares)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListTrending ranks threads by weighted score over the engagement that
// happened inside the window. Counts come from the canonical per-action
// tables restricted to the window, never the all-time counters, so a
// thread with strictly more in-window engagement always ranks at least
// as high. Returned counters are the in-window counts.
func (r *EngagementRepository) ListTrending(window time.Duration, limit int) ([]*feed.TrendingThread, error) {
	since := r.clock().Add(-window)

	query := `SELECT id, author_id, author_name, body, created_at, views, likes, comments, shares,
		(views * ? + likes * ? + comments * ? + shares * ?) AS score
		FROM (
			SELECT t.id, t.author_id, t.author_name, t.body, t.created_at,
				(SELECT COUNT(*) FROM thread_views WHERE thread_id = t.id AND viewed_at >= ?) AS views,
				(SELECT COUNT(*) FROM thread_reactions WHERE thread_id = t.id AND created_at >= ?) AS likes,
				(SELECT COUNT(*) FROM thread_comments WHERE thread_id = t.id AND created_at >= ?) AS comments,
				(SELECT COUNT(*) FROM thread_shares WHERE thread_id = t.id AND created_at >= ?) AS shares
			FROM threads t
		)
		WHERE views + likes + comments + shares > 0
		ORDER BY score DESC, created_at DESC
		LIMIT ?`

	start := time.Now()
	rows, err := r.db.Query(query, weightView, weightLike, weightComment, weightShare,
		since, since, since, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trending []*feed.TrendingThread
	for rows.Next() {
		var t feed.TrendingThread
		if err := rows.Scan(&t.ID, &t.AuthorID, &t.AuthorName, &t.Body, &t.CreatedAt,
			&t.Counters.Views, &t.Counters.Likes, &t.Counters.Comments, &t.Counters.Shares, &t.Score); err != nil {
			return nil, err
		}
		t.Counters.ThreadID = t.ID
		trending = append(trending, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	duration := time.Since(start)
	if duration > config.SlowQueryThreshold {
		r.logger.LogSlowQuery(query, duration)
	}
	return trending, nil
}
