package feed

import (
	"database/sql"
	"time"

	"github.com/alumnet/alumnet-go/internal/domain/entities/feed"
	"github.com/alumnet/alumnet-go/internal/infrastructure/observability/logging"
	"github.com/alumnet/alumnet-go/internal/infrastructure/security"
)

type ThreadRepository struct {
	db     *sql.DB
	logger *logging.ChanneledLogger
	clock  func() time.Time
}

func NewThreadRepository(db *sql.DB, logger *logging.ChanneledLogger) *ThreadRepository {
	return &ThreadRepository{
		db:     db,
		logger: logger,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// Insert persists a new thread and seeds its engagement counters row.
func (r *ThreadRepository) Insert(authorID, authorName, body string) (*feed.Thread, error) {
	thread := &feed.Thread{
		ID:         security.GenerateULID(),
		AuthorID:   authorID,
		AuthorName: authorName,
		Body:       body,
		CreatedAt:  r.clock(),
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO threads (id, author_id, author_name, body, created_at) VALUES (?, ?, ?, ?, ?)`,
		thread.ID, thread.AuthorID, thread.AuthorName, thread.Body, thread.CreatedAt)
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(`INSERT INTO thread_engagement (thread_id, updated_at) VALUES (?, ?)`, thread.ID, thread.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return thread, nil
}

func (r *ThreadRepository) FindByID(id string) (*feed.Thread, error) {
	var thread feed.Thread
	err := r.db.QueryRow(`SELECT id, author_id, author_name, body, created_at FROM threads WHERE id = ?`, id).
		Scan(&thread.ID, &thread.AuthorID, &thread.AuthorName, &thread.Body, &thread.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &thread, nil
}

// ListRecent returns the newest threads up to limit.
func (r *ThreadRepository) ListRecent(limit int) ([]*feed.Thread, error) {
	rows, err := r.db.Query(`SELECT id, author_id, author_name, body, created_at FROM threads ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var threads []*feed.Thread
	for rows.Next() {
		var t feed.Thread
		if err := rows.Scan(&t.ID, &t.AuthorID, &t.AuthorName, &t.Body, &t.CreatedAt); err != nil {
			return nil, err
		}
		threads = append(threads, &t)
	}
	return threads, rows.Err()
}
