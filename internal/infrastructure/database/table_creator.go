// Package database provides schema instantiation
package database

import (
	"database/sql"
	"fmt"
)

// TableCreator handles creation of the database schema.
type TableCreator struct{}

// NewTableCreator creates a new TableCreator.
func NewTableCreator() *TableCreator {
	return &TableCreator{}
}

// CreateSchema executes all necessary queries to build the tables and indexes.
func (tc *TableCreator) CreateSchema(db *sql.DB) error {
	for _, tableSQL := range tables {
		if _, err := db.Exec(tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}
	return nil
}

var tables = []string{
	`CREATE TABLE IF NOT EXISTS threads (id TEXT PRIMARY KEY, author_id TEXT NOT NULL, author_name TEXT NOT NULL, body TEXT NOT NULL, created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS thread_views (id TEXT PRIMARY KEY, thread_id TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE, user_id TEXT NOT NULL, viewed_at TIMESTAMP NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS thread_reactions (id TEXT PRIMARY KEY, thread_id TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE, user_id TEXT NOT NULL, reaction TEXT NOT NULL, created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, UNIQUE(thread_id, user_id, reaction))`,
	`CREATE TABLE IF NOT EXISTS thread_comments (id TEXT PRIMARY KEY, thread_id TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE, author_id TEXT NOT NULL, author_name TEXT NOT NULL, body TEXT NOT NULL, created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS thread_shares (id TEXT PRIMARY KEY, thread_id TEXT NOT NULL REFERENCES threads(id) ON DELETE CASCADE, user_id TEXT NOT NULL, created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP, UNIQUE(thread_id, user_id))`,
	`CREATE TABLE IF NOT EXISTS thread_engagement (thread_id TEXT PRIMARY KEY REFERENCES threads(id) ON DELETE CASCADE, views INTEGER NOT NULL DEFAULT 0, likes INTEGER NOT NULL DEFAULT 0, comments INTEGER NOT NULL DEFAULT 0, shares INTEGER NOT NULL DEFAULT 0, updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP)`,
	`CREATE TABLE IF NOT EXISTS stories (id TEXT PRIMARY KEY, author_id TEXT NOT NULL, author_name TEXT NOT NULL, variant TEXT NOT NULL, visibility TEXT NOT NULL DEFAULT 'everyone', allow_reactions INTEGER NOT NULL DEFAULT 1, allow_replies INTEGER NOT NULL DEFAULT 1, allow_screenshot INTEGER NOT NULL DEFAULT 1, text_content TEXT, media_path TEXT, thumbnail_path TEXT, poll_question TEXT, poll_options TEXT, created_at TIMESTAMP NOT NULL, expires_at TIMESTAMP NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS story_views (id TEXT PRIMARY KEY, story_id TEXT NOT NULL REFERENCES stories(id) ON DELETE CASCADE, viewer_id TEXT NOT NULL, viewer_name TEXT NOT NULL, viewed_at TIMESTAMP NOT NULL, UNIQUE(story_id, viewer_id))`,
	`CREATE TABLE IF NOT EXISTS story_likes (id TEXT PRIMARY KEY, story_id TEXT NOT NULL REFERENCES stories(id) ON DELETE CASCADE, user_id TEXT NOT NULL, created_at TIMESTAMP NOT NULL, UNIQUE(story_id, user_id))`,
	`CREATE TABLE IF NOT EXISTS story_replies (id TEXT PRIMARY KEY, story_id TEXT NOT NULL REFERENCES stories(id) ON DELETE CASCADE, author_id TEXT NOT NULL, author_name TEXT NOT NULL, body TEXT NOT NULL, created_at TIMESTAMP NOT NULL)`,
	`CREATE TABLE IF NOT EXISTS story_poll_votes (id TEXT PRIMARY KEY, story_id TEXT NOT NULL REFERENCES stories(id) ON DELETE CASCADE, user_id TEXT NOT NULL, option_index INTEGER NOT NULL, created_at TIMESTAMP NOT NULL, UNIQUE(story_id, user_id))`,
	`CREATE TABLE IF NOT EXISTS story_mentions (id TEXT PRIMARY KEY, story_id TEXT NOT NULL REFERENCES stories(id) ON DELETE CASCADE, user_id TEXT NOT NULL, UNIQUE(story_id, user_id))`,
	`CREATE TABLE IF NOT EXISTS notifications (id TEXT PRIMARY KEY, user_id TEXT NOT NULL, kind TEXT NOT NULL, actor_id TEXT, actor_name TEXT, subject_id TEXT, body TEXT NOT NULL, read INTEGER NOT NULL DEFAULT 0, created_at TIMESTAMP NOT NULL)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_thread_views_thread_user ON thread_views(thread_id, user_id, viewed_at)`,
	`CREATE INDEX IF NOT EXISTS idx_thread_reactions_thread ON thread_reactions(thread_id)`,
	`CREATE INDEX IF NOT EXISTS idx_thread_comments_thread ON thread_comments(thread_id)`,
	`CREATE INDEX IF NOT EXISTS idx_thread_engagement_updated ON thread_engagement(updated_at)`,
	`CREATE INDEX IF NOT EXISTS idx_stories_expires ON stories(expires_at)`,
	`CREATE INDEX IF NOT EXISTS idx_stories_author ON stories(author_id)`,
	`CREATE INDEX IF NOT EXISTS idx_story_views_story ON story_views(story_id)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, read)`,
}
