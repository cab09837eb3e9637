package feed

import (
	"database/sql"
	"time"

	"github.com/alumnet/alumnet-go/internal/domain/entities/feed"
	"github.com/alumnet/alumnet-go/internal/infrastructure/observability/logging"
	"github.com/alumnet/alumnet-go/internal/infrastructure/security"
)

type NotificationRepository struct {
	db     *sql.DB
	logger *logging.ChanneledLogger
	clock  func() time.Time
}

func NewNotificationRepository(db *sql.DB, logger *logging.ChanneledLogger) *NotificationRepository {
	return &NotificationRepository{
		db:     db,
		logger: logger,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// Insert persists a notification and returns it with ID and timestamp set.
func (r *NotificationRepository) Insert(n *feed.Notification) error {
	n.ID = security.GenerateULID()
	n.CreatedAt = r.clock()

	_, err := r.db.Exec(`INSERT INTO notifications (id, user_id, kind, actor_id, actor_name, subject_id, body, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		n.ID, n.UserID, n.Kind, n.ActorID, n.ActorName, n.SubjectID, n.Body, n.CreatedAt)
	if err != nil {
		r.logger.Database().Error("Notification insert failed", "error", err.Error(), "userId", n.UserID)
		return err
	}
	return nil
}

// ListForUser returns a user's notifications, newest first.
func (r *NotificationRepository) ListForUser(userID string, limit int) ([]*feed.Notification, error) {
	rows, err := r.db.Query(`SELECT id, user_id, kind, actor_id, actor_name, subject_id, body, read, created_at
		FROM notifications WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*feed.Notification
	for rows.Next() {
		var n feed.Notification
		var actorID, actorName, subjectID sql.NullString
		var read int
		if err := rows.Scan(&n.ID, &n.UserID, &n.Kind, &actorID, &actorName, &subjectID, &n.Body, &read, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.ActorID = actorID.String
		n.ActorName = actorName.String
		n.SubjectID = subjectID.String
		n.Read = read != 0
		notifications = append(notifications, &n)
	}
	return notifications, rows.Err()
}

// MarkRead marks a single notification as read. Returns false when the
// notification does not exist or belongs to another user.
func (r *NotificationRepository) MarkRead(id, userID string) (bool, error) {
	result, err := r.db.Exec(`UPDATE notifications SET read = 1 WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return false, err
	}
	affected, _ := result.RowsAffected()
	return affected > 0, nil
}

// UnreadCount returns the number of unread notifications for a user.
func (r *NotificationRepository) UnreadCount(userID string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read = 0`, userID).Scan(&count)
	return count, err
}
