package services

import (
	"fmt"

	"github.com/alumnet/alumnet-go/internal/domain/entities/feed"
	"github.com/alumnet/alumnet-go/internal/infrastructure/email"
	"github.com/alumnet/alumnet-go/internal/infrastructure/observability/logging"
	persistence "github.com/alumnet/alumnet-go/internal/infrastructure/persistence/feed"
	"github.com/alumnet/alumnet-go/internal/infrastructure/realtime"
)

// NotificationService persists notifications and pushes them to the
// recipient's live sessions. Email is best-effort and only used for
// milestones; a nil email service disables it.
type NotificationService struct {
	notifications *persistence.NotificationRepository
	dispatcher    *realtime.Dispatcher
	emailService  email.Service
	logger        *logging.ChanneledLogger

	// ResolveEmail maps a user ID to an email address. Nil disables
	// milestone emails; the directory service is owned by another system.
	ResolveEmail func(userID string) (address, name string, ok bool)
}

func NewNotificationService(notifications *persistence.NotificationRepository, dispatcher *realtime.Dispatcher, emailService email.Service, logger *logging.ChanneledLogger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		dispatcher:    dispatcher,
		emailService:  emailService,
		logger:        logger,
	}
}

// NotifyMention alerts a user they were tagged in a story.
func (s *NotificationService) NotifyMention(userID, actorID, actorName, storyID string) {
	s.deliver(&feed.Notification{
		UserID:    userID,
		Kind:      feed.NotificationMention,
		ActorID:   actorID,
		ActorName: actorName,
		SubjectID: storyID,
		Body:      fmt.Sprintf("%s mentioned you in a story", actorName),
	})
}

// NotifyReply alerts an author that someone replied to their content.
func (s *NotificationService) NotifyReply(userID, actorID, actorName, subjectID string) {
	s.deliver(&feed.Notification{
		UserID:    userID,
		Kind:      feed.NotificationReply,
		ActorID:   actorID,
		ActorName: actorName,
		SubjectID: subjectID,
		Body:      fmt.Sprintf("%s replied to your post", actorName),
	})
}

// NotifyMilestone alerts an author their thread crossed a milestone and
// sends a congratulation email when email is configured.
func (s *NotificationService) NotifyMilestone(userID, threadID, milestoneType string) {
	s.deliver(&feed.Notification{
		UserID:    userID,
		Kind:      feed.NotificationMilestone,
		SubjectID: threadID,
		Body:      fmt.Sprintf("Your post crossed the %s milestone", milestoneType),
	})

	if s.emailService == nil || s.ResolveEmail == nil {
		return
	}
	address, name, ok := s.ResolveEmail(userID)
	if !ok {
		return
	}
	if err := s.emailService.SendMilestoneEmail(address, name, threadID, milestoneType); err != nil {
		s.logger.Email().Error("Milestone email failed", "error", err.Error(), "userId", userID)
	}
}

func (s *NotificationService) deliver(n *feed.Notification) {
	if err := s.notifications.Insert(n); err != nil {
		// The realtime push still goes out; the bell count catches up later.
		s.logger.Feed().Error("Notification persist failed", "error", err.Error(), "userId", n.UserID)
	}
	s.dispatcher.NotifyUser(n.UserID, n)
}

// List returns a user's notifications, newest first.
func (s *NotificationService) List(userID string, limit int) ([]*feed.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.notifications.ListForUser(userID, limit)
}

// MarkRead marks a notification as read for its owner.
func (s *NotificationService) MarkRead(id, userID string) error {
	ok, err := s.notifications.MarkRead(id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// UnreadCount returns the user's unread notification count.
func (s *NotificationService) UnreadCount(userID string) (int, error) {
	return s.notifications.UnreadCount(userID)
}
