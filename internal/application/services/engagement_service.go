package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/alumnet/alumnet-go/internal/domain/entities/feed"
	"github.com/alumnet/alumnet-go/internal/domain/events"
	"github.com/alumnet/alumnet-go/internal/infrastructure/observability/logging"
	persistence "github.com/alumnet/alumnet-go/internal/infrastructure/persistence/feed"
	"github.com/alumnet/alumnet-go/internal/infrastructure/realtime"
)

const maxCommentLength = 1000

// Milestone thresholds on total reactions.
var milestones = map[int]string{
	10:  "10-reactions",
	50:  "50-reactions",
	100: "100-reactions",
}

// EngagementService orchestrates views, reactions, comments, and shares on
// threads, broadcasting each change to the thread's live viewers.
type EngagementService struct {
	threads       *persistence.ThreadRepository
	engagement    *persistence.EngagementRepository
	notifications *NotificationService
	dispatcher    *realtime.Dispatcher
	logger        *logging.ChanneledLogger
}

func NewEngagementService(threads *persistence.ThreadRepository, engagement *persistence.EngagementRepository, notifications *NotificationService, dispatcher *realtime.Dispatcher, logger *logging.ChanneledLogger) *EngagementService {
	return &EngagementService{
		threads:       threads,
		engagement:    engagement,
		notifications: notifications,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

// CreateThread persists a new thread.
func (s *EngagementService) CreateThread(authorID, authorName, body string) (*feed.Thread, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: thread body required", ErrInvalidContent)
	}
	return s.threads.Insert(authorID, authorName, body)
}

// GetThread returns a thread or ErrNotFound.
func (s *EngagementService) GetThread(id string) (*feed.Thread, error) {
	thread, err := s.threads.FindByID(id)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, ErrNotFound
	}
	return thread, nil
}

// ListThreads returns the most recent threads.
func (s *EngagementService) ListThreads(limit int) ([]*feed.Thread, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.threads.ListRecent(limit)
}

// RecordView counts a view, deduplicated per user within the window.
func (s *EngagementService) RecordView(threadID, userID string) (*feed.ViewResult, error) {
	if _, err := s.GetThread(threadID); err != nil {
		return nil, err
	}
	return s.engagement.RecordView(threadID, userID)
}

// AddReaction records a reaction, broadcasts the update to other viewers,
// and fires a milestone when a threshold is crossed.
func (s *EngagementService) AddReaction(threadID, userID, userName, reaction, excludeConn string) (*feed.ReactionResult, error) {
	thread, err := s.GetThread(threadID)
	if err != nil {
		return nil, err
	}

	result, err := s.engagement.AddReaction(threadID, userID, reaction)
	if err != nil {
		return nil, err
	}

	counts, total, err := s.engagement.ReactionCounts(threadID)
	if err != nil {
		return nil, err
	}

	s.dispatcher.ReactionUpdate(events.ReactionUpdatePayload{
		ThreadID:       threadID,
		UserID:         userID,
		UserName:       userName,
		ReactionType:   reaction,
		TotalReactions: total,
		Counts:         counts,
		Action:         "added",
	}, excludeConn)

	// A milestone fires only on the reaction that crosses the threshold.
	if result.Added {
		if milestoneType, ok := milestones[total]; ok {
			s.Milestone(threadID, thread.AuthorID, thread.AuthorName, milestoneType)
		}
	}

	return result, nil
}

// RemoveReaction deletes a reaction and broadcasts the update.
func (s *EngagementService) RemoveReaction(threadID, userID, userName, reaction, excludeConn string) (*feed.ReactionResult, error) {
	if _, err := s.GetThread(threadID); err != nil {
		return nil, err
	}

	result, err := s.engagement.RemoveReaction(threadID, userID, reaction)
	if err != nil {
		return nil, err
	}

	counts, total, err := s.engagement.ReactionCounts(threadID)
	if err != nil {
		return nil, err
	}

	s.dispatcher.ReactionUpdate(events.ReactionUpdatePayload{
		ThreadID:       threadID,
		UserID:         userID,
		UserName:       userName,
		ReactionType:   reaction,
		TotalReactions: total,
		Counts:         counts,
		Action:         "removed",
	}, excludeConn)

	return result, nil
}

// AddComment persists a comment and broadcasts it to the thread's other
// viewers. The author only sees their own comment through the REST response.
func (s *EngagementService) AddComment(threadID, authorID, authorName, body, excludeConn string) (*feed.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" || len(body) > maxCommentLength {
		return nil, fmt.Errorf("%w: comment must be 1 to %d characters", ErrInvalidContent, maxCommentLength)
	}

	thread, err := s.GetThread(threadID)
	if err != nil {
		return nil, err
	}

	comment, err := s.engagement.AddComment(threadID, authorID, authorName, body)
	if err != nil {
		return nil, err
	}

	s.dispatcher.NewComment(threadID, comment, excludeConn)

	if thread.AuthorID != authorID {
		s.notifications.NotifyReply(thread.AuthorID, authorID, authorName, threadID)
	}
	return comment, nil
}

// ListComments returns a thread's comments.
func (s *EngagementService) ListComments(threadID string) ([]*feed.Comment, error) {
	if _, err := s.GetThread(threadID); err != nil {
		return nil, err
	}
	return s.engagement.ListComments(threadID)
}

// ToggleShare flips a share mark on a thread.
func (s *EngagementService) ToggleShare(threadID, userID string) (shared bool, shares int, err error) {
	if _, err := s.GetThread(threadID); err != nil {
		return false, 0, err
	}
	return s.engagement.ToggleShare(threadID, userID)
}

// GetCounters returns the engagement totals for a thread.
func (s *EngagementService) GetCounters(threadID string) (*feed.EngagementCounters, error) {
	counters, err := s.engagement.GetCounters(threadID)
	if err != nil {
		return nil, err
	}
	if counters == nil {
		return nil, ErrNotFound
	}
	return counters, nil
}

// ListTrending ranks recently active threads by weighted engagement score.
func (s *EngagementService) ListTrending(window time.Duration, limit int) ([]*feed.TrendingThread, string, error) {
	if window <= 0 {
		window = 24 * time.Hour
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	trending, err := s.engagement.ListTrending(window, limit)
	if err != nil {
		return nil, "", err
	}
	return trending, persistence.TrendingFormulaVersion, nil
}

// Milestone broadcasts a celebration to every connected session and
// notifies the thread author.
func (s *EngagementService) Milestone(threadID, userID, userName, milestoneType string) {
	s.dispatcher.MilestoneCelebration(threadID, userID, userName, milestoneType)
	s.notifications.NotifyMilestone(userID, threadID, milestoneType)
	s.logger.Engagement().Info("Milestone reached",
		"threadId", threadID,
		"milestone", milestoneType)
}
