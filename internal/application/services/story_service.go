package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/alumnet/alumnet-go/internal/domain/entities/feed"
	"github.com/alumnet/alumnet-go/internal/infrastructure/media"
	"github.com/alumnet/alumnet-go/internal/infrastructure/observability/logging"
	persistence "github.com/alumnet/alumnet-go/internal/infrastructure/persistence/feed"
	"github.com/alumnet/alumnet-go/internal/infrastructure/realtime"
	"github.com/alumnet/alumnet-go/internal/infrastructure/security"
	"github.com/alumnet/alumnet-go/pkg/config"
)

const (
	maxTextLength  = 2000
	maxReplyLength = 1000
	maxPollOptions = 6
	minPollOptions = 2
)

// StoryService orchestrates the ephemeral story lifecycle: creation with
// variant validation, viewing with logical expiry, and the background sweep.
type StoryService struct {
	stories       *persistence.StoryRepository
	notifications *NotificationService
	mediaStore    *media.Store
	dispatcher    *realtime.Dispatcher
	logger        *logging.ChanneledLogger
	clock         func() time.Time
}

func NewStoryService(stories *persistence.StoryRepository, notifications *NotificationService, mediaStore *media.Store, dispatcher *realtime.Dispatcher, logger *logging.ChanneledLogger) *StoryService {
	return &StoryService{
		stories:       stories,
		notifications: notifications,
		mediaStore:    mediaStore,
		dispatcher:    dispatcher,
		logger:        logger,
		clock:         func() time.Time { return time.Now().UTC() },
	}
}

// Create validates the spec for its variant, stores any media, persists
// the story, and notifies mentioned users.
func (s *StoryService) Create(authorID, authorName string, spec *feed.StorySpec) (*feed.Story, error) {
	if err := validateSpec(spec); err != nil {
		return nil, err
	}

	hours := spec.DurationHours
	if hours <= 0 {
		hours = config.StoryDefaultHours
	}
	if hours > config.StoryMaxHours {
		hours = config.StoryMaxHours
	}

	visibility := spec.Visibility
	if visibility == "" {
		visibility = feed.VisibilityEveryone
	}
	interactions := feed.DefaultInteractionFlags()
	if spec.Interactions != nil {
		interactions = *spec.Interactions
	}

	now := s.clock()
	story := &feed.Story{
		ID:           security.GenerateULID(),
		AuthorID:     authorID,
		AuthorName:   authorName,
		Variant:      spec.Variant,
		Visibility:   visibility,
		Interactions: interactions,
		TextContent:  strings.TrimSpace(spec.TextContent),
		CreatedAt:    now,
		ExpiresAt:    now.Add(time.Duration(hours) * time.Hour),
	}

	switch spec.Variant {
	case feed.StoryPhoto:
		if spec.MediaBase64 != "" {
			mediaPath, thumbPath, err := s.mediaStore.SavePhoto(spec.MediaBase64, story.ID)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrInvalidContent, err.Error())
			}
			story.MediaPath = mediaPath
			story.ThumbnailPath = thumbPath
		}
	case feed.StoryVideo:
		if spec.MediaBase64 != "" {
			mediaPath, err := s.mediaStore.SaveVideo(spec.MediaBase64, story.ID)
			if err != nil {
				return nil, fmt.Errorf("%w: %s", ErrInvalidContent, err.Error())
			}
			story.MediaPath = mediaPath
		}
	case feed.StoryPoll:
		story.PollQuestion = strings.TrimSpace(spec.PollQuestion)
		story.PollOptions = spec.PollOptions
	}

	if err := s.stories.Insert(story); err != nil {
		s.mediaStore.Remove([]string{story.MediaPath, story.ThumbnailPath})
		return nil, err
	}

	if len(spec.Mentions) > 0 {
		if err := s.stories.AddMentions(story.ID, spec.Mentions); err != nil {
			s.logger.Feed().Error("Failed to record mentions", "error", err.Error(), "storyId", story.ID)
		}
		for _, userID := range spec.Mentions {
			s.notifications.NotifyMention(userID, authorID, authorName, story.ID)
		}
	}

	s.logger.Feed().Info("Story created",
		"storyId", story.ID,
		"authorId", authorID,
		"variant", string(story.Variant),
		"expiresAt", story.ExpiresAt)
	return story, nil
}

func validateSpec(spec *feed.StorySpec) error {
	switch spec.Visibility {
	case "", feed.VisibilityEveryone, feed.VisibilityConnections:
	default:
		return fmt.Errorf("%w: unknown visibility %q", ErrInvalidContent, spec.Visibility)
	}

	switch spec.Variant {
	case feed.StoryText:
		text := strings.TrimSpace(spec.TextContent)
		if text == "" {
			return fmt.Errorf("%w: text story requires text content", ErrInvalidContent)
		}
		if len(text) > maxTextLength {
			return fmt.Errorf("%w: text exceeds %d characters", ErrInvalidContent, maxTextLength)
		}
	case feed.StoryPhoto, feed.StoryVideo:
		if spec.MediaBase64 == "" && strings.TrimSpace(spec.TextContent) == "" {
			return fmt.Errorf("%w: %s story requires media or a caption", ErrInvalidContent, spec.Variant)
		}
	case feed.StoryPoll:
		if strings.TrimSpace(spec.PollQuestion) == "" {
			return fmt.Errorf("%w: poll requires a question", ErrInvalidContent)
		}
		if len(spec.PollOptions) < minPollOptions || len(spec.PollOptions) > maxPollOptions {
			return fmt.Errorf("%w: poll requires %d to %d options", ErrInvalidContent, minPollOptions, maxPollOptions)
		}
		for _, opt := range spec.PollOptions {
			if strings.TrimSpace(opt) == "" {
				return fmt.Errorf("%w: poll options cannot be blank", ErrInvalidContent)
			}
		}
	default:
		return fmt.Errorf("%w: unknown variant %q", ErrInvalidContent, spec.Variant)
	}
	return nil
}

// Get returns an active story. Expired and missing stories are both ErrNotFound.
func (s *StoryService) Get(id string) (*feed.Story, error) {
	story, err := s.stories.FindActiveByID(id)
	if err != nil {
		return nil, err
	}
	if story == nil {
		return nil, ErrNotFound
	}
	return story, nil
}

// List returns all active stories, newest first.
func (s *StoryService) List() ([]*feed.Story, error) {
	return s.stories.ListActive()
}

// View records a viewer against an active story and returns the view count.
func (s *StoryService) View(storyID, viewerID, viewerName string) (int, error) {
	if _, err := s.Get(storyID); err != nil {
		return 0, err
	}
	return s.stories.RecordView(storyID, viewerID, viewerName)
}

// Viewers lists who has seen a story. Only the author may ask.
func (s *StoryService) Viewers(storyID, requesterID string) ([]feed.StoryViewer, error) {
	story, err := s.Get(storyID)
	if err != nil {
		return nil, err
	}
	if story.AuthorID != requesterID {
		return nil, ErrUnauthorized
	}
	return s.stories.Viewers(storyID)
}

// ToggleLike flips a like on an active story whose author allows reactions.
func (s *StoryService) ToggleLike(storyID, userID string) (liked bool, likes int, err error) {
	story, err := s.Get(storyID)
	if err != nil {
		return false, 0, err
	}
	if !story.Interactions.AllowReactions {
		return false, 0, ErrUnauthorized
	}
	return s.stories.ToggleLike(storyID, userID)
}

// Reply adds a reply to an active story and notifies its author.
func (s *StoryService) Reply(storyID, authorID, authorName, body string) (*feed.StoryReply, error) {
	body = strings.TrimSpace(body)
	if body == "" || len(body) > maxReplyLength {
		return nil, fmt.Errorf("%w: reply must be 1 to %d characters", ErrInvalidContent, maxReplyLength)
	}

	story, err := s.Get(storyID)
	if err != nil {
		return nil, err
	}
	if !story.Interactions.AllowReplies {
		return nil, ErrUnauthorized
	}

	reply, err := s.stories.AddReply(storyID, authorID, authorName, body)
	if err != nil {
		return nil, err
	}

	if story.AuthorID != authorID {
		s.notifications.NotifyReply(story.AuthorID, authorID, authorName, storyID)
	}
	return reply, nil
}

// Vote records a poll vote on an active poll story.
func (s *StoryService) Vote(storyID, userID string, optionIndex int) (map[int]int, error) {
	story, err := s.Get(storyID)
	if err != nil {
		return nil, err
	}
	if story.Variant != feed.StoryPoll {
		return nil, fmt.Errorf("%w: story is not a poll", ErrInvalidContent)
	}
	if optionIndex < 0 || optionIndex >= len(story.PollOptions) {
		return nil, fmt.Errorf("%w: option index out of range", ErrInvalidContent)
	}
	return s.stories.AddPollVote(storyID, userID, optionIndex)
}

// Delete removes a story before its natural expiry. Only the author may
// delete, and the author may still clean up an expired-but-unswept story.
// To anyone else an expired story is indistinguishable from a missing one.
func (s *StoryService) Delete(storyID, requesterID string) error {
	authorID, err := s.stories.AuthorOf(storyID)
	if err != nil {
		return err
	}
	if authorID == "" {
		return ErrNotFound
	}
	if authorID != requesterID {
		active, err := s.stories.FindActiveByID(storyID)
		if err != nil {
			return err
		}
		if active == nil {
			return ErrNotFound
		}
		return ErrUnauthorized
	}

	mediaPaths, found, err := s.stories.Delete(storyID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}

	s.mediaStore.Remove(mediaPaths)
	s.dispatcher.StoryExpired(storyID)
	s.logger.Feed().Info("Story deleted", "storyId", storyID, "authorId", requesterID)
	return nil
}

// SweepExpired purges expired stories and their media blobs, telling
// connected clients to drop each one. Safe to run repeatedly; a second
// pass finds nothing.
func (s *StoryService) SweepExpired() (int, error) {
	removed, ids, mediaPaths, err := s.stories.SweepExpired()
	if err != nil {
		return 0, err
	}
	s.mediaStore.Remove(mediaPaths)
	for _, id := range ids {
		s.dispatcher.StoryExpired(id)
	}
	if removed > 0 {
		s.logger.Sweep().Info("Expired stories purged", "removed", removed, "blobs", len(mediaPaths))
	}
	return removed, nil
}
