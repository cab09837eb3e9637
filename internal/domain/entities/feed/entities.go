// Package feed defines the domain entities for the alumni feed.
package feed

import "time"

// StoryVariant identifies the kind of content a story carries.
type StoryVariant string

const (
	StoryText  StoryVariant = "text"
	StoryPhoto StoryVariant = "photo"
	StoryVideo StoryVariant = "video"
	StoryPoll  StoryVariant = "poll"
)

// Story visibility scopes. Enforcement of connection scoping lives with
// the directory service; this system stores and echoes the scope.
const (
	VisibilityEveryone    = "everyone"
	VisibilityConnections = "connections"
)

// InteractionFlags controls which actions viewers may take on a story.
type InteractionFlags struct {
	AllowReactions  bool `json:"allowReactions"`
	AllowReplies    bool `json:"allowReplies"`
	AllowScreenshot bool `json:"allowScreenshot"`
}

// DefaultInteractionFlags permits everything.
func DefaultInteractionFlags() InteractionFlags {
	return InteractionFlags{AllowReactions: true, AllowReplies: true, AllowScreenshot: true}
}

// Story is an ephemeral post that expires after its configured lifetime.
type Story struct {
	ID            string           `json:"id"`
	AuthorID      string           `json:"authorId"`
	AuthorName    string           `json:"authorName"`
	Variant       StoryVariant     `json:"variant"`
	Visibility    string           `json:"visibility"`
	Interactions  InteractionFlags `json:"interactions"`
	TextContent   string           `json:"textContent,omitempty"`
	MediaPath     string           `json:"mediaPath,omitempty"`
	ThumbnailPath string           `json:"thumbnailPath,omitempty"`
	PollQuestion  string           `json:"pollQuestion,omitempty"`
	PollOptions   []string         `json:"pollOptions,omitempty"`
	CreatedAt     time.Time        `json:"createdAt"`
	ExpiresAt     time.Time        `json:"expiresAt"`
	ViewCount     int              `json:"viewCount"`
	LikeCount     int              `json:"likeCount"`
}

// StorySpec is the request payload for creating a story.
type StorySpec struct {
	Variant       StoryVariant      `json:"variant"`
	Visibility    string            `json:"visibility"`
	Interactions  *InteractionFlags `json:"interactions"`
	TextContent   string            `json:"textContent"`
	MediaBase64   string            `json:"mediaBase64"`
	PollQuestion  string            `json:"pollQuestion"`
	PollOptions   []string          `json:"pollOptions"`
	DurationHours int               `json:"durationHours"`
	Mentions      []string          `json:"mentions"`
}

// StoryViewer records who saw a story and when.
type StoryViewer struct {
	ViewerID   string    `json:"viewerId"`
	ViewerName string    `json:"viewerName"`
	ViewedAt   time.Time `json:"viewedAt"`
}

// StoryReply is a direct response to a story.
type StoryReply struct {
	ID         string    `json:"id"`
	StoryID    string    `json:"storyId"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Thread is a feed post that viewers can engage with.
type Thread struct {
	ID         string    `json:"id"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Comment is a reply on a thread.
type Comment struct {
	ID         string    `json:"id"`
	ThreadID   string    `json:"threadId"`
	AuthorID   string    `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
}

// EngagementCounters holds the denormalized engagement totals for a thread.
type EngagementCounters struct {
	ThreadID string `json:"threadId"`
	Views    int    `json:"views"`
	Likes    int    `json:"likes"`
	Comments int    `json:"comments"`
	Shares   int    `json:"shares"`
}

// TrendingThread is a thread ranked by its engagement score.
type TrendingThread struct {
	Thread
	Counters EngagementCounters `json:"counters"`
	Score    int                `json:"score"`
}

// ReactionResult reports the outcome of a reaction toggle.
type ReactionResult struct {
	ThreadID string `json:"threadId"`
	Reaction string `json:"reaction"`
	Added    bool   `json:"added"`
	Likes    int    `json:"likes"`
}

// ViewResult reports whether a view was counted or deduplicated.
type ViewResult struct {
	ThreadID string `json:"threadId"`
	Counted  bool   `json:"counted"`
	Views    int    `json:"views"`
}

// Notification is a persisted alert for a user.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Kind      string    `json:"kind"`
	ActorID   string    `json:"actorId,omitempty"`
	ActorName string    `json:"actorName,omitempty"`
	SubjectID string    `json:"subjectId,omitempty"`
	Body      string    `json:"body"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// Notification kinds.
const (
	NotificationMention   = "mention"
	NotificationReply     = "reply"
	NotificationMilestone = "milestone"
)
