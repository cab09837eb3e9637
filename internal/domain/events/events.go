// Package events defines the realtime wire contract between clients and server.
package events

import (
	"encoding/json"
	"time"
)

// Client-originated event names.
const (
	ThreadViewing           = "thread:viewing"
	ThreadLeave             = "thread:leave"
	ThreadTypingStart       = "thread:typing-start"
	ThreadTypingStop        = "thread:typing-stop"
	ThreadReactionAdded     = "thread:reaction-added"
	ThreadReactionRemoved   = "thread:reaction-removed"
	ThreadCommentAdded      = "thread:comment-added"
	ThreadMilestoneDetected = "thread:milestone-detected"
)

// Server-originated event names.
const (
	ThreadViewerUpdate    = "thread:viewer-update"
	ThreadUserTyping      = "thread:user-typing"
	ThreadTypingUpdate    = "thread:typing-update"
	ThreadReactionUpdate  = "thread:reaction-update"
	ThreadNewComment      = "thread:new-comment"
	MilestoneCelebration  = "feed:milestone-celebration"
	UserNotification      = "user:notification"
	StoryExpired          = "story:expired"
)

// Envelope is the framing for every message on the realtime transport.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NewEnvelope wraps a payload in the wire framing.
func NewEnvelope(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// ViewingPayload announces a client is viewing a thread.
type ViewingPayload struct {
	ThreadID string `json:"threadId"`
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

// LeavePayload announces a client stopped viewing a thread.
type LeavePayload struct {
	ThreadID string `json:"threadId"`
	UserID   string `json:"userId"`
}

// TypingPayload marks a user as typing or stopped typing.
type TypingPayload struct {
	ThreadID string `json:"threadId"`
	UserID   string `json:"userId"`
	UserName string `json:"userName,omitempty"`
}

// ViewerUpdatePayload carries the current viewer roster of a thread.
type ViewerUpdatePayload struct {
	ThreadID    string   `json:"threadId"`
	ViewerCount int      `json:"viewerCount"`
	Viewers     []string `json:"viewers"`
}

// UserTypingPayload names the user who just started typing.
type UserTypingPayload struct {
	ThreadID    string `json:"threadId"`
	UserID      string `json:"userId"`
	UserName    string `json:"userName"`
	TypingCount int    `json:"typingCount"`
}

// TypingUpdatePayload carries only the live typing count.
type TypingUpdatePayload struct {
	ThreadID    string `json:"threadId"`
	TypingCount int    `json:"typingCount"`
}

// ReactionUpdatePayload broadcasts a reaction change to thread viewers.
type ReactionUpdatePayload struct {
	ThreadID       string         `json:"threadId"`
	UserID         string         `json:"userId"`
	UserName       string         `json:"userName"`
	ReactionType   string         `json:"reactionType"`
	TotalReactions int            `json:"totalReactions"`
	Counts         map[string]int `json:"counts"`
	Action         string         `json:"action"`
}

// NewCommentPayload broadcasts a freshly persisted comment.
type NewCommentPayload struct {
	ThreadID string `json:"threadId"`
	Comment  any    `json:"comment"`
}

// MilestonePayload announces a thread crossing an engagement milestone.
type MilestonePayload struct {
	ThreadID      string    `json:"threadId"`
	UserID        string    `json:"userId"`
	UserName      string    `json:"userName"`
	MilestoneType string    `json:"milestoneType"`
	Timestamp     time.Time `json:"timestamp"`
}

// NotificationPayload delivers a persisted notification to its recipient.
type NotificationPayload struct {
	Notification any `json:"notification"`
}

// StoryExpiredPayload tells clients to drop a story that expired or was
// deleted before its natural expiry.
type StoryExpiredPayload struct {
	StoryID string `json:"storyId"`
}
