package realtime

import (
	"log/slog"
	"time"

	"github.com/alumnet/alumnet-go/internal/domain/events"
)

// Dispatcher is the single entry point for emitting realtime events. It
// publishes through the room router and, when a bridge is configured,
// mirrors every event to peer instances.
type Dispatcher struct {
	router *RoomRouter
	bridge *RedisBridge
	logger *slog.Logger
}

// NewDispatcher wires a dispatcher to the router. bridge may be nil for
// single-instance deployments.
func NewDispatcher(router *RoomRouter, bridge *RedisBridge, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{router: router, bridge: bridge, logger: logger}
}

func (d *Dispatcher) publish(topic, event string, data any, excludeConn string) {
	if err := d.router.Publish(topic, event, data, excludeConn); err != nil {
		d.logger.Error("Failed to publish event",
			slog.String("topic", topic),
			slog.String("event", event),
			slog.String("error", err.Error()))
		return
	}
	if d.bridge != nil {
		d.bridge.Mirror(topic, event, false, data)
	}
}

func (d *Dispatcher) publishAll(event string, data any, excludeConn string) {
	if err := d.router.PublishAll(event, data, excludeConn); err != nil {
		d.logger.Error("Failed to publish global event",
			slog.String("event", event),
			slog.String("error", err.Error()))
		return
	}
	if d.bridge != nil {
		d.bridge.Mirror("", event, true, data)
	}
}

// ViewerUpdate broadcasts the current viewer roster to everyone in the thread.
func (d *Dispatcher) ViewerUpdate(threadID string, viewerCount int, viewers []string) {
	d.publish(ThreadTopic(threadID), events.ThreadViewerUpdate, events.ViewerUpdatePayload{
		ThreadID:    threadID,
		ViewerCount: viewerCount,
		Viewers:     viewers,
	}, "")
}

// UserTyping tells everyone except the typer that a user started typing.
func (d *Dispatcher) UserTyping(threadID, userID, userName string, typingCount int, excludeConn string) {
	d.publish(ThreadTopic(threadID), events.ThreadUserTyping, events.UserTypingPayload{
		ThreadID:    threadID,
		UserID:      userID,
		UserName:    userName,
		TypingCount: typingCount,
	}, excludeConn)
}

// TypingUpdate broadcasts only the updated typing count.
func (d *Dispatcher) TypingUpdate(threadID string, typingCount int) {
	d.publish(ThreadTopic(threadID), events.ThreadTypingUpdate, events.TypingUpdatePayload{
		ThreadID:    threadID,
		TypingCount: typingCount,
	}, "")
}

// ReactionUpdate broadcasts a reaction change to thread viewers, excluding
// the originator's own connection.
func (d *Dispatcher) ReactionUpdate(payload events.ReactionUpdatePayload, excludeConn string) {
	d.publish(ThreadTopic(payload.ThreadID), events.ThreadReactionUpdate, payload, excludeConn)
}

// NewComment broadcasts a persisted comment to thread viewers, excluding
// the author's own connection.
func (d *Dispatcher) NewComment(threadID string, comment any, excludeConn string) {
	d.publish(ThreadTopic(threadID), events.ThreadNewComment, events.NewCommentPayload{
		ThreadID: threadID,
		Comment:  comment,
	}, excludeConn)
}

// MilestoneCelebration announces a milestone to every connected session.
func (d *Dispatcher) MilestoneCelebration(threadID, userID, userName, milestoneType string) {
	d.publishAll(events.MilestoneCelebration, events.MilestonePayload{
		ThreadID:      threadID,
		UserID:        userID,
		UserName:      userName,
		MilestoneType: milestoneType,
		Timestamp:     time.Now().UTC(),
	}, "")
}

// NotifyUser delivers a notification to every session of a single user.
func (d *Dispatcher) NotifyUser(userID string, notification any) {
	d.publish(UserTopic(userID), events.UserNotification, events.NotificationPayload{
		Notification: notification,
	}, "")
}

// StoryExpired tells every connected session to drop a story.
func (d *Dispatcher) StoryExpired(storyID string) {
	d.publishAll(events.StoryExpired, events.StoryExpiredPayload{StoryID: storyID}, "")
}

// Local republishes an event that arrived over the bridge from a peer
// instance. It goes through the router only, never back to the bridge.
func (d *Dispatcher) Local(topic, event string, global bool, data any) {
	var err error
	if global {
		err = d.router.PublishAll(event, data, "")
	} else {
		err = d.router.Publish(topic, event, data, "")
	}
	if err != nil {
		d.logger.Error("Failed to republish bridged event",
			slog.String("event", event),
			slog.String("error", err.Error()))
	}
}
