// Package realtime implements the websocket fan-out layer: room routing,
// presence, typing indicators, and event dispatch.
package realtime

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/alumnet/alumnet-go/internal/domain/events"
	"github.com/alumnet/alumnet-go/pkg/config"
)

// ThreadTopic builds the room topic for a thread.
func ThreadTopic(threadID string) string {
	return "thread:" + threadID
}

// UserTopic builds the private room topic for a user.
func UserTopic(userID string) string {
	return "user:" + userID
}

// Session is one connected websocket client as seen by the router.
type Session struct {
	ConnID   string
	UserID   string
	UserName string

	// Send carries marshaled frames to the connection's write pump.
	// Writes never block: a full buffer drops the frame.
	Send chan []byte
}

// RoomRouter maps topics to the sessions subscribed to them.
type RoomRouter struct {
	mu       sync.RWMutex
	sessions map[string]*Session            // connID -> session
	topics   map[string]map[string]struct{} // topic -> set of connIDs
	byConn   map[string]map[string]struct{} // connID -> set of topics
	logger   *slog.Logger
}

// NewRoomRouter creates an empty router.
func NewRoomRouter(logger *slog.Logger) *RoomRouter {
	return &RoomRouter{
		sessions: make(map[string]*Session),
		topics:   make(map[string]map[string]struct{}),
		byConn:   make(map[string]map[string]struct{}),
		logger:   logger,
	}
}

// Register adds a session to the router and returns it.
func (r *RoomRouter) Register(connID, userID, userName string) *Session {
	session := &Session{
		ConnID:   connID,
		UserID:   userID,
		UserName: userName,
		Send:     make(chan []byte, config.SessionSendBuffer),
	}

	r.mu.Lock()
	r.sessions[connID] = session
	r.mu.Unlock()

	return session
}

// Unregister removes a session and all its subscriptions, then closes
// its send channel so the write pump exits.
func (r *RoomRouter) Unregister(connID string) {
	r.mu.Lock()
	session, ok := r.sessions[connID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, connID)

	for topic := range r.byConn[connID] {
		if conns, ok := r.topics[topic]; ok {
			delete(conns, connID)
			if len(conns) == 0 {
				delete(r.topics, topic)
			}
		}
	}
	delete(r.byConn, connID)
	r.mu.Unlock()

	close(session.Send)
}

// Subscribe adds a session to a topic. Subscribing twice is a no-op.
func (r *RoomRouter) Subscribe(connID, topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[connID]; !ok {
		return
	}
	if r.topics[topic] == nil {
		r.topics[topic] = make(map[string]struct{})
	}
	r.topics[topic][connID] = struct{}{}

	if r.byConn[connID] == nil {
		r.byConn[connID] = make(map[string]struct{})
	}
	r.byConn[connID][topic] = struct{}{}
}

// Unsubscribe removes a session from a topic, pruning the topic when empty.
func (r *RoomRouter) Unsubscribe(connID, topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if conns, ok := r.topics[topic]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(r.topics, topic)
		}
	}
	if topicSet, ok := r.byConn[connID]; ok {
		delete(topicSet, topic)
	}
}

// Publish marshals the event once and delivers it to every subscriber of
// the topic except excludeConn. Publishing to an unknown topic is a no-op.
// Slow sessions have the frame dropped rather than blocking the publisher.
func (r *RoomRouter) Publish(topic, event string, data any, excludeConn string) error {
	frame, err := events.NewEnvelope(event, data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for connID := range r.topics[topic] {
		if connID == excludeConn {
			continue
		}
		session, ok := r.sessions[connID]
		if !ok {
			continue
		}
		select {
		case session.Send <- frame:
		default:
			r.logger.Warn("Dropping frame for slow session",
				slog.String("connId", connID),
				slog.String("topic", topic),
				slog.String("event", event))
		}
	}
	return nil
}

// PublishAll delivers an event to every connected session.
func (r *RoomRouter) PublishAll(event string, data any, excludeConn string) error {
	frame, err := events.NewEnvelope(event, data)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event, err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for connID, session := range r.sessions {
		if connID == excludeConn {
			continue
		}
		select {
		case session.Send <- frame:
		default:
			r.logger.Warn("Dropping frame for slow session",
				slog.String("connId", connID),
				slog.String("event", event))
		}
	}
	return nil
}

// SubscriberCount reports how many sessions are subscribed to a topic.
func (r *RoomRouter) SubscriberCount(topic string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.topics[topic])
}

// SessionCount reports the number of connected sessions.
func (r *RoomRouter) SessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Topics returns the set of live topics and their subscriber counts.
func (r *RoomRouter) Topics() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]int, len(r.topics))
	for topic, conns := range r.topics {
		out[topic] = len(conns)
	}
	return out
}
