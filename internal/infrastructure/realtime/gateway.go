package realtime

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/alumnet/alumnet-go/internal/domain/events"
)

const writeDeadline = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// connState tracks what a single connection is doing so a disconnect can
// be cleaned up as if the client had sent explicit leave/stop events.
type connState struct {
	mu       sync.Mutex
	viewing  map[string]struct{} // threadIDs with an active joinView
	typing   map[string]struct{} // threadIDs with an active typing mark
	userID   string
	userName string
}

func (s *connState) trackView(threadID string)   { s.mu.Lock(); s.viewing[threadID] = struct{}{}; s.mu.Unlock() }
func (s *connState) untrackView(threadID string) { s.mu.Lock(); delete(s.viewing, threadID); s.mu.Unlock() }
func (s *connState) trackTyping(threadID string) { s.mu.Lock(); s.typing[threadID] = struct{}{}; s.mu.Unlock() }
func (s *connState) untrackTyping(threadID string) {
	s.mu.Lock()
	delete(s.typing, threadID)
	s.mu.Unlock()
}

func (s *connState) snapshot() (viewing, typing []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for t := range s.viewing {
		viewing = append(viewing, t)
	}
	for t := range s.typing {
		typing = append(typing, t)
	}
	return viewing, typing
}

// Gateway upgrades HTTP requests to websocket sessions and translates
// wire events into registry mutations and broadcasts.
type Gateway struct {
	router     *RoomRouter
	presence   *PresenceRegistry
	typing     *TypingRegistry
	dispatcher *Dispatcher
	logger     *slog.Logger
}

// NewGateway wires the gateway to the realtime components.
func NewGateway(router *RoomRouter, presence *PresenceRegistry, typing *TypingRegistry, dispatcher *Dispatcher, logger *slog.Logger) *Gateway {
	return &Gateway{
		router:     router,
		presence:   presence,
		typing:     typing,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Handle is the gin handler for the websocket endpoint. Identity comes
// from the auth middleware; unauthenticated sockets are rejected before
// the upgrade.
func (g *Gateway) Handle(c *gin.Context) {
	userID := c.GetString("userId")
	userName := c.GetString("userName")
	if userID == "" {
		c.JSON(http.StatusForbidden, gin.H{"error": "authentication required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.logger.Error("Websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	connID := uuid.NewString()
	session := g.router.Register(connID, userID, userName)
	g.router.Subscribe(connID, UserTopic(userID))

	state := &connState{
		viewing:  make(map[string]struct{}),
		typing:   make(map[string]struct{}),
		userID:   userID,
		userName: userName,
	}

	g.logger.Info("Session connected",
		slog.String("connId", connID),
		slog.String("userId", userID))

	go g.writePump(conn, session)
	g.readPump(conn, connID, state)
}

func (g *Gateway) writePump(conn *websocket.Conn, session *Session) {
	defer conn.Close()
	for frame := range session.Send {
		if err := conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return
		}
	}
}

func (g *Gateway) readPump(conn *websocket.Conn, connID string, state *connState) {
	defer g.disconnect(connID, state)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		g.handleEvent(connID, state, data)
	}
}

// disconnect synthesizes the leave and stop-typing events the client never
// got to send, then removes the session from the router.
func (g *Gateway) disconnect(connID string, state *connState) {
	viewing, typing := state.snapshot()

	for _, threadID := range typing {
		count := g.typing.StopTyping(threadID, state.userID)
		g.dispatcher.TypingUpdate(threadID, count)
	}
	for _, threadID := range viewing {
		count := g.presence.LeaveView(threadID, state.userID)
		g.router.Unsubscribe(connID, ThreadTopic(threadID))
		g.dispatcher.ViewerUpdate(threadID, count, g.presence.Viewers(threadID))
	}

	g.router.Unregister(connID)
	g.logger.Info("Session disconnected",
		slog.String("connId", connID),
		slog.String("userId", state.userID))
}

func (g *Gateway) handleEvent(connID string, state *connState, data []byte) {
	var env events.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		g.logger.Warn("Malformed frame", slog.String("connId", connID), slog.String("error", err.Error()))
		return
	}

	switch env.Event {
	case events.ThreadViewing:
		var p events.ViewingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ThreadID == "" {
			return
		}
		count := g.presence.JoinView(p.ThreadID, state.userID, state.userName)
		g.router.Subscribe(connID, ThreadTopic(p.ThreadID))
		state.trackView(p.ThreadID)
		g.dispatcher.ViewerUpdate(p.ThreadID, count, g.presence.Viewers(p.ThreadID))

	case events.ThreadLeave:
		var p events.LeavePayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ThreadID == "" {
			return
		}
		count := g.presence.LeaveView(p.ThreadID, state.userID)
		g.router.Unsubscribe(connID, ThreadTopic(p.ThreadID))
		state.untrackView(p.ThreadID)
		g.dispatcher.ViewerUpdate(p.ThreadID, count, g.presence.Viewers(p.ThreadID))

	case events.ThreadTypingStart:
		var p events.TypingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ThreadID == "" {
			return
		}
		count := g.typing.StartTyping(p.ThreadID, state.userID, state.userName)
		state.trackTyping(p.ThreadID)
		g.dispatcher.UserTyping(p.ThreadID, state.userID, state.userName, count, connID)

	case events.ThreadTypingStop:
		var p events.TypingPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ThreadID == "" {
			return
		}
		count := g.typing.StopTyping(p.ThreadID, state.userID)
		state.untrackTyping(p.ThreadID)
		g.dispatcher.TypingUpdate(p.ThreadID, count)

	// Engagement events arriving over the socket are relayed as-is: the
	// counts in the payload come from the client's REST response, never
	// computed here. Identity always comes from the session.
	case events.ThreadReactionAdded, events.ThreadReactionRemoved:
		var p events.ReactionUpdatePayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ThreadID == "" {
			return
		}
		p.UserID = state.userID
		p.UserName = state.userName
		if env.Event == events.ThreadReactionAdded {
			p.Action = "added"
		} else {
			p.Action = "removed"
		}
		g.dispatcher.ReactionUpdate(p, connID)

	case events.ThreadCommentAdded:
		var p events.NewCommentPayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ThreadID == "" {
			return
		}
		g.dispatcher.NewComment(p.ThreadID, p.Comment, connID)

	case events.ThreadMilestoneDetected:
		var p events.MilestonePayload
		if err := json.Unmarshal(env.Data, &p); err != nil || p.ThreadID == "" {
			return
		}
		g.dispatcher.MilestoneCelebration(p.ThreadID, state.userID, state.userName, p.MilestoneType)

	default:
		g.logger.Warn("Unknown event", slog.String("event", env.Event), slog.String("connId", connID))
	}
}
