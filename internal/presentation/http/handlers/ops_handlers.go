package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/alumnet/alumnet-go/internal/application/container"
	"github.com/alumnet/alumnet-go/internal/infrastructure/observability/logging"
	"github.com/alumnet/alumnet-go/pkg/config"
)

// OpsHandlers handles the operations dashboard: auth, live activity,
// manual sweeps, and log streaming.
type OpsHandlers struct {
	container *container.Container
}

func NewOpsHandlers(container *container.Container) *OpsHandlers {
	return &OpsHandlers{container: container}
}

// AuthCheck reports whether an ops password is configured and whether the
// caller is authenticated.
func (h *OpsHandlers) AuthCheck(c *gin.Context) {
	response := map[string]any{
		"passwordRequired": config.OpsPasswordHash != "",
		"authenticated":    false,
	}
	if config.OpsPasswordHash == "" {
		response["message"] = "Set OPS_PASSWORD_HASH to protect the ops dashboard"
	}

	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") && h.container.AuthService.CheckOpsPassword(auth[7:]) {
		response["authenticated"] = true
	}

	c.JSON(http.StatusOK, response)
}

// Login handles ops authentication.
func (h *OpsHandlers) Login(c *gin.Context) {
	var request struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if config.OpsPasswordHash == "" {
		c.JSON(http.StatusOK, gin.H{"success": true, "token": "no-auth-required"})
		return
	}
	if !h.container.AuthService.CheckOpsPassword(request.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}

	// The password itself is the bearer token; it is verified against the
	// bcrypt hash on every request.
	c.JSON(http.StatusOK, gin.H{"success": true, "token": request.Password})
}

// OpsAuthMiddleware protects ops-specific endpoints.
func (h *OpsHandlers) OpsAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.OpsPasswordHash == "" {
			c.Next() // No password set, allow access
			return
		}

		authHeader := c.GetHeader("Authorization")
		token := ""
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = authHeader[7:]
		}

		if !h.container.AuthService.CheckOpsPassword(token) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetActivity reports live realtime state for the dashboard.
func (h *OpsHandlers) GetActivity(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sessions":      h.container.Router.SessionCount(),
		"topics":        h.container.Router.Topics(),
		"activeThreads": h.container.Presence.ActiveThreads(),
		"database":      h.container.Database.GetPoolInfo(),
	})
}

// PostSweep triggers an immediate expired-story sweep.
func (h *OpsHandlers) PostSweep(c *gin.Context) {
	removed, err := h.container.StoryService.SweepExpired()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// StreamLogs handles the SSE connection for live log streaming. Browsers
// cannot set headers on an EventSource, so the ops token arrives as a
// query parameter; the Authorization header works too.
func (h *OpsHandlers) StreamLogs(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = auth[7:]
		}
	}
	if config.OpsPasswordHash != "" && !h.container.AuthService.CheckOpsPassword(token) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	broadcaster := logging.GetBroadcaster()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")

	channelFilter := c.DefaultQuery("channel", "all")
	levelFilter := c.DefaultQuery("level", "INFO")
	var logLevel slog.Level
	switch levelFilter {
	case "DEBUG":
		logLevel = slog.LevelDebug
	case "WARN":
		logLevel = slog.LevelWarn
	case "ERROR":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	filters := logging.AppliedFilters{
		Channel: logging.Channel(channelFilter),
		Level:   logLevel,
	}

	client := broadcaster.NewClient(filters)
	broadcaster.RegisterClient(client)
	defer broadcaster.UnregisterClient(client)

	fmt.Fprintf(c.Writer, ": connection established\n\n")
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case message, ok := <-client.Channel:
			if !ok {
				return false
			}
			fmt.Fprintf(w, "data: %s\n\n", message)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// GetLogLevels returns current log levels for all channels.
func (h *OpsHandlers) GetLogLevels(c *gin.Context) {
	c.JSON(http.StatusOK, h.container.Logger.GetChannelLevels())
}

// SetLogLevel sets the log level for a specific channel.
func (h *OpsHandlers) SetLogLevel(c *gin.Context) {
	var req struct {
		Channel string `json:"channel" binding:"required"`
		Level   string `json:"level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	var level slog.Level
	switch req.Level {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log level specified"})
		return
	}

	if err := h.container.Logger.SetChannelLevel(logging.Channel(req.Channel), level); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to set log level", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": fmt.Sprintf("Log level for channel '%s' set to '%s'", req.Channel, req.Level)})
}
