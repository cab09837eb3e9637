package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alumnet/alumnet-go/internal/application/services"
	"github.com/alumnet/alumnet-go/internal/domain/entities/feed"
	"github.com/alumnet/alumnet-go/internal/infrastructure/observability/logging"
)

// NotificationHandlers exposes the notification inbox.
type NotificationHandlers struct {
	notificationService *services.NotificationService
	logger              *logging.ChanneledLogger
}

func NewNotificationHandlers(notificationService *services.NotificationService, logger *logging.ChanneledLogger) *NotificationHandlers {
	return &NotificationHandlers{notificationService: notificationService, logger: logger}
}

// GetNotifications handles GET /api/v1/notifications
func (h *NotificationHandlers) GetNotifications(c *gin.Context) {
	limit := intQuery(c, "limit", 50)
	notifications, err := h.notificationService.List(c.GetString("userId"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	if notifications == nil {
		notifications = []*feed.Notification{}
	}

	unread, err := h.notificationService.UnreadCount(c.GetString("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications, "unread": unread})
}

// PostMarkRead handles POST /api/v1/notifications/:id/read
func (h *NotificationHandlers) PostMarkRead(c *gin.Context) {
	if err := h.notificationService.MarkRead(c.Param("id"), c.GetString("userId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
