// Package container provides dependency injection for all singleton services
package container

import (
	"log/slog"

	"github.com/alumnet/alumnet-go/internal/application/services"
	"github.com/alumnet/alumnet-go/internal/infrastructure/database"
	"github.com/alumnet/alumnet-go/internal/infrastructure/email"
	"github.com/alumnet/alumnet-go/internal/infrastructure/media"
	"github.com/alumnet/alumnet-go/internal/infrastructure/observability/logging"
	persistence "github.com/alumnet/alumnet-go/internal/infrastructure/persistence/feed"
	"github.com/alumnet/alumnet-go/internal/infrastructure/realtime"
	"github.com/alumnet/alumnet-go/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Infrastructure
	Logger     *logging.ChanneledLogger
	Database   *database.Database
	MediaStore *media.Store

	// Realtime components
	Router     *realtime.RoomRouter
	Presence   *realtime.PresenceRegistry
	Typing     *realtime.TypingRegistry
	Dispatcher *realtime.Dispatcher
	Gateway    *realtime.Gateway
	Bridge     *realtime.RedisBridge

	// Repositories
	ThreadRepo       *persistence.ThreadRepository
	EngagementRepo   *persistence.EngagementRepository
	StoryRepo        *persistence.StoryRepository
	NotificationRepo *persistence.NotificationRepository

	// Application services
	AuthService         *services.AuthService
	StoryService        *services.StoryService
	EngagementService   *services.EngagementService
	NotificationService *services.NotificationService
}

// NewContainer creates and wires all singleton services. bridge and
// emailService may be nil when not configured.
func NewContainer(logger *logging.ChanneledLogger, db *database.Database, bridge *realtime.RedisBridge, emailService email.Service) *Container {
	c := &Container{
		Logger:     logger,
		Database:   db,
		MediaStore: media.NewStore(config.MediaBasePath),
		Bridge:     bridge,
	}

	c.Router = realtime.NewRoomRouter(logger.Realtime())
	c.Presence = realtime.NewPresenceRegistry()
	c.Dispatcher = realtime.NewDispatcher(c.Router, bridge, logger.Realtime())
	c.Typing = realtime.NewTypingRegistry(config.TypingTTL, func(threadID string, typingCount int) {
		c.Dispatcher.TypingUpdate(threadID, typingCount)
	})
	c.Gateway = realtime.NewGateway(c.Router, c.Presence, c.Typing, c.Dispatcher, logger.Realtime())

	c.ThreadRepo = persistence.NewThreadRepository(db.Conn, logger)
	c.EngagementRepo = persistence.NewEngagementRepository(db.Conn, logger)
	c.StoryRepo = persistence.NewStoryRepository(db.Conn, logger)
	c.NotificationRepo = persistence.NewNotificationRepository(db.Conn, logger)

	c.AuthService = services.NewAuthService(logger)
	c.NotificationService = services.NewNotificationService(c.NotificationRepo, c.Dispatcher, emailService, logger)
	c.StoryService = services.NewStoryService(c.StoryRepo, c.NotificationService, c.MediaStore, c.Dispatcher, logger)
	c.EngagementService = services.NewEngagementService(c.ThreadRepo, c.EngagementRepo, c.NotificationService, c.Dispatcher, logger)

	return c
}

// RealtimeLogger exposes the realtime channel logger for components that
// only need slog.
func (c *Container) RealtimeLogger() *slog.Logger {
	return c.Logger.Realtime()
}
