// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alumnet/alumnet-go/internal/application/container"
	"github.com/alumnet/alumnet-go/internal/presentation/http/handlers"
	"github.com/alumnet/alumnet-go/internal/presentation/http/middleware"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	r := gin.Default()

	r.Use(middleware.CORSMiddleware())

	// Initialize handlers
	authHandlers := handlers.NewAuthHandlers(container.AuthService, container.Logger)
	storyHandlers := handlers.NewStoryHandlers(container.StoryService, container.MediaStore, container.Logger)
	threadHandlers := handlers.NewThreadHandlers(container.EngagementService, container.Logger)
	feedHandlers := handlers.NewFeedHandlers(container.EngagementService, container.Logger)
	notificationHandlers := handlers.NewNotificationHandlers(container.NotificationService, container.Logger)
	opsHandlers := handlers.NewOpsHandlers(container)

	requireUser := middleware.RequireUser(container.AuthService)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Realtime transport. Identity is carried on the upgrade request.
	r.GET("/ws", requireUser, container.Gateway.Handle)

	// Story media blobs.
	r.GET("/media/*path", storyHandlers.GetMedia)

	api := r.Group("/api/v1")
	{
		api.POST("/auth/session", authHandlers.PostSession)

		stories := api.Group("/stories", requireUser)
		{
			stories.POST("", storyHandlers.PostStory)
			stories.GET("", storyHandlers.GetStories)
			stories.GET("/:id", storyHandlers.GetStory)
			stories.DELETE("/:id", storyHandlers.DeleteStory)
			stories.POST("/:id/view", storyHandlers.PostView)
			stories.GET("/:id/viewers", storyHandlers.GetViewers)
			stories.POST("/:id/like", storyHandlers.PostLike)
			stories.POST("/:id/reply", storyHandlers.PostReply)
			stories.POST("/:id/vote", storyHandlers.PostVote)
		}

		threads := api.Group("/threads", requireUser)
		{
			threads.POST("", threadHandlers.PostThread)
			threads.GET("", threadHandlers.GetThreads)
			threads.GET("/:id", threadHandlers.GetThread)
			threads.POST("/:id/view", threadHandlers.PostView)
			threads.POST("/:id/reactions", threadHandlers.PostReaction)
			threads.DELETE("/:id/reactions/:reaction", threadHandlers.DeleteReaction)
			threads.POST("/:id/comments", threadHandlers.PostComment)
			threads.GET("/:id/comments", threadHandlers.GetComments)
			threads.POST("/:id/share", threadHandlers.PostShare)
			threads.GET("/:id/engagement", threadHandlers.GetEngagement)
			threads.POST("/:id/milestone", threadHandlers.PostMilestone)
		}

		api.GET("/feed/trending", requireUser, feedHandlers.GetTrending)

		notifications := api.Group("/notifications", requireUser)
		{
			notifications.GET("", notificationHandlers.GetNotifications)
			notifications.POST("/:id/read", notificationHandlers.PostMarkRead)
		}
	}

	opsAPI := r.Group("/api/ops")
	{
		opsAPI.GET("/auth", opsHandlers.AuthCheck)
		opsAPI.POST("/login", opsHandlers.Login)

		opsAPI.Use(opsHandlers.OpsAuthMiddleware())
		{
			opsAPI.GET("/activity", opsHandlers.GetActivity)
			opsAPI.POST("/sweep", opsHandlers.PostSweep)
			opsAPI.GET("/logs/levels", opsHandlers.GetLogLevels)
			opsAPI.POST("/logs/levels", opsHandlers.SetLogLevel)
		}
	}

	// Log streaming authenticates via query token inside the handler's SSE setup.
	r.GET("/ops-logs/stream", opsHandlers.StreamLogs)

	return r
}
