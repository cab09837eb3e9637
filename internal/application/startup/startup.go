// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alumnet/alumnet-go/internal/application/container"
	"github.com/alumnet/alumnet-go/internal/infrastructure/cleanup"
	"github.com/alumnet/alumnet-go/internal/infrastructure/database"
	"github.com/alumnet/alumnet-go/internal/infrastructure/email"
	"github.com/alumnet/alumnet-go/internal/infrastructure/observability/logging"
	"github.com/alumnet/alumnet-go/internal/infrastructure/realtime"
	"github.com/alumnet/alumnet-go/internal/presentation/http/server"
	"github.com/alumnet/alumnet-go/pkg/config"
)

// Initialize performs the complete startup sequence and blocks until
// the process receives a shutdown signal.
func Initialize() error {
	setupGinMode()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	logger, err := logging.NewChanneledLogger(logging.DefaultLoggerConfig())
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Startup().Info("AlumNet realtime server starting")

	// Step 1: Open the database and ensure the schema exists.
	db, err := database.NewDatabase()
	if err != nil {
		return fmt.Errorf("database initialization failed: %w", err)
	}
	logger.Startup().Info("Database connected", "backend", db.GetConnectionInfo())

	if err := database.NewTableCreator().CreateSchema(db.Conn); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}
	logger.Startup().Info("Database schema verified")

	// Step 2: Optional cross-instance bridge.
	var bridge *realtime.RedisBridge
	if config.RedisURL != "" {
		bridge, err = realtime.NewRedisBridge(ctx, config.RedisURL, config.BridgeChannel, logger.Realtime())
		if err != nil {
			return fmt.Errorf("redis bridge initialization failed: %w", err)
		}
		logger.Startup().Info("Redis bridge connected", "channel", config.BridgeChannel)
	}

	// Step 3: Optional email service.
	var emailService email.Service
	if config.ResendAPIKey != "" {
		emailService, err = email.NewService()
		if err != nil {
			logger.Startup().Error("Email service initialization failed", "error", err.Error())
		} else {
			logger.Startup().Info("Email service initialized")
		}
	}

	// Step 4: Dependency injection container.
	appContainer := container.NewContainer(logger, db, bridge, emailService)
	logger.Startup().Info("Dependency injection container created")

	// Step 5: Start the bridge listener so peer events reach local sessions.
	if bridge != nil {
		go bridge.Listen(ctx, appContainer.Dispatcher)
	}

	// Step 6: Start the story sweep worker.
	sweepWorker := cleanup.NewWorker(appContainer.StoryService, cleanup.DefaultConfig(), logger.Sweep())
	go sweepWorker.Start(ctx)
	logger.Startup().Info("Story sweep worker started", "interval", config.SweepInterval)

	// Step 7: Start HTTP server.
	httpServer := server.New(config.Port, appContainer)

	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.System().Info("Starting HTTP server", "address", ":"+config.Port)
		if err := httpServer.Start(); err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"port", config.Port)

	// Wait for shutdown signal
	<-gracefulShutdown
	logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")

	shutdownStart := time.Now()
	cancelBackgroundTasks()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped")
	}

	if bridge != nil {
		if err := bridge.Close(); err != nil {
			logger.Shutdown().Error("Error closing redis bridge", "error", err.Error())
		}
	}

	if err := db.Close(); err != nil {
		logger.Shutdown().Error("Error closing database", "error", err.Error())
	} else {
		logger.Shutdown().Info("Database closed")
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// setupGinMode configures gin before any engine is created
func setupGinMode() {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
		log.SetFlags(log.LstdFlags)
	}
}
