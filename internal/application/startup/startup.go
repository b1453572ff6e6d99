// Package startup prepares the application server
package startup

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/webfutureiorepo/supabase/internal/application/container"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/apps"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/persistence/database"
	"github.com/webfutureiorepo/supabase/internal/presentation/http/server"
	"github.com/webfutureiorepo/supabase/pkg/config"
)

// Initialize performs the complete edge startup sequence and blocks until a
// shutdown signal arrives.
func Initialize() error {
	setupGinMode()

	start := time.Now().UTC()

	ctx, cancelBackgroundTasks := context.WithCancel(context.Background())
	defer cancelBackgroundTasks()

	// Step 1: Create the channeled logger
	logger, err := NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()
	logger.Startup().Info("Starting edge service", "app", config.EdgeApp, "platform", config.IsPlatform)

	// Step 2: Load the apps registry
	phaseStart := time.Now()
	registry, err := apps.LoadRegistry(config.AppsConfigPath, logger)
	if err != nil {
		logger.LogStartupPhase("apps_registry", time.Since(phaseStart), false)
		return fmt.Errorf("failed to load apps registry: %w", err)
	}
	if _, ok := registry.Get(config.EdgeApp); !ok {
		return fmt.Errorf("EDGE_APP %q is not a known app (have %v)", config.EdgeApp, registry.Names())
	}
	logger.LogStartupPhase("apps_registry", time.Since(phaseStart), true)

	// Step 3: Connect to the database and ensure the schema
	phaseStart = time.Now()
	db, err := database.NewConnectionWithLogger(ctx, database.OptionsFromConfig(), logger)
	if err != nil {
		logger.LogStartupPhase("database", time.Since(phaseStart), false)
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := database.VerifyConnection(ctx, db, logger); err != nil {
		db.Close()
		return err
	}
	if err := database.NewTableCreator(logger).CreateSchema(ctx, db); err != nil {
		db.Close()
		logger.LogStartupPhase("database", time.Since(phaseStart), false)
		return fmt.Errorf("failed to create schema: %w", err)
	}
	logger.LogStartupPhase("database", time.Since(phaseStart), true)

	// Step 4: Create dependency injection container
	phaseStart = time.Now()
	appContainer, err := container.NewContainer(db, registry, logger)
	if err != nil {
		db.Close()
		logger.LogStartupPhase("container", time.Since(phaseStart), false)
		return fmt.Errorf("failed to create container: %w", err)
	}
	logger.LogStartupPhase("container", time.Since(phaseStart), true)

	// Step 5: Start background workers
	logger.Startup().Info("Starting background cleanup worker...")
	go appContainer.CleanupWorker.Start(ctx)

	logger.Startup().Info("Starting incident feed broadcaster...", "interval", config.IncidentBroadcastInterval)
	go appContainer.Broadcaster.Run(ctx)

	// Step 6: Start HTTP server
	phaseStart = time.Now()
	httpServer, err := server.New(config.Port, appContainer)
	if err != nil {
		appContainer.Close()
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}
	logger.LogStartupPhase("http_server", time.Since(phaseStart), true)

	// Step 7: Setup graceful shutdown
	gracefulShutdown := make(chan os.Signal, 1)
	signal.Notify(gracefulShutdown, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start()
	}()

	logger.Startup().Info("Application startup complete",
		"totalDuration", time.Since(start),
		"app", config.EdgeApp,
		"port", config.Port)

	select {
	case <-gracefulShutdown:
		logger.Shutdown().Info("Shutdown signal received, starting graceful shutdown...")
	case err := <-serverErr:
		if err != nil {
			logger.System().Error("HTTP server failed", "error", err.Error())
		}
	}

	shutdownStart := time.Now()

	// Cancel background tasks
	cancelBackgroundTasks()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Shutdown().Error("Error during server shutdown", "error", err.Error())
	} else {
		logger.Shutdown().Info("HTTP server stopped successfully")
	}

	if err := appContainer.Close(); err != nil {
		logger.Shutdown().Error("Error closing connections", "error", err.Error())
	}

	logger.Shutdown().Info("Application shutdown complete",
		"totalUptime", time.Since(start),
		"shutdownDuration", time.Since(shutdownStart))

	return nil
}

// NewLogger builds the channeled logger from LOG_FORMAT, LOG_LEVEL and
// LOG_DIRECTORY.
func NewLogger() (*logging.ChanneledLogger, error) {
	loggerConfig := logging.DefaultLoggerConfig()
	loggerConfig.JSONFormat = config.LogFormat != "text"

	level, err := logging.ParseLevel(config.LogLevel)
	if err != nil {
		log.Printf("Unknown LOG_LEVEL %q, using info", config.LogLevel)
		level = slog.LevelInfo
	}
	loggerConfig.DefaultLevel = level

	if config.LogDirectory != "" {
		loggerConfig.OutputToFile = true
		loggerConfig.LogDirectory = config.LogDirectory
	}

	return logging.NewChanneledLogger(loggerConfig)
}

// setupGinMode configures gin from GIN_MODE
func setupGinMode() {
	switch config.GinMode {
	case gin.DebugMode, gin.TestMode:
		gin.SetMode(config.GinMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}
