// Package container provides dependency injection for all singleton services
package container

import (
	"context"
	"fmt"

	"github.com/webfutureiorepo/supabase/internal/application/services"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/apps"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/caching/cleanup"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/caching/interfaces"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/caching/stores"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/messaging"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/performance"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/persistence/database"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/persistence/incident"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/persistence/platform"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/persistence/storage"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/statuspage"
	"github.com/webfutureiorepo/supabase/pkg/config"
)

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Application Services
	AttributionService     *services.AttributionService
	IncidentService        *services.IncidentService
	BannerService          *services.BannerService
	StorageExplorerService *services.StorageExplorerService

	// Realtime and background work
	Broadcaster   *messaging.IncidentBroadcaster
	CleanupWorker *cleanup.Worker

	// Infrastructure Dependencies
	DB            *database.DB
	Apps          *apps.Registry
	IncidentStore interfaces.IncidentStore
	Logger        *logging.ChanneledLogger
	PerfTracker   *performance.Tracker

	redisStore *stores.RedisIncidentStore
}

// NewContainer creates and wires all singleton services. The incident store
// is shared through redis when REDIS_URL is set and kept in memory otherwise.
func NewContainer(db *database.DB, registry *apps.Registry, logger *logging.ChanneledLogger) (*Container, error) {
	perfTracker := performance.NewTracker(nil)

	c := &Container{
		DB:          db,
		Apps:        registry,
		Logger:      logger,
		PerfTracker: perfTracker,
	}

	var purgeable []interfaces.Purgeable
	if config.RedisURL != "" {
		redisStore, err := stores.NewRedisIncidentStore(config.RedisURL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis incident store: %w", err)
		}
		if err := redisStore.Ping(context.Background()); err != nil {
			logger.Cache().Warn("Redis not reachable at startup, incident lookups will miss until it is", "error", err.Error())
		}
		c.redisStore = redisStore
		c.IncidentStore = redisStore
	} else {
		memoryStore := stores.NewIncidentStore(logger)
		c.IncidentStore = memoryStore
		purgeable = append(purgeable, memoryStore)
	}

	statusPage := statuspage.NewClient(statuspage.OptionsFromConfig())
	cacheRepo := incident.NewCacheRepository(db, logger)
	orgRepo := platform.NewOrganizationRepository(db, logger)
	projectRepo := platform.NewProjectRepository(db, logger)
	objectRepo := storage.NewObjectRepository(db, logger)

	c.AttributionService = services.NewAttributionService(logger, perfTracker)
	c.IncidentService = services.NewIncidentService(statusPage, cacheRepo, c.IncidentStore, config.IncidentCacheTTL, logger, perfTracker)
	c.BannerService = services.NewBannerService(c.IncidentService, orgRepo, projectRepo, config.OngoingIncidentOverride, logger, perfTracker)
	c.StorageExplorerService = services.NewStorageExplorerService(objectRepo, logger, perfTracker)

	c.Broadcaster = messaging.NewIncidentBroadcaster(c.IncidentService, config.IncidentBroadcastInterval, logger)
	c.CleanupWorker = cleanup.NewWorker(cleanup.NewConfig(), logger, purgeable...)

	return c, nil
}

// Close releases the connections owned by the container.
func (c *Container) Close() error {
	var firstErr error
	if c.redisStore != nil {
		if err := c.redisStore.Close(); err != nil {
			firstErr = fmt.Errorf("failed to close redis: %w", err)
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close database: %w", err)
		}
	}
	return firstErr
}
