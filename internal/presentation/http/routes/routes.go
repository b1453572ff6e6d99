// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/webfutureiorepo/supabase/internal/application/container"
	"github.com/webfutureiorepo/supabase/internal/presentation/http/handlers"
	"github.com/webfutureiorepo/supabase/internal/presentation/http/middleware"
	"github.com/webfutureiorepo/supabase/pkg/config"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) (*gin.Engine, error) {
	r := gin.Default()

	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.CORSMiddleware(config.CORSAllowedOrigins))

	logger := container.Logger
	perfTracker := container.PerfTracker

	// Initialize handlers
	incidentHandlers := handlers.NewIncidentHandlers(
		container.IncidentService,
		container.BannerService,
		container.Broadcaster,
		config.IsPlatform,
		config.CORSAllowedOrigins,
		logger,
		perfTracker,
	)
	attributionHandlers := handlers.NewAttributionHandlers(container.AttributionService, logger, perfTracker)
	storageHandlers := handlers.NewStorageHandlers(container.StorageExplorerService, logger, perfTracker)
	sysopHandlers := handlers.NewSysOpHandlers(container.IncidentService, config.SysopPasswordHash, logger, perfTracker)
	proxyHandlers, err := handlers.NewProxyHandlers(config.EdgeUpstreamURL, container.Apps, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to configure origin proxy: %w", err)
	}

	api := r.Group("/api")
	{
		api.Any("/incident-status", incidentHandlers.GetIncidentStatus)
		api.GET("/incident-status/ws", incidentHandlers.StreamIncidents)
		api.GET("/incident-banner", middleware.OptionalAuthMiddleware(config.JWTSecret, logger), incidentHandlers.GetIncidentBanner)
		api.GET("/attribution/first-referrer", attributionHandlers.GetFirstReferrer)
	}

	storageAPI := r.Group("/api/storage")
	storageAPI.Use(middleware.AuthMiddleware(config.JWTSecret, logger))
	{
		storageAPI.GET("/buckets/:bucket/objects", storageHandlers.ListObjects)
		storageAPI.POST("/buckets/:bucket/folders", storageHandlers.CreateFolder)
		storageAPI.POST("/folder-name/validate", storageHandlers.ValidateFolderName)
		storageAPI.POST("/sanitize", storageHandlers.SanitizeName)
		storageAPI.POST("/paths", storageHandlers.ResolvePaths)
		storageAPI.POST("/uploads/estimate", storageHandlers.EstimateUpload)
	}

	sysopAPI := r.Group("/api/sysop")
	{
		sysopAPI.GET("/auth", sysopHandlers.AuthCheck)

		// SysOp Authenticated endpoints
		sysopAPI.Use(middleware.SysopAuthMiddleware(config.SysopPasswordHash, logger))
		{
			sysopAPI.GET("/logs/levels", sysopHandlers.GetLogLevels)
			sysopAPI.POST("/logs/levels", sysopHandlers.SetLogLevel)
			sysopAPI.GET("/performance", sysopHandlers.GetPerformance)
			sysopAPI.PUT("/incident-cache/:id", sysopHandlers.PutIncidentCache)
			sysopAPI.DELETE("/incident-cache/:id", sysopHandlers.DeleteIncidentCache)
		}
	}

	// Everything else belongs to an app: apply its cookie policy, then hand
	// the request to its origin.
	r.NoRoute(
		middleware.AttributionMiddleware(container.AttributionService, container.Apps, config.EdgeApp, config.IsPlatform, logger),
		proxyHandlers.Forward,
	)

	return r, nil
}
