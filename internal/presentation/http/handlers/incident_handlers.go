// Package handlers provides HTTP handlers for the presentation layer.
package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/webfutureiorepo/supabase/internal/application/services"
	"github.com/webfutureiorepo/supabase/internal/domain/incidents"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/messaging"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/performance"
	"github.com/webfutureiorepo/supabase/internal/presentation/http/middleware"
)

// IncidentCacheControl lets browsers and the CDN keep the incident list for
// five minutes and serve it stale for one more while revalidating.
const IncidentCacheControl = "public, max-age=300, s-maxage=300, stale-while-revalidate=60"

// IncidentHandlers serves the incident status list, the per-visitor banner
// and the realtime incident feed.
type IncidentHandlers struct {
	incidentService *services.IncidentService
	bannerService   *services.BannerService
	broadcaster     *messaging.IncidentBroadcaster
	isPlatform      bool
	upgrader        websocket.Upgrader
	logger          *logging.ChanneledLogger
	perfTracker     *performance.Tracker
}

// NewIncidentHandlers creates incident handlers with injected dependencies
func NewIncidentHandlers(
	incidentService *services.IncidentService,
	bannerService *services.BannerService,
	broadcaster *messaging.IncidentBroadcaster,
	isPlatform bool,
	allowedOrigins []string,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *IncidentHandlers {
	return &IncidentHandlers{
		incidentService: incidentService,
		bannerService:   bannerService,
		broadcaster:     broadcaster,
		isPlatform:      isPlatform,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// GetIncidentStatus handles /api/incident-status. GET returns the banner
// incidents, HEAD only the caching headers, and any other method 405.
func (h *IncidentHandlers) GetIncidentStatus(c *gin.Context) {
	start := time.Now()
	h.logger.Incidents().Debug("Received incident status request", "method", c.Request.Method, "path", c.Request.URL.Path)

	if !h.isPlatform {
		c.Status(http.StatusNotFound)
		return
	}

	switch c.Request.Method {
	case http.MethodHead:
		c.Header("Cache-Control", IncidentCacheControl)
		c.Status(http.StatusOK)
		return
	case http.MethodGet:
	default:
		c.Header("Allow", "GET, HEAD")
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": fmt.Sprintf("Method %s Not Allowed", c.Request.Method)})
		return
	}

	marker := h.perfTracker.StartOperation("get_incident_status_request", "")
	defer marker.Complete()

	list, err := h.incidentService.ListBannerIncidents(c.Request.Context())
	if err != nil {
		h.logger.Incidents().Error("Failed to fetch active StatusPage incidents", "error", err.Error())
		marker.SetError(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to fetch incidents at this time"})
		return
	}

	h.logger.Incidents().Info("Incident status request completed", "count", len(list), "duration", time.Since(start))

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for GetIncidentStatus request", "duration", time.Since(start), "count", len(list), "success", true)

	c.Header("Cache-Control", IncidentCacheControl)
	c.JSON(http.StatusOK, list)
}

// GetIncidentBanner handles GET /api/incident-banner. Any failure resolves to
// no banner.
func (h *IncidentHandlers) GetIncidentBanner(c *gin.Context) {
	start := time.Now()
	h.logger.Banner().Debug("Received incident banner request", "method", c.Request.Method, "path", c.Request.URL.Path)

	marker := h.perfTracker.StartOperation("get_incident_banner_request", "")
	defer marker.Complete()

	userID := middleware.GetUserID(c)
	banner, err := h.bannerService.Resolve(c.Request.Context(), userID)
	if err != nil {
		h.logger.Banner().Error("Failed to resolve incident banner", "error", err.Error(), "userId", logging.MaskID(userID))
		marker.SetError(err)
		c.JSON(http.StatusOK, gin.H{"banner": (*incidents.Banner)(nil)})
		return
	}

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for GetIncidentBanner request", "duration", time.Since(start), "shown", banner != nil, "success", true)

	c.JSON(http.StatusOK, gin.H{"banner": banner})
}

// StreamIncidents upgrades GET /api/incident-status/ws to a websocket fed by
// the incident broadcaster.
func (h *IncidentHandlers) StreamIncidents(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Realtime().Warn("Websocket upgrade failed", "error", err.Error(), "remote", c.ClientIP())
		return
	}

	h.logger.Realtime().Info("Incident feed client connected", "remote", c.ClientIP(), "clients", h.broadcaster.ClientCount()+1)
	h.broadcaster.Serve(conn)
	h.logger.Realtime().Debug("Incident feed client disconnected", "remote", c.ClientIP())
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}
