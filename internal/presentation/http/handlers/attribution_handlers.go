package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webfutureiorepo/supabase/internal/application/services"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/performance"
)

// AttributionHandlers exposes the first-referrer cookie to the studio
// telemetry read path.
type AttributionHandlers struct {
	attributionService *services.AttributionService
	logger             *logging.ChanneledLogger
	perfTracker        *performance.Tracker
}

func NewAttributionHandlers(attributionService *services.AttributionService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AttributionHandlers {
	return &AttributionHandlers{
		attributionService: attributionService,
		logger:             logger,
		perfTracker:        perfTracker,
	}
}

// GetFirstReferrer handles GET /api/attribution/first-referrer. It returns the
// decoded cookie payload, or 204 when the request carries no usable cookie.
func (h *AttributionHandlers) GetFirstReferrer(c *gin.Context) {
	h.logger.Attribution().Debug("Received first referrer request", "method", c.Request.Method, "path", c.Request.URL.Path)

	marker := h.perfTracker.StartOperation("get_first_referrer_request", "studio")
	defer marker.Complete()

	payload, ok := h.attributionService.Decode(c.GetHeader("Cookie"))
	marker.SetSuccess(true)
	marker.AddMetadata("found", ok)
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, payload)
}
