package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/webfutureiorepo/supabase/internal/application/services"
	"github.com/webfutureiorepo/supabase/internal/domain/incidents"
	"github.com/webfutureiorepo/supabase/internal/domain/repositories"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/performance"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/security"
)

// IncidentCacheRequest is the body of PUT /api/sysop/incident-cache/:id.
// A null or missing affected_regions means every region.
type IncidentCacheRequest struct {
	AffectedRegions        []string `json:"affected_regions"`
	AffectsProjectCreation bool     `json:"affects_project_creation"`
}

// SysOpHandlers handles the operator endpoints: log levels, performance and
// incident cache maintenance.
type SysOpHandlers struct {
	incidentService *services.IncidentService
	passwordHash    string
	logger          *logging.ChanneledLogger
	perfTracker     *performance.Tracker
}

// NewSysOpHandlers creates new SysOp handlers
func NewSysOpHandlers(incidentService *services.IncidentService, passwordHash string, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *SysOpHandlers {
	return &SysOpHandlers{
		incidentService: incidentService,
		passwordHash:    passwordHash,
		logger:          logger,
		perfTracker:     perfTracker,
	}
}

// AuthCheck reports whether a sysop password is configured and whether the
// request presents it.
func (h *SysOpHandlers) AuthCheck(c *gin.Context) {
	response := gin.H{
		"passwordRequired": h.passwordHash != "",
		"authenticated":    false,
	}
	if h.passwordHash == "" {
		response["message"] = "Set SYSOP_PASSWORD_HASH to protect the sysop endpoints"
	}

	auth := c.GetHeader("Authorization")
	if h.passwordHash != "" && strings.HasPrefix(auth, "Bearer ") {
		response["authenticated"] = security.CheckPassword(h.passwordHash, strings.TrimPrefix(auth, "Bearer "))
	}

	c.JSON(http.StatusOK, response)
}

// GetLogLevels handles GET /api/sysop/logs/levels - returns current log levels for all channels.
func (h *SysOpHandlers) GetLogLevels(c *gin.Context) {
	c.JSON(http.StatusOK, h.logger.GetChannelLevels())
}

// SetLogLevel handles POST /api/sysop/logs/levels - sets the log level for a specific channel.
func (h *SysOpHandlers) SetLogLevel(c *gin.Context) {
	var req struct {
		Channel string `json:"channel" binding:"required"`
		Level   string `json:"level" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	level, err := logging.ParseLevel(req.Level)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log level specified"})
		return
	}

	if err := h.logger.SetChannelLevel(logging.Channel(req.Channel), level); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to set log level", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": fmt.Sprintf("Log level for channel '%s' set to '%s'", req.Channel, level.String())})
}

// GetPerformance handles GET /api/sysop/performance. ?recent=N adds the N
// most recent markers.
func (h *SysOpHandlers) GetPerformance(c *gin.Context) {
	response := gin.H{"summary": h.perfTracker.Summary()}
	if raw := c.Query("recent"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "recent must be a non-negative integer"})
			return
		}
		response["recent"] = h.perfTracker.Recent(limit)
	}
	c.JSON(http.StatusOK, response)
}

// PutIncidentCache handles PUT /api/sysop/incident-cache/:id
func (h *SysOpHandlers) PutIncidentCache(c *gin.Context) {
	incidentID := c.Param("id")

	var req IncidentCacheRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	cache := incidents.IncidentCache{
		AffectedRegions:        req.AffectedRegions,
		AffectsProjectCreation: req.AffectsProjectCreation,
	}
	if err := h.incidentService.UpsertCache(c.Request.Context(), incidentID, cache); err != nil {
		h.logger.Incidents().Error("Failed to update incident cache", "error", err.Error(), "incidentId", incidentID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update incident cache"})
		return
	}

	h.logger.Incidents().Info("Incident cache updated by sysop", "incidentId", incidentID)
	c.JSON(http.StatusOK, gin.H{"incident_id": incidentID, "cache": cache})
}

// DeleteIncidentCache handles DELETE /api/sysop/incident-cache/:id
func (h *SysOpHandlers) DeleteIncidentCache(c *gin.Context) {
	incidentID := c.Param("id")

	if err := h.incidentService.DeleteCache(c.Request.Context(), incidentID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Incident cache not found"})
			return
		}
		h.logger.Incidents().Error("Failed to delete incident cache", "error", err.Error(), "incidentId", incidentID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete incident cache"})
		return
	}

	h.logger.Incidents().Info("Incident cache deleted by sysop", "incidentId", incidentID)
	c.Status(http.StatusNoContent)
}
