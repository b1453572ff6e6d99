package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/webfutureiorepo/supabase/internal/application/services"
	"github.com/webfutureiorepo/supabase/internal/domain/storage"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/performance"
)

// CreateFolderRequest is the body of POST /api/storage/buckets/:bucket/folders.
type CreateFolderRequest struct {
	Path    string `json:"path"`
	Name    string `json:"name" binding:"required"`
	Autofix bool   `json:"autofix"`
}

// ValidateFolderNameRequest is the body of POST /api/storage/folder-name/validate.
type ValidateFolderNameRequest struct {
	Name string `json:"name"`
}

// SanitizeRequest is the body of POST /api/storage/sanitize.
type SanitizeRequest struct {
	Columns     []storage.Column `json:"columns"`
	Name        string           `json:"name"`
	ColumnIndex *int             `json:"columnIndex"`
	Autofix     bool             `json:"autofix"`
}

// PathsRequest is the body of POST /api/storage/paths.
type PathsRequest struct {
	Bucket        string         `json:"bucket"`
	OpenedFolders []storage.Item `json:"openedFolders"`
	IncludeBucket *bool          `json:"includeBucket"`
	Index         *int           `json:"index"`
}

// UploadEstimateRequest is the body of POST /api/storage/uploads/estimate.
type UploadEstimateRequest struct {
	Progresses []storage.UploadProgress `json:"progresses"`
}

// StorageHandlers contains the storage explorer endpoints
type StorageHandlers struct {
	explorerService *services.StorageExplorerService
	logger          *logging.ChanneledLogger
	perfTracker     *performance.Tracker
}

// NewStorageHandlers creates storage handlers with injected dependencies
func NewStorageHandlers(explorerService *services.StorageExplorerService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *StorageHandlers {
	return &StorageHandlers{
		explorerService: explorerService,
		logger:          logger,
		perfTracker:     perfTracker,
	}
}

// ListObjects handles GET /api/storage/buckets/:bucket/objects?path=a/b
func (h *StorageHandlers) ListObjects(c *gin.Context) {
	start := time.Now()
	h.logger.Storage().Debug("Received list objects request", "method", c.Request.Method, "path", c.Request.URL.Path)

	marker := h.perfTracker.StartOperation("list_storage_objects_request", "studio")
	defer marker.Complete()

	bucket := c.Param("bucket")
	openedFolders := storage.FoldersFromPath(c.Query("path"))

	items, err := h.explorerService.ListFolder(c.Request.Context(), bucket, openedFolders)
	if err != nil {
		marker.SetError(err)
		h.writeExplorerError(c, err)
		return
	}

	h.logger.Storage().Info("List objects request completed", "bucket", bucket, "count", len(items), "duration", time.Since(start))

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for ListObjects request", "duration", time.Since(start), "success", true)
	c.JSON(http.StatusOK, gin.H{
		"path":  storage.GetPathAlongOpenedFolders(openedFolders, bucket, false),
		"items": items,
	})
}

// CreateFolder handles POST /api/storage/buckets/:bucket/folders
func (h *StorageHandlers) CreateFolder(c *gin.Context) {
	start := time.Now()
	h.logger.Storage().Debug("Received create folder request", "method", c.Request.Method, "path", c.Request.URL.Path)

	marker := h.perfTracker.StartOperation("create_storage_folder_request", "studio")
	defer marker.Complete()

	var req CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	bucket := c.Param("bucket")
	path, err := h.explorerService.CreateFolder(c.Request.Context(), bucket, storage.FoldersFromPath(req.Path), req.Name, req.Autofix)
	if err != nil {
		marker.SetError(err)
		h.writeExplorerError(c, err)
		return
	}

	marker.SetSuccess(true)
	h.logger.Perf().Info("Performance for CreateFolder request", "duration", time.Since(start), "success", true)
	c.JSON(http.StatusCreated, gin.H{"path": path})
}

// ValidateFolderName handles POST /api/storage/folder-name/validate
func (h *StorageHandlers) ValidateFolderName(c *gin.Context) {
	var req ValidateFolderNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	message, invalid := storage.ValidateFolderName(req.Name)
	c.JSON(http.StatusOK, gin.H{"valid": !invalid, "error": message})
}

// SanitizeName handles POST /api/storage/sanitize
func (h *StorageHandlers) SanitizeName(c *gin.Context) {
	var req SanitizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	name, err := h.explorerService.SanitizeName(req.Columns, storage.SanitizeOptions{
		Name:        req.Name,
		ColumnIndex: req.ColumnIndex,
		Autofix:     req.Autofix,
	})
	if err != nil {
		h.writeExplorerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name})
}

// ResolvePaths handles POST /api/storage/paths
func (h *StorageHandlers) ResolvePaths(c *gin.Context) {
	var req PathsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	includeBucket := true
	if req.IncludeBucket != nil {
		includeBucket = *req.IncludeBucket
	}
	index := len(req.OpenedFolders)
	if req.Index != nil {
		index = *req.Index
	}

	c.JSON(http.StatusOK, gin.H{
		"path":        storage.GetPathAlongOpenedFolders(req.OpenedFolders, req.Bucket, includeBucket),
		"pathToIndex": storage.GetPathAlongFoldersToIndex(req.OpenedFolders, index),
	})
}

// EstimateUpload handles POST /api/storage/uploads/estimate
func (h *StorageHandlers) EstimateUpload(c *gin.Context) {
	var req UploadEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	remaining := storage.CalculateTotalRemainingTime(req.Progresses)
	c.JSON(http.StatusOK, gin.H{
		"remainingTime": remaining,
		"formatted":     storage.FormatTime(remaining),
	})
}

func (h *StorageHandlers) writeExplorerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrFolderNameInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrDuplicateName):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrBucketNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Storage().Error("Storage explorer request failed", "error", err.Error(), "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Storage request failed"})
	}
}
