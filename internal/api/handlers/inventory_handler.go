// internal/api/handlers/inventory_handler.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/Chenyi0309/inventory-dashboard/internal/domain"
	"github.com/Chenyi0309/inventory-dashboard/internal/export"
	"github.com/Chenyi0309/inventory-dashboard/internal/repository"
	"github.com/Chenyi0309/inventory-dashboard/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type InventoryHandler struct {
	inventory *service.InventoryService
	imports   *service.ImportService
	uploadDir string
	now       func() time.Time
}

func NewInventoryHandler(inventory *service.InventoryService, imports *service.ImportService, uploadDir string) *InventoryHandler {
	return &InventoryHandler{
		inventory: inventory,
		imports:   imports,
		uploadDir: uploadDir,
		now:       time.Now,
	}
}

// GetSummary returns every item's forecast with the dashboard KPIs
func (h *InventoryHandler) GetSummary(c *gin.Context) {
	dashboard, ok := h.dashboard(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// GetSummaryCSV streams the same rows as GetSummary as a CSV download
func (h *InventoryHandler) GetSummaryCSV(c *gin.Context) {
	dashboard, ok := h.dashboard(c)
	if !ok {
		return
	}

	c.Header("Content-Type", export.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(h.now())))
	c.Status(http.StatusOK)
	if err := export.WriteSummaries(c.Writer, dashboard.Summaries); err != nil {
		log.Error().Err(err).Msg("failed to write summary csv")
	}
}

// GetItemDetail returns the usage breakdown and history of one item
func (h *InventoryHandler) GetItemDetail(c *gin.Context) {
	detail, err := h.inventory.GetItemDetail(c.Request.Context(), c.Param("item"), h.now())
	if err != nil {
		if errors.Is(err, service.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Msg("failed to fetch item detail")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch item detail"})
		return
	}

	c.JSON(http.StatusOK, detail)
}

// GetCategories returns the distinct categories in the event table
func (h *InventoryHandler) GetCategories(c *gin.Context) {
	categories, err := h.inventory.Categories(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch categories")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch categories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// RecordEvents appends a batch entry and reports the outcome of every line
func (h *InventoryHandler) RecordEvents(c *gin.Context) {
	var entry domain.Entry
	if err := c.ShouldBindJSON(&entry); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcomes, err := h.inventory.RecordEvents(c.Request.Context(), entry, h.now())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEntry):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrReadOnly):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			log.Error().Err(err).Msg("failed to record events")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record events"})
		}
		return
	}

	appended := 0
	for _, o := range outcomes {
		if o.Status == domain.EntryOK {
			appended++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"outcomes": outcomes,
		"appended": appended,
	})
}

// ImportFiles handles ledger file uploads and appends their rows
func (h *InventoryHandler) ImportFiles(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid form data"})
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}

	uploadedFiles := make([]*domain.UploadedFile, 0, len(files))
	for _, file := range files {
		if !service.IsLedgerFile(file.Filename) {
			log.Warn().Str("filename", file.Filename).Msg("skipping unsupported upload")
			continue
		}

		// Save the uploaded file temporarily
		filePath := filepath.Join(h.uploadDir, uuid.NewString()+"_"+filepath.Base(file.Filename))
		if err := c.SaveUploadedFile(file, filePath); err != nil {
			log.Error().Err(err).Str("filename", file.Filename).Msg("failed to save uploaded file")
			continue
		}
		defer os.Remove(filePath)

		uploadedFiles = append(uploadedFiles, &domain.UploadedFile{
			Filename: file.Filename,
			Path:     filePath,
			Size:     file.Size,
		})
	}

	if len(uploadedFiles) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no valid files to process"})
		return
	}

	report, err := h.imports.ImportFiles(c.Request.Context(), uploadedFiles)
	if err != nil {
		if errors.Is(err, repository.ErrReadOnly) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "report": report})
			return
		}
		log.Error().Err(err).Msg("failed to import files")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to import files", "report": report})
		return
	}

	c.JSON(http.StatusOK, report)
}

// Refresh clears the cached event table
func (h *InventoryHandler) Refresh(c *gin.Context) {
	if err := h.inventory.Refresh(c.Request.Context()); err != nil {
		log.Error().Err(err).Msg("failed to refresh cache")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to refresh cache"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "cache cleared"})
}

func (h *InventoryHandler) dashboard(c *gin.Context) (*service.Dashboard, bool) {
	var query service.Query
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters"})
		return nil, false
	}

	dashboard, err := h.inventory.GetSummaries(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, service.ErrInvalidQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return nil, false
		}
		log.Error().Err(err).Msg("failed to fetch inventory summary")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch inventory summary"})
		return nil, false
	}

	return dashboard, true
}
