// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/Chenyi0309/inventory-dashboard/internal/api/handlers"
	"github.com/Chenyi0309/inventory-dashboard/internal/api/middleware"
	"github.com/Chenyi0309/inventory-dashboard/internal/metrics"
	"github.com/Chenyi0309/inventory-dashboard/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	InventoryService *service.InventoryService
	ImportService    *service.ImportService
	UploadDir        string
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	apiGroup := router.Group("/api/v1")

	if services != nil && services.InventoryService != nil {
		inventoryHandler := handlers.NewInventoryHandler(services.InventoryService, services.ImportService, services.UploadDir)
		inventoryGroup := apiGroup.Group("/inventory")
		{
			inventoryGroup.GET("/summary", inventoryHandler.GetSummary)
			inventoryGroup.GET("/summary.csv", inventoryHandler.GetSummaryCSV)
			inventoryGroup.GET("/items/:item", inventoryHandler.GetItemDetail)
			inventoryGroup.GET("/categories", inventoryHandler.GetCategories)
			inventoryGroup.POST("/records", inventoryHandler.RecordEvents)
			inventoryGroup.POST("/refresh", inventoryHandler.Refresh)
			if services.ImportService != nil {
				inventoryGroup.POST("/import", inventoryHandler.ImportFiles)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
