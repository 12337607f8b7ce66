package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"catalog-sync/internal/app/usecases"
	"catalog-sync/internal/config"
	"catalog-sync/internal/logging"
)

// Services are the pipeline entry points the handlers call.
type Services struct {
	Marketplace usecases.ImportMarketplaceService
	CSV         usecases.ImportCSVService
	Archive     usecases.ImportArchiveService
	Export      usecases.ExportCatalogService
}

const maxUploadSize = 256 << 20

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, services Services, logger logging.LoggerService) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = 32 << 20

	router.Use(customRecovery(logger.Zap()))
	router.Use(loggingMiddleware(logger.Zap()))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	h := &handlers{services: services, logger: logger}
	v1 := router.Group("/v1")
	{
		v1.POST("/marketplace/import", h.importMarketplace)
		v1.POST("/import/csv", h.importCSV)
		v1.POST("/import/archive", h.importArchive)
		v1.GET("/export", h.export)
	}

	return router
}

// customRecovery logs panics and answers 500
func customRecovery(logger *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Error("Panic recovered",
			zap.Any("error", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal server error",
			"details": fmt.Sprintf("%v", recovered),
		})
	})
}

func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
		)
	}
}
