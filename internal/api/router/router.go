package router

import (
	"context"
	"net/http"
	"time"

	"github.com/cuongbtq/list-import/internal/api/handler"
	"github.com/gin-gonic/gin"
)

const healthCheckTimeout = 2 * time.Second

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())

	r.GET("/health", healthHandler(deps.Checks))

	importHandler := handler.NewImportHandler(deps)
	listHandler := handler.NewListHandler(deps)

	v1 := r.Group("/api/v1")
	{
		imports := v1.Group("/imports")
		{
			// POST /api/v1/imports - Submit an import job
			imports.POST("", importHandler.CreateImport)

			// GET /api/v1/imports/:job_id - Poll job status
			imports.GET("/:job_id", importHandler.GetImport)
		}

		lists := v1.Group("/lists")
		{
			lists.GET("", listHandler.ListLists)
			lists.GET("/:list_id", listHandler.GetList)
			lists.GET("/:list_id/rows", listHandler.ListRows)
		}
	}

	return r
}

// healthHandler reports unhealthy when any dependency check fails
func healthHandler(checks map[string]handler.HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
		defer cancel()

		status := http.StatusOK
		results := make(gin.H, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}

		health := "healthy"
		if status != http.StatusOK {
			health = "unhealthy"
		}
		c.JSON(status, gin.H{
			"status":  health,
			"service": "list-import-api",
			"checks":  results,
		})
	}
}
