package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lmartins/obsidian-sync/internal/api/handler"
)

// SetupRouter configures and returns the Gin router with all routes
func SetupRouter(deps *handler.Dependencies) *gin.Engine {
	r := gin.New()

	// Middleware
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(deps.Logger))
	r.Use(CORSMiddleware())
	r.Use(AuthMiddleware(deps.AuthSecret, deps.Logger))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "obsidian-sync-api",
		})
	})

	processingHandler := handler.NewProcessingHandler(deps)
	configHandler := handler.NewConfigHandler(deps)
	vaultHandler := handler.NewVaultHandler(deps)

	api := r.Group("/api")
	{
		processing := api.Group("/processing")
		{
			// POST /api/processing/text - Submit text for processing
			processing.POST("/text", processingHandler.SubmitText)

			// POST /api/processing/file - Submit an uploaded document
			processing.POST("/file", processingHandler.SubmitFile)

			// GET /api/processing/status/:job_id - Get job status
			processing.GET("/status/:job_id", processingHandler.GetStatus)

			// GET /api/processing/jobs - List jobs with paging and status filter
			processing.GET("/jobs", processingHandler.ListJobs)

			// DELETE /api/processing/jobs/:job_id - Cancel a job
			processing.DELETE("/jobs/:job_id", processingHandler.CancelJob)

			// POST /api/processing/jobs/:job_id/retry - Retry a failed job
			processing.POST("/jobs/:job_id/retry", processingHandler.RetryJob)

			// GET /api/processing/ws - Job status websocket stream
			processing.GET("/ws", processingHandler.StreamUpdates)
		}

		configGroup := api.Group("/config")
		{
			configGroup.GET("", configHandler.GetConfig)
			configGroup.PUT("", configHandler.UpdateConfig)
		}

		vaultGroup := api.Group("/vault")
		{
			vaultGroup.GET("/info", vaultHandler.GetInfo)
			vaultGroup.POST("/validate", vaultHandler.Validate)
			vaultGroup.GET("/recent", vaultHandler.GetRecent)
		}
	}

	return r
}
