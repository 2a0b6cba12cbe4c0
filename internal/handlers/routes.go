package handlers

import (
	"context"
	"net/http"
	"time"

	"tasks-edge-api/pkg/lambda"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// FunctionsPrefix is the path prefix the hosted edge runtime serves
// functions under
const FunctionsPrefix = "/functions/v1"

// RouterConfig holds configuration for setting up routes
type RouterConfig struct {
	Handlers    *Handlers
	HealthCheck func(ctx context.Context) error
	Version     string
}

// SetupRoutes mounts every function on router, both at the root and under
// FunctionsPrefix so client URLs written for the hosted runtime work locally
func SetupRoutes(router *gin.Engine, config *RouterConfig) {
	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/health", healthHandler(config))

	tasks := lambda.GinHandler(config.Handlers.TasksFunction())
	auth := lambda.GinHandler(config.Handlers.AuthFunction())
	push := lambda.GinHandler(config.Handlers.PushFunction())
	upload := lambda.GinHandler(config.Handlers.UploadFunction())

	for _, group := range []*gin.RouterGroup{&router.RouterGroup, router.Group(FunctionsPrefix)} {
		group.Any("/tasks", tasks)
		group.Any("/tasks/*rest", tasks)
		group.Any("/auth/*action", auth)
		group.Any("/push", push)
		group.Any("/upload", upload)
	}
}

func healthHandler(config *RouterConfig) gin.HandlerFunc {
	version := config.Version
	if version == "" {
		version = "1.0.0"
	}
	return func(c *gin.Context) {
		if config.HealthCheck != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()
			if err := config.HealthCheck(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unhealthy",
					"error":  err.Error(),
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   "tasks-edge-api",
			"version":   version,
			"timestamp": time.Now().UTC(),
		})
	}
}
