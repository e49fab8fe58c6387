package routers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jobsvc/internal/app/pkg/logger"
	"jobsvc/internal/app/server/handlers/health"
	"jobsvc/internal/app/server/handlers/joborder"
	"jobsvc/internal/app/server/middlewares"
)

// SetupRoutes 配置所有路由，使用 Route Group 分类
func SetupRoutes(
	jobOrderHandler *joborder.JobOrderHandler,
	healthHandler *health.HealthHandler,
	log logger.Logger,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.CORS())
	r.Use(middlewares.Logger(log))
	r.Use(middlewares.Metrics())
	r.Use(middlewares.ErrorHandler())

	r.GET("/health", healthHandler.Check)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		jobs := v1.Group("/jobs")
		{
			jobs.GET("", jobOrderHandler.List)
			jobs.POST("/:type", jobOrderHandler.Create)
			jobs.GET("/:id", jobOrderHandler.Get)
			jobs.PUT("/:id/start", jobOrderHandler.Start)
			jobs.PUT("/:id/cancel", jobOrderHandler.Cancel)
			jobs.PUT("/:id/resume", jobOrderHandler.Resume)
			jobs.PUT("/:id/complete", jobOrderHandler.Complete)
			jobs.PUT("/:id/error", jobOrderHandler.Error)
			jobs.PUT("/:id/expire", jobOrderHandler.Expire)
		}
	}

	return r
}
