package routes

import (
	"civicpulse-be/controllers"
	"civicpulse-be/middlewares"

	"github.com/gin-gonic/gin"
)

// AnalyticsRoutes sets up the analytics routes
func AnalyticsRoutes(r *gin.Engine) {
	analytics := r.Group("/api/analytics")
	{
		analytics.GET("/summary", middlewares.AuthMiddleware(), controllers.GetAnalyticsSummary)
	}
}
