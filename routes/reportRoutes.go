package routes

import (
	"civicpulse-be/controllers"
	"civicpulse-be/middlewares"

	"github.com/gin-gonic/gin"
)

// ReportRoutes sets up the report, comment and upload routes
func ReportRoutes(r *gin.Engine, reportDailyLimit int) {
	reports := r.Group("/api/reports")
	{
		reports.GET("", controllers.GetAllReports)
		reports.POST("", middlewares.AuthMiddleware(), middlewares.ReportRateLimiter(reportDailyLimit), controllers.SubmitReport)
		reports.GET("/:id", controllers.GetReport)
		reports.PATCH("/:id", middlewares.AuthMiddleware(), controllers.UpdateReportStatus)
		reports.PATCH("/:id/resolve", middlewares.AuthMiddleware(), controllers.ResolveReport)
		reports.PATCH("/:id/upvote", middlewares.AuthMiddleware(), controllers.ToggleUpvote)
		reports.PATCH("/:id/confirm", middlewares.AuthMiddleware(), controllers.ToggleConfirm)

		reports.GET("/:id/comments", controllers.GetComments)
		reports.POST("/:id/comments", middlewares.AuthMiddleware(), controllers.CreateComment)
	}

	r.GET("/uploads/:id", controllers.ServeUpload)
}
