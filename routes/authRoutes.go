package routes

import (
	"civicpulse-be/controllers"
	"civicpulse-be/middlewares"

	"github.com/gin-gonic/gin"
)

// AuthRoutes sets up the authentication and gamification routes
func AuthRoutes(r *gin.Engine) {
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", controllers.RegisterUser)
		auth.POST("/login", controllers.LoginUser)
		auth.POST("/logout", controllers.LogoutUser)
		auth.GET("/me", middlewares.AuthMiddleware(), controllers.GetMe)
		auth.GET("/leaderboard", controllers.GetLeaderboard)
		auth.GET("/my-rank", middlewares.AuthMiddleware(), controllers.GetMyRank)
	}
}
