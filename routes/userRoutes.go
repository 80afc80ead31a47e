package routes

import (
	"civicpulse-be/controllers"
	"civicpulse-be/middlewares"

	"github.com/gin-gonic/gin"
)

// UserRoutes sets up the authenticated user's self-service routes
func UserRoutes(r *gin.Engine) {
	users := r.Group("/api/users", middlewares.AuthMiddleware())
	{
		users.GET("/profile", controllers.GetProfile)
		users.GET("/issues", controllers.GetMyIssues)
		users.GET("/voted-issues", controllers.GetVotedIssues)
		users.PUT("/preferences", controllers.UpdatePreferences)
		users.DELETE("/account", controllers.DeleteAccount)
	}
}
