package routes

import (
	"civicpulse-be/controllers"
	"civicpulse-be/middlewares"
	"civicpulse-be/models"

	"github.com/gin-gonic/gin"
)

// AdminRoutes sets up the admin triage and user-management routes.
// Moderators may update issue status; everything else is admin only.
func AdminRoutes(r *gin.Engine) {
	admin := r.Group("/api/admin", middlewares.AuthMiddleware())
	{
		admin.GET("/dashboard", middlewares.RequireRole(models.RoleAdmin), controllers.GetDashboard)
		admin.GET("/issues", middlewares.RequireRole(models.RoleAdmin, models.RoleModerator), controllers.AdminListIssues)
		admin.PUT("/issues/:id/status", middlewares.RequireRole(models.RoleAdmin, models.RoleModerator), controllers.UpdateIssueStatus)
		admin.PUT("/issues/:id/priority", middlewares.RequireRole(models.RoleAdmin), controllers.UpdateIssuePriority)
		admin.GET("/users", middlewares.RequireRole(models.RoleAdmin), controllers.ListUsers)
		admin.PUT("/users/:id/role", middlewares.RequireRole(models.RoleAdmin), controllers.UpdateUserRole)
		admin.DELETE("/users/:id", middlewares.RequireRole(models.RoleAdmin), controllers.DeleteUser)
	}
}
