package routes

import (
	"os"
	"strconv"

	"civicpulse-be/controllers"
	"civicpulse-be/middlewares"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue routes
func IssueRoutes(r *gin.Engine) {
	rateLimit := 10
	if s := os.Getenv("ISSUE_RATE_LIMIT"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			rateLimit = n
		}
	}

	issues := r.Group("/api/issues")
	{
		issues.GET("", middlewares.OptionalAuthMiddleware(), controllers.ListIssues)
		issues.GET("/recent", controllers.RecentIssues)
		issues.GET("/stats/overview", controllers.GetIssueStatsOverview)
		issues.GET("/:id", middlewares.OptionalAuthMiddleware(), controllers.GetIssue)
		issues.POST("", middlewares.AuthMiddleware(), middlewares.IssueRateLimiter(rateLimit), controllers.CreateIssue)
		issues.PUT("/:id", middlewares.AuthMiddleware(), controllers.UpdateIssue)
		issues.DELETE("/:id", middlewares.AuthMiddleware(), controllers.DeleteIssue)
		issues.POST("/:id/vote", middlewares.AuthMiddleware(), controllers.VoteOnIssue)
		issues.POST("/:id/comments", middlewares.AuthMiddleware(), controllers.AddComment)
	}
}
