package controllers

import (
	"log"
	"net/http"
	"time"

	"civicpulse-be/models"
	"civicpulse-be/query"
	"civicpulse-be/stats"
	authUtils "civicpulse-be/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetDashboard aggregates issue and user statistics for the admin
// dashboard. Like the public stats endpoint, it degrades to zeroed
// payloads when the store is unreachable.
func GetDashboard(c *gin.Context) {
	ctx, cancel := requestContext()
	defer cancel()

	issueOverview := stats.EmptyIssueOverview()
	if cursor, err := issueCollection.Find(ctx, bson.M{}); err == nil {
		var issues []models.Issue
		if err := cursor.All(ctx, &issues); err == nil {
			issueOverview = stats.BuildIssueOverview(issues, time.Now())
		} else {
			log.Println("Dashboard issue decode failed:", err)
		}
	} else {
		log.Println("Dashboard issue query failed:", err)
	}

	userOverview := stats.EmptyUserOverview()
	if cursor, err := userCollection.Find(ctx, bson.M{}); err == nil {
		var users []models.User
		if err := cursor.All(ctx, &users); err == nil {
			userOverview = stats.BuildUserOverview(users)
		} else {
			log.Println("Dashboard user decode failed:", err)
		}
	} else {
		log.Println("Dashboard user query failed:", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"issues": issueOverview,
		"users":  userOverview,
	})
}

// AdminListIssues lists all issues, public or not, with the larger
// admin page cap.
func AdminListIssues(c *gin.Context) {
	listIssues(c, query.AdminLimits, bson.M{})
}

// UpdateIssueStatus transitions an issue's status and optionally
// assigns it to a user. Resolution time is recorded on the transition
// into Resolved or Closed.
func UpdateIssueStatus(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		authUtils.ValidationError(c, "id", "Invalid issue ID")
		return
	}

	var input struct {
		Status     string  `json:"status" binding:"required"`
		AssignedTo *string `json:"assignedTo,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		authUtils.BindingErrors(c, err)
		return
	}
	if !models.ValidStatus(input.Status) {
		authUtils.ValidationError(c, "status", "Invalid status")
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	var issue models.Issue
	err = issueCollection.FindOne(ctx, bson.M{"_id": issueID}).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return
	}

	issue.SetStatus(models.IssueStatus(input.Status))

	update := bson.M{"$set": bson.M{
		"status":       issue.Status,
		"lastActivity": issue.LastActivity,
		"updatedAt":    issue.UpdatedAt,
	}}
	if issue.ResolvedAt != nil {
		update["$set"].(bson.M)["resolvedAt"] = issue.ResolvedAt
	} else {
		update["$unset"] = bson.M{"resolvedAt": ""}
	}

	if input.AssignedTo != nil {
		assigneeID, err := primitive.ObjectIDFromHex(*input.AssignedTo)
		if err != nil {
			authUtils.ValidationError(c, "assignedTo", "Invalid user ID")
			return
		}
		update["$set"].(bson.M)["assignedTo"] = assigneeID
	}

	if _, err := issueCollection.UpdateOne(ctx, bson.M{"_id": issueID}, update); err != nil {
		log.Println("Error updating issue status:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update issue status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Issue status updated successfully",
		"status":     issue.Status,
		"resolvedAt": issue.ResolvedAt,
	})
}

// UpdateIssuePriority sets an issue's priority.
func UpdateIssuePriority(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		authUtils.ValidationError(c, "id", "Invalid issue ID")
		return
	}

	var input struct {
		Priority string `json:"priority" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		authUtils.BindingErrors(c, err)
		return
	}
	if !models.ValidPriority(input.Priority) {
		authUtils.ValidationError(c, "priority", "Invalid priority")
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	now := time.Now()
	res, err := issueCollection.UpdateOne(ctx,
		bson.M{"_id": issueID},
		bson.M{"$set": bson.M{
			"priority":     input.Priority,
			"lastActivity": now,
			"updatedAt":    now,
		}},
	)
	if err != nil {
		log.Println("Error updating issue priority:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update issue priority"})
		return
	}
	if res.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Issue priority updated successfully"})
}

// ListUsers lists all registered users with admin pagination.
func ListUsers(c *gin.Context) {
	params, err := query.ParseListParams(c.Request.URL.Query(), query.AdminLimits)
	if err != nil {
		if verr, ok := err.(*query.ValidationError); ok {
			authUtils.ValidationError(c, verr.Field, verr.Message)
		} else {
			authUtils.ValidationError(c, "query", "Invalid query parameters")
		}
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	filter := bson.M{}
	if role := c.Query("role"); role != "" && role != "all" {
		if !models.ValidRole(role) {
			authUtils.ValidationError(c, "role", "Invalid role")
			return
		}
		filter["role"] = role
	}

	totalCount, err := userCollection.CountDocuments(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count users"})
		return
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(params.Skip())).
		SetLimit(int64(params.Limit)).
		SetProjection(bson.M{"password": 0})

	cursor, err := userCollection.Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve users"})
		return
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":      users,
		"pagination": params.Paginate(totalCount),
	})
}

// UpdateUserRole promotes or demotes a user.
func UpdateUserRole(c *gin.Context) {
	targetID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		authUtils.ValidationError(c, "id", "Invalid user ID")
		return
	}

	var input struct {
		Role string `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		authUtils.BindingErrors(c, err)
		return
	}
	if !models.ValidRole(input.Role) {
		authUtils.ValidationError(c, "role", "Invalid role")
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	res, err := userCollection.UpdateOne(ctx,
		bson.M{"_id": targetID},
		bson.M{"$set": bson.M{"role": input.Role, "updatedAt": time.Now()}},
	)
	if err != nil {
		log.Println("Error updating user role:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user role"})
		return
	}
	if res.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User role updated successfully"})
}

// DeleteUser removes a user account and cascades deletion of the issues
// they reported.
func DeleteUser(c *gin.Context) {
	targetID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		authUtils.ValidationError(c, "id", "Invalid user ID")
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	res, err := userCollection.DeleteOne(ctx, bson.M{"_id": targetID})
	if err != nil {
		log.Println("Error deleting user:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}
	if res.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if _, err := issueCollection.DeleteMany(ctx, bson.M{"reporter": targetID}); err != nil {
		log.Println("Error cascading issue deletion:", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
