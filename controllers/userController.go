package controllers

import (
	"log"
	"net/http"
	"time"

	"civicpulse-be/models"
	"civicpulse-be/query"
	authUtils "civicpulse-be/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

// GetProfile returns the authenticated user's profile.
func GetProfile(c *gin.Context) {
	userObjID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	var user models.User
	if err := userCollection.FindOne(ctx, bson.M{"_id": userObjID}).Decode(&user); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetMyIssues lists the issues the authenticated user reported.
func GetMyIssues(c *gin.Context) {
	userObjID, ok := currentUserID(c)
	if !ok {
		return
	}

	listIssues(c, query.PublicLimits, bson.M{"reporter": userObjID})
}

// GetVotedIssues lists the issues the authenticated user has voted on,
// in either direction.
func GetVotedIssues(c *gin.Context) {
	userObjID, ok := currentUserID(c)
	if !ok {
		return
	}

	listIssues(c, query.PublicLimits, bson.M{"$or": []bson.M{
		{"upvoters": userObjID},
		{"downvoters": userObjID},
	}})
}

// UpdatePreferences replaces the user's notification preferences.
func UpdatePreferences(c *gin.Context) {
	userObjID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input struct {
		EmailNotifications   *bool    `json:"emailNotifications,omitempty"`
		StatusChangeAlerts   *bool    `json:"statusChangeAlerts,omitempty"`
		SubscribedCategories []string `json:"subscribedCategories,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		authUtils.BindingErrors(c, err)
		return
	}

	update := bson.M{"updatedAt": time.Now()}
	if input.EmailNotifications != nil {
		update["preferences.emailNotifications"] = *input.EmailNotifications
	}
	if input.StatusChangeAlerts != nil {
		update["preferences.statusChangeAlerts"] = *input.StatusChangeAlerts
	}
	if input.SubscribedCategories != nil {
		categories := make([]models.IssueCategory, 0, len(input.SubscribedCategories))
		for _, cat := range input.SubscribedCategories {
			if !models.ValidCategory(cat) {
				authUtils.ValidationError(c, "subscribedCategories", "Invalid category: "+cat)
				return
			}
			categories = append(categories, models.IssueCategory(cat))
		}
		update["preferences.subscribedCategories"] = categories
	}

	ctx, cancel := requestContext()
	defer cancel()

	res, err := userCollection.UpdateOne(ctx, bson.M{"_id": userObjID}, bson.M{"$set": update})
	if err != nil {
		log.Println("Error updating preferences:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update preferences"})
		return
	}
	if res.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Preferences updated successfully"})
}

// DeleteAccount deletes the authenticated user and cascades deletion of
// every issue they reported.
func DeleteAccount(c *gin.Context) {
	userObjID, ok := currentUserID(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	res, err := userCollection.DeleteOne(ctx, bson.M{"_id": userObjID})
	if err != nil {
		log.Println("Error deleting user:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete account"})
		return
	}
	if res.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if _, err := issueCollection.DeleteMany(ctx, bson.M{"reporter": userObjID}); err != nil {
		log.Println("Error cascading issue deletion:", err)
	}

	c.SetCookie("auth_token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully"})
}
