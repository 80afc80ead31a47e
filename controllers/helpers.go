package controllers

import (
	"context"
	"net/http"
	"time"

	"civicpulse-be/authz"
	"civicpulse-be/config"
	"civicpulse-be/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var issueCollection = config.GetCollection("issues")
var userCollection = config.GetCollection("users")

// requestContext is the per-request store deadline used everywhere.
func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// currentUserID reads the user_id set by the auth middleware. It writes
// the error response itself and reports ok=false when absent/garbled.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return primitive.NilObjectID, false
	}
	objID, err := primitive.ObjectIDFromHex(userID.(string))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return primitive.NilObjectID, false
	}
	return objID, true
}

// currentActor loads the caller's user record so capability checks see
// their current role, not the one at token issue time.
func currentActor(ctx context.Context, c *gin.Context) (authz.Actor, bool) {
	userObjID, ok := currentUserID(c)
	if !ok {
		return authz.Actor{}, false
	}

	var user models.User
	if err := userCollection.FindOne(ctx, bson.M{"_id": userObjID}).Decode(&user); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return authz.Actor{}, false
	}
	return authz.Actor{ID: user.ID, Role: user.Role}, true
}

// reporterInfo resolves the reporter reference the way list responses
// need it. Anonymous issues expose no identity.
func reporterInfo(ctx context.Context, issue *models.Issue) map[string]interface{} {
	if issue.IsAnonymous {
		return map[string]interface{}{"name": "Anonymous"}
	}

	info := map[string]interface{}{"id": issue.Reporter}
	var reporter models.User
	if err := userCollection.FindOne(ctx, bson.M{"_id": issue.Reporter}).Decode(&reporter); err == nil {
		info["name"] = reporter.Name
		info["email"] = reporter.Email
	}
	return info
}

// issueView is the list/detail response shape: the issue plus derived
// vote fields and the resolved reporter.
type issueView struct {
	models.Issue
	Votes     int                    `json:"votes"`
	Upvoted   bool                   `json:"upvoted"`
	Downvoted bool                   `json:"downvoted"`
	Reporter  map[string]interface{} `json:"reporter"`
}

func buildIssueView(ctx context.Context, issue models.Issue, viewer *primitive.ObjectID) issueView {
	view := issueView{
		Issue:    issue,
		Votes:    issue.VoteCount(),
		Reporter: reporterInfo(ctx, &issue),
	}
	if viewer != nil {
		view.Upvoted, view.Downvoted = issue.VoteStateFor(*viewer)
	}
	return view
}

func buildIssueViews(ctx context.Context, issues []models.Issue, viewer *primitive.ObjectID) []issueView {
	views := make([]issueView, 0, len(issues))
	for _, issue := range issues {
		views = append(views, buildIssueView(ctx, issue, viewer))
	}
	return views
}

// viewerID is the optional authenticated caller on public endpoints.
func viewerID(c *gin.Context) *primitive.ObjectID {
	if userIDStr, exists := c.Get("user_id"); exists {
		if objID, err := primitive.ObjectIDFromHex(userIDStr.(string)); err == nil {
			return &objID
		}
	}
	return nil
}
