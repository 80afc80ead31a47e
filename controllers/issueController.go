package controllers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"civicpulse-be/authz"
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

// voteRetries bounds the optimistic-concurrency loop in VoteOnIssue.
const voteRetries = 3

// CreateIssue handles the creation of a new issue
func CreateIssue(c *gin.Context) {
	reporterID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input struct {
		Title       string         `json:"title" binding:"required,max=200"`
		Description string         `json:"description" binding:"required,max=2000"`
		Category    string         `json:"category" binding:"required"`
		Address     string         `json:"address" binding:"required,max=200"`
		Latitude    *float64       `json:"latitude,omitempty"`
		Longitude   *float64       `json:"longitude,omitempty"`
		Images      []models.Image `json:"images,omitempty"`
		Tags        []string       `json:"tags,omitempty"`
		IsPublic    *bool          `json:"isPublic,omitempty"`
		IsAnonymous bool           `json:"isAnonymous,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		authUtils.BindingErrors(c, err)
		return
	}

	if !models.ValidCategory(input.Category) {
		authUtils.ValidationError(c, "category", "Invalid category")
		return
	}
	if input.Latitude != nil && !models.ValidLatitude(*input.Latitude) {
		authUtils.ValidationError(c, "latitude", "Latitude must be between -90 and 90")
		return
	}
	if input.Longitude != nil && !models.ValidLongitude(*input.Longitude) {
		authUtils.ValidationError(c, "longitude", "Longitude must be between -180 and 180")
		return
	}

	isPublic := true
	if input.IsPublic != nil {
		isPublic = *input.IsPublic
	}

	now := time.Now()
	issue := models.Issue{
		ID:          primitive.NewObjectID(),
		Title:       input.Title,
		Description: input.Description,
		Category:    models.IssueCategory(input.Category),
		Priority:    models.PriorityMedium,
		Status:      models.StatusOpen,
		Reporter:    reporterID,
		Location: models.Location{
			Address:   input.Address,
			Latitude:  input.Latitude,
			Longitude: input.Longitude,
		},
		Images:       input.Images,
		Tags:         input.Tags,
		IsPublic:     isPublic,
		IsAnonymous:  input.IsAnonymous,
		LastActivity: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	ctx, cancel := requestContext()
	defer cancel()

	if _, err := issueCollection.InsertOne(ctx, issue); err != nil {
		log.Println("Error inserting issue:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create issue"})
		return
	}

	c.JSON(http.StatusCreated, issue)
}

// listIssues is the shared body of the public and admin listings.
func listIssues(c *gin.Context, limits query.Limits, baseFilter bson.M) {
	params, err := query.ParseListParams(c.Request.URL.Query(), limits)
	if err != nil {
		var verr *query.ValidationError
		if errors.As(err, &verr) {
			authUtils.ValidationError(c, verr.Field, verr.Message)
		} else {
			authUtils.ValidationError(c, "query", "Invalid query parameters")
		}
		return
	}

	// $and keeps endpoint clauses like the voted-issues $or from
	// colliding with the search $or.
	filter := query.And(params.Filter(), baseFilter)

	ctx, cancel := requestContext()
	defer cancel()

	totalCount, err := issueCollection.CountDocuments(ctx, filter)
	if err != nil {
		log.Println("Error counting issues:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count issues"})
		return
	}

	var cursor *mongo.Cursor
	if params.NeedsPipeline() {
		cursor, err = issueCollection.Aggregate(ctx, params.Pipeline(filter))
	} else {
		findOptions := options.Find().
			SetSort(params.Sort()).
			SetSkip(int64(params.Skip())).
			SetLimit(int64(params.Limit))
		cursor, err = issueCollection.Find(ctx, filter, findOptions)
	}
	if err != nil {
		log.Println("Error listing issues:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issues"})
		return
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode issues"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":      buildIssueViews(ctx, issues, viewerID(c)),
		"pagination": params.Paginate(totalCount),
	})
}

// ListIssues handles the public issue listing with filtering,
// pagination, and vote state for the optional authenticated caller.
func ListIssues(c *gin.Context) {
	listIssues(c, query.PublicLimits, bson.M{"isPublic": true})
}

// GetIssue retrieves an issue by ID, incrementing its view counter as a
// side effect of the read.
func GetIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		authUtils.ValidationError(c, "id", "Invalid issue ID")
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	var issue models.Issue
	err = issueCollection.FindOneAndUpdate(ctx,
		bson.M{"_id": issueID},
		bson.M{"$inc": bson.M{"viewCount": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&issue)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		} else {
			log.Println("Error retrieving issue:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve issue"})
		}
		return
	}

	c.JSON(http.StatusOK, buildIssueView(ctx, issue, viewerID(c)))
}

// UpdateIssue lets the reporter or a moderator/admin edit issue fields.
func UpdateIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		authUtils.ValidationError(c, "id", "Invalid issue ID")
		return
	}

	var input struct {
		Title       *string        `json:"title,omitempty" binding:"omitempty,max=200"`
		Description *string        `json:"description,omitempty" binding:"omitempty,max=2000"`
		Category    *string        `json:"category,omitempty"`
		Address     *string        `json:"address,omitempty" binding:"omitempty,max=200"`
		Latitude    *float64       `json:"latitude,omitempty"`
		Longitude   *float64       `json:"longitude,omitempty"`
		Images      []models.Image `json:"images,omitempty"`
		Tags        []string       `json:"tags,omitempty"`
		IsPublic    *bool          `json:"isPublic,omitempty"`
	}

	if err := c.ShouldBindJSON(&input); err != nil {
		authUtils.BindingErrors(c, err)
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	actor, ok := currentActor(ctx, c)
	if !ok {
		return
	}

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

	if !authz.Can(actor, authz.EditIssue, &issue) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to update this issue"})
		return
	}

	now := time.Now()
	update := bson.M{"updatedAt": now, "lastActivity": now}
	if input.Title != nil {
		update["title"] = *input.Title
	}
	if input.Description != nil {
		update["description"] = *input.Description
	}
	if input.Category != nil {
		if !models.ValidCategory(*input.Category) {
			authUtils.ValidationError(c, "category", "Invalid category")
			return
		}
		update["category"] = *input.Category
	}
	if input.Address != nil {
		update["location.address"] = *input.Address
	}
	if input.Latitude != nil {
		if !models.ValidLatitude(*input.Latitude) {
			authUtils.ValidationError(c, "latitude", "Latitude must be between -90 and 90")
			return
		}
		update["location.latitude"] = *input.Latitude
	}
	if input.Longitude != nil {
		if !models.ValidLongitude(*input.Longitude) {
			authUtils.ValidationError(c, "longitude", "Longitude must be between -180 and 180")
			return
		}
		update["location.longitude"] = *input.Longitude
	}
	if input.Images != nil {
		update["images"] = input.Images
	}
	if input.Tags != nil {
		update["tags"] = input.Tags
	}
	if input.IsPublic != nil {
		update["isPublic"] = *input.IsPublic
	}

	if _, err := issueCollection.UpdateOne(ctx, bson.M{"_id": issueID}, bson.M{"$set": update}); err != nil {
		log.Println("Error updating issue:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update issue"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Issue updated successfully"})
}

// DeleteIssue lets the reporter or an admin delete an issue. Votes and
// comments are embedded, so the single delete removes them too.
func DeleteIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		authUtils.ValidationError(c, "id", "Invalid issue ID")
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	actor, ok := currentActor(ctx, c)
	if !ok {
		return
	}

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

	if !authz.Can(actor, authz.DeleteIssue, &issue) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not authorized to delete this issue"})
		return
	}

	if _, err := issueCollection.DeleteOne(ctx, bson.M{"_id": issueID}); err != nil {
		log.Println("Error deleting issue:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete issue"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Issue deleted successfully"})
}

// VoteOnIssue toggles the caller's vote. The update is conditional on
// the membership state the toggle was computed from, so two concurrent
// votes can't silently overwrite each other; the loser re-reads and
// retries.
func VoteOnIssue(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		authUtils.ValidationError(c, "id", "Invalid issue ID")
		return
	}

	userObjID, ok := currentUserID(c)
	if !ok {
		return
	}

	var input struct {
		VoteType string `json:"voteType" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		authUtils.BindingErrors(c, err)
		return
	}
	if input.VoteType != string(models.Upvote) && input.VoteType != string(models.Downvote) {
		authUtils.ValidationError(c, "voteType", "voteType must be upvote or downvote")
		return
	}
	vote := models.VoteType(input.VoteType)

	ctx, cancel := requestContext()
	defer cancel()

	for attempt := 0; attempt < voteRetries; attempt++ {
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

		filter, update := voteUpdate(&issue, userObjID, vote)

		res, err := issueCollection.UpdateOne(ctx, filter, update)
		if err != nil {
			log.Println("Error applying vote:", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to apply vote"})
			return
		}
		if res.MatchedCount == 0 {
			// A concurrent vote changed the membership state; retry.
			continue
		}

		result := issue.ApplyVote(userObjID, vote)
		c.JSON(http.StatusOK, gin.H{
			"votes":     result.Count,
			"upvoted":   result.Upvoted,
			"downvoted": result.Downvoted,
		})
		return
	}

	c.JSON(http.StatusConflict, gin.H{"error": "Vote conflicted with concurrent updates, try again"})
}

// voteUpdate builds a conditional update whose filter asserts the exact
// membership state the toggle decision was based on.
func voteUpdate(issue *models.Issue, userID primitive.ObjectID, vote models.VoteType) (bson.M, bson.M) {
	inUp, inDown := issue.VoteStateFor(userID)

	target, opposite := "upvoters", "downvoters"
	inTarget, inOpposite := inUp, inDown
	if vote == models.Downvote {
		target, opposite = "downvoters", "upvoters"
		inTarget, inOpposite = inDown, inUp
	}

	filter := bson.M{"_id": issue.ID}
	now := time.Now()
	set := bson.M{"lastActivity": now, "updatedAt": now}

	switch {
	case inTarget:
		// Toggle off.
		filter[target] = userID
		return filter, bson.M{"$pull": bson.M{target: userID}, "$set": set}
	case inOpposite:
		// Flip.
		filter[opposite] = userID
		filter[target] = bson.M{"$ne": userID}
		return filter, bson.M{
			"$pull":     bson.M{opposite: userID},
			"$addToSet": bson.M{target: userID},
			"$set":      set,
		}
	default:
		// Fresh vote.
		filter[target] = bson.M{"$ne": userID}
		filter[opposite] = bson.M{"$ne": userID}
		return filter, bson.M{"$addToSet": bson.M{target: userID}, "$set": set}
	}
}

// AddComment appends a comment to an issue's thread. Only admins and
// moderators may mark a comment official.
func AddComment(c *gin.Context) {
	issueID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		authUtils.ValidationError(c, "id", "Invalid issue ID")
		return
	}

	var input struct {
		Content    string `json:"content" binding:"required,max=1000"`
		IsOfficial bool   `json:"isOfficial,omitempty"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		authUtils.BindingErrors(c, err)
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	actor, ok := currentActor(ctx, c)
	if !ok {
		return
	}

	if input.IsOfficial && !authz.Can(actor, authz.OfficialComment, nil) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only moderators and admins may post official comments"})
		return
	}

	comment := models.Comment{
		Author:     actor.ID,
		Content:    input.Content,
		IsOfficial: input.IsOfficial,
		CreatedAt:  time.Now(),
	}

	res, err := issueCollection.UpdateOne(ctx,
		bson.M{"_id": issueID},
		bson.M{
			"$push": bson.M{"comments": comment},
			"$set":  bson.M{"lastActivity": comment.CreatedAt, "updatedAt": comment.CreatedAt},
		},
	)
	if err != nil {
		log.Println("Error adding comment:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add comment"})
		return
	}
	if res.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// GetIssueStatsOverview returns public aggregate statistics. When the
// store is unreachable it degrades to a zeroed overview instead of
// failing the request.
func GetIssueStatsOverview(c *gin.Context) {
	ctx, cancel := requestContext()
	defer cancel()

	cursor, err := issueCollection.Find(ctx, bson.M{"isPublic": true})
	if err != nil {
		log.Println("Stats query failed, returning empty overview:", err)
		c.JSON(http.StatusOK, stats.EmptyIssueOverview())
		return
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		log.Println("Stats decode failed, returning empty overview:", err)
		c.JSON(http.StatusOK, stats.EmptyIssueOverview())
		return
	}

	c.JSON(http.StatusOK, stats.BuildIssueOverview(issues, time.Now()))
}

// RecentIssues returns the most recent geolocated public issues for the
// map feed, projected down to pin fields.
func RecentIssues(c *gin.Context) {
	ctx, cancel := requestContext()
	defer cancel()

	filter := bson.M{
		"isPublic":           true,
		"location.latitude":  bson.M{"$exists": true, "$ne": nil},
		"location.longitude": bson.M{"$exists": true, "$ne": nil},
	}

	projection := bson.M{
		"_id":       1,
		"title":     1,
		"category":  1,
		"status":    1,
		"location":  1,
		"createdAt": 1,
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(20).
		SetProjection(projection)

	cursor, err := issueCollection.Find(ctx, filter, findOptions)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve recent issues"})
		return
	}
	defer cursor.Close(ctx)

	var issues []models.Issue
	if err := cursor.All(ctx, &issues); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to decode recent issues"})
		return
	}

	type pin struct {
		ID        string    `json:"id"`
		Title     string    `json:"title"`
		Category  string    `json:"category"`
		Status    string    `json:"status"`
		Address   string    `json:"address"`
		Latitude  float64   `json:"latitude"`
		Longitude float64   `json:"longitude"`
		CreatedAt time.Time `json:"createdAt"`
	}

	pins := make([]pin, 0, len(issues))
	for _, issue := range issues {
		if issue.Location.Latitude == nil || issue.Location.Longitude == nil {
			continue
		}
		pins = append(pins, pin{
			ID:        issue.ID.Hex(),
			Title:     issue.Title,
			Category:  string(issue.Category),
			Status:    string(issue.Status),
			Address:   issue.Location.Address,
			Latitude:  *issue.Location.Latitude,
			Longitude: *issue.Location.Longitude,
			CreatedAt: issue.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, pins)
}
