package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestIssue() *Issue {
	return &Issue{
		ID:           primitive.NewObjectID(),
		Title:        "Pothole on Main St",
		Category:     RoadsTransportation,
		Priority:     PriorityMedium,
		Status:       StatusOpen,
		Reporter:     primitive.NewObjectID(),
		CreatedAt:    time.Now().Add(-time.Hour),
		LastActivity: time.Now().Add(-time.Hour),
	}
}

func TestApplyVoteToggleOff(t *testing.T) {
	issue := newTestIssue()
	user := primitive.NewObjectID()

	result := issue.ApplyVote(user, Upvote)
	assert.Equal(t, 1, result.Count)
	assert.True(t, result.Upvoted)
	assert.False(t, result.Downvoted)

	// Same vote again removes it
	result = issue.ApplyVote(user, Upvote)
	assert.Equal(t, 0, result.Count)
	assert.False(t, result.Upvoted)
	assert.False(t, result.Downvoted)
	assert.Empty(t, issue.Upvoters)
	assert.Empty(t, issue.Downvoters)
}

func TestApplyVoteFlip(t *testing.T) {
	issue := newTestIssue()
	user := primitive.NewObjectID()

	issue.ApplyVote(user, Upvote)
	result := issue.ApplyVote(user, Downvote)

	assert.Equal(t, -1, result.Count)
	assert.False(t, result.Upvoted)
	assert.True(t, result.Downvoted)

	up, down := issue.VoteStateFor(user)
	assert.False(t, up, "user must never be in both sets")
	assert.True(t, down)
}

func TestApplyVoteNeverInBothSets(t *testing.T) {
	issue := newTestIssue()
	user := primitive.NewObjectID()

	sequence := []VoteType{Upvote, Downvote, Downvote, Upvote, Upvote, Downvote, Upvote}
	for _, v := range sequence {
		issue.ApplyVote(user, v)
		up, down := issue.VoteStateFor(user)
		assert.False(t, up && down)
		assert.Equal(t, len(issue.Upvoters)-len(issue.Downvoters), issue.VoteCount())
	}
}

func TestVoteCountScenario(t *testing.T) {
	issue := newTestIssue()
	userA := primitive.NewObjectID()
	userB := primitive.NewObjectID()
	userC := primitive.NewObjectID()

	issue.ApplyVote(userA, Upvote)
	issue.ApplyVote(userB, Upvote)
	result := issue.ApplyVote(userC, Downvote)

	assert.Equal(t, 1, result.Count)
	assert.Equal(t, 1, issue.VoteCount())
	assert.Len(t, issue.Upvoters, 2)
	assert.Len(t, issue.Downvoters, 1)
}

func TestApplyVoteUpdatesLastActivity(t *testing.T) {
	issue := newTestIssue()
	before := issue.LastActivity

	issue.ApplyVote(primitive.NewObjectID(), Upvote)

	assert.True(t, issue.LastActivity.After(before))
	assert.False(t, issue.LastActivity.Before(issue.CreatedAt))
}

func TestAddCommentAppendsInOrder(t *testing.T) {
	issue := newTestIssue()
	author := primitive.NewObjectID()
	official := primitive.NewObjectID()

	issue.AddComment(author, "first", false)
	issue.AddComment(official, "city crew dispatched", true)
	issue.AddComment(author, "thanks", false)

	require.Len(t, issue.Comments, 3)
	assert.Equal(t, "first", issue.Comments[0].Content)
	assert.Equal(t, "city crew dispatched", issue.Comments[1].Content)
	assert.True(t, issue.Comments[1].IsOfficial)
	assert.Equal(t, "thanks", issue.Comments[2].Content)
	assert.False(t, issue.LastActivity.Before(issue.Comments[2].CreatedAt))
}

func TestSetStatusRecordsResolutionOnce(t *testing.T) {
	issue := newTestIssue()
	require.Nil(t, issue.ResolvedAt)

	issue.SetStatus(StatusInProgress)
	assert.Nil(t, issue.ResolvedAt)

	issue.SetStatus(StatusResolved)
	require.NotNil(t, issue.ResolvedAt)
	first := *issue.ResolvedAt

	// Resolved -> Closed stays within the resolved family; the
	// original resolution time is kept.
	issue.SetStatus(StatusClosed)
	require.NotNil(t, issue.ResolvedAt)
	assert.Equal(t, first, *issue.ResolvedAt)

	// Reopening clears it; resolving again records a fresh one.
	issue.SetStatus(StatusOpen)
	assert.Nil(t, issue.ResolvedAt)

	issue.SetStatus(StatusClosed)
	require.NotNil(t, issue.ResolvedAt)
	assert.False(t, issue.ResolvedAt.Before(first))
}

func TestSetStatusSameStatusKeepsResolution(t *testing.T) {
	issue := newTestIssue()
	issue.SetStatus(StatusResolved)
	require.NotNil(t, issue.ResolvedAt)
	first := *issue.ResolvedAt

	issue.SetStatus(StatusResolved)
	require.NotNil(t, issue.ResolvedAt)
	assert.Equal(t, first, *issue.ResolvedAt)
}

func TestTouchNeverMovesBackwards(t *testing.T) {
	issue := newTestIssue()
	now := time.Now()
	issue.Touch(now)
	issue.Touch(now.Add(-time.Minute))

	assert.Equal(t, now, issue.LastActivity)
}

func TestEnumValidators(t *testing.T) {
	assert.True(t, ValidCategory("Roads & Transportation"))
	assert.True(t, ValidCategory("Other"))
	assert.False(t, ValidCategory("Roads"))

	assert.True(t, ValidStatus("Under Review"))
	assert.False(t, ValidStatus("Pending"))

	assert.True(t, ValidPriority("Critical"))
	assert.False(t, ValidPriority("Urgent"))

	assert.True(t, ValidRole("moderator"))
	assert.False(t, ValidRole("superuser"))
}

func TestCoordinateValidators(t *testing.T) {
	assert.True(t, ValidLatitude(40.0))
	assert.True(t, ValidLatitude(-90))
	assert.True(t, ValidLatitude(90))
	assert.False(t, ValidLatitude(90.0001))
	assert.False(t, ValidLatitude(-95))

	assert.True(t, ValidLongitude(-75.0))
	assert.True(t, ValidLongitude(180))
	assert.True(t, ValidLongitude(-180))
	assert.False(t, ValidLongitude(180.0001))
	assert.False(t, ValidLongitude(-200))
}
