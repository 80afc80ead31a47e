package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueCategory enum
type IssueCategory string

const (
	RoadsTransportation IssueCategory = "Roads & Transportation"
	WaterUtilities      IssueCategory = "Water & Utilities"
	SanitationWaste     IssueCategory = "Sanitation & Waste"
	StreetLighting      IssueCategory = "Street Lighting"
	ParksRecreation     IssueCategory = "Parks & Recreation"
	PublicSafety        IssueCategory = "Public Safety"
	Environment         IssueCategory = "Environment"
	PublicBuildings     IssueCategory = "Public Buildings"
	OtherCategory       IssueCategory = "Other"
)

// IssueStatus enum
type IssueStatus string

const (
	StatusOpen        IssueStatus = "Open"
	StatusInProgress  IssueStatus = "In Progress"
	StatusUnderReview IssueStatus = "Under Review"
	StatusResolved    IssueStatus = "Resolved"
	StatusClosed      IssueStatus = "Closed"
	StatusRejected    IssueStatus = "Rejected"
)

// IssuePriority enum
type IssuePriority string

const (
	PriorityLow      IssuePriority = "Low"
	PriorityMedium   IssuePriority = "Medium"
	PriorityHigh     IssuePriority = "High"
	PriorityCritical IssuePriority = "Critical"
)

// VoteType is the direction of a vote
type VoteType string

const (
	Upvote   VoteType = "upvote"
	Downvote VoteType = "downvote"
)

var validCategories = map[IssueCategory]bool{
	RoadsTransportation: true, WaterUtilities: true, SanitationWaste: true,
	StreetLighting: true, ParksRecreation: true, PublicSafety: true,
	Environment: true, PublicBuildings: true, OtherCategory: true,
}

var validStatuses = map[IssueStatus]bool{
	StatusOpen: true, StatusInProgress: true, StatusUnderReview: true,
	StatusResolved: true, StatusClosed: true, StatusRejected: true,
}

var validPriorities = map[IssuePriority]bool{
	PriorityLow: true, PriorityMedium: true, PriorityHigh: true, PriorityCritical: true,
}

// ValidCategory reports whether s is one of the nine issue categories.
func ValidCategory(s string) bool { return validCategories[IssueCategory(s)] }

// ValidStatus reports whether s is a known issue status.
func ValidStatus(s string) bool { return validStatuses[IssueStatus(s)] }

// ValidPriority reports whether s is a known issue priority.
func ValidPriority(s string) bool { return validPriorities[IssuePriority(s)] }

// ValidLatitude reports whether lat is a usable WGS84 latitude.
func ValidLatitude(lat float64) bool { return lat >= -90 && lat <= 90 }

// ValidLongitude reports whether lng is a usable WGS84 longitude.
func ValidLongitude(lng float64) bool { return lng >= -180 && lng <= 180 }

// Location is a human-readable address plus coordinates.
type Location struct {
	Address   string   `bson:"address" json:"address"`
	Latitude  *float64 `bson:"latitude,omitempty" json:"latitude,omitempty"`
	Longitude *float64 `bson:"longitude,omitempty" json:"longitude,omitempty"`
}

// Image is an uploaded photo attached to an issue.
type Image struct {
	URL     string `bson:"url" json:"url"`
	Caption string `bson:"caption,omitempty" json:"caption,omitempty"`
}

// Comment is an immutable entry in an issue's discussion thread.
type Comment struct {
	Author     primitive.ObjectID `bson:"author" json:"author"`
	Content    string             `bson:"content" json:"content"`
	IsOfficial bool               `bson:"isOfficial" json:"isOfficial"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// Issue represents a civic issue reported by a user. Votes and comments
// are embedded so vote toggles stay single-document updates.
type Issue struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title        string               `bson:"title" json:"title"`
	Description  string               `bson:"description" json:"description"`
	Category     IssueCategory        `bson:"category" json:"category"`
	Priority     IssuePriority        `bson:"priority" json:"priority"`
	Status       IssueStatus          `bson:"status" json:"status"`
	Reporter     primitive.ObjectID   `bson:"reporter" json:"reporter"`
	AssignedTo   *primitive.ObjectID  `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	Location     Location             `bson:"location" json:"location"`
	Images       []Image              `bson:"images,omitempty" json:"images,omitempty"`
	Upvoters     []primitive.ObjectID `bson:"upvoters,omitempty" json:"-"`
	Downvoters   []primitive.ObjectID `bson:"downvoters,omitempty" json:"-"`
	Comments     []Comment            `bson:"comments,omitempty" json:"comments,omitempty"`
	Tags         []string             `bson:"tags,omitempty" json:"tags,omitempty"`
	IsPublic     bool                 `bson:"isPublic" json:"isPublic"`
	IsAnonymous  bool                 `bson:"isAnonymous" json:"isAnonymous"`
	ViewCount    int64                `bson:"viewCount" json:"viewCount"`
	LastActivity time.Time            `bson:"lastActivity" json:"lastActivity"`
	ResolvedAt   *time.Time           `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// VoteResult describes the vote state after a toggle.
type VoteResult struct {
	Count     int  `json:"votes"`
	Upvoted   bool `json:"upvoted"`
	Downvoted bool `json:"downvoted"`
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// VoteCount is |upvoters| - |downvoters|. It is derived on every read
// and never stored.
func (i *Issue) VoteCount() int {
	return len(i.Upvoters) - len(i.Downvoters)
}

// VoteStateFor reports which vote set, if any, the user belongs to.
func (i *Issue) VoteStateFor(userID primitive.ObjectID) (upvoted, downvoted bool) {
	return containsID(i.Upvoters, userID), containsID(i.Downvoters, userID)
}

// ApplyVote toggles the user's vote. Voting the same direction twice
// removes the vote; voting the opposite direction flips it. A user is
// never in both sets.
func (i *Issue) ApplyVote(userID primitive.ObjectID, vote VoteType) VoteResult {
	inUp := containsID(i.Upvoters, userID)
	inDown := containsID(i.Downvoters, userID)

	switch vote {
	case Upvote:
		if inUp {
			i.Upvoters = removeID(i.Upvoters, userID)
		} else {
			if inDown {
				i.Downvoters = removeID(i.Downvoters, userID)
			}
			i.Upvoters = append(i.Upvoters, userID)
		}
	case Downvote:
		if inDown {
			i.Downvoters = removeID(i.Downvoters, userID)
		} else {
			if inUp {
				i.Upvoters = removeID(i.Upvoters, userID)
			}
			i.Downvoters = append(i.Downvoters, userID)
		}
	}

	i.Touch(time.Now())
	up, down := i.VoteStateFor(userID)
	return VoteResult{Count: i.VoteCount(), Upvoted: up, Downvoted: down}
}

// AddComment appends a comment in arrival order. Comments are immutable
// once appended; the caller is responsible for ensuring only admins and
// moderators set isOfficial.
func (i *Issue) AddComment(author primitive.ObjectID, content string, isOfficial bool) Comment {
	comment := Comment{
		Author:     author,
		Content:    content,
		IsOfficial: isOfficial,
		CreatedAt:  time.Now(),
	}
	i.Comments = append(i.Comments, comment)
	i.Touch(comment.CreatedAt)
	return comment
}

// SetStatus transitions the issue's status. Entering Resolved or Closed
// from a non-resolved status records the resolution time once for that
// transition; leaving a resolved status clears it.
func (i *Issue) SetStatus(status IssueStatus) {
	now := time.Now()
	if status != i.Status {
		if resolvedStatus(status) && !resolvedStatus(i.Status) {
			i.ResolvedAt = &now
		} else if !resolvedStatus(status) {
			i.ResolvedAt = nil
		}
	}
	i.Status = status
	i.Touch(now)
}

func resolvedStatus(s IssueStatus) bool {
	return s == StatusResolved || s == StatusClosed
}

// Touch moves lastActivity forward. It never moves backwards, so
// lastActivity >= createdAt holds for any mutation order.
func (i *Issue) Touch(at time.Time) {
	if at.After(i.LastActivity) {
		i.LastActivity = at
	}
	i.UpdatedAt = at
}
