// Package authz is the single place ownership and role rules live, so
// individual handlers don't each grow their own conditionals.
package authz

import (
	"civicpulse-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Action is something an actor may attempt against an issue.
type Action string

const (
	EditIssue       Action = "issue:edit"
	DeleteIssue     Action = "issue:delete"
	TriageIssue     Action = "issue:triage"
	SetStatus       Action = "issue:set-status"
	OfficialComment Action = "comment:official"
	ManageUsers     Action = "users:manage"
)

// Actor is the caller identity a capability check needs.
type Actor struct {
	ID   primitive.ObjectID
	Role models.UserRole
}

// Can reports whether the actor may perform the action on the issue.
// Actions without a resource (ManageUsers) ignore the issue argument.
func Can(actor Actor, action Action, issue *models.Issue) bool {
	isOwner := issue != nil && issue.Reporter == actor.ID

	switch action {
	case EditIssue:
		return isOwner || actor.Role == models.RoleAdmin || actor.Role == models.RoleModerator
	case DeleteIssue:
		return isOwner || actor.Role == models.RoleAdmin
	case SetStatus:
		return actor.Role == models.RoleAdmin || actor.Role == models.RoleModerator
	case TriageIssue, ManageUsers:
		return actor.Role == models.RoleAdmin
	case OfficialComment:
		return actor.Role == models.RoleAdmin || actor.Role == models.RoleModerator
	}
	return false
}
