package authz

import (
	"testing"

	"civicpulse-be/models"

	"github.com/stretchr/testify/assert"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCan(t *testing.T) {
	owner := primitive.NewObjectID()
	stranger := primitive.NewObjectID()
	issue := &models.Issue{ID: primitive.NewObjectID(), Reporter: owner}

	cases := []struct {
		name   string
		actor  Actor
		action Action
		want   bool
	}{
		{"owner edits own issue", Actor{ID: owner, Role: models.RoleCitizen}, EditIssue, true},
		{"stranger cannot edit", Actor{ID: stranger, Role: models.RoleCitizen}, EditIssue, false},
		{"moderator edits any issue", Actor{ID: stranger, Role: models.RoleModerator}, EditIssue, true},
		{"admin edits any issue", Actor{ID: stranger, Role: models.RoleAdmin}, EditIssue, true},

		{"owner deletes own issue", Actor{ID: owner, Role: models.RoleCitizen}, DeleteIssue, true},
		{"moderator cannot delete others' issues", Actor{ID: stranger, Role: models.RoleModerator}, DeleteIssue, false},
		{"admin deletes any issue", Actor{ID: stranger, Role: models.RoleAdmin}, DeleteIssue, true},

		{"owner cannot set status", Actor{ID: owner, Role: models.RoleCitizen}, SetStatus, false},
		{"moderator sets status", Actor{ID: stranger, Role: models.RoleModerator}, SetStatus, true},
		{"moderator cannot triage priority", Actor{ID: stranger, Role: models.RoleModerator}, TriageIssue, false},
		{"admin triages", Actor{ID: stranger, Role: models.RoleAdmin}, TriageIssue, true},

		{"citizen cannot post official comments", Actor{ID: owner, Role: models.RoleCitizen}, OfficialComment, false},
		{"moderator posts official comments", Actor{ID: stranger, Role: models.RoleModerator}, OfficialComment, true},

		{"moderator cannot manage users", Actor{ID: stranger, Role: models.RoleModerator}, ManageUsers, false},
		{"admin manages users", Actor{ID: stranger, Role: models.RoleAdmin}, ManageUsers, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Can(tc.actor, tc.action, issue))
		})
	}
}

func TestCanWithoutResource(t *testing.T) {
	admin := Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	assert.True(t, Can(admin, ManageUsers, nil))
	assert.True(t, Can(admin, OfficialComment, nil))

	citizen := Actor{ID: primitive.NewObjectID(), Role: models.RoleCitizen}
	assert.False(t, Can(citizen, ManageUsers, nil))
}

func TestUnknownActionDenied(t *testing.T) {
	admin := Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}
	assert.False(t, Can(admin, Action("issue:transmogrify"), nil))
}
