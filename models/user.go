package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// UserRole enum
type UserRole string

const (
	RoleCitizen   UserRole = "citizen"
	RoleModerator UserRole = "moderator"
	RoleAdmin     UserRole = "admin"
)

// ValidRole reports whether s is a known user role.
func ValidRole(s string) bool {
	switch UserRole(s) {
	case RoleCitizen, RoleModerator, RoleAdmin:
		return true
	}
	return false
}

// Preferences holds a user's notification settings.
type Preferences struct {
	EmailNotifications   bool            `bson:"emailNotifications" json:"emailNotifications"`
	StatusChangeAlerts   bool            `bson:"statusChangeAlerts" json:"statusChangeAlerts"`
	SubscribedCategories []IssueCategory `bson:"subscribedCategories,omitempty" json:"subscribedCategories,omitempty"`
}

type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	Password    string             `bson:"password,omitempty" json:"-"`
	Role        UserRole           `bson:"role" json:"role"`
	Bio         string             `bson:"bio,omitempty" json:"bio,omitempty"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Preferences Preferences        `bson:"preferences" json:"preferences"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) ComparePassword(candidate string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(candidate))
	return err == nil
}
