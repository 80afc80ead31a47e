package authUtils

import (
	"fmt"
	"os"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// tokenTTL is how long a session token stays valid. The login cookie
// expires sooner; API clients holding the bearer token get the full
// window.
const tokenTTL = 72 * time.Hour

// GenerateAndSetToken signs a session token for the user. Only the
// user ID goes into the claims — the role is looked up per request so
// a demotion doesn't outlive the token.
func GenerateAndSetToken(userID string) (string, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(tokenTTL).Unix(),
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
