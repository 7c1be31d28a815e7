package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Credential stores the password hash for one user account. Credentials live
// apart from the user directory so the identity core never touches secrets.
type Credential struct {
	UserID       string
	TenantID     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Claims is the token payload issued at sign-in. The role is deliberately not
// embedded: the middleware re-fetches the user record on every request so a
// role change takes effect immediately instead of at token expiry.
type Claims struct {
	TenantID string `json:"tenantId"`
	jwt.RegisteredClaims
}
