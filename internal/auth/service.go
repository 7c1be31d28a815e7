package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/parkhaus-cloud/parkhaus/internal/identity"
)

// ErrInvalidCredentials indicates login failure.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// ErrInvalidToken indicates a missing, malformed or expired token.
var ErrInvalidToken = errors.New("auth: invalid token")

// Service wraps authentication business rules: password verification and
// token issue/verification. Authorization lives in the identity service.
type Service struct {
	repo   Repository
	dir    identity.Directory
	secret []byte
	ttl    time.Duration
}

// NewService constructs a new Service.
func NewService(repo Repository, dir identity.Directory, secret string, ttl time.Duration) *Service {
	return &Service{repo: repo, dir: dir, secret: []byte(secret), ttl: ttl}
}

// Authenticate validates tenant-scoped email/password credentials and returns
// the current user record. Rejections collapse into ErrInvalidCredentials so
// the response never reveals which part failed; a backing-store outage is not
// a rejection and propagates as ErrUnavailable.
func (s *Service) Authenticate(ctx context.Context, tenantID, email, password string) (identity.User, error) {
	cred, err := s.repo.FindCredential(ctx, tenantID, email)
	if err != nil {
		if errors.Is(err, identity.ErrUnavailable) {
			return identity.User{}, err
		}
		return identity.User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return identity.User{}, ErrInvalidCredentials
	}
	user, err := s.dir.GetUser(ctx, cred.UserID)
	if err != nil {
		if errors.Is(err, identity.ErrUnavailable) {
			return identity.User{}, err
		}
		return identity.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// SetPassword hashes and stores the password for a user account.
func (s *Service) SetPassword(ctx context.Context, userID, tenantID, email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.UpsertCredential(ctx, Credential{
		UserID:       userID,
		TenantID:     tenantID,
		Email:        email,
		PasswordHash: string(hash),
	})
}

// RemoveCredential deletes the stored credential when a user is deleted.
func (s *Service) RemoveCredential(ctx context.Context, userID string) error {
	return s.repo.DeleteCredential(ctx, userID)
}

// IssueToken signs a JWT for the given user.
func (s *Service) IssueToken(user identity.User) (string, error) {
	now := time.Now()
	claims := Claims{
		TenantID: user.TenantID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyToken parses and validates a signed token.
func (s *Service) VerifyToken(tokenString string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// PrincipalFor re-fetches the user behind the claims and builds the request
// principal. A deleted user yields ErrInvalidToken even when the token itself
// is still within its lifetime.
func (s *Service) PrincipalFor(ctx context.Context, claims Claims) (identity.Principal, error) {
	user, err := s.dir.GetUser(ctx, claims.Subject)
	if err != nil {
		return identity.Principal{}, ErrInvalidToken
	}
	return identity.Principal{
		ID:       user.ID,
		Role:     user.Role,
		TenantID: user.TenantID,
		Email:    user.Email,
	}, nil
}
