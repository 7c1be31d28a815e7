package identity

import "github.com/parkhaus-cloud/parkhaus/internal/shared"

// The sentinel taxonomy lives in internal/shared so the HTTP response mapper
// can reference it without importing this package. The aliases below keep the
// identity-centric names every caller uses.
var (
	ErrNotFound      = shared.ErrNotFound
	ErrUnauthorized  = shared.ErrUnauthorized
	ErrInvalidRole   = shared.ErrInvalidRole
	ErrAlreadyExists = shared.ErrAlreadyExists
	ErrUnavailable   = shared.ErrUnavailable
)
