package shared

import "errors"

var (
	// ErrNotFound indicates the requested resource does not exist. Cross-tenant
	// user reads are deliberately reported with this error as well, so callers
	// cannot probe for the existence of records in other tenants.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized indicates the actor lacks privilege or is in the wrong
	// tenant for the requested operation.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidRole indicates a numeric role id that maps to no known variant.
	ErrInvalidRole = errors.New("invalid role")
	// ErrAlreadyExists indicates the record conflicts with an existing one.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUnavailable indicates a backing store could not complete the call.
	ErrUnavailable = errors.New("unavailable")
)
