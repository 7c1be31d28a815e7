package identity

import "time"

// User represents a managed user account within one tenant.
type User struct {
	ID        string
	Role      Role
	TenantID  string
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Principal is the authenticated actor attached to a request. It is built
// once from verified token claims and never mutated afterwards.
type Principal struct {
	ID       string
	Role     Role
	TenantID string
	Email    string
}

// NewUserData carries the required fields for creating a user.
type NewUserData struct {
	TenantID string
	Role     Role
	Email    string
	Name     string
}

// EditUserData carries the optional fields of an update. Nil pointers leave
// the current value untouched.
type EditUserData struct {
	Role  *Role
	Email *string
	Name  *string
}

// Apply returns a copy of current with the present fields replaced.
func (e EditUserData) Apply(current User) User {
	next := current
	if e.Role != nil {
		next.Role = *e.Role
	}
	if e.Email != nil {
		next.Email = *e.Email
	}
	if e.Name != nil {
		next.Name = *e.Name
	}
	return next
}
