package identity

import (
	"context"
	"errors"
)

// Service enforces tenant-scoped, role-based access control over user
// records. Every operation is a stateless decision over (actor, current
// target state); all checks run before any mutation is issued to the
// directory. The read-check-write sequence is not atomic: if a target's role
// changes between the fetch and the write, the write proceeds under the old
// decision. Per-user write serialization is the directory's concern.
type Service struct {
	dir Directory
}

// NewService builds a Service instance.
func NewService(dir Directory) *Service {
	return &Service{dir: dir}
}

// GetUser returns the target user if the actor may see it. A solution admin
// may read any user. Everyone else is confined to their own tenant and to
// targets of the same or lower privilege; violations surface as ErrNotFound
// so the response does not confirm that the target exists.
func (s *Service) GetUser(ctx context.Context, actor Principal, id string) (User, error) {
	target, err := s.dir.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	if actor.Role == RoleSolutionAdmin {
		return target, nil
	}
	if actor.TenantID != target.TenantID || !actor.Role.PrivilegeAtLeast(target.Role) {
		return User{}, ErrNotFound
	}
	return target, nil
}

// ListUsers returns every user the actor may enumerate. Solution admins see
// all tenants, tenant admins see exactly their own tenant, and no role below
// tenant admin may list at all.
func (s *Service) ListUsers(ctx context.Context, actor Principal) ([]User, error) {
	switch actor.Role {
	case RoleSolutionAdmin:
		return s.dir.ListUsers(ctx)
	case RoleTenantAdmin:
		return s.dir.ListTenantUsers(ctx, actor.TenantID)
	default:
		return nil, ErrUnauthorized
	}
}

// CreateUser creates a user after checking that the email is not already
// bound to any tenant. Non-solution-admin actors may only create users inside
// their own tenant with a role they could hold themselves.
func (s *Service) CreateUser(ctx context.Context, actor Principal, data NewUserData) (User, error) {
	if !data.Role.Valid() {
		return User{}, ErrInvalidRole
	}
	if _, err := s.dir.TenantIDByEmail(ctx, data.Email); err == nil {
		return User{}, ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}
	if actor.Role != RoleSolutionAdmin {
		if actor.TenantID != data.TenantID || !actor.Role.PrivilegeAtLeast(data.Role) {
			return User{}, ErrUnauthorized
		}
	}
	return s.dir.CreateUser(ctx, data)
}

// UpdateUser applies changes to the current target. Non-solution-admin actors
// must share the target's tenant and outrank (or equal) both the target's
// current role and the role the update would grant; the second check stops an
// actor from promoting anyone above its own privilege.
func (s *Service) UpdateUser(ctx context.Context, actor Principal, current User, changes EditUserData) error {
	next := changes.Apply(current)
	if !next.Role.Valid() {
		return ErrInvalidRole
	}
	if actor.Role != RoleSolutionAdmin {
		if actor.TenantID != current.TenantID ||
			!actor.Role.PrivilegeAtLeast(current.Role) ||
			!actor.Role.PrivilegeAtLeast(next.Role) {
			return ErrUnauthorized
		}
	}
	return s.dir.UpdateUser(ctx, next)
}

// SetUserRole changes only the target's role, under the same gate as
// UpdateUser.
func (s *Service) SetUserRole(ctx context.Context, actor Principal, target User, role Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	if actor.Role != RoleSolutionAdmin {
		if actor.TenantID != target.TenantID ||
			!actor.Role.PrivilegeAtLeast(target.Role) ||
			!actor.Role.PrivilegeAtLeast(role) {
			return ErrUnauthorized
		}
	}
	return s.dir.SetUserRole(ctx, target.ID, role)
}

// DeleteUser removes the target. Non-solution-admin actors must share the
// target's tenant and hold the same or higher privilege.
func (s *Service) DeleteUser(ctx context.Context, actor Principal, target User) error {
	if actor.Role != RoleSolutionAdmin {
		if actor.TenantID != target.TenantID || !actor.Role.PrivilegeAtLeast(target.Role) {
			return ErrUnauthorized
		}
	}
	return s.dir.DeleteUser(ctx, target.ID)
}

// TenantIDByEmail resolves which tenant an email belongs to. The lookup is
// unauthenticated: it runs before sign-in to route the login to the right
// tenant identity provider.
func (s *Service) TenantIDByEmail(ctx context.Context, email string) (string, error) {
	return s.dir.TenantIDByEmail(ctx, email)
}
