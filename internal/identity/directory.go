package identity

import "context"

// Directory defines persistence operations for user records. Implementations
// must return the package sentinel errors; a missing record is never a silent
// no-op. Serialization of concurrent writes to the same user is the
// implementation's concern (per-row atomicity of the underlying store).
type Directory interface {
	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	ListTenantUsers(ctx context.Context, tenantID string) ([]User, error)
	CreateUser(ctx context.Context, data NewUserData) (User, error)
	UpdateUser(ctx context.Context, user User) error
	SetUserRole(ctx context.Context, id string, role Role) error
	DeleteUser(ctx context.Context, id string) error
	TenantIDByEmail(ctx context.Context, email string) (string, error)
}
