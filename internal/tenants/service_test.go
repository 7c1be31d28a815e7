package tenants

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/parkhaus-cloud/parkhaus/internal/identity"
)

type memoryTenantRepo struct {
	tenants  map[string]Tenant
	nextID   int
	getCalls int
}

func newMemoryTenantRepo(seed ...Tenant) *memoryTenantRepo {
	repo := &memoryTenantRepo{tenants: make(map[string]Tenant)}
	for _, t := range seed {
		repo.tenants[t.ID] = t
	}
	return repo
}

func (r *memoryTenantRepo) CreateTenant(ctx context.Context, name, tenantType, subdomain string) (Tenant, error) {
	r.nextID++
	tenant := Tenant{
		ID:        fmt.Sprintf("t%d", r.nextID),
		Name:      name,
		Type:      tenantType,
		Subdomain: subdomain,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	r.tenants[tenant.ID] = tenant
	return tenant, nil
}

func (r *memoryTenantRepo) GetTenant(ctx context.Context, id string) (Tenant, error) {
	r.getCalls++
	tenant, ok := r.tenants[id]
	if !ok {
		return Tenant{}, identity.ErrNotFound
	}
	return tenant, nil
}

func (r *memoryTenantRepo) ListTenants(ctx context.Context) ([]Tenant, error) {
	var out []Tenant
	for _, t := range r.tenants {
		out = append(out, t)
	}
	return out, nil
}

var _ RepositoryPort = (*memoryTenantRepo)(nil)

type memoryUserDirectory struct {
	users  map[string]identity.User
	nextID int
}

func newMemoryUserDirectory(seed ...identity.User) *memoryUserDirectory {
	dir := &memoryUserDirectory{users: make(map[string]identity.User)}
	for _, u := range seed {
		dir.users[u.ID] = u
	}
	return dir
}

func (d *memoryUserDirectory) GetUser(ctx context.Context, id string) (identity.User, error) {
	user, ok := d.users[id]
	if !ok {
		return identity.User{}, identity.ErrNotFound
	}
	return user, nil
}

func (d *memoryUserDirectory) ListUsers(ctx context.Context) ([]identity.User, error) {
	var out []identity.User
	for _, u := range d.users {
		out = append(out, u)
	}
	return out, nil
}

func (d *memoryUserDirectory) ListTenantUsers(ctx context.Context, tenantID string) ([]identity.User, error) {
	var out []identity.User
	for _, u := range d.users {
		if u.TenantID == tenantID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (d *memoryUserDirectory) CreateUser(ctx context.Context, data identity.NewUserData) (identity.User, error) {
	d.nextID++
	user := identity.User{
		ID:       fmt.Sprintf("u%d", d.nextID),
		Role:     data.Role,
		TenantID: data.TenantID,
		Email:    data.Email,
		Name:     data.Name,
	}
	d.users[user.ID] = user
	return user, nil
}

func (d *memoryUserDirectory) UpdateUser(ctx context.Context, user identity.User) error {
	d.users[user.ID] = user
	return nil
}

func (d *memoryUserDirectory) SetUserRole(ctx context.Context, id string, role identity.Role) error {
	user, ok := d.users[id]
	if !ok {
		return identity.ErrNotFound
	}
	user.Role = role
	d.users[id] = user
	return nil
}

func (d *memoryUserDirectory) DeleteUser(ctx context.Context, id string) error {
	delete(d.users, id)
	return nil
}

func (d *memoryUserDirectory) TenantIDByEmail(ctx context.Context, email string) (string, error) {
	for _, u := range d.users {
		if u.Email == email {
			return u.TenantID, nil
		}
	}
	return "", identity.ErrNotFound
}

var _ identity.Directory = (*memoryUserDirectory)(nil)

type recordingQueue struct {
	enqueued []string
	failWith error
}

func (q *recordingQueue) EnqueueTenantProvision(ctx context.Context, tenantID, tenantType, subdomain string) error {
	if q.failWith != nil {
		return q.failWith
	}
	q.enqueued = append(q.enqueued, tenantID)
	return nil
}

type recordingCredentials struct {
	passwords map[string]string
}

func (c *recordingCredentials) SetPassword(ctx context.Context, userID, tenantID, email, password string) error {
	if c.passwords == nil {
		c.passwords = make(map[string]string)
	}
	c.passwords[userID] = password
	return nil
}

func (c *recordingCredentials) RemoveCredential(ctx context.Context, userID string) error {
	delete(c.passwords, userID)
	return nil
}

type serviceFixture struct {
	repo        *memoryTenantRepo
	dir         *memoryUserDirectory
	queue       *recordingQueue
	credentials *recordingCredentials
	service     *Service
}

func newServiceFixture(t *testing.T, cache *RoutingCache, tenantsSeed []Tenant, usersSeed []identity.User) *serviceFixture {
	t.Helper()
	fx := &serviceFixture{
		repo:        newMemoryTenantRepo(tenantsSeed...),
		dir:         newMemoryUserDirectory(usersSeed...),
		queue:       &recordingQueue{},
		credentials: &recordingCredentials{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fx.service = NewService(fx.repo, identity.NewService(fx.dir), fx.credentials, fx.queue, cache, logger)
	return fx
}

func newMiniredisCache(t *testing.T, ttl time.Duration) (*RoutingCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRoutingCache(client, ttl), srv
}

func solutionAdmin() identity.Principal {
	return identity.Principal{ID: "root", Role: identity.RoleSolutionAdmin, TenantID: "platform", Email: "root@parkhaus.example"}
}

func TestCreateTenantSolutionAdminOnly(t *testing.T) {
	fx := newServiceFixture(t, NewRoutingCache(nil, 0), nil, nil)
	data := CreateTenantData{Name: "Acme", Type: "garage", Subdomain: "acme"}

	for _, role := range []identity.Role{
		identity.RoleTenantAdmin,
		identity.RoleOperationalManager,
		identity.RoleCustomer,
		identity.RoleThirdParty,
	} {
		actor := identity.Principal{ID: "actor", Role: role, TenantID: "T1"}
		_, err := fx.service.CreateTenant(context.Background(), actor, data)
		require.ErrorIs(t, err, identity.ErrUnauthorized, "role %s", role)
	}
	require.Empty(t, fx.repo.tenants)
}

func TestCreateTenantBootstrapsAdmin(t *testing.T) {
	fx := newServiceFixture(t, NewRoutingCache(nil, 0), nil, nil)

	tenant, err := fx.service.CreateTenant(context.Background(), solutionAdmin(), CreateTenantData{
		Name:          "  Acme Garages  ",
		Type:          "garage",
		Subdomain:     "acme",
		AdminEmail:    "admin@acme.example",
		AdminName:     "Acme Admin",
		AdminPassword: "bootstrap-pass",
	})
	require.NoError(t, err)
	require.Equal(t, "acme garages", tenant.Name)

	admins, err := fx.dir.ListTenantUsers(context.Background(), tenant.ID)
	require.NoError(t, err)
	require.Len(t, admins, 1)
	require.Equal(t, identity.RoleTenantAdmin, admins[0].Role)
	require.Equal(t, "admin@acme.example", admins[0].Email)

	require.Equal(t, "bootstrap-pass", fx.credentials.passwords[admins[0].ID])
	require.Equal(t, []string{tenant.ID}, fx.queue.enqueued)
}

func TestCreateTenantRejectsBoundAdminEmail(t *testing.T) {
	existing := identity.User{ID: "u1", Role: identity.RoleCustomer, TenantID: "T1", Email: "admin@acme.example"}
	fx := newServiceFixture(t, NewRoutingCache(nil, 0), nil, []identity.User{existing})

	_, err := fx.service.CreateTenant(context.Background(), solutionAdmin(), CreateTenantData{
		Name: "Acme", Type: "garage", Subdomain: "acme",
		AdminEmail: "admin@acme.example", AdminName: "Dup", AdminPassword: "bootstrap-pass",
	})
	require.ErrorIs(t, err, identity.ErrAlreadyExists)
}

func TestCreateTenantSurvivesEnqueueFailure(t *testing.T) {
	fx := newServiceFixture(t, NewRoutingCache(nil, 0), nil, nil)
	fx.queue.failWith = errors.New("redis down")

	tenant, err := fx.service.CreateTenant(context.Background(), solutionAdmin(), CreateTenantData{
		Name: "Acme", Type: "garage", Subdomain: "acme",
		AdminEmail: "admin@acme.example", AdminName: "Admin", AdminPassword: "bootstrap-pass",
	})
	require.NoError(t, err)
	require.NotEmpty(t, tenant.ID)
}

func TestListTenantsGate(t *testing.T) {
	fx := newServiceFixture(t, NewRoutingCache(nil, 0), []Tenant{{ID: "T1"}, {ID: "T2"}}, nil)
	ctx := context.Background()

	all, err := fx.service.ListTenants(ctx, solutionAdmin())
	require.NoError(t, err)
	require.Len(t, all, 2)

	_, err = fx.service.ListTenants(ctx, identity.Principal{ID: "a", Role: identity.RoleTenantAdmin, TenantID: "T1"})
	require.ErrorIs(t, err, identity.ErrUnauthorized)
}

func TestGetTenantScope(t *testing.T) {
	fx := newServiceFixture(t, NewRoutingCache(nil, 0), []Tenant{{ID: "T1", Name: "one"}, {ID: "T2", Name: "two"}}, nil)
	ctx := context.Background()
	actor := identity.Principal{ID: "a", Role: identity.RoleTenantAdmin, TenantID: "T1"}

	own, err := fx.service.GetTenant(ctx, actor, "T1")
	require.NoError(t, err)
	require.Equal(t, "one", own.Name)

	_, err = fx.service.GetTenant(ctx, actor, "T2")
	require.ErrorIs(t, err, identity.ErrNotFound)

	other, err := fx.service.GetTenant(ctx, solutionAdmin(), "T2")
	require.NoError(t, err)
	require.Equal(t, "two", other.Name)
}

func TestResolveRoutingCaches(t *testing.T) {
	cache, srv := newMiniredisCache(t, time.Minute)
	fx := newServiceFixture(t, cache,
		[]Tenant{{ID: "T1", Type: "garage"}},
		[]identity.User{{ID: "u1", Role: identity.RoleCustomer, TenantID: "T1", Email: "c@t1.example"}},
	)
	ctx := context.Background()

	routing, err := fx.service.ResolveRouting(ctx, "c@t1.example")
	require.NoError(t, err)
	require.Equal(t, Routing{TenantID: "T1", TenantType: "garage"}, routing)
	require.Equal(t, 1, fx.repo.getCalls)

	// Second resolve is served from Redis without touching the repository.
	routing, err = fx.service.ResolveRouting(ctx, "c@t1.example")
	require.NoError(t, err)
	require.Equal(t, "T1", routing.TenantID)
	require.Equal(t, 1, fx.repo.getCalls)

	// Expiry falls through to the loader again.
	srv.FastForward(2 * time.Minute)
	_, err = fx.service.ResolveRouting(ctx, "c@t1.example")
	require.NoError(t, err)
	require.Equal(t, 2, fx.repo.getCalls)
}

func TestResolveRoutingUnknownEmailNotCached(t *testing.T) {
	cache, _ := newMiniredisCache(t, time.Minute)
	fx := newServiceFixture(t, cache, nil, nil)
	ctx := context.Background()

	_, err := fx.service.ResolveRouting(ctx, "nobody@example.com")
	require.ErrorIs(t, err, identity.ErrNotFound)

	// A later registration must become resolvable; the miss was not cached.
	_, err = fx.dir.CreateUser(ctx, identity.NewUserData{
		TenantID: "T1", Role: identity.RoleCustomer, Email: "nobody@example.com", Name: "Late",
	})
	require.NoError(t, err)
	fx.repo.tenants["T1"] = Tenant{ID: "T1", Type: "garage"}

	routing, err := fx.service.ResolveRouting(ctx, "nobody@example.com")
	require.NoError(t, err)
	require.Equal(t, "T1", routing.TenantID)
}

func TestRoutingCacheInvalidate(t *testing.T) {
	cache, _ := newMiniredisCache(t, time.Minute)
	fx := newServiceFixture(t, cache,
		[]Tenant{{ID: "T1", Type: "garage"}},
		[]identity.User{{ID: "u1", Role: identity.RoleCustomer, TenantID: "T1", Email: "c@t1.example"}},
	)
	ctx := context.Background()

	_, err := fx.service.ResolveRouting(ctx, "c@t1.example")
	require.NoError(t, err)
	require.Equal(t, 1, fx.repo.getCalls)

	require.NoError(t, cache.Invalidate(ctx, "c@t1.example"))

	_, err = fx.service.ResolveRouting(ctx, "c@t1.example")
	require.NoError(t, err)
	require.Equal(t, 2, fx.repo.getCalls)
}
