package tenants

import (
	"context"
	"log/slog"
	"strings"

	"github.com/parkhaus-cloud/parkhaus/internal/identity"
)

// ProvisioningQueue dispatches infrastructure provisioning for a new tenant
// to the background worker.
type ProvisioningQueue interface {
	EnqueueTenantProvision(ctx context.Context, tenantID, tenantType, subdomain string) error
}

// Service orchestrates tenant lifecycle and login routing.
type Service struct {
	repo        RepositoryPort
	users       *identity.Service
	credentials identity.CredentialStore
	queue       ProvisioningQueue
	cache       *RoutingCache
	logger      *slog.Logger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, users *identity.Service, credentials identity.CredentialStore, queue ProvisioningQueue, cache *RoutingCache, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		users:       users,
		credentials: credentials,
		queue:       queue,
		cache:       cache,
		logger:      logger,
	}
}

// CreateTenant provisions a tenant, bootstraps its first tenant admin through
// the access-controlled user service and enqueues infrastructure
// provisioning. Only solution admins may create tenants.
func (s *Service) CreateTenant(ctx context.Context, actor identity.Principal, data CreateTenantData) (Tenant, error) {
	if actor.Role != identity.RoleSolutionAdmin {
		return Tenant{}, identity.ErrUnauthorized
	}

	tenant, err := s.repo.CreateTenant(ctx, strings.ToLower(strings.TrimSpace(data.Name)), data.Type, data.Subdomain)
	if err != nil {
		return Tenant{}, err
	}

	admin, err := s.users.CreateUser(ctx, actor, identity.NewUserData{
		TenantID: tenant.ID,
		Role:     identity.RoleTenantAdmin,
		Email:    data.AdminEmail,
		Name:     data.AdminName,
	})
	if err != nil {
		return Tenant{}, err
	}
	if s.credentials != nil {
		if err := s.credentials.SetPassword(ctx, admin.ID, tenant.ID, admin.Email, data.AdminPassword); err != nil {
			return Tenant{}, err
		}
	}

	if s.queue != nil {
		if err := s.queue.EnqueueTenantProvision(ctx, tenant.ID, tenant.Type, tenant.Subdomain); err != nil {
			// The tenant exists and is usable; provisioning can be replayed.
			s.logger.Error("enqueue tenant provisioning",
				slog.String("tenant", tenant.ID), slog.Any("error", err))
		}
	}
	return tenant, nil
}

// ListTenants returns all tenants. Solution admin only.
func (s *Service) ListTenants(ctx context.Context, actor identity.Principal) ([]Tenant, error) {
	if actor.Role != identity.RoleSolutionAdmin {
		return nil, identity.ErrUnauthorized
	}
	return s.repo.ListTenants(ctx)
}

// GetTenant fetches one tenant. Solution admins see any tenant; everyone
// else only their own.
func (s *Service) GetTenant(ctx context.Context, actor identity.Principal, id string) (Tenant, error) {
	if actor.Role != identity.RoleSolutionAdmin && actor.TenantID != id {
		return Tenant{}, identity.ErrNotFound
	}
	return s.repo.GetTenant(ctx, id)
}

// ResolveRouting maps an email address to its tenant id and type. The lookup
// is unauthenticated and cached; a miss consults the user directory and the
// tenant record.
func (s *Service) ResolveRouting(ctx context.Context, email string) (Routing, error) {
	return s.cache.Fetch(ctx, email, func(ctx context.Context) (Routing, error) {
		tenantID, err := s.users.TenantIDByEmail(ctx, email)
		if err != nil {
			return Routing{}, err
		}
		tenant, err := s.repo.GetTenant(ctx, tenantID)
		if err != nil {
			return Routing{}, err
		}
		return Routing{TenantID: tenant.ID, TenantType: tenant.Type}, nil
	})
}
