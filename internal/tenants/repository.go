package tenants

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parkhaus-cloud/parkhaus/internal/identity"
	"github.com/parkhaus-cloud/parkhaus/internal/platform/db"
)

// RepositoryPort defines data access methods for tenants.
type RepositoryPort interface {
	CreateTenant(ctx context.Context, name, tenantType, subdomain string) (Tenant, error)
	GetTenant(ctx context.Context, id string) (Tenant, error)
	ListTenants(ctx context.Context) ([]Tenant, error)
}

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateTenant inserts a tenant together with its pending provisioning
// record in one transaction.
func (r *Repository) CreateTenant(ctx context.Context, name, tenantType, subdomain string) (Tenant, error) {
	now := time.Now().UTC()
	tenant := Tenant{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      tenantType,
		Subdomain: subdomain,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO tenants (id, name, type, subdomain, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $5)`,
			tenant.ID, tenant.Name, tenant.Type, tenant.Subdomain, now); err != nil {
			return err
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO tenant_infrastructure (tenant_id, status, created_at, updated_at)
			 VALUES ($1, 'pending', $2, $2)`,
			tenant.ID, now)
		return err
	})
	if err != nil {
		return Tenant{}, err
	}
	return tenant, nil
}

// GetTenant fetches a tenant by id.
func (r *Repository) GetTenant(ctx context.Context, id string) (Tenant, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, name, type, subdomain, created_at, updated_at FROM tenants WHERE id = $1`, id)
	var tenant Tenant
	err := row.Scan(&tenant.ID, &tenant.Name, &tenant.Type, &tenant.Subdomain, &tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Tenant{}, identity.ErrNotFound
		}
		return Tenant{}, err
	}
	return tenant, nil
}

// ListTenants returns all tenants ordered by name.
func (r *Repository) ListTenants(ctx context.Context) ([]Tenant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, type, subdomain, created_at, updated_at FROM tenants ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Tenant
	for rows.Next() {
		var tenant Tenant
		if err := rows.Scan(&tenant.ID, &tenant.Name, &tenant.Type, &tenant.Subdomain, &tenant.CreatedAt, &tenant.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, tenant)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

var _ RepositoryPort = (*Repository)(nil)
