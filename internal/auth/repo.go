package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/parkhaus-cloud/parkhaus/internal/identity"
)

// Repository defines persistence operations for credentials.
type Repository interface {
	FindCredential(ctx context.Context, tenantID, email string) (*Credential, error)
	UpsertCredential(ctx context.Context, cred Credential) error
	DeleteCredential(ctx context.Context, userID string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindCredential fetches a credential by tenant and email.
func (r *PGRepository) FindCredential(ctx context.Context, tenantID, email string) (*Credential, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT user_id, tenant_id, email, password_hash, created_at, updated_at
		 FROM credentials WHERE tenant_id = $1 AND email = $2`, tenantID, email)
	var cred Credential
	err := row.Scan(&cred.UserID, &cred.TenantID, &cred.Email, &cred.PasswordHash, &cred.CreatedAt, &cred.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrNotFound
		}
		return nil, err
	}
	return &cred, nil
}

// UpsertCredential inserts or replaces the credential for a user.
func (r *PGRepository) UpsertCredential(ctx context.Context, cred Credential) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO credentials (user_id, tenant_id, email, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 ON CONFLICT (user_id) DO UPDATE
		 SET tenant_id = EXCLUDED.tenant_id, email = EXCLUDED.email,
		     password_hash = EXCLUDED.password_hash, updated_at = EXCLUDED.updated_at`,
		cred.UserID, cred.TenantID, cred.Email, cred.PasswordHash, now)
	return err
}

// DeleteCredential removes the credential for a user.
func (r *PGRepository) DeleteCredential(ctx context.Context, userID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM credentials WHERE user_id = $1`, userID)
	return err
}

var _ Repository = (*PGRepository)(nil)
