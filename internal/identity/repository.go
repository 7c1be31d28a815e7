package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for user records.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, tenant_id, role, email, name, created_at, updated_at`

// GetUser fetches a user by id.
func (r *Repository) GetUser(ctx context.Context, id string) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// ListUsers returns all users across every tenant.
func (r *Repository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY tenant_id, email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

// ListTenantUsers returns all users belonging to one tenant.
func (r *Repository) ListTenantUsers(ctx context.Context, tenantID string) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE tenant_id = $1 ORDER BY email`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

// CreateUser inserts a new user record.
func (r *Repository) CreateUser(ctx context.Context, data NewUserData) (User, error) {
	now := time.Now().UTC()
	user := User{
		ID:        uuid.NewString(),
		Role:      data.Role,
		TenantID:  data.TenantID,
		Email:     data.Email,
		Name:      data.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO users (id, tenant_id, role, email, name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.TenantID, int(user.Role), user.Email, user.Name, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrAlreadyExists
		}
		return User{}, err
	}
	return user, nil
}

// UpdateUser replaces the mutable fields of an existing user.
func (r *Repository) UpdateUser(ctx context.Context, user User) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET role = $2, email = $3, name = $4, updated_at = $5 WHERE id = $1`,
		user.ID, int(user.Role), user.Email, user.Name, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetUserRole updates only the role of an existing user.
func (r *Repository) SetUserRole(ctx context.Context, id string, role Role) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET role = $2, updated_at = $3 WHERE id = $1`,
		id, int(role), time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes a user by id.
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TenantIDByEmail resolves the tenant an email address is registered under.
func (r *Repository) TenantIDByEmail(ctx context.Context, email string) (string, error) {
	var tenantID string
	err := r.pool.QueryRow(ctx, `SELECT tenant_id FROM users WHERE email = $1 LIMIT 1`, email).Scan(&tenantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return tenantID, nil
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	var role int
	err := row.Scan(&user.ID, &user.TenantID, &role, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	user.Role = Role(role)
	return user, nil
}

func collectUsers(rows pgx.Rows) ([]User, error) {
	var users []User
	for rows.Next() {
		var user User
		var role int
		if err := rows.Scan(&user.ID, &user.TenantID, &role, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		user.Role = Role(role)
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ Directory = (*Repository)(nil)
