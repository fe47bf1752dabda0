package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/gatekeep/internal/domain/repository"
	"github.com/dropDatabas3/gatekeep/internal/domain/types"
)

const userColumns = `id, name, email, role, provider, provider_id, password, verified, api, tfa_secret, tfa_methods, created_at, updated_at`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*types.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*types.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns)
	return r.scanOne(r.pool.QueryRow(ctx, query, email))
}

func (r *UserRepo) GetByAPIKey(ctx context.Context, apiKey string) (*types.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE api = $1`, userColumns)
	return r.scanOne(r.pool.QueryRow(ctx, query, apiKey))
}

func (r *UserRepo) Create(ctx context.Context, u *types.User) error {
	if u.Role == "" {
		u.Role = "user"
	}
	if u.Provider == "" {
		u.Provider = types.ProviderNative
	}
	methods, err := json.Marshal(u.TfaMethods)
	if err != nil {
		return fmt.Errorf("pg: marshal tfa_methods: %w", err)
	}
	const query = `
		INSERT INTO users (name, email, role, provider, provider_id, password, verified, api, tfa_secret, tfa_methods)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	err = r.pool.QueryRow(ctx, query,
		u.Name, u.Email, u.Role, u.Provider, u.ProviderID,
		u.Password, u.Verified, u.APIKey, u.TfaSecret, methods,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pg: insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) SetVerified(ctx context.Context, id int64, verified bool) error {
	return r.setField(ctx, id, "verified", verified)
}

func (r *UserRepo) SetPassword(ctx context.Context, id int64, passwordHash string) error {
	return r.setField(ctx, id, "password", passwordHash)
}

func (r *UserRepo) SetAPIKey(ctx context.Context, id int64, apiKey string) error {
	return r.setField(ctx, id, "api", apiKey)
}

func (r *UserRepo) SetTfaSecret(ctx context.Context, id int64, secret string) error {
	return r.setField(ctx, id, "tfa_secret", secret)
}

func (r *UserRepo) SetTfaMethods(ctx context.Context, id int64, methods []string) error {
	if methods == nil {
		methods = []string{}
	}
	b, err := json.Marshal(methods)
	if err != nil {
		return fmt.Errorf("pg: marshal tfa_methods: %w", err)
	}
	return r.setField(ctx, id, "tfa_methods", b)
}

// setField actualiza un único campo de la fila del usuario.
// Last-writer-wins: dos requests concurrentes del mismo usuario pueden
// pisarse, pero cada uno deja un estado consistente.
func (r *UserRepo) setField(ctx context.Context, id int64, column string, value any) error {
	query := fmt.Sprintf(`UPDATE users SET %s = $2, updated_at = now() WHERE id = $1`, column)
	tag, err := r.pool.Exec(ctx, query, id, value)
	if err != nil {
		return fmt.Errorf("pg: update users.%s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepo) scanOne(row pgx.Row) (*types.User, error) {
	var u types.User
	var methods []byte
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.Role, &u.Provider, &u.ProviderID,
		&u.Password, &u.Verified, &u.APIKey, &u.TfaSecret, &methods,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: scan user: %w", err)
	}
	if len(methods) > 0 {
		if err := json.Unmarshal(methods, &u.TfaMethods); err != nil {
			return nil, fmt.Errorf("pg: unmarshal tfa_methods: %w", err)
		}
	}
	return &u, nil
}
