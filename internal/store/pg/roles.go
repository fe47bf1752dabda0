package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/gatekeep/internal/domain/repository"
)

type RoleRepo struct {
	pool *pgxpool.Pool
}

func NewRoleRepo(pool *pgxpool.Pool) *RoleRepo {
	return &RoleRepo{pool: pool}
}

func (r *RoleRepo) GetPermissions(ctx context.Context, role string) ([]string, error) {
	const query = `SELECT permissions FROM role_access_control WHERE role = $1`
	var raw []byte
	err := r.pool.QueryRow(ctx, query, role).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pg: query role %q: %w", role, err)
	}
	var perms []string
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &perms); err != nil {
			return nil, fmt.Errorf("pg: unmarshal permissions for %q: %w", role, err)
		}
	}
	return perms, nil
}
