package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/gatekeep/internal/domain/repository"
)

type SettingRepo struct {
	pool *pgxpool.Pool
}

func NewSettingRepo(pool *pgxpool.Pool) *SettingRepo {
	return &SettingRepo{pool: pool}
}

func (r *SettingRepo) Get(ctx context.Context, name string) (string, error) {
	const query = `SELECT value FROM application_settings WHERE name = $1`
	var value string
	err := r.pool.QueryRow(ctx, query, name).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("pg: query setting %q: %w", name, err)
	}
	return value, nil
}

type TemplateRepo struct {
	pool *pgxpool.Pool
}

func NewTemplateRepo(pool *pgxpool.Pool) *TemplateRepo {
	return &TemplateRepo{pool: pool}
}

func (r *TemplateRepo) GetPath(ctx context.Context, name string) (string, error) {
	const query = `SELECT path FROM templates WHERE name = $1`
	var path string
	err := r.pool.QueryRow(ctx, query, name).Scan(&path)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", repository.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("pg: query template %q: %w", name, err)
	}
	return path, nil
}
