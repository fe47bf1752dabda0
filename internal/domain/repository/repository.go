// Package repository define los contratos de acceso a datos del core de auth.
// Los stores reales (CRUD genérico, migraciones, seeds) viven en el backend
// administrativo; este core solo necesita estas operaciones.
package repository

import (
	"context"
	"errors"

	"github.com/dropDatabas3/gatekeep/internal/domain/types"
)

// ErrNotFound se retorna cuando el registro no existe.
var ErrNotFound = errors.New("repository: not found")

// UserRepository lee y escribe los campos de auth del registro de usuario.
// Las escrituras son single-row, last-writer-wins sobre la fila del propio
// usuario; no se requiere locking adicional.
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*types.User, error)
	GetByEmail(ctx context.Context, email string) (*types.User, error)
	GetByAPIKey(ctx context.Context, apiKey string) (*types.User, error)

	Create(ctx context.Context, u *types.User) error

	SetVerified(ctx context.Context, id int64, verified bool) error
	SetPassword(ctx context.Context, id int64, passwordHash string) error
	SetAPIKey(ctx context.Context, id int64, apiKey string) error
	SetTfaSecret(ctx context.Context, id int64, secret string) error
	SetTfaMethods(ctx context.Context, id int64, methods []string) error
}

// RoleRepository lee el set de permisos de un rol.
type RoleRepository interface {
	GetPermissions(ctx context.Context, role string) ([]string, error)
}

// SettingRepository lee settings de aplicación por nombre.
type SettingRepository interface {
	Get(ctx context.Context, name string) (string, error)
}

// TemplateRepository resuelve el path de un template de email por nombre.
type TemplateRepository interface {
	GetPath(ctx context.Context, name string) (string, error)
}
