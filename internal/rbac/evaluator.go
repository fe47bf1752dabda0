package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/gatekeep/internal/cache"
	"github.com/dropDatabas3/gatekeep/internal/domain/repository"
	"github.com/dropDatabas3/gatekeep/internal/observability/logger"
)

// implicitGrants se suma al set de todo rol: cualquier usuario autenticado
// puede manejar su propia sesión y sus propias notificaciones, sin importar
// el rol. Sin esto, un rol vacío no podría ni ver su identidad ni refrescar.
var implicitGrants = []string{"auth.*", "notifications.*"}

// Evaluator decide allow/deny para (rol, recurso, acción).
// Es puro salvo la lectura del set de permisos, que pasa por cache.
type Evaluator struct {
	roles    repository.RoleRepository
	cache    cache.Cache
	cacheTTL time.Duration

	// sf colapsa lecturas concurrentes del mismo rol en un miss de cache.
	sf singleflight.Group
}

// NewEvaluator crea un evaluador. cache puede ser nil (lectura directa).
func NewEvaluator(roles repository.RoleRepository, c cache.Cache, cacheTTL time.Duration) *Evaluator {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &Evaluator{roles: roles, cache: c, cacheTTL: cacheTTL}
}

// Allowed decide si el rol puede ejecutar la acción sobre el recurso.
// Rol desconocido o set vacío niegan, salvo los grants implícitos.
func (e *Evaluator) Allowed(ctx context.Context, role, resource string, action Action) (bool, error) {
	if resource == "" {
		return false, nil
	}
	set, err := e.permissionSet(ctx, role)
	if err != nil {
		return false, err
	}
	return set.Allows(resource, action), nil
}

// permissionSet retorna el set del rol, grants implícitos incluidos.
// El cache guarda la forma ya parseada: el parseo de permission strings
// ocurre una vez por miss, nunca por request.
func (e *Evaluator) permissionSet(ctx context.Context, role string) (PermissionSet, error) {
	key := "rbac:role:" + role
	if e.cache != nil {
		if b, ok := e.cache.Get(key); ok {
			var set PermissionSet
			if err := json.Unmarshal(b, &set); err == nil {
				return set, nil
			}
			// Entrada corrupta: descartar y releer.
			e.cache.Delete(key)
		}
	}

	v, err, _ := e.sf.Do(key, func() (any, error) {
		raw, err := e.roles.GetPermissions(ctx, role)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return PermissionSet{}, err
			}
			// Rol sin fila: solo los grants implícitos aplican.
			raw = nil
		}
		merged := make([]string, 0, len(raw)+len(implicitGrants))
		merged = append(merged, raw...)
		merged = append(merged, implicitGrants...)
		set := ParseSet(merged)

		if e.cache != nil {
			if b, err := json.Marshal(set); err == nil {
				e.cache.Set(key, b, e.cacheTTL)
			} else {
				logger.From(ctx).Warn("rbac cache marshal failed", logger.Err(err))
			}
		}
		return set, nil
	})
	if err != nil {
		return PermissionSet{}, err
	}
	return v.(PermissionSet), nil
}
