package types

import "time"

// RoleAccessControl mapea un rol a su lista de permission strings.
// Formato de permiso: "recurso.accion", "recurso.*" o el wildcard global "*".
// Solo lo muta la administración privilegiada; acá se lee en cada decisión.
type RoleAccessControl struct {
	ID          int64
	Role        string
	Permissions []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
