// Package rbac implementa el evaluador de permisos por rol.
//
// Un permiso tiene la forma "recurso.accion", "recurso.*" o el wildcard
// global "*". Los strings se parsean una sola vez a forma estructurada;
// la evaluación por request no re-parsea nada.
package rbac

import (
	"net/http"
	"strings"
)

// Action es el conjunto cerrado de acciones evaluables.
type Action int

const (
	ActionCreate Action = iota
	ActionRead
	ActionUpdate
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "create"
	case ActionRead:
		return "read"
	case ActionUpdate:
		return "update"
	case ActionDelete:
		return "delete"
	}
	return "unknown"
}

// ParseAction convierte el nombre textual de una acción.
func ParseAction(s string) (Action, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "create":
		return ActionCreate, true
	case "read":
		return ActionRead, true
	case "update":
		return ActionUpdate, true
	case "delete":
		return ActionDelete, true
	}
	return 0, false
}

// ActionFromMethod mapea el verbo HTTP a una acción.
// PUT y PATCH mapean ambos a update.
func ActionFromMethod(method string) (Action, bool) {
	switch strings.ToUpper(method) {
	case http.MethodPost:
		return ActionCreate, true
	case http.MethodGet, http.MethodHead:
		return ActionRead, true
	case http.MethodPut, http.MethodPatch:
		return ActionUpdate, true
	case http.MethodDelete:
		return ActionDelete, true
	}
	return 0, false
}

// ResourceFromPath deriva el recurso del primer segmento significativo del
// path. El prefijo /api del backend administrativo se ignora.
func ResourceFromPath(path string) string {
	path = strings.Trim(path, "/")
	segs := strings.Split(path, "/")
	if len(segs) > 0 && segs[0] == "api" {
		segs = segs[1:]
	}
	if len(segs) == 0 || segs[0] == "" {
		return ""
	}
	return strings.ToLower(segs[0])
}
