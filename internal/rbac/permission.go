package rbac

import (
	"encoding/json"
	"sort"
	"strings"
)

// Permission es la forma parseada de un permission string.
type Permission struct {
	// Global indica el wildcard "*": permite todo.
	Global bool
	// Resource es el recurso ("" si Global).
	Resource string
	// AnyAction indica "recurso.*".
	AnyAction bool
	// Action aplica solo cuando !Global && !AnyAction.
	Action Action
}

// ParsePermission parsea un permission string. El segundo retorno es false
// para strings malformados, que se ignoran en la evaluación.
func ParsePermission(s string) (Permission, bool) {
	s = strings.TrimSpace(s)
	if s == "*" {
		return Permission{Global: true}, true
	}
	// El recurso puede contener puntos; la acción es el último segmento.
	idx := strings.LastIndex(s, ".")
	if idx <= 0 || idx == len(s)-1 {
		return Permission{}, false
	}
	resource := strings.ToLower(s[:idx])
	actionStr := s[idx+1:]
	if actionStr == "*" {
		return Permission{Resource: resource, AnyAction: true}, true
	}
	action, ok := ParseAction(actionStr)
	if !ok {
		// Permisos con acciones fuera del set cerrado (p.ej. "auth.me")
		// se matchean solo vía "recurso.*"; el string exacto no se pierde,
		// queda en el set crudo para matching literal.
		return Permission{}, false
	}
	return Permission{Resource: resource, Action: action}, true
}

// PermissionSet es un conjunto de permisos parseado una sola vez.
type PermissionSet struct {
	global    bool
	anyAction map[string]struct{} // recurso -> "recurso.*"
	exact     map[string]struct{} // strings crudos "recurso.accion"
}

// ParseSet construye un PermissionSet desde los strings crudos del rol.
func ParseSet(raw []string) PermissionSet {
	set := PermissionSet{
		anyAction: make(map[string]struct{}),
		exact:     make(map[string]struct{}),
	}
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		p, ok := ParsePermission(s)
		switch {
		case ok && p.Global:
			set.global = true
		case ok && p.AnyAction:
			set.anyAction[p.Resource] = struct{}{}
		default:
			// Exactos (incluye acciones fuera del enum, matching literal).
			set.exact[strings.ToLower(s)] = struct{}{}
		}
	}
	return set
}

// permissionSetWire es la forma serializable del set, para cachear el
// resultado del parseo en lugar de los strings crudos.
type permissionSetWire struct {
	Global    bool     `json:"global,omitempty"`
	AnyAction []string `json:"any_action,omitempty"`
	Exact     []string `json:"exact,omitempty"`
}

// MarshalJSON serializa el set ya parseado. Orden determinístico.
func (s PermissionSet) MarshalJSON() ([]byte, error) {
	w := permissionSetWire{Global: s.global}
	for r := range s.anyAction {
		w.AnyAction = append(w.AnyAction, r)
	}
	for e := range s.exact {
		w.Exact = append(w.Exact, e)
	}
	sort.Strings(w.AnyAction)
	sort.Strings(w.Exact)
	return json.Marshal(w)
}

// UnmarshalJSON reconstruye el set sin volver a parsear permission strings.
func (s *PermissionSet) UnmarshalJSON(b []byte) error {
	var w permissionSetWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	s.global = w.Global
	s.anyAction = make(map[string]struct{}, len(w.AnyAction))
	for _, r := range w.AnyAction {
		s.anyAction[r] = struct{}{}
	}
	s.exact = make(map[string]struct{}, len(w.Exact))
	for _, e := range w.Exact {
		s.exact[e] = struct{}{}
	}
	return nil
}

// Empty reporta si el set no permite nada.
func (s PermissionSet) Empty() bool {
	return !s.global && len(s.anyAction) == 0 && len(s.exact) == 0
}

// Allows decide si el set permite (recurso, acción).
func (s PermissionSet) Allows(resource string, action Action) bool {
	if s.global {
		return true
	}
	resource = strings.ToLower(resource)
	if _, ok := s.anyAction[resource]; ok {
		return true
	}
	_, ok := s.exact[resource+"."+action.String()]
	return ok
}
