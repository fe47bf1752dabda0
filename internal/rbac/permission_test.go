package rbac

import (
	"net/http"
	"testing"
)

func TestParsePermission(t *testing.T) {
	cases := []struct {
		in   string
		ok   bool
		want Permission
	}{
		{"*", true, Permission{Global: true}},
		{"users.read", true, Permission{Resource: "users", Action: ActionRead}},
		{"templates.*", true, Permission{Resource: "templates", AnyAction: true}},
		{"Users.DELETE", true, Permission{Resource: "users", Action: ActionDelete}},
		// El recurso puede llevar puntos; la acción es el último segmento.
		{"reports.daily.read", true, Permission{Resource: "reports.daily", Action: ActionRead}},
		{"", false, Permission{}},
		{"users", false, Permission{}},       // sin acción
		{".read", false, Permission{}},       // sin recurso
		{"users.", false, Permission{}},      // acción vacía
		{"auth.me", false, Permission{}},     // acción fuera del enum: matching literal
		{"users.browse", false, Permission{}},
	}
	for _, c := range cases {
		got, ok := ParsePermission(c.in)
		if ok != c.ok {
			t.Fatalf("%q: ok=%v want %v", c.in, ok, c.ok)
		}
		if ok && got != c.want {
			t.Fatalf("%q: got %+v want %+v", c.in, got, c.want)
		}
	}
}

func TestPermissionSet_Allows(t *testing.T) {
	set := ParseSet([]string{"users.read", "templates.*", "  ", "auth.me"})

	if !set.Allows("users", ActionRead) {
		t.Fatalf("users.read should allow read")
	}
	if set.Allows("users", ActionDelete) {
		t.Fatalf("users.read should not allow delete")
	}
	if !set.Allows("templates", ActionCreate) || !set.Allows("Templates", ActionDelete) {
		t.Fatalf("templates.* should allow any action, case-insensitive resource")
	}
	if set.Allows("orders", ActionRead) {
		t.Fatalf("unlisted resource should deny")
	}
}

func TestPermissionSet_GlobalWildcard(t *testing.T) {
	set := ParseSet([]string{"*"})
	for _, a := range []Action{ActionCreate, ActionRead, ActionUpdate, ActionDelete} {
		if !set.Allows("anything", a) {
			t.Fatalf("global wildcard should allow %v", a)
		}
	}
}

func TestPermissionSet_Empty(t *testing.T) {
	if !ParseSet(nil).Empty() {
		t.Fatalf("nil set should be empty")
	}
	if !ParseSet([]string{"", "garbage"}).Empty() {
		t.Fatalf("only-malformed set should be empty")
	}
	if ParseSet([]string{"users.read"}).Empty() {
		t.Fatalf("populated set should not be empty")
	}
}

func TestActionFromMethod(t *testing.T) {
	cases := map[string]Action{
		http.MethodPost:   ActionCreate,
		http.MethodGet:    ActionRead,
		http.MethodHead:   ActionRead,
		http.MethodPut:    ActionUpdate,
		http.MethodPatch:  ActionUpdate,
		http.MethodDelete: ActionDelete,
	}
	for m, want := range cases {
		got, ok := ActionFromMethod(m)
		if !ok || got != want {
			t.Fatalf("%s: got (%v,%v) want %v", m, got, ok, want)
		}
	}
	if _, ok := ActionFromMethod(http.MethodOptions); ok {
		t.Fatalf("OPTIONS should not map to an action")
	}
}

func TestResourceFromPath(t *testing.T) {
	cases := map[string]string{
		"/api/users/42":         "users",
		"/api/auth/login":       "auth",
		"/notifications":        "notifications",
		"/api":                  "", // /api pelado no deja recurso
		"/":                     "",
		"":                      "",
		"/Templates/3/versions": "templates",
	}
	for in, want := range cases {
		if got := ResourceFromPath(in); got != want {
			t.Fatalf("%q: got %q want %q", in, got, want)
		}
	}
}
