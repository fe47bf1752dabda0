package types

import "time"

// Provider identifica el origen de la identidad del usuario.
const (
	ProviderNative = "native"
	ProviderGoogle = "google"
)

// TfaMethod es un método de segundo factor habilitado para un usuario.
type TfaMethod string

const (
	TfaMethodAuthenticator TfaMethod = "authenticator"
	TfaMethodEmail         TfaMethod = "email"
)

// Valid reporta si el método es uno de los soportados.
func (m TfaMethod) Valid() bool {
	return m == TfaMethodAuthenticator || m == TfaMethodEmail
}

// User es el registro de identidad que este core lee y escribe.
// La tabla pertenece al backend CRUD; acá solo tocamos los campos de auth.
type User struct {
	ID         int64
	Name       string
	Email      string
	Role       string
	Provider   string
	ProviderID *string
	// Password es el hash argon2id en formato PHC. Nil para cuentas
	// exclusivamente federadas.
	Password   *string
	Verified   bool
	APIKey     *string
	TfaSecret  *string
	TfaMethods []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TfaEnabled reporta si el usuario tiene al menos un método de segundo factor.
// Un set vacío nunca dispara el step-up de MFA.
func (u *User) TfaEnabled() bool {
	return len(u.TfaMethods) > 0
}

// HasTfaMethod reporta si el método está habilitado para el usuario.
func (u *User) HasTfaMethod(m TfaMethod) bool {
	for _, v := range u.TfaMethods {
		if v == string(m) {
			return true
		}
	}
	return false
}
