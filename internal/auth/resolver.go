// Package auth implementa la resolución de identidad multi-credencial.
//
// La precedencia ad hoc del backend original (probar API key, probar token,
// tragarse fallas intermedias) se hace explícita como una lista ordenada de
// estrategias: API key, bearer, cookie de sesión. Cada una retorna un
// tri-estado: not-attempted (no había credencial de ese tipo), invalid
// (había y no validó) u ok. Las estrategias se intentan independientemente:
// una falla no corta la cadena.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/gatekeep/internal/domain/repository"
	"github.com/dropDatabas3/gatekeep/internal/domain/types"
	"github.com/dropDatabas3/gatekeep/internal/observability/logger"
	"github.com/dropDatabas3/gatekeep/internal/security/token"
)

// Errores del resolver. El middleware los mapea a la taxonomía HTTP.
var (
	// ErrAuthenticationRequired: ninguna credencial resolvió un usuario.
	ErrAuthenticationRequired = errors.New("auth: authentication required")
	// ErrUserNotVerified: credencial válida pero cuenta sin verificar.
	// Nunca se emite sesión para una cuenta no verificada.
	ErrUserNotVerified = errors.New("auth: user not verified")
)

// Outcome es el tri-estado de una estrategia.
type Outcome int

const (
	NotAttempted Outcome = iota
	Invalid
	OK
)

// Credentials son las credenciales crudas extraídas del request.
type Credentials struct {
	APIKey      string // header Api-Key
	Bearer      string // header Authorization: Bearer <token>
	CookieToken string // cookie access_token
}

// CredentialsFromRequest extrae todas las credenciales presentes.
func CredentialsFromRequest(r *http.Request) Credentials {
	var c Credentials
	c.APIKey = strings.TrimSpace(r.Header.Get("Api-Key"))
	if h := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(h), "bearer ") {
		c.Bearer = strings.TrimSpace(h[len("bearer "):])
	}
	if ck, err := r.Cookie("access_token"); err == nil {
		c.CookieToken = ck.Value
	}
	return c
}

// Empty reporta si no hay ninguna credencial.
func (c Credentials) Empty() bool {
	return c.APIKey == "" && c.Bearer == "" && c.CookieToken == ""
}

// Strategy resuelve un tipo de credencial a un usuario.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, creds Credentials) (*types.User, Outcome)
}

// ─── API key ───

// apiKeyStrategy matchea el header Api-Key por igualdad contra la clave
// opaca almacenada. Sin TTL: la revocación es regenerar la clave.
type apiKeyStrategy struct {
	users repository.UserRepository
}

func (s *apiKeyStrategy) Name() string { return "api-key" }

func (s *apiKeyStrategy) Resolve(ctx context.Context, creds Credentials) (*types.User, Outcome) {
	if creds.APIKey == "" {
		return nil, NotAttempted
	}
	u, err := s.users.GetByAPIKey(ctx, creds.APIKey)
	if err != nil {
		logger.From(ctx).Debug("api key authentication failed", logger.Err(err))
		return nil, Invalid
	}
	return u, OK
}

// ─── Session token ───

// sessionTokenStrategy decodifica un access token con propósito user-auth
// y resuelve el sujeto por email. Header bearer y cookie son instancias
// separadas: un bearer inválido no tapa una cookie válida.
type sessionTokenStrategy struct {
	users  repository.UserRepository
	codec  *token.Codec
	maxAge time.Duration
	source string
	pick   func(Credentials) string
}

func (s *sessionTokenStrategy) Name() string { return s.source }

func (s *sessionTokenStrategy) Resolve(ctx context.Context, creds Credentials) (*types.User, Outcome) {
	raw := s.pick(creds)
	if raw == "" {
		return nil, NotAttempted
	}
	payload, err := s.codec.Decode(raw, token.PurposeAuth, s.maxAge)
	if err != nil {
		logger.From(ctx).Debug("session token authentication failed",
			logger.String("source", s.source), logger.Err(err))
		return nil, Invalid
	}
	sub := payload["sub"]
	if sub == "" {
		return nil, Invalid
	}
	u, err := s.users.GetByEmail(ctx, sub)
	if err != nil {
		logger.From(ctx).Debug("session token subject not found")
		return nil, Invalid
	}
	return u, OK
}

// ─── Resolver ───

// Resolver agrega las estrategias en orden de precedencia.
type Resolver struct {
	strategies []Strategy
}

// NewResolver arma el resolver con la precedencia fija: API key primero,
// después bearer, después cookie de sesión.
func NewResolver(users repository.UserRepository, codec *token.Codec, accessTTL time.Duration) *Resolver {
	return &Resolver{
		strategies: []Strategy{
			&apiKeyStrategy{users: users},
			&sessionTokenStrategy{
				users: users, codec: codec, maxAge: accessTTL,
				source: "bearer-token",
				pick:   func(c Credentials) string { return c.Bearer },
			},
			&sessionTokenStrategy{
				users: users, codec: codec, maxAge: accessTTL,
				source: "cookie-token",
				pick:   func(c Credentials) string { return c.CookieToken },
			},
		},
	}
}

// Resolve retorna el usuario actuante o falla.
// Gana el primer OK; un Invalid no frena a las estrategias siguientes.
// Si ninguna resuelve, o el usuario resuelto no está verificado, falla.
func (r *Resolver) Resolve(ctx context.Context, creds Credentials) (*types.User, error) {
	var user *types.User
	for _, s := range r.strategies {
		u, outcome := s.Resolve(ctx, creds)
		if outcome == OK {
			user = u
			break
		}
	}
	if user == nil {
		return nil, ErrAuthenticationRequired
	}
	if !user.Verified {
		return nil, ErrUserNotVerified
	}
	return user, nil
}
