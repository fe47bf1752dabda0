package helpers

import (
	"net/http"
	"strings"
	"time"
)

// Nombres de cookies del flujo de auth.
const (
	CookieAccessToken  = "access_token"
	CookieRefreshToken = "refresh_token"
	CookieTfaToken     = "tfa_token"
	CookieTfaVerified  = "tfa_verified"
)

// TfaVerifiedValue es el valor del marker "verified" post-código.
const TfaVerifiedValue = "1"

func ParseSameSite(s string) http.SameSite {
	s = strings.TrimSpace(strings.ToLower(s))
	switch s {
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}

// CookieSettings agrupa los atributos comunes a todas las cookies de auth.
type CookieSettings struct {
	Domain   string
	SameSite string
	Secure   bool
}

// Build arma una cookie http-only con los atributos configurados.
func (cs CookieSettings) Build(name, value, path string, ttl time.Duration) *http.Cookie {
	if path == "" {
		path = "/"
	}
	ck := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		HttpOnly: true,
		Secure:   cs.Secure,
		SameSite: ParseSameSite(cs.SameSite),
	}
	if strings.TrimSpace(cs.Domain) != "" {
		ck.Domain = cs.Domain
	}
	if ttl > 0 {
		ck.Expires = time.Now().Add(ttl).UTC()
		ck.MaxAge = int(ttl.Seconds())
	}
	return ck
}

// BuildDeletion arma la cookie de borrado correspondiente.
func (cs CookieSettings) BuildDeletion(name, path string) *http.Cookie {
	if path == "" {
		path = "/"
	}
	ck := &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		HttpOnly: true,
		Secure:   cs.Secure,
		SameSite: ParseSameSite(cs.SameSite),
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
	}
	if strings.TrimSpace(cs.Domain) != "" {
		ck.Domain = cs.Domain
	}
	return ck
}
