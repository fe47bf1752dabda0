// Package auth expone los controllers HTTP del core de autenticación.
// Los controllers solo traducen: body/cookies hacia los services, y
// resultados/errores de service hacia JSON, cookies y la taxonomía HTTP.
package auth

import (
	"net/http"
	"time"

	"github.com/dropDatabas3/gatekeep/internal/http/errors"
	"github.com/dropDatabas3/gatekeep/internal/http/helpers"
	svc "github.com/dropDatabas3/gatekeep/internal/http/services/auth"
)

// RefreshCookiePath acota el refresh token a su único endpoint.
const RefreshCookiePath = "/api/auth/refresh"

// CookieConfig agrupa atributos de cookie y TTLs de emisión que comparten
// todos los controllers de auth.
type CookieConfig struct {
	Settings    helpers.CookieSettings
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	TfaTokenTTL time.Duration
}

// setSessionCookies setea access_token y, si remember, refresh_token
// acotado por path. Limpia los markers del challenge MFA.
func (cc CookieConfig) setSessionCookies(w http.ResponseWriter, access, refresh string, remember bool) {
	http.SetCookie(w, cc.Settings.BuildDeletion(helpers.CookieTfaToken, ""))
	http.SetCookie(w, cc.Settings.BuildDeletion(helpers.CookieTfaVerified, ""))
	http.SetCookie(w, cc.Settings.Build(helpers.CookieAccessToken, access, "", cc.AccessTTL))
	if remember && refresh != "" {
		http.SetCookie(w, cc.Settings.Build(helpers.CookieRefreshToken, refresh, RefreshCookiePath, cc.RefreshTTL))
	}
}

// writeServiceError mapea errores de service a la taxonomía HTTP.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch err {
	case svc.ErrMissingFields:
		errors.WriteError(w, r, errors.ErrBadRequest.WithDetail("missing required fields"))
	case svc.ErrInvalidCredentials:
		errors.WriteError(w, r, errors.ErrInvalidCredentials)
	case svc.ErrUserNotVerified:
		errors.WriteError(w, r, errors.ErrUserNotVerified)
	case svc.ErrInvalidTfaState:
		errors.WriteError(w, r, errors.ErrInvalidCredentials.WithDetail("invalid tfa verification status"))
	case svc.ErrPasswordMismatch:
		errors.WriteError(w, r, errors.ErrPasswordMismatch)
	case svc.ErrEmailTaken:
		errors.WriteError(w, r, errors.ErrEmailTaken)
	case svc.ErrTokenInvalid:
		errors.WriteError(w, r, errors.ErrTokenInvalid)
	case svc.ErrTfaNotSetUp:
		errors.WriteError(w, r, errors.ErrBadRequest.WithDetail("tfa method not set up"))
	case svc.ErrUnknownTfaMethod:
		errors.WriteError(w, r, errors.ErrBadRequest.WithDetail("unknown tfa method"))
	default:
		errors.WriteError(w, r, err)
	}
}
