// Package social expone los endpoints HTTP del flujo federado con Google.
package social

import (
	"net/http"
	"strconv"

	authctl "github.com/dropDatabas3/gatekeep/internal/http/controllers/auth"
	dto "github.com/dropDatabas3/gatekeep/internal/http/dto/auth"
	"github.com/dropDatabas3/gatekeep/internal/http/errors"
	"github.com/dropDatabas3/gatekeep/internal/http/helpers"
	authsvc "github.com/dropDatabas3/gatekeep/internal/http/services/auth"
	svc "github.com/dropDatabas3/gatekeep/internal/http/services/social"
	"github.com/dropDatabas3/gatekeep/internal/observability/logger"
)

// CookieOAuthProfile transporta el perfil federado verificado mientras el
// challenge MFA está pendiente.
const CookieOAuthProfile = "oauth_profile"

// GoogleController maneja login y callback del provider.
type GoogleController struct {
	service svc.Service
	cookies authctl.CookieConfig
}

// NewGoogleController crea un nuevo controller de federación.
func NewGoogleController(service svc.Service, cookies authctl.CookieConfig) *GoogleController {
	return &GoogleController{service: service, cookies: cookies}
}

// Login maneja GET /api/auth/google/login?next_url=...&remember=...
func (c *GoogleController) Login(w http.ResponseWriter, r *http.Request) {
	nextURL := r.URL.Query().Get("next_url")
	remember, _ := strconv.ParseBool(r.URL.Query().Get("remember"))

	authURL, err := c.service.Begin(r.Context(), nextURL, remember)
	if err != nil {
		logger.From(r.Context()).Error("google begin failed", logger.Err(err))
		errors.WriteError(w, r, errors.ErrInternal)
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback maneja GET /api/auth/google/callback?code=...&state=...
func (c *GoogleController) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("GoogleController.Callback"))

	code := r.URL.Query().Get("code")
	if code == "" {
		errors.WriteError(w, r, errors.ErrBadRequest.WithDetail("missing authorization code"))
		return
	}
	state := r.URL.Query().Get("state")

	result, err := c.service.Complete(ctx, code, state)
	if err != nil {
		log.Warn("google callback failed", logger.Err(err))
		switch err {
		case svc.ErrProviderFailed:
			errors.WriteError(w, r, errors.ErrBadRequest.WithDetail("google authentication failed"))
		case authsvc.ErrUserNotVerified:
			errors.WriteError(w, r, errors.ErrUserNotVerified)
		default:
			errors.WriteError(w, r, err)
		}
		return
	}

	// MFA pendiente: challenge + carrier de perfil, sin sesión todavía.
	if result.TfaRequired {
		http.SetCookie(w, c.cookies.Settings.Build(helpers.CookieTfaToken, result.TfaToken, "", c.cookies.TfaTokenTTL))
		http.SetCookie(w, c.cookies.Settings.Build(CookieOAuthProfile, result.ProfileToken, "", c.cookies.TfaTokenTTL))
		helpers.WriteJSON(w, http.StatusOK, dto.TfaChallengeResponse{
			TfaRequired: true,
			TfaMethods:  result.TfaMethods,
		})
		return
	}

	c.setSession(w, result.AccessToken, result.RefreshToken, result.Remember)
	http.Redirect(w, r, result.NextURL, http.StatusFound)
}

// Session maneja POST /api/auth/google/session: cierra el flujo federado
// gateado por MFA presentando el carrier de perfil y el marker verificado.
func (c *GoogleController) Session(w http.ResponseWriter, r *http.Request) {
	profileCk, err := r.Cookie(CookieOAuthProfile)
	if err != nil || profileCk.Value == "" {
		errors.WriteError(w, r, errors.ErrAuthenticationRequired.WithDetail("no federated profile token"))
		return
	}
	tfaVerified := ""
	if ck, err := r.Cookie(helpers.CookieTfaVerified); err == nil {
		tfaVerified = ck.Value
	}

	result, err := c.service.CompleteSession(r.Context(), profileCk.Value, tfaVerified)
	if err != nil {
		switch err {
		case svc.ErrInvalidTfaState:
			errors.WriteError(w, r, errors.ErrTfaRequired)
		case svc.ErrTokenInvalid:
			errors.WriteError(w, r, errors.ErrTokenInvalid)
		default:
			errors.WriteError(w, r, err)
		}
		return
	}

	http.SetCookie(w, c.cookies.Settings.BuildDeletion(CookieOAuthProfile, ""))
	c.setSession(w, result.AccessToken, result.RefreshToken, result.Remember)
	helpers.WriteJSON(w, http.StatusOK, dto.TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   "bearer",
	})
}

func (c *GoogleController) setSession(w http.ResponseWriter, access, refresh string, remember bool) {
	http.SetCookie(w, c.cookies.Settings.BuildDeletion(helpers.CookieTfaToken, ""))
	http.SetCookie(w, c.cookies.Settings.BuildDeletion(helpers.CookieTfaVerified, ""))
	http.SetCookie(w, c.cookies.Settings.Build(helpers.CookieAccessToken, access, "", c.cookies.AccessTTL))
	if remember && refresh != "" {
		http.SetCookie(w, c.cookies.Settings.Build(helpers.CookieRefreshToken, refresh, authctl.RefreshCookiePath, c.cookies.RefreshTTL))
	}
}
