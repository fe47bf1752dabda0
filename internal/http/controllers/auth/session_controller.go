package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/gatekeep/internal/http/dto/auth"
	"github.com/dropDatabas3/gatekeep/internal/http/errors"
	"github.com/dropDatabas3/gatekeep/internal/http/helpers"
	"github.com/dropDatabas3/gatekeep/internal/http/middlewares"
	svc "github.com/dropDatabas3/gatekeep/internal/http/services/auth"
	"github.com/dropDatabas3/gatekeep/internal/observability/logger"
)

// SessionController maneja refresh, logout, perfil propio y claves de API.
type SessionController struct {
	service svc.SessionService
	cookies CookieConfig
}

// NewSessionController crea un nuevo controller de sesión.
func NewSessionController(service svc.SessionService, cookies CookieConfig) *SessionController {
	return &SessionController{service: service, cookies: cookies}
}

// Refresh maneja POST /api/auth/refresh. El refresh token viene por la
// cookie path-scoped; la respuesta rota el par completo.
func (c *SessionController) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("SessionController.Refresh"))

	ck, err := r.Cookie(helpers.CookieRefreshToken)
	if err != nil || ck.Value == "" {
		errors.WriteError(w, r, errors.ErrAuthenticationRequired.WithDetail("no refresh token provided"))
		return
	}

	access, refresh, err := c.service.Refresh(ctx, ck.Value)
	if err != nil {
		log.Debug("refresh failed", logger.Err(err))
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	http.SetCookie(w, c.cookies.Settings.Build(helpers.CookieAccessToken, access, "", c.cookies.AccessTTL))
	http.SetCookie(w, c.cookies.Settings.Build(helpers.CookieRefreshToken, refresh, RefreshCookiePath, c.cookies.RefreshTTL))
	helpers.WriteJSON(w, http.StatusOK, dto.TokenResponse{
		AccessToken: access,
		TokenType:   "bearer",
	})
}

// Logout maneja POST /api/auth/logout. Solo descarta las cookies del
// cliente: no hay revocación server-side y un access token aún válido
// sigue siéndolo hasta su expiración natural.
func (c *SessionController) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, c.cookies.Settings.BuildDeletion(helpers.CookieAccessToken, ""))
	http.SetCookie(w, c.cookies.Settings.BuildDeletion(helpers.CookieRefreshToken, RefreshCookiePath))
	helpers.WriteJSON(w, http.StatusOK, dto.ActionResponse{Success: true, Message: "Logged out"})
}

// Me maneja GET /api/auth/me
func (c *SessionController) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middlewares.GetUser(ctx)
	if user == nil {
		errors.WriteError(w, r, errors.ErrAuthenticationRequired)
		return
	}

	resp, err := c.service.Me(ctx, user)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// GenerateAPIKey maneja POST /api/auth/generate_api_key
func (c *SessionController) GenerateAPIKey(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := middlewares.GetUser(ctx)
	if user == nil {
		errors.WriteError(w, r, errors.ErrAuthenticationRequired)
		return
	}

	key, err := c.service.GenerateAPIKey(ctx, user)
	if err != nil {
		errors.WriteError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	helpers.WriteJSON(w, http.StatusOK, dto.APIKeyResponse{APIKey: key})
}
