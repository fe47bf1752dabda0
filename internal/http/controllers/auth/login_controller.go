package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/gatekeep/internal/http/dto/auth"
	"github.com/dropDatabas3/gatekeep/internal/http/helpers"
	svc "github.com/dropDatabas3/gatekeep/internal/http/services/auth"
	"github.com/dropDatabas3/gatekeep/internal/observability/logger"
)

// LoginController maneja el endpoint de login.
type LoginController struct {
	service svc.LoginService
	cookies CookieConfig
}

// NewLoginController crea un nuevo controller de login.
func NewLoginController(service svc.LoginService, cookies CookieConfig) *LoginController {
	return &LoginController{service: service, cookies: cookies}
}

// Login maneja POST /api/auth/login
func (c *LoginController) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("LoginController.Login"))

	var req dto.LoginRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	// El marker de segundo factor viaja como cookie.
	tfaVerified := ""
	if ck, err := r.Cookie(helpers.CookieTfaVerified); err == nil {
		tfaVerified = ck.Value
	}

	result, err := c.service.LoginPassword(ctx, req, tfaVerified)
	if err != nil {
		log.Debug("login failed", logger.Err(err))
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")

	// MFA pendiente: challenge token como cookie, sin sesión.
	if result.TfaRequired {
		http.SetCookie(w, c.cookies.Settings.Build(helpers.CookieTfaToken, result.TfaToken, "", c.cookies.TfaTokenTTL))
		helpers.WriteJSON(w, http.StatusOK, dto.TfaChallengeResponse{
			TfaRequired: true,
			TfaMethods:  result.TfaMethods,
		})
		return
	}

	c.cookies.setSessionCookies(w, result.AccessToken, result.RefreshToken, req.Remember)
	resp := dto.TokenResponse{
		AccessToken: result.AccessToken,
		TokenType:   "bearer",
	}
	if req.Remember {
		resp.RefreshToken = result.RefreshToken
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}
