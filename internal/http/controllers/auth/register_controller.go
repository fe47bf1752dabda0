package auth

import (
	"net/http"

	dto "github.com/dropDatabas3/gatekeep/internal/http/dto/auth"
	"github.com/dropDatabas3/gatekeep/internal/http/helpers"
	svc "github.com/dropDatabas3/gatekeep/internal/http/services/auth"
	"github.com/dropDatabas3/gatekeep/internal/observability/logger"
)

// RegisterController maneja el alta de cuentas nativas.
type RegisterController struct {
	service svc.RegisterService
	cookies CookieConfig
}

// NewRegisterController crea un nuevo controller de registro.
func NewRegisterController(service svc.RegisterService, cookies CookieConfig) *RegisterController {
	return &RegisterController{service: service, cookies: cookies}
}

// Register maneja POST /api/auth/register
func (c *RegisterController) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("RegisterController.Register"))

	var req dto.RegisterForm
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	result, err := c.service.Register(ctx, req)
	if err != nil {
		log.Debug("registration failed", logger.Err(err))
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")

	// Verificación pendiente: sin sesión hasta que el link confirme.
	if result.VerificationPending {
		helpers.WriteJSON(w, http.StatusOK, dto.ActionResponse{
			Success: true,
			Message: "Verification email sent. Please verify your account to continue",
		})
		return
	}

	c.cookies.setSessionCookies(w, result.AccessToken, result.RefreshToken, true)
	helpers.WriteJSON(w, http.StatusOK, dto.TokenResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    "bearer",
	})
}
