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

// PasswordController maneja los flujos de password y verificación de email.
type PasswordController struct {
	service svc.PasswordService
}

// NewPasswordController crea un nuevo controller de password.
func NewPasswordController(service svc.PasswordService) *PasswordController {
	return &PasswordController{service: service}
}

// Forgot maneja POST /api/auth/forgot_password. La respuesta es la misma
// exista o no la cuenta.
func (c *PasswordController) Forgot(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordForm
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	if err := c.service.Forgot(r.Context(), req.Email); err != nil {
		errors.WriteError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ActionResponse{
		Success: true,
		Message: "Password reset link has been sent to your email",
	})
}

// Reset maneja POST /api/auth/reset_password?token=...
func (c *PasswordController) Reset(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		errors.WriteError(w, r, errors.ErrBadRequest.WithDetail("missing token"))
		return
	}

	var req dto.ResetPasswordForm
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	if err := c.service.Reset(r.Context(), token, req); err != nil {
		logger.From(r.Context()).Debug("password reset failed", logger.Err(err))
		writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ActionResponse{
		Success: true,
		Message: "Password successfully changed",
	})
}

// Update maneja POST /api/auth/update_password (requiere sesión).
func (c *PasswordController) Update(w http.ResponseWriter, r *http.Request) {
	user := middlewares.GetUser(r.Context())
	if user == nil {
		errors.WriteError(w, r, errors.ErrAuthenticationRequired)
		return
	}

	var req dto.UpdatePasswordForm
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	if err := c.service.Update(r.Context(), user, req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ActionResponse{
		Success: true,
		Message: "Password successfully changed",
	})
}

// VerifyEmail maneja GET /api/verify_email?token=... (el link del email).
func (c *PasswordController) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		errors.WriteError(w, r, errors.ErrBadRequest.WithDetail("missing token"))
		return
	}

	if err := c.service.VerifyEmail(r.Context(), token); err != nil {
		logger.From(r.Context()).Debug("email verification failed", logger.Err(err))
		writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ActionResponse{
		Success: true,
		Message: "Email successfully verified",
	})
}
