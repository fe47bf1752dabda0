package auth

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	dto "github.com/dropDatabas3/gatekeep/internal/http/dto/auth"
	"github.com/dropDatabas3/gatekeep/internal/http/errors"
	"github.com/dropDatabas3/gatekeep/internal/http/helpers"
	"github.com/dropDatabas3/gatekeep/internal/http/middlewares"
	svc "github.com/dropDatabas3/gatekeep/internal/http/services/auth"
	"github.com/dropDatabas3/gatekeep/internal/observability/logger"
)

// TfaController maneja el setup, challenge y verificación del segundo factor.
type TfaController struct {
	service svc.TfaService
	cookies CookieConfig
}

// NewTfaController crea un nuevo controller de segundo factor.
func NewTfaController(service svc.TfaService, cookies CookieConfig) *TfaController {
	return &TfaController{service: service, cookies: cookies}
}

// SetupAuthenticator maneja POST /api/auth/tfa/setup/authenticator
func (c *TfaController) SetupAuthenticator(w http.ResponseWriter, r *http.Request) {
	user := middlewares.GetUser(r.Context())
	if user == nil {
		errors.WriteError(w, r, errors.ErrAuthenticationRequired)
		return
	}

	link, tfaToken, err := c.service.SetupAuthenticator(r.Context(), user)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	http.SetCookie(w, c.cookies.Settings.Build(helpers.CookieTfaToken, tfaToken, "", c.cookies.TfaTokenTTL))
	helpers.WriteJSON(w, http.StatusOK, dto.AuthenticatorSetupResponse{TfaLink: link})
}

// SetupEmail maneja POST /api/auth/tfa/setup/email
func (c *TfaController) SetupEmail(w http.ResponseWriter, r *http.Request) {
	user := middlewares.GetUser(r.Context())
	if user == nil {
		errors.WriteError(w, r, errors.ErrAuthenticationRequired)
		return
	}

	tfaToken, err := c.service.SetupEmail(r.Context(), user)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	http.SetCookie(w, c.cookies.Settings.Build(helpers.CookieTfaToken, tfaToken, "", c.cookies.TfaTokenTTL))
	helpers.WriteJSON(w, http.StatusOK, dto.EmailSetupResponse{
		Success: true,
		Message: "Verification code sent to your email",
	})
}

// SendEmailCode maneja POST /api/auth/tfa/send_email. No requiere sesión:
// el challenge token es la prueba de la credencial primaria.
func (c *TfaController) SendEmailCode(w http.ResponseWriter, r *http.Request) {
	ck, err := r.Cookie(helpers.CookieTfaToken)
	if err != nil || ck.Value == "" {
		errors.WriteError(w, r, errors.ErrAuthenticationRequired.WithDetail("no tfa token provided"))
		return
	}

	if err := c.service.SendEmailCode(r.Context(), ck.Value); err != nil {
		logger.From(r.Context()).Debug("tfa email send failed", logger.Err(err))
		writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.EmailSetupResponse{
		Success: true,
		Message: "Verification code sent to your email",
	})
}

// Verify maneja POST /api/auth/tfa/verify/{method}. En match: borra el
// challenge y setea el marker tfa_verified; en mismatch: el challenge
// sigue vigente y el cliente puede reintentar.
func (c *TfaController) Verify(w http.ResponseWriter, r *http.Request) {
	method := chi.URLParam(r, "method")

	ck, err := r.Cookie(helpers.CookieTfaToken)
	if err != nil || ck.Value == "" {
		errors.WriteError(w, r, errors.ErrAuthenticationRequired.WithDetail("no tfa token provided"))
		return
	}

	var req dto.TfaVerifyRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	ok, err := c.service.Verify(r.Context(), ck.Value, method, req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if !ok {
		helpers.WriteJSON(w, http.StatusOK, dto.TfaVerificationResponse{
			Verified: false,
			Message:  "Invalid or expired TFA code",
		})
		return
	}

	http.SetCookie(w, c.cookies.Settings.BuildDeletion(helpers.CookieTfaToken, ""))
	http.SetCookie(w, c.cookies.Settings.Build(helpers.CookieTfaVerified, helpers.TfaVerifiedValue, "", c.cookies.AccessTTL))
	helpers.WriteJSON(w, http.StatusOK, dto.TfaVerificationResponse{
		Verified: true,
		Message:  "TFA verification successful",
	})
}

// Enable maneja POST /api/auth/tfa/enable/{method}
func (c *TfaController) Enable(w http.ResponseWriter, r *http.Request) {
	c.toggle(w, r, true)
}

// Disable maneja POST /api/auth/tfa/disable/{method}
func (c *TfaController) Disable(w http.ResponseWriter, r *http.Request) {
	c.toggle(w, r, false)
}

func (c *TfaController) toggle(w http.ResponseWriter, r *http.Request, enable bool) {
	user := middlewares.GetUser(r.Context())
	if user == nil {
		errors.WriteError(w, r, errors.ErrAuthenticationRequired)
		return
	}

	method := chi.URLParam(r, "method")
	var err error
	msg := "TFA method disabled successfully"
	if enable {
		err = c.service.Enable(r.Context(), user, method)
		msg = "TFA method enabled successfully"
	} else {
		err = c.service.Disable(r.Context(), user, method)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.ActionResponse{Success: true, Message: msg})
}
