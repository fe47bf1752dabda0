// Package router arma el árbol de rutas del core de auth sobre chi.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/gatekeep/internal/auth"
	authctl "github.com/dropDatabas3/gatekeep/internal/http/controllers/auth"
	socialctl "github.com/dropDatabas3/gatekeep/internal/http/controllers/social"
	"github.com/dropDatabas3/gatekeep/internal/http/helpers"
	mw "github.com/dropDatabas3/gatekeep/internal/http/middlewares"
	"github.com/dropDatabas3/gatekeep/internal/rbac"
)

// Deps contiene controllers y colaboradores del router.
type Deps struct {
	Login    *authctl.LoginController
	Register *authctl.RegisterController
	Session  *authctl.SessionController
	Password *authctl.PasswordController
	Tfa      *authctl.TfaController
	Google   *socialctl.GoogleController

	Resolver  *auth.Resolver
	Evaluator *rbac.Evaluator

	// CORSAllowedOrigins vacío = sin CORS.
	CORSAllowedOrigins []string
}

// New construye el router con la cadena de middlewares base y las rutas
// públicas y protegidas del core.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.WithRecover())
	r.Use(mw.WithRequestID())
	r.Use(mw.WithSecurityHeaders())
	if len(deps.CORSAllowedOrigins) > 0 {
		r.Use(mw.WithCORS(deps.CORSAllowedOrigins))
	}
	r.Use(mw.WithLogging())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		// El link de verificación sale por email fuera del prefijo /auth.
		r.Get("/verify_email", deps.Password.VerifyEmail)

		r.Route("/auth", func(r chi.Router) {
			// Rutas públicas: son las que construyen la identidad.
			r.Post("/login", deps.Login.Login)
			r.Post("/register", deps.Register.Register)
			r.Post("/refresh", deps.Session.Refresh)
			r.Post("/logout", deps.Session.Logout)
			r.Post("/forgot_password", deps.Password.Forgot)
			r.Post("/reset_password", deps.Password.Reset)

			r.Route("/google", func(r chi.Router) {
				r.Get("/login", deps.Google.Login)
				r.Get("/callback", deps.Google.Callback)
				r.Post("/session", deps.Google.Session)
			})

			// El challenge MFA se completa sin sesión: el tfa_token es
			// la prueba de la credencial primaria.
			r.Post("/tfa/verify/{method}", deps.Tfa.Verify)
			r.Post("/tfa/send_email", deps.Tfa.SendEmailCode)

			// Rutas protegidas: identidad resuelta + RBAC por
			// recurso/acción derivados del request.
			r.Group(func(r chi.Router) {
				r.Use(mw.RequireIdentity(deps.Resolver))
				r.Use(mw.RequireAccess(deps.Evaluator))

				r.Get("/me", deps.Session.Me)
				r.Post("/generate_api_key", deps.Session.GenerateAPIKey)
				r.Post("/update_password", deps.Password.Update)

				r.Post("/tfa/setup/authenticator", deps.Tfa.SetupAuthenticator)
				r.Post("/tfa/setup/email", deps.Tfa.SetupEmail)
				r.Post("/tfa/enable/{method}", deps.Tfa.Enable)
				r.Post("/tfa/disable/{method}", deps.Tfa.Disable)
			})
		})
	})

	return r
}
