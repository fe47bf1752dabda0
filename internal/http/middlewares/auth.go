package middlewares

import (
	"net/http"

	"github.com/dropDatabas3/gatekeep/internal/auth"
	"github.com/dropDatabas3/gatekeep/internal/http/errors"
	"github.com/dropDatabas3/gatekeep/internal/metrics"
	"github.com/dropDatabas3/gatekeep/internal/observability/logger"
	"github.com/dropDatabas3/gatekeep/internal/rbac"
)

// =================================================================================
// AUTHENTICATION / AUTHORIZATION MIDDLEWARES
// =================================================================================

// RequireIdentity resuelve la identidad actuante (API key o token de sesión)
// y la inyecta en el contexto. Si ninguna credencial resuelve, responde 401.
// Si la cuenta no está verificada, responde 401 con código propio.
func RequireIdentity(resolver *auth.Resolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			creds := auth.CredentialsFromRequest(r)

			user, err := resolver.Resolve(r.Context(), creds)
			if err != nil {
				switch err {
				case auth.ErrUserNotVerified:
					errors.WriteError(w, r, errors.ErrUserNotVerified)
				default:
					errors.WriteError(w, r, errors.ErrAuthenticationRequired)
				}
				return
			}

			// Inyectar usuario y enriquecer el logger scoped
			ctx := WithUser(r.Context(), user)
			ctx = logger.ToContext(ctx, logger.From(ctx).With(
				logger.UserID(user.ID),
				logger.Role(user.Role),
			))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAccess evalúa RBAC para el request: deriva recurso del path y acción
// del método HTTP, y consulta el evaluador con el rol del usuario actuante.
// Debe usarse después de RequireIdentity. Denegación = 403, distinta de 401.
func RequireAccess(eval *rbac.Evaluator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r.Context())
			if user == nil {
				errors.WriteError(w, r, errors.ErrAuthenticationRequired)
				return
			}

			resource := rbac.ResourceFromPath(r.URL.Path)
			action, ok := rbac.ActionFromMethod(r.Method)
			if !ok {
				errors.WriteError(w, r, errors.ErrPermissionDenied)
				return
			}

			allowed, err := eval.Allowed(r.Context(), user.Role, resource, action)
			if err != nil {
				logger.From(r.Context()).Error("permission evaluation failed",
					logger.Resource(resource),
					logger.Err(err),
				)
				errors.WriteError(w, r, errors.ErrInternal)
				return
			}
			if !allowed {
				metrics.PermissionDenials.WithLabelValues(resource).Inc()
				logger.From(r.Context()).Warn("permission denied",
					logger.Resource(resource),
					logger.Action(action.String()),
				)
				errors.WriteError(w, r, errors.ErrPermissionDenied)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
