// Package metrics define los contadores Prometheus del core de auth.
// Paquete standalone para evitar ciclos de import entre services y HTTP.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	LoginAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_login_attempts_total",
		Help: "Intentos de login por resultado (success|invalid|unverified|tfa_required)",
	}, []string{"result"})

	TokensIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_tokens_issued_total",
		Help: "Tokens emitidos por propósito",
	}, []string{"purpose"})

	TfaChallenges = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_tfa_challenges_total",
		Help: "Challenges MFA emitidos",
	})

	TfaVerifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_tfa_verifications_total",
		Help: "Verificaciones de código MFA por resultado (success|failure)",
	}, []string{"result"})

	PermissionDenials = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_permission_denials_total",
		Help: "Denegaciones RBAC por recurso",
	}, []string{"resource"})

	SessionRefreshes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_session_refreshes_total",
		Help: "Refresh de sesión por resultado (success|invalid)",
	}, []string{"result"})
)

// Register registra las métricas de auth en el registry dado (default si nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	collectors := []prometheus.Collector{
		LoginAttempts, TokensIssued, TfaChallenges,
		TfaVerifications, PermissionDenials, SessionRefreshes,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
