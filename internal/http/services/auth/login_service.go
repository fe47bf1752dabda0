package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/dropDatabas3/gatekeep/internal/domain/repository"
	dto "github.com/dropDatabas3/gatekeep/internal/http/dto/auth"
	"github.com/dropDatabas3/gatekeep/internal/metrics"
	"github.com/dropDatabas3/gatekeep/internal/observability/logger"
	"github.com/dropDatabas3/gatekeep/internal/security/password"
	tokens "github.com/dropDatabas3/gatekeep/internal/security/token"
)

// LoginDeps contiene las dependencias para el login service.
type LoginDeps struct {
	Users repository.UserRepository
	Codec *tokens.Codec
}

type loginService struct {
	deps LoginDeps
}

// NewLoginService crea un nuevo servicio de login.
func NewLoginService(deps LoginDeps) LoginService {
	return &loginService{deps: deps}
}

func (s *loginService) LoginPassword(ctx context.Context, in dto.LoginRequest, tfaVerified string) (*dto.LoginResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
		logger.Op("LoginPassword"),
	)

	// Normalización
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}

	// Paso 1: credencial primaria. Usuario inexistente y password incorrecto
	// colapsan en el mismo error: no se filtra cuál falló.
	user, err := s.deps.Users.GetByEmail(ctx, in.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Error("user lookup failed", logger.Err(err))
		}
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidCredentials
	}

	log = log.With(logger.UserID(user.ID))

	if user.Password == nil || !password.Verify(in.Password, *user.Password) {
		log.Debug("password verification failed")
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidCredentials
	}

	// Paso 2: cuenta sin verificar nunca recibe sesión.
	if !user.Verified {
		metrics.LoginAttempts.WithLabelValues("unverified").Inc()
		return nil, ErrUserNotVerified
	}

	// Paso 3: gate MFA. Con métodos enrolados y sin prueba de segundo
	// factor, la respuesta es un challenge, no una sesión.
	if user.TfaEnabled() && tfaVerified == "" {
		tfaToken, err := s.deps.Codec.Encode(map[string]string{"sub": user.Email}, tokens.PurposeTfa)
		if err != nil {
			return nil, err
		}
		metrics.LoginAttempts.WithLabelValues("tfa_required").Inc()
		metrics.TfaChallenges.Inc()
		metrics.TokensIssued.WithLabelValues(tokens.PurposeTfa).Inc()
		log.Info("tfa challenge issued")
		return &dto.LoginResult{
			TfaRequired: true,
			TfaMethods:  user.TfaMethods,
			TfaToken:    tfaToken,
		}, nil
	}

	// Una cookie tfa_verified con cualquier valor distinto de "1" es
	// una prueba adulterada.
	if tfaVerified != "" && tfaVerified != "1" {
		metrics.LoginAttempts.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidTfaState
	}

	access, refresh, err := IssueSession(s.deps.Codec, user.Email)
	if err != nil {
		return nil, err
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	log.Info("login successful")
	return &dto.LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}
