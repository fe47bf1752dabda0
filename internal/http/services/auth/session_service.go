package auth

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/gatekeep/internal/domain/repository"
	"github.com/dropDatabas3/gatekeep/internal/domain/types"
	dto "github.com/dropDatabas3/gatekeep/internal/http/dto/auth"
	"github.com/dropDatabas3/gatekeep/internal/metrics"
	"github.com/dropDatabas3/gatekeep/internal/observability/logger"
	tokens "github.com/dropDatabas3/gatekeep/internal/security/token"
)

// SessionDeps contiene las dependencias para el session service.
type SessionDeps struct {
	Users repository.UserRepository
	Roles repository.RoleRepository
	Codec *tokens.Codec
	// RefreshTTL es la edad máxima aceptada para el refresh token.
	RefreshTTL time.Duration
}

type sessionService struct {
	deps SessionDeps
}

// NewSessionService crea un nuevo servicio de sesión.
func NewSessionService(deps SessionDeps) SessionService {
	return &sessionService{deps: deps}
}

// Refresh rota el par completo. El refresh token viejo no se reutiliza y
// el sujeto se re-resuelve contra el store: un usuario borrado o
// des-verificado después de la emisión falla acá aunque la firma siga
// siendo válida.
func (s *sessionService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.session"),
		logger.Op("Refresh"),
	)

	payload, err := s.deps.Codec.Decode(refreshToken, tokens.PurposeRefresh, s.deps.RefreshTTL)
	if err != nil {
		metrics.SessionRefreshes.WithLabelValues("invalid").Inc()
		return "", "", ErrTokenInvalid
	}
	sub := payload["sub"]
	if sub == "" {
		metrics.SessionRefreshes.WithLabelValues("invalid").Inc()
		return "", "", ErrTokenInvalid
	}

	user, err := s.deps.Users.GetByEmail(ctx, sub)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Error("user lookup failed", logger.Err(err))
		}
		metrics.SessionRefreshes.WithLabelValues("invalid").Inc()
		return "", "", ErrTokenInvalid
	}
	if !user.Verified {
		metrics.SessionRefreshes.WithLabelValues("invalid").Inc()
		return "", "", ErrTokenInvalid
	}

	access, refresh, err := IssueSession(s.deps.Codec, user.Email)
	if err != nil {
		return "", "", err
	}

	metrics.SessionRefreshes.WithLabelValues("success").Inc()
	log.Debug("session refreshed", logger.UserID(user.ID))
	return access, refresh, nil
}

// Me arma la vista de la identidad actuante con los permisos crudos del rol.
func (s *sessionService) Me(ctx context.Context, user *types.User) (*dto.UserAuthResponse, error) {
	permissions := []string{}
	perms, err := s.deps.Roles.GetPermissions(ctx, user.Role)
	switch {
	case err == nil:
		permissions = perms
	case errors.Is(err, repository.ErrNotFound):
		// Rol sin fila RBAC: lista vacía, no error.
	default:
		return nil, err
	}

	return &dto.UserAuthResponse{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role,
		Provider:    user.Provider,
		Verified:    user.Verified,
		TfaMethods:  user.TfaMethods,
		Permissions: permissions,
		API:         user.APIKey,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}, nil
}

// GenerateAPIKey genera y persiste una clave opaca nueva para el usuario.
// Regenerar es la única forma de revocar la anterior.
func (s *sessionService) GenerateAPIKey(ctx context.Context, user *types.User) (string, error) {
	key, err := tokens.GenerateOpaque(32)
	if err != nil {
		return "", err
	}
	if err := s.deps.Users.SetAPIKey(ctx, user.ID, key); err != nil {
		return "", err
	}
	logger.From(ctx).Info("api key regenerated",
		logger.Component("auth.session"),
		logger.UserID(user.ID),
	)
	return key, nil
}
