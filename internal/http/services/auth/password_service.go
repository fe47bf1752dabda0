package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dropDatabas3/gatekeep/internal/domain/repository"
	"github.com/dropDatabas3/gatekeep/internal/domain/types"
	dto "github.com/dropDatabas3/gatekeep/internal/http/dto/auth"
	"github.com/dropDatabas3/gatekeep/internal/observability/logger"
	"github.com/dropDatabas3/gatekeep/internal/queue"
	"github.com/dropDatabas3/gatekeep/internal/security/password"
	tokens "github.com/dropDatabas3/gatekeep/internal/security/token"
)

// PasswordDeps contiene las dependencias para los flujos de password.
type PasswordDeps struct {
	Users     repository.UserRepository
	Settings  repository.SettingRepository
	Templates repository.TemplateRepository
	Codec     *tokens.Codec
	Queue     queue.Enqueuer
	// EmailTokenTTL es la edad máxima de los tokens de reset y verificación.
	EmailTokenTTL time.Duration
}

type passwordService struct {
	deps PasswordDeps
}

// NewPasswordService crea un nuevo servicio de password.
func NewPasswordService(deps PasswordDeps) PasswordService {
	return &passwordService{deps: deps}
}

// Forgot encola el email de reset si el usuario existe. La respuesta es
// idéntica exista o no la cuenta: no se filtra membresía.
func (s *passwordService) Forgot(ctx context.Context, email string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.password"),
		logger.Op("Forgot"),
	)

	user, err := s.deps.Users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Error("user lookup failed", logger.Err(err))
		}
		return nil
	}

	resetToken, err := s.deps.Codec.Encode(map[string]string{"sub": user.Email}, tokens.PurposeReset)
	if err != nil {
		log.Error("reset token encode failed", logger.Err(err))
		return nil
	}

	baseURL, err := s.deps.Settings.Get(ctx, types.SettingBaseURL)
	if err != nil {
		log.Error("base url setting not found", logger.Err(err))
		return nil
	}
	templatePath, err := s.deps.Templates.GetPath(ctx, types.TemplateResetPassword)
	if err != nil {
		log.Error("reset password template not found", logger.Err(err))
		return nil
	}

	s.deps.Queue.EnqueueEmail(ctx, queue.EmailJob{
		Template: templatePath,
		Data: map[string]string{
			"name":               user.Name,
			"reset_password_url": fmt.Sprintf("%s/reset-password?token=%s", baseURL, resetToken),
		},
		Subject:    "Reset your password",
		Recipients: []string{user.Email},
	})
	return nil
}

// Reset consume el token de reset y fija el password nuevo.
func (s *passwordService) Reset(ctx context.Context, token string, in dto.ResetPasswordForm) error {
	if in.NewPassword != in.ConfirmPassword {
		return ErrPasswordMismatch
	}

	user, err := s.userFromToken(ctx, token, tokens.PurposeReset)
	if err != nil {
		return err
	}

	hash, err := password.Hash(password.Default, in.NewPassword)
	if err != nil {
		return err
	}
	if err := s.deps.Users.SetPassword(ctx, user.ID, hash); err != nil {
		return err
	}

	logger.From(ctx).Info("password reset",
		logger.Component("auth.password"),
		logger.UserID(user.ID),
	)
	return nil
}

// Update cambia el password de un usuario autenticado, previa verificación
// del password actual.
func (s *passwordService) Update(ctx context.Context, user *types.User, in dto.UpdatePasswordForm) error {
	if user.Password == nil || !password.Verify(in.CurrentPassword, *user.Password) {
		return ErrInvalidCredentials
	}
	if in.NewPassword != in.ConfirmPassword {
		return ErrPasswordMismatch
	}

	hash, err := password.Hash(password.Default, in.NewPassword)
	if err != nil {
		return err
	}
	if err := s.deps.Users.SetPassword(ctx, user.ID, hash); err != nil {
		return err
	}

	logger.From(ctx).Info("password updated",
		logger.Component("auth.password"),
		logger.UserID(user.ID),
	)
	return nil
}

// VerifyEmail consume el token de verificación y marca la cuenta.
func (s *passwordService) VerifyEmail(ctx context.Context, token string) error {
	user, err := s.userFromToken(ctx, token, tokens.PurposeVerification)
	if err != nil {
		return err
	}
	if err := s.deps.Users.SetVerified(ctx, user.ID, true); err != nil {
		return err
	}

	logger.From(ctx).Info("email verified",
		logger.Component("auth.password"),
		logger.UserID(user.ID),
	)
	return nil
}

// userFromToken decodifica un token de email (reset o verificación) y
// resuelve el sujeto. Cualquier falla colapsa en ErrTokenInvalid.
func (s *passwordService) userFromToken(ctx context.Context, token, purpose string) (*types.User, error) {
	payload, err := s.deps.Codec.Decode(token, purpose, s.deps.EmailTokenTTL)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	sub := payload["sub"]
	if sub == "" {
		return nil, ErrTokenInvalid
	}
	user, err := s.deps.Users.GetByEmail(ctx, sub)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	return user, nil
}
