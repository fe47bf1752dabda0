package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dropDatabas3/gatekeep/internal/domain/repository"
	"github.com/dropDatabas3/gatekeep/internal/domain/types"
	dto "github.com/dropDatabas3/gatekeep/internal/http/dto/auth"
	"github.com/dropDatabas3/gatekeep/internal/observability/logger"
	"github.com/dropDatabas3/gatekeep/internal/queue"
	"github.com/dropDatabas3/gatekeep/internal/security/password"
	tokens "github.com/dropDatabas3/gatekeep/internal/security/token"
	"github.com/dropDatabas3/gatekeep/internal/security/totp"
)

// RegisterDeps contiene las dependencias para el register service.
type RegisterDeps struct {
	Users     repository.UserRepository
	Settings  repository.SettingRepository
	Templates repository.TemplateRepository
	Codec     *tokens.Codec
	Queue     queue.Enqueuer
}

type registerService struct {
	deps RegisterDeps
}

// NewRegisterService crea un nuevo servicio de registro.
func NewRegisterService(deps RegisterDeps) RegisterService {
	return &registerService{deps: deps}
}

func (s *registerService) Register(ctx context.Context, in dto.RegisterForm) (*dto.RegisterResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.register"),
		logger.Op("Register"),
	)

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if in.Email == "" || in.Name == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	if in.Password != in.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	if _, err := s.deps.Users.GetByEmail(ctx, in.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	// El método de verificación viene de settings seedeados: si la fila
	// no está, el deployment está roto y el registro no puede continuar.
	verification, err := s.deps.Settings.Get(ctx, types.SettingUserVerification)
	if err != nil {
		return nil, fmt.Errorf("user verification setting not found: %w", err)
	}

	hash, err := password.Hash(password.Default, in.Password)
	if err != nil {
		return nil, err
	}

	// Secreto TOTP pre-generado en el alta; queda latente hasta que el
	// usuario habilite un método.
	_, tfaSecret, err := totp.GenerateSecret()
	if err != nil {
		return nil, err
	}

	user := &types.User{
		Name:      in.Name,
		Email:     in.Email,
		Provider:  types.ProviderNative,
		Password:  &hash,
		Verified:  verification == types.VerificationNone,
		TfaSecret: &tfaSecret,
	}
	if err := s.deps.Users.Create(ctx, user); err != nil {
		return nil, err
	}

	log = log.With(logger.UserID(user.ID))
	log.Info("user registered", logger.Email(user.Email))

	NotifyRegistration(ctx, s.deps.Queue, user)

	// Cuenta sin verificar: nunca se emite sesión. El alta responde
	// pendiente y el link por email completa el flow.
	if verification == types.VerificationEmail {
		if err := s.sendVerificationEmail(ctx, user); err != nil {
			// El alta ya se concretó: loguear y seguir, el usuario puede
			// pedir un reenvío.
			log.Error("verification email enqueue failed", logger.Err(err))
		}
		return &dto.RegisterResult{
			UserID:              user.ID,
			VerificationPending: true,
		}, nil
	}

	access, refresh, err := IssueSession(s.deps.Codec, user.Email)
	if err != nil {
		return nil, err
	}

	return &dto.RegisterResult{
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// sendVerificationEmail encola el email con el link de verificación.
func (s *registerService) sendVerificationEmail(ctx context.Context, user *types.User) error {
	verificationToken, err := s.deps.Codec.Encode(map[string]string{"sub": user.Email}, tokens.PurposeVerification)
	if err != nil {
		return err
	}

	baseURL, err := s.deps.Settings.Get(ctx, types.SettingBaseURL)
	if err != nil {
		return fmt.Errorf("base url setting not found: %w", err)
	}
	templatePath, err := s.deps.Templates.GetPath(ctx, types.TemplateEmailVerification)
	if err != nil {
		return fmt.Errorf("email verification template not found: %w", err)
	}

	s.deps.Queue.EnqueueEmail(ctx, queue.EmailJob{
		Template: templatePath,
		Data: map[string]string{
			"name":             user.Name,
			"verification_url": fmt.Sprintf("%s/api/verify_email?token=%s", baseURL, verificationToken),
		},
		Subject:    "Verify your email address",
		Recipients: []string{user.Email},
	})
	return nil
}
