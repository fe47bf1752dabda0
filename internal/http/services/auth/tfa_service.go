package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/gatekeep/internal/domain/repository"
	"github.com/dropDatabas3/gatekeep/internal/domain/types"
	"github.com/dropDatabas3/gatekeep/internal/metrics"
	"github.com/dropDatabas3/gatekeep/internal/observability/logger"
	"github.com/dropDatabas3/gatekeep/internal/queue"
	tokens "github.com/dropDatabas3/gatekeep/internal/security/token"
	"github.com/dropDatabas3/gatekeep/internal/security/totp"
)

// TfaDeps contiene las dependencias para el servicio de segundo factor.
type TfaDeps struct {
	Users     repository.UserRepository
	Templates repository.TemplateRepository
	Codec     *tokens.Codec
	Queue     queue.Enqueuer
	// AppName es el issuer que se muestra en la app authenticator.
	AppName string
	// TfaTokenTTL es la vida del challenge token.
	TfaTokenTTL time.Duration

	// now es inyectable para tests.
	now func() time.Time
}

type tfaService struct {
	deps TfaDeps
}

// NewTfaService crea un nuevo servicio de segundo factor.
func NewTfaService(deps TfaDeps) TfaService {
	if deps.now == nil {
		deps.now = time.Now
	}
	return &tfaService{deps: deps}
}

// ensureSecret garantiza que el usuario tenga secreto TOTP, generándolo
// y persistiéndolo si falta.
func (s *tfaService) ensureSecret(ctx context.Context, user *types.User) (string, error) {
	if user.TfaSecret != nil && *user.TfaSecret != "" {
		return *user.TfaSecret, nil
	}
	_, b32, err := totp.GenerateSecret()
	if err != nil {
		return "", err
	}
	if err := s.deps.Users.SetTfaSecret(ctx, user.ID, b32); err != nil {
		return "", err
	}
	user.TfaSecret = &b32
	return b32, nil
}

// challengeToken emite el token de challenge MFA para el usuario.
func (s *tfaService) challengeToken(email string) (string, error) {
	tok, err := s.deps.Codec.Encode(map[string]string{"sub": email}, tokens.PurposeTfa)
	if err != nil {
		return "", err
	}
	metrics.TokensIssued.WithLabelValues(tokens.PurposeTfa).Inc()
	return tok, nil
}

func (s *tfaService) SetupAuthenticator(ctx context.Context, user *types.User) (string, string, error) {
	secret, err := s.ensureSecret(ctx, user)
	if err != nil {
		return "", "", err
	}

	link := totp.OTPAuthURL(s.deps.AppName, user.Email, secret)

	tfaToken, err := s.challengeToken(user.Email)
	if err != nil {
		return "", "", err
	}

	logger.From(ctx).Info("authenticator tfa setup started",
		logger.Component("auth.tfa"),
		logger.UserID(user.ID),
	)
	return link, tfaToken, nil
}

func (s *tfaService) SetupEmail(ctx context.Context, user *types.User) (string, error) {
	secret, err := s.ensureSecret(ctx, user)
	if err != nil {
		return "", err
	}

	if err := s.enqueueCode(ctx, user, secret); err != nil {
		return "", err
	}

	tfaToken, err := s.challengeToken(user.Email)
	if err != nil {
		return "", err
	}

	logger.From(ctx).Info("email tfa setup started",
		logger.Component("auth.tfa"),
		logger.UserID(user.ID),
	)
	return tfaToken, nil
}

// SendEmailCode reenvía el código a partir del challenge vigente. No
// requiere sesión: el tfa_token es la prueba de la credencial primaria.
func (s *tfaService) SendEmailCode(ctx context.Context, tfaToken string) error {
	user, err := s.userFromChallenge(ctx, tfaToken)
	if err != nil {
		return err
	}
	if user.TfaSecret == nil || *user.TfaSecret == "" {
		return ErrTfaNotSetUp
	}
	return s.enqueueCode(ctx, user, *user.TfaSecret)
}

// Verify chequea el código contra el secreto del usuario del challenge,
// con el intervalo propio del método: 30s para authenticator, 300s para
// email (compensa la latencia de entrega).
func (s *tfaService) Verify(ctx context.Context, tfaToken, method, code string) (bool, error) {
	m := types.TfaMethod(method)
	if !m.Valid() {
		return false, ErrUnknownTfaMethod
	}

	user, err := s.userFromChallenge(ctx, tfaToken)
	if err != nil {
		return false, err
	}
	if user.TfaSecret == nil || *user.TfaSecret == "" {
		return false, ErrTfaNotSetUp
	}

	secretRaw, err := totp.DecodeSecret(*user.TfaSecret)
	if err != nil {
		return false, ErrTfaNotSetUp
	}

	period := totp.PeriodAuthenticator
	if m == types.TfaMethodEmail {
		period = totp.PeriodEmail
	}

	ok := totp.Verify(secretRaw, code, s.deps.now(), period, 1)
	if ok {
		metrics.TfaVerifications.WithLabelValues("success").Inc()
		logger.From(ctx).Info("tfa verification successful",
			logger.Component("auth.tfa"),
			logger.UserID(user.ID),
			logger.TfaMethod(method),
		)
	} else {
		metrics.TfaVerifications.WithLabelValues("failure").Inc()
	}
	return ok, nil
}

func (s *tfaService) Enable(ctx context.Context, user *types.User, method string) error {
	m := types.TfaMethod(method)
	if !m.Valid() {
		return ErrUnknownTfaMethod
	}
	if user.HasTfaMethod(m) {
		return nil
	}
	methods := append(append([]string{}, user.TfaMethods...), method)
	if err := s.deps.Users.SetTfaMethods(ctx, user.ID, methods); err != nil {
		return err
	}
	user.TfaMethods = methods

	logger.From(ctx).Info("tfa method enabled",
		logger.Component("auth.tfa"),
		logger.UserID(user.ID),
		logger.TfaMethod(method),
	)
	return nil
}

func (s *tfaService) Disable(ctx context.Context, user *types.User, method string) error {
	m := types.TfaMethod(method)
	if !m.Valid() {
		return ErrUnknownTfaMethod
	}
	if !user.HasTfaMethod(m) {
		return nil
	}
	methods := make([]string, 0, len(user.TfaMethods))
	for _, v := range user.TfaMethods {
		if v != method {
			methods = append(methods, v)
		}
	}
	if err := s.deps.Users.SetTfaMethods(ctx, user.ID, methods); err != nil {
		return err
	}
	user.TfaMethods = methods

	logger.From(ctx).Info("tfa method disabled",
		logger.Component("auth.tfa"),
		logger.UserID(user.ID),
		logger.TfaMethod(method),
	)
	return nil
}

// enqueueCode genera el código con intervalo de email y lo encola.
func (s *tfaService) enqueueCode(ctx context.Context, user *types.User, secretB32 string) error {
	secretRaw, err := totp.DecodeSecret(secretB32)
	if err != nil {
		return ErrTfaNotSetUp
	}

	templatePath, err := s.deps.Templates.GetPath(ctx, types.TemplateTfa)
	if err != nil {
		return fmt.Errorf("tfa template not found: %w", err)
	}

	code := totp.Now(secretRaw, s.deps.now(), totp.PeriodEmail)
	s.deps.Queue.EnqueueEmail(ctx, queue.EmailJob{
		Template: templatePath,
		Data: map[string]string{
			"otp":            code,
			"expiry_minutes": fmt.Sprintf("%d", int(s.deps.TfaTokenTTL.Minutes())),
		},
		Subject:    "Your Two-Factor Authentication Code",
		Recipients: []string{user.Email},
	})
	return nil
}

// userFromChallenge decodifica el challenge token y resuelve su sujeto.
func (s *tfaService) userFromChallenge(ctx context.Context, tfaToken string) (*types.User, error) {
	if tfaToken == "" {
		return nil, ErrTokenInvalid
	}
	payload, err := s.deps.Codec.Decode(tfaToken, tokens.PurposeTfa, s.deps.TfaTokenTTL)
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
