// Package social implementa la federación con Google: begin empaqueta el
// destino de retorno en un state firmado y redirige al provider; complete
// verifica el state, valida el id_token y corre al usuario por el MISMO
// pipeline que el login nativo (gate MFA y emisión de sesión). La
// federación es una entrada alternativa, nunca un camino paralelo de
// emisión de sesión.
package social

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dropDatabas3/gatekeep/internal/domain/repository"
	"github.com/dropDatabas3/gatekeep/internal/domain/types"
	authsvc "github.com/dropDatabas3/gatekeep/internal/http/services/auth"
	"github.com/dropDatabas3/gatekeep/internal/metrics"
	"github.com/dropDatabas3/gatekeep/internal/oauth/google"
	"github.com/dropDatabas3/gatekeep/internal/observability/logger"
	"github.com/dropDatabas3/gatekeep/internal/queue"
	tokens "github.com/dropDatabas3/gatekeep/internal/security/token"
)

// Errores del flujo federado.
var (
	ErrProviderFailed  = fmt.Errorf("google authentication failed")
	ErrTokenInvalid    = fmt.Errorf("could not validate credentials")
	ErrInvalidTfaState = fmt.Errorf("invalid tfa verification status")
)

// Provider abstrae el intercambio con el proveedor de identidad.
// *google.OIDC lo satisface; en tests se reemplaza por un fake.
type Provider interface {
	AuthURL(ctx context.Context, state string) (string, error)
	ExchangeCode(ctx context.Context, code string) (*google.TokenResponse, error)
	VerifyIDToken(ctx context.Context, idToken string) (*google.Profile, error)
}

// Deps contiene las dependencias del servicio de federación.
type Deps struct {
	Users repository.UserRepository
	Codec *tokens.Codec
	Queue queue.Enqueuer
	OIDC  Provider
	// StateTTL acota la vida del state y del carrier de perfil.
	StateTTL time.Duration
}

// CompleteResult es el resultado del callback del provider.
type CompleteResult struct {
	NextURL  string
	Remember bool

	// TfaRequired: la cuenta tiene MFA enrolado. TfaToken es el challenge
	// y ProfileToken el carrier firmado del perfil federado ya verificado;
	// no hay tokens de sesión.
	TfaRequired  bool
	TfaMethods   []string
	TfaToken     string
	ProfileToken string

	AccessToken  string
	RefreshToken string
}

// SessionResult es el resultado del cierre de sesión federada post-MFA.
type SessionResult struct {
	NextURL      string
	Remember     bool
	AccessToken  string
	RefreshToken string
}

// Service es la cara del flujo federado.
type Service interface {
	// Begin retorna la URL de autorización del provider con el state firmado.
	Begin(ctx context.Context, nextURL string, remember bool) (string, error)
	// Complete procesa el callback: state, code, perfil, lookup-or-create,
	// gate MFA y (si corresponde) sesión.
	Complete(ctx context.Context, code, state string) (*CompleteResult, error)
	// CompleteSession cierra el flujo federado gateado por MFA: presenta el
	// carrier de perfil junto con el marcador de verificación.
	CompleteSession(ctx context.Context, profileToken, tfaVerified string) (*SessionResult, error)
}

type service struct {
	deps Deps
}

// New crea el servicio de federación.
func New(deps Deps) Service {
	return &service{deps: deps}
}

func (s *service) Begin(ctx context.Context, nextURL string, remember bool) (string, error) {
	if nextURL == "" {
		nextURL = "/"
	}
	state, err := s.deps.Codec.Encode(map[string]string{
		"next_url": nextURL,
		"remember": strconv.FormatBool(remember),
	}, tokens.PurposeOAuthState)
	if err != nil {
		return "", err
	}
	metrics.TokensIssued.WithLabelValues(tokens.PurposeOAuthState).Inc()
	return s.deps.OIDC.AuthURL(ctx, state)
}

// verifyState decodifica el state. Un state ilegible degrada a defaults:
// el state solo transporta preferencias de retorno, no credenciales.
func (s *service) verifyState(ctx context.Context, state string) (nextURL string, remember bool) {
	nextURL = "/"
	payload, err := s.deps.Codec.Decode(state, tokens.PurposeOAuthState, s.deps.StateTTL)
	if err != nil {
		logger.From(ctx).Warn("oauth state verification failed", logger.Err(err))
		return nextURL, false
	}
	if v := payload["next_url"]; v != "" {
		nextURL = v
	}
	remember, _ = strconv.ParseBool(payload["remember"])
	return nextURL, remember
}

func (s *service) Complete(ctx context.Context, code, state string) (*CompleteResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("social.google"),
		logger.Op("Complete"),
	)

	nextURL, remember := s.verifyState(ctx, state)

	// Único punto del core que bloquea en red externa. Sin reintentos acá.
	tr, err := s.deps.OIDC.ExchangeCode(ctx, code)
	if err != nil {
		log.Warn("code exchange failed", logger.Err(err))
		return nil, ErrProviderFailed
	}
	profile, err := s.deps.OIDC.VerifyIDToken(ctx, tr.IDToken)
	if err != nil {
		log.Warn("id token verification failed", logger.Err(err))
		return nil, ErrProviderFailed
	}
	if profile.Email == "" {
		return nil, ErrProviderFailed
	}

	user, err := s.lookupOrCreate(ctx, profile)
	if err != nil {
		return nil, err
	}

	log = log.With(logger.UserID(user.ID))

	// Mismo criterio que el login nativo: una cuenta sin verificar nunca
	// recibe sesión ni challenge MFA, el provider no convalida la cuenta
	// local. Solo una cuenta dada de alta acá puede estar en este estado;
	// las creadas por federación nacen verificadas.
	if !user.Verified {
		metrics.LoginAttempts.WithLabelValues("unverified").Inc()
		log.Info("federated login blocked for unverified account")
		return nil, authsvc.ErrUserNotVerified
	}

	// Gate MFA: mismo criterio que el login nativo. La identidad federada
	// ya verificada viaja en un carrier firmado hasta el cierre post-MFA.
	if user.TfaEnabled() {
		tfaToken, err := s.deps.Codec.Encode(map[string]string{"sub": user.Email}, tokens.PurposeTfa)
		if err != nil {
			return nil, err
		}
		profileToken, err := s.deps.Codec.Encode(map[string]string{
			"sub":      user.Email,
			"next_url": nextURL,
			"remember": strconv.FormatBool(remember),
		}, tokens.PurposeOAuthProfile)
		if err != nil {
			return nil, err
		}
		metrics.TfaChallenges.Inc()
		metrics.TokensIssued.WithLabelValues(tokens.PurposeTfa).Inc()
		metrics.TokensIssued.WithLabelValues(tokens.PurposeOAuthProfile).Inc()
		log.Info("federated login gated by tfa")
		return &CompleteResult{
			NextURL:      nextURL,
			Remember:     remember,
			TfaRequired:  true,
			TfaMethods:   user.TfaMethods,
			TfaToken:     tfaToken,
			ProfileToken: profileToken,
		}, nil
	}

	access, refresh, err := authsvc.IssueSession(s.deps.Codec, user.Email)
	if err != nil {
		return nil, err
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	log.Info("federated login successful")
	return &CompleteResult{
		NextURL:      nextURL,
		Remember:     remember,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func (s *service) CompleteSession(ctx context.Context, profileToken, tfaVerified string) (*SessionResult, error) {
	if tfaVerified != "1" {
		return nil, ErrInvalidTfaState
	}
	payload, err := s.deps.Codec.Decode(profileToken, tokens.PurposeOAuthProfile, s.deps.StateTTL)
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
	if !user.Verified {
		return nil, ErrTokenInvalid
	}

	access, refresh, err := authsvc.IssueSession(s.deps.Codec, user.Email)
	if err != nil {
		return nil, err
	}

	nextURL := payload["next_url"]
	if nextURL == "" {
		nextURL = "/"
	}
	remember, _ := strconv.ParseBool(payload["remember"])

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	logger.From(ctx).Info("federated session issued",
		logger.Component("social.google"),
		logger.UserID(user.ID),
	)
	return &SessionResult{
		NextURL:      nextURL,
		Remember:     remember,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// lookupOrCreate resuelve el usuario local por email o lo da de alta con
// verificación pre-seteada: una identidad federada ya viene verificada.
func (s *service) lookupOrCreate(ctx context.Context, p *google.Profile) (*types.User, error) {
	user, err := s.deps.Users.GetByEmail(ctx, p.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	user = &types.User{
		Name:       p.Name,
		Email:      p.Email,
		Provider:   types.ProviderGoogle,
		ProviderID: &p.Sub,
		Verified:   true,
	}
	if err := s.deps.Users.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.From(ctx).Info("federated user created",
		logger.Component("social.google"),
		logger.UserID(user.ID),
		logger.Email(user.Email),
	)
	authsvc.NotifyRegistration(ctx, s.deps.Queue, user)
	return user, nil
}
