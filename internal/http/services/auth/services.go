// Package auth contiene los servicios del core de autenticación:
// login con gate MFA, registro, ciclo de sesión, flujos de password
// y orquestación de segundo factor.
package auth

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/gatekeep/internal/domain/types"
	dto "github.com/dropDatabas3/gatekeep/internal/http/dto/auth"
	"github.com/dropDatabas3/gatekeep/internal/metrics"
	"github.com/dropDatabas3/gatekeep/internal/queue"
	tokens "github.com/dropDatabas3/gatekeep/internal/security/token"
)

// =================================================================================
// INTERFACES
// =================================================================================

// LoginService autentica credenciales primarias y aplica el gate MFA.
type LoginService interface {
	// LoginPassword verifica email+password. tfaVerified es el valor crudo
	// de la cookie tfa_verified ("" si no vino).
	LoginPassword(ctx context.Context, in dto.LoginRequest, tfaVerified string) (*dto.LoginResult, error)
}

// RegisterService da de alta cuentas nativas.
type RegisterService interface {
	Register(ctx context.Context, in dto.RegisterForm) (*dto.RegisterResult, error)
}

// SessionService maneja refresh, perfil propio y claves de API.
type SessionService interface {
	// Refresh valida el refresh token y rota el par completo.
	Refresh(ctx context.Context, refreshToken string) (access, refresh string, err error)
	Me(ctx context.Context, user *types.User) (*dto.UserAuthResponse, error)
	GenerateAPIKey(ctx context.Context, user *types.User) (string, error)
}

// PasswordService cubre los flujos de password y verificación de email.
type PasswordService interface {
	// Forgot nunca revela si el email existe: siempre responde igual.
	Forgot(ctx context.Context, email string) error
	Reset(ctx context.Context, token string, in dto.ResetPasswordForm) error
	Update(ctx context.Context, user *types.User, in dto.UpdatePasswordForm) error
	VerifyEmail(ctx context.Context, token string) error
}

// TfaService orquesta el setup, challenge y verificación del segundo factor.
type TfaService interface {
	SetupAuthenticator(ctx context.Context, user *types.User) (link, tfaToken string, err error)
	SetupEmail(ctx context.Context, user *types.User) (tfaToken string, err error)
	// SendEmailCode reenvía el código por email a partir del challenge vigente.
	SendEmailCode(ctx context.Context, tfaToken string) error
	// Verify chequea el código contra el secreto del usuario del challenge.
	Verify(ctx context.Context, tfaToken, method, code string) (bool, error)
	Enable(ctx context.Context, user *types.User, method string) error
	Disable(ctx context.Context, user *types.User, method string) error
}

// =================================================================================
// ERRORES
// =================================================================================

var (
	ErrMissingFields      = fmt.Errorf("missing required fields")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUserNotVerified    = fmt.Errorf("user not verified")
	ErrInvalidTfaState    = fmt.Errorf("invalid tfa verification status")
	ErrPasswordMismatch   = fmt.Errorf("passwords do not match")
	ErrEmailTaken         = fmt.Errorf("email already registered")
	ErrTokenInvalid       = fmt.Errorf("could not validate credentials")
	ErrTfaNotSetUp        = fmt.Errorf("tfa method not set up")
	ErrUnknownTfaMethod   = fmt.Errorf("unknown tfa method")
)

// =================================================================================
// HELPERS COMPARTIDOS
// =================================================================================

// IssueSession emite el par access+refresh para el sujeto dado.
// Un solo punto de emisión para login, registro, refresh y federación.
func IssueSession(codec *tokens.Codec, email string) (access, refresh string, err error) {
	access, err = codec.Encode(map[string]string{"sub": email}, tokens.PurposeAuth)
	if err != nil {
		return "", "", err
	}
	refresh, err = codec.Encode(map[string]string{"sub": email}, tokens.PurposeRefresh)
	if err != nil {
		return "", "", err
	}
	metrics.TokensIssued.WithLabelValues(tokens.PurposeAuth).Inc()
	metrics.TokensIssued.WithLabelValues(tokens.PurposeRefresh).Inc()
	return access, refresh, nil
}

// NotifyRegistration encola las notificaciones de alta: aviso a los admins
// y bienvenida al usuario. Fire-and-forget.
func NotifyRegistration(ctx context.Context, q queue.Enqueuer, u *types.User) {
	q.EnqueueNotifyRole(ctx, queue.NotifyRoleJob{
		TriggeredBy: u.ID,
		Category:    "registration",
		Roles:       []string{"admin"},
		Title:       "New user has been created",
		Body:        fmt.Sprintf("A new user has been created with email: %s", u.Email),
	})
	q.EnqueueNotifyUser(ctx, queue.NotifyUserJob{
		TriggeredBy: u.ID,
		Category:    "registration",
		UserID:      u.ID,
		Title:       "Welcome to the app",
		Body:        fmt.Sprintf("Hello %s, welcome to the app!", u.Name),
	})
}
