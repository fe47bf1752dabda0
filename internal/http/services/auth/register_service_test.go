package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/gatekeep/internal/domain/types"
	dto "github.com/dropDatabas3/gatekeep/internal/http/dto/auth"
	tokens "github.com/dropDatabas3/gatekeep/internal/security/token"
)

func newRegisterFixture(verification string) (RegisterService, *memUsers, *captureQueue, *tokens.Codec) {
	users := newMemUsers()
	q := &captureQueue{}
	codec := testCodec()
	svc := NewRegisterService(RegisterDeps{
		Users: users,
		Settings: memSettings{
			types.SettingUserVerification: verification,
			types.SettingBaseURL:          "http://localhost",
		},
		Templates: memTemplates{
			types.TemplateEmailVerification: "templates/emails/email_verification.html",
		},
		Codec: codec,
		Queue: q,
	})
	return svc, users, q, codec
}

func validForm() dto.RegisterForm {
	return dto.RegisterForm{
		Name: "Bob", Email: "bob@example.com",
		Password: "hunter2hunter2", ConfirmPassword: "hunter2hunter2",
	}
}

func TestRegister_NoVerification(t *testing.T) {
	svc, users, q, _ := newRegisterFixture(types.VerificationNone)

	out, err := svc.Register(context.Background(), validForm())
	require.NoError(t, err)
	require.False(t, out.VerificationPending)
	require.NotEmpty(t, out.AccessToken)
	require.NotEmpty(t, out.RefreshToken)

	u, err := users.GetByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	require.True(t, u.Verified)
	require.Equal(t, types.ProviderNative, u.Provider)
	require.NotNil(t, u.Password)
	require.NotNil(t, u.TfaSecret, "totp secret pre-generado en el alta")
	require.Empty(t, u.TfaMethods)

	// Notificaciones de alta: aviso a admins + bienvenida.
	require.Len(t, q.notifyRole, 1)
	require.Equal(t, []string{"admin"}, q.notifyRole[0].Roles)
	require.Len(t, q.notifyUser, 1)
	require.Equal(t, u.ID, q.notifyUser[0].UserID)
	require.Empty(t, q.emails)
}

func TestRegister_EmailVerificationPending(t *testing.T) {
	// Con verificación por email el alta responde pendiente y sin tokens:
	// la cuenta sin verificar nunca recibe sesión.
	svc, users, q, codec := newRegisterFixture(types.VerificationEmail)

	out, err := svc.Register(context.Background(), validForm())
	require.NoError(t, err)
	require.True(t, out.VerificationPending)
	require.Empty(t, out.AccessToken)
	require.Empty(t, out.RefreshToken)

	u, err := users.GetByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	require.False(t, u.Verified)

	require.Len(t, q.emails, 1)
	job := q.emails[0]
	require.Equal(t, "templates/emails/email_verification.html", job.Template)
	require.Equal(t, []string{"bob@example.com"}, job.Recipients)

	// El link lleva un token de verificación válido para ese propósito.
	rawURL := job.Data["verification_url"]
	require.True(t, strings.HasPrefix(rawURL, "http://localhost/api/verify_email?token="))
	tok := strings.TrimPrefix(rawURL, "http://localhost/api/verify_email?token=")
	payload, err := codec.Decode(tok, tokens.PurposeVerification, 15*time.Minute)
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", payload["sub"])
}

func TestRegister_EmailTaken(t *testing.T) {
	svc, users, _, _ := newRegisterFixture(types.VerificationNone)
	users.add(&types.User{Email: "bob@example.com", Verified: true})

	_, err := svc.Register(context.Background(), validForm())
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegister_PasswordMismatch(t *testing.T) {
	svc, _, _, _ := newRegisterFixture(types.VerificationNone)
	form := validForm()
	form.ConfirmPassword = "different"
	_, err := svc.Register(context.Background(), form)
	require.ErrorIs(t, err, ErrPasswordMismatch)
}

func TestRegister_MissingFields(t *testing.T) {
	svc, _, _, _ := newRegisterFixture(types.VerificationNone)
	for _, form := range []dto.RegisterForm{
		{Email: "x@example.com", Password: "p", ConfirmPassword: "p"},
		{Name: "X", Password: "p", ConfirmPassword: "p"},
		{Name: "X", Email: "x@example.com"},
	} {
		_, err := svc.Register(context.Background(), form)
		require.ErrorIs(t, err, ErrMissingFields)
	}
}

func TestRegister_NormalizesEmail(t *testing.T) {
	svc, users, _, _ := newRegisterFixture(types.VerificationNone)
	form := validForm()
	form.Email = "  BOB@Example.COM "

	_, err := svc.Register(context.Background(), form)
	require.NoError(t, err)
	_, err = users.GetByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
}

func TestRegister_MissingVerificationSetting(t *testing.T) {
	// Setting seed ausente: deployment roto, el registro no continúa.
	users := newMemUsers()
	svc := NewRegisterService(RegisterDeps{
		Users:     users,
		Settings:  memSettings{},
		Templates: memTemplates{},
		Codec:     testCodec(),
		Queue:     &captureQueue{},
	})
	_, err := svc.Register(context.Background(), validForm())
	require.Error(t, err)
	_, err = users.GetByEmail(context.Background(), "bob@example.com")
	require.Error(t, err, "no user row should be created")
}
