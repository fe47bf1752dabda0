package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/gatekeep/internal/domain/types"
	tokens "github.com/dropDatabas3/gatekeep/internal/security/token"
	"github.com/dropDatabas3/gatekeep/internal/security/totp"
)

var tfaTestAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTfaFixture(t *testing.T) (TfaService, *memUsers, *captureQueue, *tokens.Codec) {
	t.Helper()
	users := newMemUsers()
	_, secret, err := totp.GenerateSecret()
	require.NoError(t, err)
	users.add(&types.User{
		Name: "Alice", Email: "alice@example.com", Role: "user",
		Provider: types.ProviderNative, Verified: true,
		TfaSecret: &secret,
	})
	users.add(&types.User{
		Name: "Bare", Email: "bare@example.com", Role: "user",
		Provider: types.ProviderNative, Verified: true,
	})
	q := &captureQueue{}
	codec := testCodec()
	svc := NewTfaService(TfaDeps{
		Users: users,
		Templates: memTemplates{
			types.TemplateTfa: "templates/emails/tfa.html",
		},
		Codec:       codec,
		Queue:       q,
		AppName:     "gatekeep",
		TfaTokenTTL: 5 * time.Minute,
		now:         func() time.Time { return tfaTestAt },
	})
	return svc, users, q, codec
}

func userSecret(t *testing.T, users *memUsers, email string) []byte {
	t.Helper()
	u, err := users.GetByEmail(context.Background(), email)
	require.NoError(t, err)
	require.NotNil(t, u.TfaSecret)
	raw, err := totp.DecodeSecret(*u.TfaSecret)
	require.NoError(t, err)
	return raw
}

func TestSetupAuthenticator_LinkAndChallenge(t *testing.T) {
	svc, users, _, codec := newTfaFixture(t)
	u, err := users.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)

	link, tfaToken, err := svc.SetupAuthenticator(context.Background(), u)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link, "otpauth://totp/"))
	require.Contains(t, link, "issuer=gatekeep")
	require.Contains(t, link, "secret="+*u.TfaSecret)

	payload, err := codec.Decode(tfaToken, tokens.PurposeTfa, 5*time.Minute)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", payload["sub"])
}

func TestSetupAuthenticator_GeneratesMissingSecret(t *testing.T) {
	svc, users, _, _ := newTfaFixture(t)
	u, err := users.GetByEmail(context.Background(), "bare@example.com")
	require.NoError(t, err)
	require.Nil(t, u.TfaSecret)

	_, _, err = svc.SetupAuthenticator(context.Background(), u)
	require.NoError(t, err)
	require.NotNil(t, u.TfaSecret)
	require.NotEmpty(t, *u.TfaSecret)
}

func TestSetupEmail_EnqueuesCode(t *testing.T) {
	svc, users, q, _ := newTfaFixture(t)
	u, err := users.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)

	tfaToken, err := svc.SetupEmail(context.Background(), u)
	require.NoError(t, err)
	require.NotEmpty(t, tfaToken)
	require.Len(t, q.emails, 1)

	job := q.emails[0]
	require.Equal(t, "templates/emails/tfa.html", job.Template)
	require.Equal(t, []string{"alice@example.com"}, job.Recipients)
	require.Equal(t, "5", job.Data["expiry_minutes"])

	// El código enviado es el vigente con el intervalo de email.
	raw := userSecret(t, users, "alice@example.com")
	require.Equal(t, totp.Now(raw, tfaTestAt, totp.PeriodEmail), job.Data["otp"])
}

func TestSendEmailCode_FromChallenge(t *testing.T) {
	svc, users, q, _ := newTfaFixture(t)
	u, err := users.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)

	tfaToken, err := svc.SetupEmail(context.Background(), u)
	require.NoError(t, err)

	require.NoError(t, svc.SendEmailCode(context.Background(), tfaToken))
	require.Len(t, q.emails, 2)
}

func TestSendEmailCode_InvalidChallenge(t *testing.T) {
	svc, _, _, _ := newTfaFixture(t)
	require.ErrorIs(t, svc.SendEmailCode(context.Background(), ""), ErrTokenInvalid)
	require.ErrorIs(t, svc.SendEmailCode(context.Background(), "garbage"), ErrTokenInvalid)
}

func TestVerify_AuthenticatorCode(t *testing.T) {
	svc, users, _, codec := newTfaFixture(t)
	tfaToken, err := codec.Encode(map[string]string{"sub": "alice@example.com"}, tokens.PurposeTfa)
	require.NoError(t, err)

	raw := userSecret(t, users, "alice@example.com")
	code := totp.Now(raw, tfaTestAt, totp.PeriodAuthenticator)

	ok, err := svc.Verify(context.Background(), tfaToken, string(types.TfaMethodAuthenticator), code)
	require.NoError(t, err)
	require.True(t, ok)

	// El mismo código contra el método email usa otro intervalo y falla
	// (salvo coincidencia de códigos, imposible con secretos frescos acá).
	ok, err = svc.Verify(context.Background(), tfaToken, string(types.TfaMethodEmail), "000000")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerify_EmailCode(t *testing.T) {
	svc, users, _, codec := newTfaFixture(t)
	tfaToken, err := codec.Encode(map[string]string{"sub": "alice@example.com"}, tokens.PurposeTfa)
	require.NoError(t, err)

	raw := userSecret(t, users, "alice@example.com")
	code := totp.Now(raw, tfaTestAt, totp.PeriodEmail)

	ok, err := svc.Verify(context.Background(), tfaToken, string(types.TfaMethodEmail), code)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerify_WrongCode(t *testing.T) {
	svc, _, _, codec := newTfaFixture(t)
	tfaToken, err := codec.Encode(map[string]string{"sub": "alice@example.com"}, tokens.PurposeTfa)
	require.NoError(t, err)

	ok, err := svc.Verify(context.Background(), tfaToken, string(types.TfaMethodAuthenticator), "123456")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerify_UnknownMethod(t *testing.T) {
	svc, _, _, codec := newTfaFixture(t)
	tfaToken, err := codec.Encode(map[string]string{"sub": "alice@example.com"}, tokens.PurposeTfa)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), tfaToken, "sms", "123456")
	require.ErrorIs(t, err, ErrUnknownTfaMethod)
}

func TestVerify_BadChallengeToken(t *testing.T) {
	svc, _, _, codec := newTfaFixture(t)

	_, err := svc.Verify(context.Background(), "garbage", string(types.TfaMethodEmail), "123456")
	require.ErrorIs(t, err, ErrTokenInvalid)

	// Un access token no es un challenge.
	access, err := codec.Encode(map[string]string{"sub": "alice@example.com"}, tokens.PurposeAuth)
	require.NoError(t, err)
	_, err = svc.Verify(context.Background(), access, string(types.TfaMethodEmail), "123456")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_NoSecret(t *testing.T) {
	svc, _, _, codec := newTfaFixture(t)
	tfaToken, err := codec.Encode(map[string]string{"sub": "bare@example.com"}, tokens.PurposeTfa)
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), tfaToken, string(types.TfaMethodEmail), "123456")
	require.ErrorIs(t, err, ErrTfaNotSetUp)
}

func TestEnableDisable_Idempotent(t *testing.T) {
	svc, users, _, _ := newTfaFixture(t)
	u, err := users.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)

	require.NoError(t, svc.Enable(context.Background(), u, string(types.TfaMethodEmail)))
	require.Equal(t, []string{"email"}, u.TfaMethods)
	// Doble enable no duplica.
	require.NoError(t, svc.Enable(context.Background(), u, string(types.TfaMethodEmail)))
	require.Equal(t, []string{"email"}, u.TfaMethods)

	require.NoError(t, svc.Enable(context.Background(), u, string(types.TfaMethodAuthenticator)))
	require.Equal(t, []string{"email", "authenticator"}, u.TfaMethods)

	require.NoError(t, svc.Disable(context.Background(), u, string(types.TfaMethodEmail)))
	require.Equal(t, []string{"authenticator"}, u.TfaMethods)
	// Doble disable es no-op.
	require.NoError(t, svc.Disable(context.Background(), u, string(types.TfaMethodEmail)))
	require.Equal(t, []string{"authenticator"}, u.TfaMethods)

	require.ErrorIs(t, svc.Enable(context.Background(), u, "sms"), ErrUnknownTfaMethod)
	require.ErrorIs(t, svc.Disable(context.Background(), u, "sms"), ErrUnknownTfaMethod)
}
