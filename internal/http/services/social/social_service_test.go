package social

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/gatekeep/internal/domain/repository"
	"github.com/dropDatabas3/gatekeep/internal/domain/types"
	authsvc "github.com/dropDatabas3/gatekeep/internal/http/services/auth"
	"github.com/dropDatabas3/gatekeep/internal/oauth/google"
	"github.com/dropDatabas3/gatekeep/internal/queue"
	tokens "github.com/dropDatabas3/gatekeep/internal/security/token"
)

// fakeProvider reemplaza el cliente OIDC: cualquier code canjea a un
// id_token fijo y la verificación retorna el perfil configurado.
type fakeProvider struct {
	profile     *google.Profile
	exchangeErr error
	verifyErr   error
}

func (f *fakeProvider) AuthURL(_ context.Context, state string) (string, error) {
	return "https://provider.example/authorize?state=" + state, nil
}

func (f *fakeProvider) ExchangeCode(context.Context, string) (*google.TokenResponse, error) {
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return &google.TokenResponse{IDToken: "provider-id-token", TokenType: "Bearer"}, nil
}

func (f *fakeProvider) VerifyIDToken(context.Context, string) (*google.Profile, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.profile, nil
}

type memUsers struct {
	users map[string]*types.User
}

func (m *memUsers) GetByID(_ context.Context, id int64) (*types.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*types.User, error) {
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) GetByAPIKey(context.Context, string) (*types.User, error) {
	return nil, repository.ErrNotFound
}

func (m *memUsers) Create(_ context.Context, u *types.User) error {
	u.ID = int64(len(m.users) + 1)
	m.users[u.Email] = u
	return nil
}

func (m *memUsers) SetVerified(context.Context, int64, bool) error       { return nil }
func (m *memUsers) SetPassword(context.Context, int64, string) error     { return nil }
func (m *memUsers) SetAPIKey(context.Context, int64, string) error       { return nil }
func (m *memUsers) SetTfaSecret(context.Context, int64, string) error    { return nil }
func (m *memUsers) SetTfaMethods(context.Context, int64, []string) error { return nil }

func newSessionFixture() (Service, *memUsers, *tokens.Codec) {
	users := &memUsers{users: map[string]*types.User{
		"fed@example.com": {
			ID: 1, Name: "Fed", Email: "fed@example.com", Role: "user",
			Provider: types.ProviderGoogle, Verified: true,
			TfaMethods: []string{string(types.TfaMethodAuthenticator)},
		},
		"pending@example.com": {
			ID: 2, Name: "Pending", Email: "pending@example.com", Role: "user",
			Provider: types.ProviderGoogle, Verified: false,
		},
	}}
	codec := tokens.NewCodec("test-secret")
	svc := New(Deps{
		Users:    users,
		Codec:    codec,
		Queue:    queue.Noop{},
		StateTTL: 5 * time.Minute,
	})
	return svc, users, codec
}

func profileToken(t *testing.T, codec *tokens.Codec, email, nextURL string, remember bool) string {
	t.Helper()
	tok, err := codec.Encode(map[string]string{
		"sub":      email,
		"next_url": nextURL,
		"remember": strconv.FormatBool(remember),
	}, tokens.PurposeOAuthProfile)
	require.NoError(t, err)
	return tok
}

func TestCompleteSession_IssuesPair(t *testing.T) {
	svc, _, codec := newSessionFixture()
	tok := profileToken(t, codec, "fed@example.com", "/dashboard", true)

	out, err := svc.CompleteSession(context.Background(), tok, "1")
	require.NoError(t, err)
	require.Equal(t, "/dashboard", out.NextURL)
	require.True(t, out.Remember)

	payload, err := codec.Decode(out.AccessToken, tokens.PurposeAuth, time.Hour)
	require.NoError(t, err)
	require.Equal(t, "fed@example.com", payload["sub"])
	_, err = codec.Decode(out.RefreshToken, tokens.PurposeRefresh, time.Hour)
	require.NoError(t, err)
}

func TestCompleteSession_RequiresTfaProof(t *testing.T) {
	svc, _, codec := newSessionFixture()
	tok := profileToken(t, codec, "fed@example.com", "/", false)

	for _, proof := range []string{"", "0", "true"} {
		_, err := svc.CompleteSession(context.Background(), tok, proof)
		require.ErrorIs(t, err, ErrInvalidTfaState)
	}
}

func TestCompleteSession_RejectsWrongPurpose(t *testing.T) {
	// Un challenge tfa no es un carrier de perfil.
	svc, _, codec := newSessionFixture()
	tfa, err := codec.Encode(map[string]string{"sub": "fed@example.com"}, tokens.PurposeTfa)
	require.NoError(t, err)

	_, err = svc.CompleteSession(context.Background(), tfa, "1")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestCompleteSession_SubjectReResolved(t *testing.T) {
	svc, users, codec := newSessionFixture()

	// Cuenta des-verificada después de emitido el carrier: falla.
	_, err := svc.CompleteSession(context.Background(),
		profileToken(t, codec, "pending@example.com", "/", false), "1")
	require.ErrorIs(t, err, ErrTokenInvalid)

	// Cuenta borrada: falla.
	tok := profileToken(t, codec, "fed@example.com", "/", false)
	delete(users.users, "fed@example.com")
	_, err = svc.CompleteSession(context.Background(), tok, "1")
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func newCallbackFixture(profile *google.Profile) (Service, *memUsers, *tokens.Codec, *fakeProvider) {
	users := &memUsers{users: map[string]*types.User{}}
	codec := tokens.NewCodec("test-secret")
	provider := &fakeProvider{profile: profile}
	svc := New(Deps{
		Users:    users,
		Codec:    codec,
		Queue:    queue.Noop{},
		OIDC:     provider,
		StateTTL: 5 * time.Minute,
	})
	return svc, users, codec, provider
}

func stateToken(t *testing.T, codec *tokens.Codec, nextURL string, remember bool) string {
	t.Helper()
	tok, err := codec.Encode(map[string]string{
		"next_url": nextURL,
		"remember": strconv.FormatBool(remember),
	}, tokens.PurposeOAuthState)
	require.NoError(t, err)
	return tok
}

func TestComplete_NewIdentityGetsSession(t *testing.T) {
	// Identidad nueva en el provider: alta local verificada, sin MFA,
	// sesión directa.
	svc, users, codec, _ := newCallbackFixture(&google.Profile{
		Sub: "google-sub-1", Email: "new@example.com", Name: "New User", EmailVerified: true,
	})

	out, err := svc.Complete(context.Background(), "any-code",
		stateToken(t, codec, "/dashboard", true))
	require.NoError(t, err)
	require.False(t, out.TfaRequired)
	require.Equal(t, "/dashboard", out.NextURL)
	require.True(t, out.Remember)

	payload, err := codec.Decode(out.AccessToken, tokens.PurposeAuth, time.Hour)
	require.NoError(t, err)
	require.Equal(t, "new@example.com", payload["sub"])
	_, err = codec.Decode(out.RefreshToken, tokens.PurposeRefresh, time.Hour)
	require.NoError(t, err)

	created, err := users.GetByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	require.True(t, created.Verified)
	require.Equal(t, types.ProviderGoogle, created.Provider)
	require.NotNil(t, created.ProviderID)
	require.Equal(t, "google-sub-1", *created.ProviderID)
}

func TestComplete_UnverifiedAccountBlocked(t *testing.T) {
	// Cuenta nativa pendiente de verificación: el provider no la convalida,
	// no hay sesión aunque la identidad federada sea correcta.
	svc, users, codec, _ := newCallbackFixture(&google.Profile{
		Sub: "google-sub-2", Email: "pending@example.com", Name: "Pending",
	})
	hash := "x"
	users.users["pending@example.com"] = &types.User{
		ID: 7, Email: "pending@example.com", Role: "user",
		Provider: types.ProviderNative, Password: &hash, Verified: false,
	}

	out, err := svc.Complete(context.Background(), "any-code",
		stateToken(t, codec, "/", false))
	require.ErrorIs(t, err, authsvc.ErrUserNotVerified)
	require.Nil(t, out)
}

func TestComplete_UnverifiedAccountBlockedBeforeTfa(t *testing.T) {
	// Sin verificar no hay ni siquiera challenge MFA.
	svc, users, codec, _ := newCallbackFixture(&google.Profile{
		Sub: "google-sub-3", Email: "pending@example.com", Name: "Pending",
	})
	users.users["pending@example.com"] = &types.User{
		ID: 8, Email: "pending@example.com", Role: "user",
		Provider: types.ProviderNative, Verified: false,
		TfaMethods: []string{string(types.TfaMethodAuthenticator)},
	}

	out, err := svc.Complete(context.Background(), "any-code",
		stateToken(t, codec, "/", false))
	require.ErrorIs(t, err, authsvc.ErrUserNotVerified)
	require.Nil(t, out)
}

func TestComplete_ExistingAccountTfaGated(t *testing.T) {
	svc, users, codec, _ := newCallbackFixture(&google.Profile{
		Sub: "google-sub-4", Email: "fed@example.com", Name: "Fed",
	})
	users.users["fed@example.com"] = &types.User{
		ID: 9, Email: "fed@example.com", Role: "user",
		Provider: types.ProviderGoogle, Verified: true,
		TfaMethods: []string{string(types.TfaMethodAuthenticator)},
	}

	out, err := svc.Complete(context.Background(), "any-code",
		stateToken(t, codec, "/machines", true))
	require.NoError(t, err)
	require.True(t, out.TfaRequired)
	require.Empty(t, out.AccessToken)
	require.Empty(t, out.RefreshToken)

	payload, err := codec.Decode(out.TfaToken, tokens.PurposeTfa, time.Minute)
	require.NoError(t, err)
	require.Equal(t, "fed@example.com", payload["sub"])

	carrier, err := codec.Decode(out.ProfileToken, tokens.PurposeOAuthProfile, time.Minute)
	require.NoError(t, err)
	require.Equal(t, "fed@example.com", carrier["sub"])
	require.Equal(t, "/machines", carrier["next_url"])
	require.Equal(t, "true", carrier["remember"])
}

func TestComplete_ProviderFailure(t *testing.T) {
	svc, _, codec, provider := newCallbackFixture(&google.Profile{
		Sub: "google-sub-5", Email: "new@example.com",
	})
	state := stateToken(t, codec, "/", false)

	provider.exchangeErr = errors.New("token endpoint 500")
	_, err := svc.Complete(context.Background(), "any-code", state)
	require.ErrorIs(t, err, ErrProviderFailed)

	provider.exchangeErr = nil
	provider.verifyErr = errors.New("bad signature")
	_, err = svc.Complete(context.Background(), "any-code", state)
	require.ErrorIs(t, err, ErrProviderFailed)

	provider.verifyErr = nil
	provider.profile = &google.Profile{Sub: "google-sub-5"} // sin email
	_, err = svc.Complete(context.Background(), "any-code", state)
	require.ErrorIs(t, err, ErrProviderFailed)
}

func TestComplete_MalformedStateDegrades(t *testing.T) {
	// El state solo transporta preferencias de retorno: ilegible degrada
	// a defaults, no corta el flujo.
	svc, _, _, _ := newCallbackFixture(&google.Profile{
		Sub: "google-sub-6", Email: "new@example.com",
	})

	out, err := svc.Complete(context.Background(), "any-code", "garbage-state")
	require.NoError(t, err)
	require.Equal(t, "/", out.NextURL)
	require.False(t, out.Remember)
}

func TestCompleteSession_DefaultNextURL(t *testing.T) {
	svc, _, codec := newSessionFixture()
	tok, err := codec.Encode(map[string]string{"sub": "fed@example.com"}, tokens.PurposeOAuthProfile)
	require.NoError(t, err)

	out, err := svc.CompleteSession(context.Background(), tok, "1")
	require.NoError(t, err)
	require.Equal(t, "/", out.NextURL)
	require.False(t, out.Remember)
}
