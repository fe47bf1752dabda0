package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/gatekeep/internal/domain/types"
	tokens "github.com/dropDatabas3/gatekeep/internal/security/token"
)

func newSessionFixture(t *testing.T) (SessionService, *memUsers, *tokens.Codec) {
	t.Helper()
	users := newMemUsers()
	users.add(&types.User{
		Name: "Alice", Email: "alice@example.com", Role: "admin",
		Provider: types.ProviderNative, Verified: true,
		Password: mustHash(t, "correct-horse"),
	})
	codec := testCodec()
	svc := NewSessionService(SessionDeps{
		Users:      users,
		Roles:      memRoles{"admin": {"templates.*"}},
		Codec:      codec,
		RefreshTTL: 7 * 24 * time.Hour,
	})
	return svc, users, codec
}

func refreshToken(t *testing.T, codec *tokens.Codec, email string) string {
	t.Helper()
	tok, err := codec.Encode(map[string]string{"sub": email}, tokens.PurposeRefresh)
	require.NoError(t, err)
	return tok
}

func TestRefresh_RotatesPair(t *testing.T) {
	svc, _, codec := newSessionFixture(t)

	access, refresh, err := svc.Refresh(context.Background(), refreshToken(t, codec, "alice@example.com"))
	require.NoError(t, err)

	payload, err := codec.Decode(access, tokens.PurposeAuth, time.Hour)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", payload["sub"])

	payload, err = codec.Decode(refresh, tokens.PurposeRefresh, time.Hour)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", payload["sub"])
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	// Un access token no sirve para refrescar: el propósito no matchea.
	svc, _, codec := newSessionFixture(t)
	access, err := codec.Encode(map[string]string{"sub": "alice@example.com"}, tokens.PurposeAuth)
	require.NoError(t, err)

	_, _, err = svc.Refresh(context.Background(), access)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefresh_RejectsGarbage(t *testing.T) {
	svc, _, _ := newSessionFixture(t)
	for _, tok := range []string{"", "garbage"} {
		_, _, err := svc.Refresh(context.Background(), tok)
		require.ErrorIs(t, err, ErrTokenInvalid)
	}
}

func TestRefresh_SubjectReResolved(t *testing.T) {
	// El sujeto se re-resuelve contra el store: usuario borrado o
	// des-verificado falla aunque la firma siga siendo válida.
	svc, users, codec := newSessionFixture(t)
	tok := refreshToken(t, codec, "alice@example.com")

	u, err := users.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.NoError(t, users.SetVerified(context.Background(), u.ID, false))

	_, _, err = svc.Refresh(context.Background(), tok)
	require.ErrorIs(t, err, ErrTokenInvalid)

	delete(users.users, "alice@example.com")
	_, _, err = svc.Refresh(context.Background(), tok)
	require.ErrorIs(t, err, ErrTokenInvalid)
}

func TestMe_IncludesRolePermissions(t *testing.T) {
	svc, users, _ := newSessionFixture(t)
	u, err := users.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)

	out, err := svc.Me(context.Background(), u)
	require.NoError(t, err)
	require.Equal(t, u.ID, out.ID)
	require.Equal(t, "admin", out.Role)
	require.Equal(t, []string{"templates.*"}, out.Permissions)
}

func TestMe_UnknownRoleYieldsEmptyPermissions(t *testing.T) {
	svc, users, _ := newSessionFixture(t)
	u := users.add(&types.User{
		Name: "Ghost", Email: "ghost@example.com", Role: "ghost", Verified: true,
	})

	out, err := svc.Me(context.Background(), u)
	require.NoError(t, err)
	require.NotNil(t, out.Permissions)
	require.Empty(t, out.Permissions)
}

func TestGenerateAPIKey_Rotates(t *testing.T) {
	svc, users, _ := newSessionFixture(t)
	u, err := users.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)

	first, err := svc.GenerateAPIKey(context.Background(), u)
	require.NoError(t, err)
	require.NotEmpty(t, first)
	require.Equal(t, first, *u.APIKey)

	// Regenerar revoca la clave anterior.
	second, err := svc.GenerateAPIKey(context.Background(), u)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
	require.Equal(t, second, *u.APIKey)

	_, err = users.GetByAPIKey(context.Background(), first)
	require.Error(t, err)
	got, err := users.GetByAPIKey(context.Background(), second)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
}
