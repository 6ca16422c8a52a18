package stores

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clienterrors "github.com/designcomb/influenter/client/internal/errors"
	"github.com/designcomb/influenter/client/internal/fakeapi"
	"github.com/designcomb/influenter/client/internal/types"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "user_1",
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

// newAuth returns an Auth store whose requests carry its own token.
func newAuth(f *fixture) *Auth {
	var a *Auth
	d := f.deps
	d.HTTP = bearerClient{tok: func() string { return a.Token() }}
	a = NewAuth(d)
	return a
}

func TestAuth_InitWithoutToken(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	a := newAuth(f)

	err := a.Init(context.Background())
	require.ErrorIs(t, err, types.ErrNoToken)
	assert.Empty(t, f.srv.Requests())
}

func TestAuth_InitDropsExpiredToken(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cache.SetToken(ctx, signedToken(t, testNow.Add(-time.Hour))))
	a := newAuth(f)

	err := a.Init(ctx)
	require.ErrorIs(t, err, types.ErrNoToken)
	assert.Empty(t, f.srv.Requests(), "no call for an expired token")
	_, ok := f.cache.Token(ctx)
	assert.False(t, ok)
	assert.Empty(t, a.Token())
}

func TestAuth_InitRestoresSession(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	tok := signedToken(t, testNow.Add(time.Hour))
	f.srv.AddSession(tok, types.User{ID: "user_1", Email: "amy@example.com", Name: "Amy"})
	require.NoError(t, f.cache.SetToken(ctx, tok))
	a := newAuth(f)

	require.NoError(t, a.Init(ctx))
	assert.True(t, a.IsAuthenticated())
	u, ok := a.User()
	require.True(t, ok)
	assert.Equal(t, "amy@example.com", u.Email)

	reqs := f.srv.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Bearer "+tok, reqs[0].Authorization)
}

func TestAuth_InitOpaqueTokenIsNotExpired(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.srv.AddSession("opaque", types.User{ID: "user_1"})
	require.NoError(t, f.cache.SetToken(ctx, "opaque"))
	a := newAuth(f)

	require.NoError(t, a.Init(ctx))
	assert.Equal(t, "opaque", a.Token())
}

func TestAuth_InitRejectedTokenSignsOut(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cache.SetToken(ctx, "revoked"))
	a := newAuth(f)

	err := a.Init(ctx)
	require.Error(t, err)
	assert.Equal(t, 401, clienterrors.StatusCode(err))
	assert.Empty(t, a.Token())
	_, ok := f.cache.Token(ctx)
	assert.False(t, ok, "a rejected token is forgotten")
}

func TestAuth_InitServerErrorKeepsToken(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.cache.SetToken(ctx, "valid"))
	f.srv.SetMode(fakeapi.ServerError)
	a := newAuth(f)

	err := a.Init(ctx)
	require.Error(t, err)
	assert.True(t, clienterrors.IsServer(err))
	assert.Equal(t, "valid", a.Token())
	assert.False(t, a.IsAuthenticated())
	tok, ok := f.cache.Token(ctx)
	require.True(t, ok)
	assert.Equal(t, "valid", tok)
}

func TestAuth_LoginWithGoogleAndLogout(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	a := newAuth(f)
	ctx := context.Background()

	u, err := a.LoginWithGoogle(ctx, "amy", "client-1")
	require.NoError(t, err)
	assert.Equal(t, "amy@example.com", u.Email)
	assert.True(t, a.IsAuthenticated())
	tok, ok := f.cache.Token(ctx)
	require.True(t, ok)
	assert.Equal(t, a.Token(), tok)

	me, err := a.FetchCurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, u.ID, me.ID)

	a.Logout(ctx)
	assert.False(t, a.IsAuthenticated())
	_, ok = f.cache.Token(ctx)
	assert.False(t, ok)
	assert.Equal(t, 1, f.srv.Calls("POST", "/auth/logout"))
	assert.Equal(t, 1, f.metrics.count("call/auth/logout/ok"))
}

func TestAuth_LogoutClearsLocallyWhenOffline(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	a := newAuth(f)
	ctx := context.Background()
	require.NoError(t, a.Login(ctx, types.User{ID: "user_1"}, "tok"))
	f.srv.SetMode(fakeapi.Offline)

	a.Logout(ctx)
	assert.Empty(t, a.Token())
	_, ok := f.cache.Token(ctx)
	assert.False(t, ok)
}

func TestAuth_LoginRequiresToken(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	a := newAuth(f)

	require.ErrorIs(t, a.Login(context.Background(), types.User{ID: "u"}, ""), types.ErrNoToken)
	_, err := a.FetchCurrentUser(context.Background())
	require.ErrorIs(t, err, types.ErrNoToken)
}
