package stores

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"github.com/designcomb/influenter/client/internal/api"
	clienterrors "github.com/designcomb/influenter/client/internal/errors"
	"github.com/designcomb/influenter/client/internal/types"
)

// Auth holds the session token and the signed-in user. The token is
// persisted in the local cache so a new session can resume.
type Auth struct {
	base

	mu    sync.RWMutex
	token string
	user  *types.User
}

// NewAuth returns a signed-out Auth store.
func NewAuth(d Deps) *Auth {
	s := &Auth{}
	s.init("auth", d)
	return s
}

// Token returns the bearer token, or "".
func (s *Auth) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// User returns the signed-in user.
func (s *Auth) User() (types.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return types.User{}, false
	}
	return *s.user, true
}

// IsAuthenticated reports whether both a token and a user are known.
func (s *Auth) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

// expired reports whether tok is a JWT whose exp lies before now. Tokens
// that are not JWTs are opaque to the client and never expire here.
func (s *Auth) expired(tok string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tok, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(s.now())
}

// Init restores the persisted session. An expired token is dropped without
// a call. A token the backend rejects (auth failure or unknown user) signs
// the session out; transport and server failures keep the token so the
// next Init can retry.
func (s *Auth) Init(ctx context.Context) error {
	tok, ok := s.cache().Token(ctx)
	if !ok {
		return types.ErrNoToken
	}
	if s.expired(tok) {
		s.log.Info().Msg("persisted token expired, signing out")
		s.clear(ctx)
		return fmt.Errorf("persisted token expired: %w", types.ErrNoToken)
	}
	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()

	_, err := s.FetchCurrentUser(ctx)
	if err == nil || canceled(ctx, err) {
		return err
	}
	switch clienterrors.KindOf(err) {
	case clienterrors.Validation, clienterrors.NotFound:
		s.log.Info().Int("status", clienterrors.StatusCode(err)).Msg("persisted token rejected, signing out")
		s.clear(ctx)
	}
	return err
}

// FetchCurrentUser loads the user the token belongs to.
func (s *Auth) FetchCurrentUser(ctx context.Context) (types.User, error) {
	if s.Token() == "" {
		return types.User{}, types.ErrNoToken
	}
	end, _ := s.begin("me", "")
	defer end()

	u, err := api.GetCurrentUser(ctx, s.deps.HTTP, s.deps.BaseURL)
	if err != nil {
		if !canceled(ctx, err) {
			s.failed("me", false, err, "Failed to load current user")
		}
		return types.User{}, err
	}
	s.mu.Lock()
	s.user = u
	s.mu.Unlock()
	s.succeeded("me")
	return *u, nil
}

// LoginWithGoogle exchanges a Google credential for a session and persists
// the token.
func (s *Auth) LoginWithGoogle(ctx context.Context, credential, clientID string) (types.User, error) {
	end, _ := s.begin("login", "")
	defer end()

	resp, err := api.GoogleLogin(ctx, s.deps.HTTP, s.deps.BaseURL, types.GoogleLoginRequest{Credential: credential, ClientID: clientID})
	if err != nil {
		if !canceled(ctx, err) && !errors.Is(err, types.ErrInvalidInput) {
			s.failed("login", false, err, "Login failed")
		}
		return types.User{}, err
	}
	s.succeeded("login")
	if err := s.Login(ctx, resp.User, resp.Token); err != nil {
		return types.User{}, err
	}
	return resp.User, nil
}

// Login installs an already issued session.
func (s *Auth) Login(ctx context.Context, user types.User, token string) error {
	if token == "" {
		return types.ErrNoToken
	}
	s.mu.Lock()
	s.token = token
	s.user = &user
	s.mu.Unlock()
	s.persist("login", s.cache().SetToken(ctx, token))
	s.log.Info().Str("user_id", user.ID).Msg("signed in")
	return nil
}

// Logout ends the session. The remote call is best effort; the local
// session is always cleared.
func (s *Auth) Logout(ctx context.Context) {
	if s.Token() != "" {
		end, _ := s.begin("logout", "")
		if err := api.Logout(ctx, s.deps.HTTP, s.deps.BaseURL); err != nil {
			s.deps.Metrics.RemoteCall(s.name, "logout", outcome(err))
			s.log.Debug().Err(err).Msg("remote logout failed")
		} else {
			s.succeeded("logout")
		}
		end()
	}
	s.clear(ctx)
}

func (s *Auth) clear(ctx context.Context) {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()
	s.persist("logout", s.cache().ClearToken(ctx))
}
