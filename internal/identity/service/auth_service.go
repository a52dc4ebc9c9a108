package service

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"

	"quiz-platform/webclient/internal/httpclient"
	identitydomain "quiz-platform/webclient/internal/identity/domain"
	"quiz-platform/webclient/internal/platform/apierr"
	sessiondomain "quiz-platform/webclient/internal/session/domain"
	userdomain "quiz-platform/webclient/internal/user/domain"
)

const (
	loginPath   = "/auth/login"
	logoutPath  = "/auth/logout"
	refreshPath = "/auth/refresh"
)

// Sentinel errors for the auth flows.
var (
	ErrNotAuthenticated = errors.New("not signed in")
	ErrNoRefreshToken   = errors.New("no refresh token held")
)

// API is the subset of the HTTP client wrapper the service needs.
type API interface {
	Do(ctx context.Context, method, path string, body any, query url.Values, out any) error
}

// Profiles fetches and creates user accounts.
type Profiles interface {
	Me(ctx context.Context) (userdomain.User, error)
	Create(ctx context.Context, req identitydomain.RegisterRequest) (userdomain.User, error)
}

// Session is the credential holder the auth flows write to.
type Session interface {
	Snapshot() sessiondomain.Session
	Login(ctx context.Context, token, refreshToken string, user userdomain.Summary) error
	Refresh(ctx context.Context, token, refreshToken string) error
	SetUser(user userdomain.Summary)
	Logout(ctx context.Context) error
}

// AuthService implements login, registration, logout, manual token refresh and profile loading.
type AuthService struct {
	api      API
	profiles Profiles
	session  Session
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(api API, profiles Profiles, session Session) *AuthService {
	return &AuthService{api: api, profiles: profiles, session: session}
}

// Login exchanges credentials for a token pair, fetches the profile with the new token and only then
// stores the session. If the profile cannot be fetched the tokens are discarded.
func (s *AuthService) Login(ctx context.Context, req identitydomain.LoginRequest) (userdomain.User, error) {
	if err := req.Validate(); err != nil {
		return userdomain.User{}, err
	}
	pair, err := s.tokens(ctx, loginPath, req)
	if err != nil {
		return userdomain.User{}, err
	}
	u, err := s.profiles.Me(httpclient.WithToken(ctx, pair.AccessToken))
	if err != nil {
		log.Printf("identity: login succeeded but profile fetch failed: %v", err)
		return userdomain.User{}, err
	}
	if err := s.session.Login(ctx, pair.AccessToken, pair.RefreshToken, u.Summary()); err != nil {
		return userdomain.User{}, err
	}
	log.Printf("identity: signed in as %s", u.Username)
	return u, nil
}

// Register creates an account. It does not sign in.
func (s *AuthService) Register(ctx context.Context, req identitydomain.RegisterRequest) (userdomain.User, error) {
	return s.profiles.Create(ctx, req)
}

// Logout tells the server to end the session, then always clears local credentials.
func (s *AuthService) Logout(ctx context.Context) error {
	if s.session.Snapshot().IsAuthenticated {
		if err := s.api.Do(ctx, http.MethodPost, logoutPath, nil, nil, nil); err != nil {
			log.Printf("identity: server logout failed, clearing local session anyway: %v", err)
		}
	}
	return s.session.Logout(ctx)
}

// Refresh exchanges the held refresh token for a new pair. It is never called automatically.
// A response without a refresh token keeps the old one.
func (s *AuthService) Refresh(ctx context.Context) error {
	refresh := s.session.Snapshot().RefreshToken
	if refresh == "" {
		return ErrNoRefreshToken
	}
	pair, err := s.tokens(ctx, refreshPath, identitydomain.RefreshRequest{RefreshToken: refresh})
	if err != nil {
		return err
	}
	if pair.RefreshToken == "" {
		pair.RefreshToken = refresh
	}
	return s.session.Refresh(ctx, pair.AccessToken, pair.RefreshToken)
}

// LoadProfile fetches the profile for a restored session, which holds tokens but no user.
// If the profile cannot be fetched the session is ended.
func (s *AuthService) LoadProfile(ctx context.Context) (userdomain.User, error) {
	if !s.session.Snapshot().IsAuthenticated {
		return userdomain.User{}, ErrNotAuthenticated
	}
	u, err := s.profiles.Me(ctx)
	if err != nil {
		log.Printf("identity: profile unavailable, signing out: %v", err)
		if lerr := s.session.Logout(ctx); lerr != nil {
			log.Printf("identity: logout: %v", lerr)
		}
		return userdomain.User{}, err
	}
	s.session.SetUser(u.Summary())
	return u, nil
}

func (s *AuthService) tokens(ctx context.Context, path string, body any) (identitydomain.TokenPair, error) {
	var pair identitydomain.TokenPair
	if err := s.api.Do(ctx, http.MethodPost, path, body, nil, &pair); err != nil {
		return identitydomain.TokenPair{}, err
	}
	if err := pair.Validate(); err != nil {
		return identitydomain.TokenPair{}, apierr.InvalidResponse(http.MethodPost, path, err)
	}
	return pair, nil
}
