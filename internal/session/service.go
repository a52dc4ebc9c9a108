package session

import (
	"context"
	"errors"
	"log"
	"time"

	sessiondomain "quiz-platform/webclient/internal/session/domain"
	userdomain "quiz-platform/webclient/internal/user/domain"
)

// ErrTokenRejected is returned by Login and Refresh when the new token is already expired or cannot be
// decoded. The session has been ended by then.
var ErrTokenRejected = errors.New("session: token expired or undecodable")

// Navigator moves the client to a view path.
type Navigator interface {
	Navigate(path string)
}

// EventSink receives session lifecycle events. Emit must not block.
type EventSink interface {
	Emit(ctx context.Context, ev sessiondomain.Event)
}

// Option configures a Service.
type Option func(*Service)

// WithEvents publishes lifecycle events to sink.
func WithEvents(sink EventSink) Option {
	return func(s *Service) { s.events = sink }
}

// Service owns the session store and its expiry monitor. Every credential change goes through it so the
// monitor always watches the current token.
type Service struct {
	store     *Store
	monitor   *Monitor
	nav       Navigator
	loginPath string
	events    EventSink
}

// NewService builds a Service. nav may be nil, in which case forced logouts do not navigate.
func NewService(store *Store, checkInterval time.Duration, nav Navigator, loginPath string, opts ...Option) *Service {
	s := &Service{store: store, nav: nav, loginPath: loginPath}
	for _, opt := range opts {
		opt(s)
	}
	s.monitor = NewMonitor(checkInterval, s.expire)
	return s
}

// Start restores the session from durable storage and begins watching a restored token.
// A restored token that is already expired ends the session immediately.
func (s *Service) Start(ctx context.Context) (sessiondomain.Session, error) {
	sess, err := s.store.Restore(ctx)
	if err != nil {
		return sess, err
	}
	if sess.IsAuthenticated {
		s.emit(ctx, sessiondomain.EventRestored, "")
		s.monitor.Start(sess.Token)
	}
	return s.store.Snapshot(), nil
}

// Login records freshly issued credentials and the fetched profile.
func (s *Service) Login(ctx context.Context, token, refreshToken string, user userdomain.Summary) error {
	if err := s.store.SetCredentials(ctx, token, refreshToken, user); err != nil {
		return err
	}
	s.emit(ctx, sessiondomain.EventLogin, "")
	if !s.monitor.Start(token) {
		return ErrTokenRejected
	}
	return nil
}

// Refresh swaps in a new token pair and keeps the profile.
func (s *Service) Refresh(ctx context.Context, token, refreshToken string) error {
	if err := s.store.SetTokens(ctx, token, refreshToken); err != nil {
		return err
	}
	s.emit(ctx, sessiondomain.EventRefresh, "")
	if !s.monitor.Start(token) {
		return ErrTokenRejected
	}
	return nil
}

// SetUser replaces the cached profile.
func (s *Service) SetUser(user userdomain.Summary) {
	s.store.SetUser(user)
}

// Logout stops the monitor and clears the session.
func (s *Service) Logout(ctx context.Context) error {
	s.monitor.Stop()
	if s.store.IsAuthenticated() {
		s.emit(ctx, sessiondomain.EventLogout, "")
	}
	return s.store.Logout(ctx)
}

// ForceLogout clears the session and sends the client to the login view.
// It is used when the server rejects the credentials.
func (s *Service) ForceLogout(ctx context.Context) {
	s.forceLogout(ctx, sessiondomain.EventForced, "server rejected credentials")
}

func (s *Service) forceLogout(ctx context.Context, typ sessiondomain.EventType, reason string) {
	if s.store.IsAuthenticated() {
		s.emit(ctx, typ, reason)
	}
	s.monitor.Stop()
	if err := s.store.Logout(ctx); err != nil {
		log.Printf("session: forced logout: %v", err)
	}
	s.navigateLogin()
}

// Close stops the monitor without touching the session.
func (s *Service) Close() {
	s.monitor.Stop()
}

// Snapshot returns a copy of the current session.
func (s *Service) Snapshot() sessiondomain.Session { return s.store.Snapshot() }

// Token returns the current access token.
func (s *Service) Token() string { return s.store.Token() }

// RefreshToken returns the current refresh token.
func (s *Service) RefreshToken() string { return s.store.RefreshToken() }

// IsAuthenticated reports whether a token is held.
func (s *Service) IsAuthenticated() bool { return s.store.IsAuthenticated() }

// Monitoring reports whether the expiry monitor is running.
func (s *Service) Monitoring() bool { return s.monitor.Running() }

func (s *Service) expire(ctx context.Context, token string, reason error) {
	if s.store.Token() != token {
		return
	}
	if reason != nil {
		log.Printf("session: ending session with undecodable token: %v", reason)
		s.forceLogout(ctx, sessiondomain.EventUndecodable, reason.Error())
		return
	}
	log.Printf("session: ending expired session")
	s.forceLogout(ctx, sessiondomain.EventExpired, "token expired")
}

func (s *Service) emit(ctx context.Context, typ sessiondomain.EventType, reason string) {
	if s.events == nil {
		return
	}
	ev := sessiondomain.Event{Type: typ, Reason: reason, At: time.Now().UTC()}
	if u := s.store.Snapshot().User; u != nil {
		ev.UserID = u.ID
	}
	s.events.Emit(ctx, ev)
}

func (s *Service) navigateLogin() {
	if s.nav != nil && s.loginPath != "" {
		s.nav.Navigate(s.loginPath)
	}
}
