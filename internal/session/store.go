// Package session holds the client's authenticated identity: the credential store mirrored into durable
// storage, the token expiry monitor, and the service that ties them together.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"

	"quiz-platform/webclient/internal/platform/apierr"
	sessiondomain "quiz-platform/webclient/internal/session/domain"
	"quiz-platform/webclient/internal/storage"
	userdomain "quiz-platform/webclient/internal/user/domain"
)

// Store keeps the session in memory and mirrors the credentials into durable storage.
// Every credential mutation writes durable storage first and only then updates memory, under one lock,
// so the two never diverge once a call returns.
type Store struct {
	durable storage.Store

	mu      sync.RWMutex
	token   string
	refresh string
	user    *userdomain.Summary
}

// NewStore returns an empty Store backed by durable.
func NewStore(durable storage.Store) *Store {
	return &Store{durable: durable}
}

// Restore loads the credentials from durable storage. The user profile is not persisted and stays nil.
func (s *Store) Restore(ctx context.Context) (sessiondomain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	token, _, err := s.durable.Get(ctx, storage.KeyToken)
	if err != nil {
		return s.snapshotLocked(), fmt.Errorf("session: restore token: %w", err)
	}
	refresh, _, err := s.durable.Get(ctx, storage.KeyRefreshToken)
	if err != nil {
		return s.snapshotLocked(), fmt.Errorf("session: restore refresh token: %w", err)
	}
	s.token = token
	s.refresh = refresh
	s.user = nil
	return s.snapshotLocked(), nil
}

// SetCredentials stores a new token pair and user. On a storage failure nothing changes.
func (s *Store) SetCredentials(ctx context.Context, token, refreshToken string, user userdomain.Summary) error {
	if token == "" {
		return apierr.Validation("token", "is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persistLocked(ctx, token, refreshToken); err != nil {
		return err
	}
	s.token = token
	s.refresh = refreshToken
	u := user
	s.user = &u
	return nil
}

// SetTokens replaces the token pair and keeps the cached user.
func (s *Store) SetTokens(ctx context.Context, token, refreshToken string) error {
	if token == "" {
		return apierr.Validation("token", "is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persistLocked(ctx, token, refreshToken); err != nil {
		return err
	}
	s.token = token
	s.refresh = refreshToken
	return nil
}

// SetUser replaces the cached profile without touching the tokens.
func (s *Store) SetUser(user userdomain.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := user
	s.user = &u
}

// Logout clears memory and durable storage. Memory is cleared even when storage fails; the error is returned.
// Calling Logout on an empty session is a no-op apart from the storage delete.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.refresh = ""
	s.user = nil
	if err := s.durable.Delete(ctx, storage.KeyToken, storage.KeyRefreshToken); err != nil {
		log.Printf("session: clearing durable credentials: %v", err)
		return fmt.Errorf("session: clear credentials: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() sessiondomain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Token returns the current access token or "".
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// RefreshToken returns the current refresh token or "".
func (s *Store) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refresh
}

// IsAuthenticated reports whether a token is held.
func (s *Store) IsAuthenticated() bool {
	return s.Token() != ""
}

func (s *Store) persistLocked(ctx context.Context, token, refreshToken string) error {
	put := map[string]string{storage.KeyToken: token}
	var del []string
	if refreshToken != "" {
		put[storage.KeyRefreshToken] = refreshToken
	} else {
		del = append(del, storage.KeyRefreshToken)
	}
	if err := s.durable.Apply(ctx, put, del); err != nil {
		return fmt.Errorf("session: persist credentials: %w", err)
	}
	return nil
}

func (s *Store) snapshotLocked() sessiondomain.Session {
	out := sessiondomain.Session{
		Token:           s.token,
		RefreshToken:    s.refresh,
		IsAuthenticated: s.token != "",
	}
	if s.user != nil {
		u := *s.user
		out.User = &u
	}
	return out
}
