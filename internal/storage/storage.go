// Package storage provides the client's durable key-value storage: the place credentials and the locale
// preference survive restarts. Values are opaque strings.
package storage

import (
	"context"
	"errors"
)

// Keys kept in durable storage.
const (
	KeyToken        = "token"
	KeyRefreshToken = "refreshToken"
	KeyLocale       = "i18nextLng"
)

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("storage: closed")

// Store is durable key-value storage. Put, Delete and Apply change all keys or none.
type Store interface {
	// Get returns the value for key and true, or "", false when the key is absent.
	Get(ctx context.Context, key string) (string, bool, error)
	// Put writes every entry atomically.
	Put(ctx context.Context, entries map[string]string) error
	// Delete removes the given keys atomically. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	// Apply writes put and removes del as one atomic change.
	Apply(ctx context.Context, put map[string]string, del []string) error
	Close() error
}
