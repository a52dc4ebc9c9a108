package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry is returned by ExpiresAt when the token carries no exp claim.
var ErrNoExpiry = errors.New("session: token has no expiry")

var unverified = jwt.NewParser()

// ExpiresAt decodes the exp claim of a compact JWT without verifying its signature.
// The server remains the authority on validity; the client only needs the expiry.
func ExpiresAt(token string) (time.Time, error) {
	var claims jwt.RegisteredClaims
	if _, _, err := unverified.ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("session: decode token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// Expired reports whether token is expired at now. A token without exp never expires;
// a token that cannot be decoded is reported as an error.
func Expired(token string, now time.Time) (bool, error) {
	exp, err := ExpiresAt(token)
	if errors.Is(err, ErrNoExpiry) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !now.Before(exp), nil
}
