package domain

import (
	"errors"
	"fmt"
	"strings"

	"quiz-platform/webclient/internal/platform/apierr"
	userdomain "quiz-platform/webclient/internal/user/domain"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the credentials before they are sent.
func (r *LoginRequest) Validate() error {
	r.Email = strings.TrimSpace(r.Email)
	if err := userdomain.ValidateEmail(r.Email); err != nil {
		return err
	}
	if r.Password == "" {
		return apierr.Validation("password", "is required")
	}
	return nil
}

// RegisterRequest is the body of POST /auth/register. Confirm is checked locally and never sent.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Confirm  string `json:"-"`
}

// Validate checks the registration form before it is sent.
func (r *RegisterRequest) Validate() error {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	if err := userdomain.ValidateUsername(r.Username); err != nil {
		return err
	}
	if err := userdomain.ValidateEmail(r.Email); err != nil {
		return err
	}
	if err := userdomain.ValidatePassword(r.Password); err != nil {
		return err
	}
	if r.Confirm != r.Password {
		return apierr.Validation("confirm_password", "passwords do not match")
	}
	return nil
}

// RefreshRequest is the body of POST /auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenPair is the response of POST /auth/login and POST /auth/refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Validate checks a decoded token response.
func (p *TokenPair) Validate() error {
	if p.AccessToken == "" {
		return errors.New("access_token missing from response")
	}
	if p.TokenType != "" && !strings.EqualFold(p.TokenType, "bearer") {
		return fmt.Errorf("unsupported token type %q", p.TokenType)
	}
	return nil
}
