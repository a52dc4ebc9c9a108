package domain

import (
	"errors"
	"regexp"
	"strings"

	"quiz-platform/webclient/internal/platform/apierr"
	"quiz-platform/webclient/internal/platform/timestamp"
)

const (
	minUsernameLen = 3
	minPasswordLen = 6
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// User is a read-through copy of a backend user.
type User struct {
	ID          string         `json:"id"`
	Username    string         `json:"username"`
	Email       string         `json:"email"`
	IsActive    bool           `json:"is_active"`
	IsSuperuser bool           `json:"is_superuser"`
	CreatedAt   timestamp.Time `json:"created_at"`
	UpdatedAt   timestamp.Time `json:"updated_at"`
	FirstName   string         `json:"first_name,omitempty"`
	LastName    string         `json:"last_name,omitempty"`
	Bio         string         `json:"bio,omitempty"`
	AvatarURL   string         `json:"avatar_url,omitempty"`
	Phone       string         `json:"phone,omitempty"`
}

// Summary is the subset of the profile the session keeps.
type Summary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Summary returns the session view of u.
func (u *User) Summary() Summary {
	return Summary{ID: u.ID, Username: u.Username, Email: u.Email}
}

// Validate checks a decoded response. Returns an error describing the first missing field.
func (u *User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return errors.New("user id is required")
	}
	if u.Username == "" {
		return errors.New("user username is required")
	}
	if u.Email == "" {
		return errors.New("user email is required")
	}
	return nil
}

// Page is one page of the user list as returned by GET /users.
type Page struct {
	Users []User `json:"users"`
	Total int    `json:"total"`
}

// Update is a partial profile update for PUT /users/me. Nil fields are left unchanged.
type Update struct {
	Username  *string `json:"username,omitempty"`
	Password  *string `json:"password,omitempty"`
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Phone     *string `json:"phone,omitempty"`
}

// Validate checks the update before it is sent.
func (p *Update) Validate() error {
	if p.Username != nil && len(strings.TrimSpace(*p.Username)) < minUsernameLen {
		return apierr.Validation("username", "must be at least 3 characters")
	}
	if p.Password != nil && len(*p.Password) < minPasswordLen {
		return apierr.Validation("password", "must be at least 6 characters")
	}
	return nil
}

// ValidateUsername checks the registration username rule.
func ValidateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return apierr.Validation("username", "is required")
	}
	if len(strings.TrimSpace(username)) < minUsernameLen {
		return apierr.Validation("username", "must be at least 3 characters")
	}
	return nil
}

// ValidateEmail checks the email shape accepted by the registration and login forms.
func ValidateEmail(email string) error {
	if email == "" {
		return apierr.Validation("email", "is required")
	}
	if !emailPattern.MatchString(email) {
		return apierr.Validation("email", "invalid email format")
	}
	return nil
}

// ValidatePassword checks the registration password rule.
func ValidatePassword(password string) error {
	if password == "" {
		return apierr.Validation("password", "is required")
	}
	if len(password) < minPasswordLen {
		return apierr.Validation("password", "must be at least 6 characters")
	}
	return nil
}
