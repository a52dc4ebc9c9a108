package domain

import (
	"errors"
	"strings"

	"quiz-platform/webclient/internal/platform/apierr"
	"quiz-platform/webclient/internal/platform/timestamp"
)

// Member is a user's membership in a company, as listed by GET /companies/{id}/members.
// Memberships are fetched on demand and never cached.
type Member struct {
	ID       string         `json:"id"`
	Username string         `json:"username"`
	Email    string         `json:"email"`
	IsActive bool           `json:"is_active"`
	JoinedAt timestamp.Time `json:"joined_at"`
}

// Validate checks a decoded response.
func (m *Member) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return errors.New("member id is required")
	}
	return nil
}

// AddMember is the body of POST /companies/{id}/members.
type AddMember struct {
	UserID string `json:"user_id"`
}

// Validate checks the request before it is sent.
func (a *AddMember) Validate() error {
	a.UserID = strings.TrimSpace(a.UserID)
	if a.UserID == "" {
		return apierr.Validation("user_id", "is required")
	}
	return nil
}
