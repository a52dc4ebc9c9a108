package domain

import (
	"time"

	userdomain "quiz-platform/webclient/internal/user/domain"
)

// Session is the client-side record of the current identity and credentials.
// IsAuthenticated is true exactly when Token is non-empty.
type Session struct {
	Token           string
	RefreshToken    string
	IsAuthenticated bool
	User            *userdomain.Summary // nil until the profile is fetched
}

// EventType names a session lifecycle transition.
type EventType string

const (
	EventLogin       EventType = "login"
	EventRefresh     EventType = "refresh"
	EventLogout      EventType = "logout"
	EventForced      EventType = "forced_logout"
	EventExpired     EventType = "expired"
	EventRestored    EventType = "restored"
	EventUndecodable EventType = "undecodable_token"
)

// Event is one session lifecycle transition, published for observability.
type Event struct {
	Type   EventType
	UserID string // empty when the profile is not known
	Reason string
	At     time.Time
}
