package domain

import (
	"errors"

	"quiz-platform/webclient/internal/platform/timestamp"
)

// Status is the backend liveness report returned by GET /.
type Status struct {
	Status    string         `json:"status"`
	Timestamp timestamp.Time `json:"timestamp"`
	Version   string         `json:"version,omitempty"`
	Database  string         `json:"database,omitempty"`
	Redis     string         `json:"redis,omitempty"`
}

// Validate checks a decoded response.
func (s *Status) Validate() error {
	if s.Status == "" {
		return errors.New("health status is required")
	}
	return nil
}

// Healthy reports whether the backend considers itself up.
func (s *Status) Healthy() bool {
	switch s.Status {
	case "ok", "healthy", "up":
		return true
	}
	return false
}
