package domain

import (
	"errors"
	"strings"
	"unicode/utf8"

	"quiz-platform/webclient/internal/platform/apierr"
	"quiz-platform/webclient/internal/platform/timestamp"
)

const (
	minNameLen        = 3
	maxNameLen        = 100
	maxDescriptionLen = 500
)

// Company is a read-through copy of a backend company. OwnerID references a User.
type Company struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	IsVisible   bool           `json:"is_visible"`
	OwnerID     string         `json:"owner_id"`
	CreatedAt   timestamp.Time `json:"created_at"`
	UpdatedAt   timestamp.Time `json:"updated_at"`
}

// Validate checks a decoded response.
func (c *Company) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("company id is required")
	}
	if c.Name == "" {
		return errors.New("company name is required")
	}
	if c.OwnerID == "" {
		return errors.New("company owner_id is required")
	}
	return nil
}

// Page is one page of the company list as returned by GET /companies.
type Page struct {
	Companies []Company `json:"companies"`
	Total     int       `json:"total"`
}

// Create is the body of POST /companies.
type Create struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	IsVisible   *bool   `json:"is_visible,omitempty"`
}

// Validate checks the input before it is sent.
func (c *Create) Validate() error {
	if err := validateName(c.Name); err != nil {
		return err
	}
	return validateDescription(c.Description)
}

// Update is the body of PUT /companies/{id}. Nil fields are left unchanged.
type Update struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsVisible   *bool   `json:"is_visible,omitempty"`
}

// Validate checks the patch before it is sent.
func (u *Update) Validate() error {
	if u.Name != nil {
		if err := validateName(*u.Name); err != nil {
			return err
		}
	}
	return validateDescription(u.Description)
}

func validateName(name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	switch {
	case n == 0:
		return apierr.Validation("name", "company name is required")
	case n < minNameLen:
		return apierr.Validation("name", "company name must be at least 3 characters")
	case n > maxNameLen:
		return apierr.Validation("name", "company name must not exceed 100 characters")
	}
	return nil
}

func validateDescription(d *string) error {
	if d != nil && utf8.RuneCountInString(*d) > maxDescriptionLen {
		return apierr.Validation("description", "description must not exceed 500 characters")
	}
	return nil
}
