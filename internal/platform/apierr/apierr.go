// Package apierr defines the error taxonomy shared by the HTTP client wrapper, the domain services, and the stores.
// Callers classify failures with errors.Is against the sentinel kinds or with KindOf.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies a failed call.
type Kind string

const (
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindServer       Kind = "server_error"
	KindNetwork      Kind = "network_error"
	KindRequest      Kind = "request_error"
	// KindValidation is raised client-side before anything is sent.
	KindValidation Kind = "validation_error"
)

// Sentinel errors, one per kind. *Error matches the sentinel of its kind under errors.Is.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrServer       = errors.New("server error")
	ErrNetwork      = errors.New("network error")
	ErrRequest      = errors.New("request error")
	ErrValidation   = errors.New("validation error")
)

var sentinels = map[Kind]error{
	KindUnauthorized: ErrUnauthorized,
	KindForbidden:    ErrForbidden,
	KindServer:       ErrServer,
	KindNetwork:      ErrNetwork,
	KindRequest:      ErrRequest,
	KindValidation:   ErrValidation,
}

// Error is a classified failure of a single call.
type Error struct {
	Kind   Kind
	Status int // HTTP status; 0 when no response was received
	Method string
	Path   string
	// Detail is the backend's "detail" message or the validation message.
	Detail string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	if e.Method != "" || e.Path != "" {
		fmt.Fprintf(&b, " %s %s", e.Method, e.Path)
	}
	if e.Status != 0 {
		fmt.Fprintf(&b, " (%d)", e.Status)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// Message returns the text suitable for showing to a user.
func (e *Error) Message() string {
	if e.Detail != "" {
		return e.Detail
	}
	switch e.Kind {
	case KindUnauthorized:
		return "session expired, please log in again"
	case KindForbidden:
		return "you do not have access to this resource"
	case KindServer:
		return "server error, please try again later"
	case KindNetwork:
		return "network error, check your connection"
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

// FromStatus classifies a non-2xx HTTP status.
func FromStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status >= http.StatusInternalServerError:
		return KindServer
	default:
		return KindRequest
	}
}

// Validation returns a client-side validation error for field.
func Validation(field, msg string) *Error {
	detail := msg
	if field != "" {
		detail = field + ": " + msg
	}
	return &Error{Kind: KindValidation, Detail: detail}
}

// InvalidResponse reports a response that decoded but failed its schema checks.
func InvalidResponse(method, path string, err error) *Error {
	return &Error{Kind: KindServer, Method: method, Path: path, Detail: "invalid response: " + err.Error(), Err: err}
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Message returns a user-facing message for any error.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message()
	}
	return err.Error()
}
