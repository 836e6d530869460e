// Package apierror classifies failed API calls into typed errors.
package apierror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel errors. Every *Error wraps exactly one of them, or the transport
// cause when no response was received.
var (
	ErrVersionMismatch  = errors.New("version mismatch")
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("access token invalid")
	ErrAccessDenied     = errors.New("access denied")
	ErrValidationFailed = errors.New("validation failed")
	ErrRateLimited      = errors.New("rate limit exceeded")
	ErrServerError      = errors.New("server error")
	ErrRequestFailed    = errors.New("request failed")
	ErrTimeout          = errors.New("request timed out")
	ErrMalformedEntity  = errors.New("malformed entity")
)

// Error is a failed API call.
type Error struct {
	// Op is the client operation, e.g. "update" or "get".
	Op string

	// Name is the error id reported by the server (sys.id of the error body),
	// e.g. "VersionMismatch" or "NotFound".
	Name string

	Status     int
	StatusText string
	Method     string
	RequestURL string
	RequestID  string

	// Message and Details come from the server error body.
	Message string
	Details json.RawMessage

	// Body is the raw response body.
	Body []byte

	Err error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	if e.Status != 0 {
		fmt.Fprintf(&b, "%d %s", e.Status, e.StatusText)
		if e.Name != "" {
			fmt.Fprintf(&b, " (%s)", e.Name)
		}
		b.WriteString(" ")
	}
	if e.Method != "" {
		fmt.Fprintf(&b, "%s %s: ", e.Method, e.RequestURL)
	}
	if e.Message != "" {
		b.WriteString(e.Message)
		b.WriteString(": ")
	}
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// VersionMismatchError is returned when a write is rejected because the
// version sent no longer matches the server. Callers are expected to refetch
// and retry; the client never does so on its own.
type VersionMismatchError struct {
	API *Error

	// Kind, EntityID and Version identify the rejected write.
	Kind     string
	EntityID string
	Version  int
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("%s %s %s at version %d: %v", e.API.Op, e.Kind, e.EntityID, e.Version, e.API)
}

func (e *VersionMismatchError) Unwrap() error {
	return e.API
}

// MalformedEntityError is returned when raw data lacks the minimal sys fields.
type MalformedEntityError struct {
	// Missing lists the absent fields, e.g. "sys.id".
	Missing []string
	Err     error
}

func (e *MalformedEntityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %v", ErrMalformedEntity, e.Err)
	}
	return fmt.Sprintf("%v: missing %s", ErrMalformedEntity, strings.Join(e.Missing, ", "))
}

func (e *MalformedEntityError) Is(target error) bool {
	return target == ErrMalformedEntity
}

func (e *MalformedEntityError) Unwrap() error {
	return e.Err
}

// IsVersionMismatch reports whether err is a version conflict.
func IsVersionMismatch(err error) bool {
	return errors.Is(err, ErrVersionMismatch)
}

// IsNotFound reports whether err is a 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// StatusCode returns the HTTP status of err, or 0 if no response was received.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// sentinelFor maps a status code and server error id to a sentinel.
func sentinelFor(status int, name string) error {
	if status == http.StatusConflict || name == "VersionMismatch" {
		return ErrVersionMismatch
	}
	switch status {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrAccessDenied
	case http.StatusUnprocessableEntity:
		return ErrValidationFailed
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	if status >= 500 {
		return ErrServerError
	}
	return ErrRequestFailed
}
