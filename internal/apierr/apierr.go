// Package apierr defines the structured error type shared by every layer
// of the Open Food Facts client. Callers classify failures by Kind (and
// StatusCode for upstream failures), never by message text.
package apierr

import (
	"errors"
	"fmt"
)

// Kind is the normalized classification of a failure.
type Kind string

const (
	// TypeMismatch means an input had the wrong type at the boundary.
	TypeMismatch Kind = "type_mismatch"

	// FormatInvalid means an input had the right type but the wrong shape.
	FormatInvalid Kind = "format_invalid"

	// MissingInput means a required input was absent.
	MissingInput Kind = "missing_input"

	// SizeExceeded means an input was larger than the allowed ceiling.
	SizeExceeded Kind = "size_exceeded"

	// ContentMismatch means file content contradicted its declared type.
	ContentMismatch Kind = "content_mismatch"

	// InsecureTransport means the endpoint does not use HTTPS.
	InsecureTransport Kind = "insecure_transport"

	// CredentialsRequired means an authenticated operation was attempted
	// without a credential pair on the client.
	CredentialsRequired Kind = "credentials_required"

	// API means the upstream API answered with a non-2xx status.
	API Kind = "api_error"

	// Network means the transport itself failed (DNS, refused, timeout).
	Network Kind = "network_error"

	// InvalidResponse means the upstream body was not usable JSON.
	InvalidResponse Kind = "invalid_response_format"
)

// Error carries a failure kind, a stable human message, optional detail,
// the upstream status code when one exists, and the wrapped cause.
// Instances are built once at the failure site and propagated unchanged.
type Error struct {
	Kind       Kind
	Message    string
	Detail     string
	StatusCode int
	Cause      error
}

// New builds an Error with the given kind and message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error whose message prefixes the cause's message,
// keeping the cause available for errors.Is / errors.As chains.
func Wrap(kind Kind, prefix string, cause error) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf("%s: %v", prefix, cause),
		Cause:   cause,
	}
}

// WithDetail returns e with the detail field set.
func (e *Error) WithDetail(detail string) *Error {
	e.Detail = detail
	return e
}

// WithStatus returns e with the upstream status code set.
func (e *Error) WithStatus(status int) *Error {
	e.StatusCode = status
	return e
}

// Error implements the error interface as "<kind>: <message>".
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports kind equality, so errors.Is(err, &Error{Kind: k}) and the
// KindOf/IsKind helpers agree.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e != nil && e.Kind == t.Kind
}

// KindOf returns the kind carried by err, or "" when err is not an
// *apierr.Error anywhere in its chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// StatusOf returns the upstream status code carried by err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}
