package apierr

import (
	"errors"
	"net/http"
)

// Kind classifies a relay failure. Every error that reaches a handler
// boundary is converted to exactly one kind before a response is written.
type Kind int

const (
	// KindValidation - a required field is missing or malformed in the
	// client request.
	KindValidation Kind = iota

	// KindAuthentication - webhook signature invalid, missing, or expired.
	KindAuthentication

	// KindUpstream - a forwarded provider call did not return success.
	KindUpstream

	// KindInternal - any other unexpected failure.
	KindInternal
)

// String returns the log-friendly name of the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// HTTPStatus maps the kind onto the status code the relay responds with.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindAuthentication:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is the single error type crossing handler boundaries.
// Message is safe to return to the caller; Details carries upstream
// diagnostic text; Err is the underlying cause, for logs only.
type Error struct {
	Kind    Kind
	Message string
	Details string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation constructs a validation error for a missing required field.
func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// Authentication constructs a webhook authentication error.
func Authentication(message string, cause error) *Error {
	return &Error{Kind: KindAuthentication, Message: message, Err: cause}
}

// Upstream constructs an error for a failed provider call. details is the
// diagnostic text the provider returned, surfaced to the caller.
func Upstream(message, details string, cause error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Details: details, Err: cause}
}

// Internal wraps an unexpected failure. The caller sees a generic message;
// the cause goes to server-side logs.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", Err: cause}
}

// From converts an arbitrary error to an *Error, defaulting to
// KindInternal when the error carries no classification.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal(err)
}
