// Package apperr defines the error taxonomy shared by every layer and its
// mapping onto HTTP status codes.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind int

const (
	KindInternal Kind = iota
	KindMissingCredential
	KindInvalidCredential
	KindExpiredCredential
	KindVerificationUnavailable
	KindUnknownIdentity
	KindInsufficientPrivilege
	KindServerMisconfigured
	KindValidation
	KindNotFound
	KindReference
	KindConstraint
	KindInvalidTransition
	KindStorageUnavailable
)

var kindNames = map[Kind]string{
	KindInternal:                "internal",
	KindMissingCredential:       "missing_credential",
	KindInvalidCredential:       "invalid_credential",
	KindExpiredCredential:       "expired_credential",
	KindVerificationUnavailable: "verification_unavailable",
	KindUnknownIdentity:         "unknown_identity",
	KindInsufficientPrivilege:   "insufficient_privilege",
	KindServerMisconfigured:     "server_misconfigured",
	KindValidation:              "validation",
	KindNotFound:                "not_found",
	KindReference:               "reference",
	KindConstraint:              "constraint",
	KindInvalidTransition:       "invalid_transition",
	KindStorageUnavailable:      "storage_unavailable",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// FieldError is one violated field of a request payload.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the concrete error type returned across package boundaries.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error of the given kind.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and a caller-safe message to an underlying error.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// Validation builds a validation error carrying per-field details.
func Validation(fields []FieldError) *Error {
	return &Error{Kind: KindValidation, Message: "Invalid input", Fields: fields}
}

// Reference builds a reference error pointing at a single field.
func Reference(field, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	return &Error{
		Kind:    KindReference,
		Message: "Invalid reference",
		Fields:  []FieldError{{Field: field, Message: msg}},
	}
}

// KindOf extracts the kind of err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Status maps a kind to its HTTP status code.
func Status(kind Kind) int {
	switch kind {
	case KindMissingCredential, KindInvalidCredential, KindExpiredCredential:
		return http.StatusUnauthorized
	case KindUnknownIdentity, KindInsufficientPrivilege:
		return http.StatusForbidden
	case KindValidation, KindReference:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConstraint, KindInvalidTransition:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Exposed reports whether the message of this kind may be shown to callers.
// Server-side failures are replaced by a generic message.
func Exposed(kind Kind) bool {
	return Status(kind) < http.StatusInternalServerError
}
