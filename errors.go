package authcore

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrInvalidCredentials is the generic authentication failure for
	// login. It is deliberately identical for unknown emails and wrong
	// passwords so callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrNoToken is returned when a protected operation carries no bearer
	// credential at all.
	ErrNoToken = errors.New("no token provided")
	// ErrTokenInvalid covers bad signatures, malformed payloads, and
	// expired tokens. The wording is generic on purpose.
	ErrTokenInvalid = errors.New("token invalid or expired")
	// ErrSubjectNotFound is returned when a valid token references an
	// identity that no longer exists.
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrInsufficientRole is returned when a resolved identity does not
	// hold any of the roles an operation requires.
	ErrInsufficientRole = errors.New("insufficient privilege")
	// ErrIdentityNotFound is the store-level miss sentinel.
	ErrIdentityNotFound = errors.New("identity not found")
	// ErrPasswordReuse rejects a password change to the current password.
	ErrPasswordReuse = errors.New("new password must be different from current password")
	// ErrResetInvalid covers unknown, expired, and mismatched password
	// reset challenges.
	ErrResetInvalid = errors.New("password reset challenge invalid or expired")
	// ErrResetAttemptsExceeded is returned once a reset challenge has
	// been consumed by too many failed confirmations.
	ErrResetAttemptsExceeded = errors.New("password reset attempts exceeded")
	// ErrResetDisabled is returned when the password reset feature is not
	// configured.
	ErrResetDisabled = errors.New("password reset disabled")
	// ErrEngineNotReady is returned when an Engine is used before Build
	// wired its dependencies.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// FieldViolation is a single failed validation rule.
type FieldViolation struct {
	Field   string
	Message string
}

// ValidationError reports every violated field of a credential
// submission, not just the first. Callers surface all messages joined.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Violations) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return strings.Join(msgs, "; ")
}

// Fields lists the violated field names in report order.
func (e *ValidationError) Fields() []string {
	fields := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		fields = append(fields, v.Field)
	}
	return fields
}

func (e *ValidationError) add(field, message string) {
	e.Violations = append(e.Violations, FieldViolation{Field: field, Message: message})
}

// DuplicateKeyError reports a unique-constraint violation, naming the
// conflicting field.
type DuplicateKeyError struct {
	Field string
	Value string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("identity already exists with this %s", e.Field)
}

// ConfigurationError reports a fatal configuration problem, such as a
// missing signing secret. It is never recoverable per request.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// StatusHint maps a core error to an HTTP-style status code for the
// routing layer: 400 for validation and duplicates, 401 for bad
// credentials or bad tokens, 403 for insufficient privilege, 404 when a
// referenced identity vanished, 500 otherwise.
func StatusHint(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var (
		validation *ValidationError
		duplicate  *DuplicateKeyError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &duplicate), errors.Is(err, ErrPasswordReuse):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrNoToken),
		errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrResetInvalid),
		errors.Is(err, ErrResetAttemptsExceeded):
		return http.StatusUnauthorized
	case errors.Is(err, ErrInsufficientRole):
		return http.StatusForbidden
	case errors.Is(err, ErrSubjectNotFound), errors.Is(err, ErrIdentityNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
