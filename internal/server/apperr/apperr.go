// Package apperr defines the error taxonomy shared by the token service,
// the access control engine and the HTTP handlers. Errors carry a kind and a
// stable machine-readable reason; only the HTTP boundary translates kinds
// into status codes.
package apperr

import "errors"

// Kind classifies an error for the caller-facing boundary
type Kind int

const (
	// KindUnauthorized means the request is not authenticated (bad, expired
	// or revoked token, unknown user)
	KindUnauthorized Kind = iota + 1
	// KindForbidden means the caller is authenticated but the action is
	// denied by an access rule
	KindForbidden
	// KindNotFound means the target resource does not exist
	KindNotFound
	// KindConflict means the resource is already in the requested state or
	// a uniqueness rule was violated
	KindConflict
)

// Stable reason strings surfaced verbatim to clients so they can
// distinguish lock vs privacy vs ownership denials.
const (
	ReasonTokenRevoked    = "token_revoked"
	ReasonTokenExpired    = "token_expired"
	ReasonTokenInvalid    = "token_invalid"
	ReasonUnknownUser     = "unknown_user"
	ReasonCategoryLocked  = "category_locked"
	ReasonCategoryPrivate = "category_private"
	ReasonReadOnlyAccess  = "read_only_access"
	ReasonTopicLocked     = "topic_locked"
	ReasonOwnerOnly       = "owner_only"
	ReasonAdminOnly       = "admin_only"
)

// Error is the error type returned by the authorization core
type Error struct {
	Reason  string
	Message string
	Kind    Kind
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Reason
}

// Unauthorized returns an authentication failure with the given reason
func Unauthorized(reason, message string) *Error {
	return &Error{Kind: KindUnauthorized, Reason: reason, Message: message}
}

// Forbidden returns an authorization denial with the given reason
func Forbidden(reason, message string) *Error {
	return &Error{Kind: KindForbidden, Reason: reason, Message: message}
}

// NotFound returns a missing-resource error
func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

// Conflict returns a state-conflict error
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

// KindOf extracts the Kind from err, or 0 if err is not an apperr.Error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// ReasonOf extracts the stable reason from err, or "" if there is none
func ReasonOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}
