// Package apperror carries the tagged error kinds shared by all inventory
// mutation protocols. Services return these; only the HTTP layer translates
// them into status codes, so internal details never leak to clients.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error into one of the caller-recoverable categories.
type Kind int

const (
	// KindUnknown covers infrastructure failures (storage unavailability etc.).
	KindUnknown Kind = iota
	// KindNotFound — a referenced entity does not exist.
	KindNotFound
	// KindValidation — malformed input or a mutation that would break an invariant.
	KindValidation
	// KindConflict — uniqueness violation or an impossible reversal.
	KindConflict
	// KindScope — cross-shop access attempted by a non-global caller.
	KindScope
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindScope:
		return "scope_violation"
	default:
		return "unknown"
	}
}

// Error is the canonical tagged error. Message is safe to show to clients.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is comparisons against another *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

func NotFound(msg string) error   { return &Error{Kind: KindNotFound, Message: msg} }
func Validation(msg string) error { return &Error{Kind: KindValidation, Message: msg} }
func Conflict(msg string) error   { return &Error{Kind: KindConflict, Message: msg} }
func Scope(msg string) error      { return &Error{Kind: KindScope, Message: msg} }

func Validationf(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and client-safe message to an underlying error.
func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf extracts the kind from err, or KindUnknown when err is untagged.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
