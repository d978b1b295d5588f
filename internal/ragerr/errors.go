// Package ragerr defines the single Result-style error taxonomy the
// core uses in place of ad-hoc exceptions (spec.md §7, design note in
// spec.md §9: "Replace ad-hoc exceptions with a single Result-style
// type carrying the kinds in §7").
package ragerr

import (
	"errors"
	"fmt"
)

// Kind is one of the error categories the core distinguishes.
type Kind string

const (
	InvalidInput        Kind = "invalid_input"
	ScopeDenied          Kind = "scope_denied"
	BackendUnavailable   Kind = "backend_unavailable"
	ProviderFailure      Kind = "provider_failure"
	DimensionMismatch    Kind = "dimension_mismatch"
	Timeout              Kind = "timeout"
	ReconciliationNeeded Kind = "reconciliation_needed"
)

// Error wraps an underlying cause with a Kind so callers can branch on
// it with KindOf/Is instead of string-matching messages.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// New constructs an *Error with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap constructs an *Error wrapping cause. The result's Kind is always
// kind, even when cause is itself a *ragerr.Error; KindOf then reports
// the outer Kind.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind of err, walking the unwrap chain. Returns
// ("", false) if neither err nor anything in its chain is a *ragerr.Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

// Is reports whether err's Kind (anywhere in its chain) equals kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
