// WreckfestController - event scheduling and smart-restart control plane
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ctlerrors defines the categorized error taxonomy shared by every
// core component. Callers at the transport boundary map a Kind to the
// appropriate response class (404, 400, 409, ...); internally, components
// only need to agree on Kind to decide whether to retry, log and drop, or
// surface the failure to the caller.
package ctlerrors

import (
	"errors"
	"fmt"
)

// Kind categorizes an error for both logging and transport-layer mapping.
type Kind string

const (
	// NotFound indicates an unknown event id, or a missing config/log file
	// when one was required.
	NotFound Kind = "not_found"

	// Validation indicates a caller-supplied document failed structural or
	// semantic checks (duplicate ids, empty track paths, ...).
	Validation Kind = "validation"

	// Conflict indicates the requested operation cannot proceed because of
	// the current state of the system (a restart already in flight, an
	// already-active event, ...).
	Conflict Kind = "conflict"

	// Transient indicates a failure that is expected to clear on its own
	// (locked log file, webhook HTTP failure, lost file-watch notification)
	// and is retried implicitly by the next poll/sweep.
	Transient Kind = "transient"

	// Fatal indicates a local failure that could not be recovered within
	// the current operation (schedule could not be persisted after an
	// activation). The caller logs it and clears any in-flight flag; the
	// next sweep retries independently.
	Fatal Kind = "fatal"
)

// Error is the concrete error type produced by core components. It carries
// a Kind for categorization and, for Validation errors, a list of
// human-readable per-field causes.
type Error struct {
	Kind    Kind
	Message string
	Causes  []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match when target is an *Error of the same Kind, so
// errors.Is(err, ctlerrors.New(ctlerrors.NotFound, "")) matches any wrapped
// NotFound error.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// New builds an Error of the given kind with a plain message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind that wraps an underlying error.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NewValidation builds a Validation error carrying an enumeration of
// per-field causes, matching the §6 "400-class" response shape.
func NewValidation(message string, causes ...string) *Error {
	return &Error{Kind: Validation, Message: message, Causes: causes}
}

// KindOf extracts the Kind from err, defaulting to Fatal if err does not
// wrap a *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Fatal
}

// IsNotFound reports whether err is (or wraps) a NotFound error.
func IsNotFound(err error) bool { return KindOf(err) == NotFound }

// IsValidation reports whether err is (or wraps) a Validation error.
func IsValidation(err error) bool { return KindOf(err) == Validation }

// IsConflict reports whether err is (or wraps) a Conflict error.
func IsConflict(err error) bool { return KindOf(err) == Conflict }

// IsTransient reports whether err is (or wraps) a Transient error.
func IsTransient(err error) bool { return KindOf(err) == Transient }
