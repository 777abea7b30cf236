// Package apperrors defines the error taxonomy shared across the indexing
// and search core: a small set of kinds that the HTTP layer and the
// indexing pipeline use to decide retries, status codes and logging
// severity, instead of inspecting error strings.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the purposes of propagation policy.
type Kind string

const (
	// InvalidInput covers malformed JSON, blank accessions, invalid
	// JSONPaths and invalid registries or query strings.
	InvalidInput Kind = "invalid_input"
	// NotFound covers a 404 on fetch, a missing task status or an
	// absent term in the EFO matcher. Never surfaced as an error to
	// the caller; converted to a tombstone or an empty result.
	NotFound Kind = "not_found"
	// TransientIO covers upstream 5xx responses, connection loss and
	// intermittent index read errors. Retried where a retry policy is
	// defined, otherwise logged and surfaced.
	TransientIO Kind = "transient_io"
	// FatalResource covers an index directory that cannot be opened, a
	// writer that cannot open, a registry that fails to load or a
	// commit that fails mid-batch.
	FatalResource Kind = "fatal_resource"
	// Security covers a query composition failure (unparseable
	// allow/deny clauses).
	Security Kind = "security"
	// Programmer covers violated invariants such as a nil accession or
	// an unloaded registry.
	Programmer Kind = "programmer"
	// ServiceUnavailable covers a dependency the caller must wait out
	// rather than retry immediately, such as enqueueing work while the
	// messaging transport is down.
	ServiceUnavailable Kind = "service_unavailable"
)

// Error is the concrete error type carried through the core. Callers
// that need the kind use errors.As with *Error, or the Kind helper.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

// Kind returns the error's classification.
func (e *Error) Kind() Kind { return e.kind }

func newf(kind Kind, wrapped error, format string, args ...any) *Error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...), err: wrapped}
}

// InvalidInputf builds an InvalidInput error.
func InvalidInputf(format string, args ...any) error { return newf(InvalidInput, nil, format, args...) }

// NotFoundf builds a NotFound error.
func NotFoundf(format string, args ...any) error { return newf(NotFound, nil, format, args...) }

// TransientIOf builds a TransientIO error wrapping cause.
func TransientIOf(cause error, format string, args ...any) error {
	return newf(TransientIO, cause, format, args...)
}

// FatalResourcef builds a FatalResource error wrapping cause.
func FatalResourcef(cause error, format string, args ...any) error {
	return newf(FatalResource, cause, format, args...)
}

// Securityf builds a Security error wrapping cause.
func Securityf(cause error, format string, args ...any) error {
	return newf(Security, cause, format, args...)
}

// Programmerf builds a Programmer error.
func Programmerf(format string, args ...any) error { return newf(Programmer, nil, format, args...) }

// ServiceUnavailablef builds a ServiceUnavailable error.
func ServiceUnavailablef(format string, args ...any) error {
	return newf(ServiceUnavailable, nil, format, args...)
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, and ok=false
// otherwise.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.kind, true
	}
	return "", false
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
