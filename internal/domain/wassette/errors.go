// Package wassette holds error taxonomy and other cross-cutting domain
// types shared by the Loader, Schema Bridge, Policy Compiler, Lifecycle
// Manager, and Executor.
package wassette

import (
	"errors"
	"fmt"
)

// Sentinel errors for the seven taxa of spec.md §7. Callers match with
// errors.Is; the concrete diagnostic detail travels in *Error.
var (
	ErrOrigin           = errors.New("origin error")
	ErrValidation       = errors.New("validation error")
	ErrCollision        = errors.New("collision error")
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrResourceExceeded = errors.New("resource exceeded")
	ErrCancelled        = errors.New("cancelled")
	ErrInternal         = errors.New("internal error")
)

// Error is a structured diagnostic wrapping one of the sentinel taxa. Op
// names the failing operation (e.g. "load", "dispatch"), Subject names the
// component/tool/resource involved, and Diagnostics carries validation
// detail when the taxon is ErrValidation.
type Error struct {
	Taxon       error
	Op          string
	Subject     string
	Diagnostics []string
	Err         error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Op, e.Taxon)
	if e.Subject != "" {
		msg = fmt.Sprintf("%s %q", msg, e.Subject)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	for _, d := range e.Diagnostics {
		msg += "\n  - " + d
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is this error's taxon, so errors.Is(err,
// ErrNotFound) works without unwrapping the whole chain by hand.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Taxon, target)
}

// NewError constructs a tagged *Error. err may be nil.
func NewError(taxon error, op, subject string, err error, diagnostics ...string) *Error {
	return &Error{Taxon: taxon, Op: op, Subject: subject, Err: err, Diagnostics: diagnostics}
}

func Originf(op, subject string, err error) *Error {
	return NewError(ErrOrigin, op, subject, err)
}

func Validationf(op, subject string, diagnostics ...string) *Error {
	return NewError(ErrValidation, op, subject, nil, diagnostics...)
}

func Collisionf(op, subject string) *Error {
	return NewError(ErrCollision, op, subject, nil)
}

func NotFoundf(op, subject string) *Error {
	return NewError(ErrNotFound, op, subject, nil)
}

func PermissionDeniedf(op, subject string) *Error {
	return NewError(ErrPermissionDenied, op, subject, nil)
}

func ResourceExceededf(op, subject string) *Error {
	return NewError(ErrResourceExceeded, op, subject, nil)
}

func Cancelledf(op, subject string) *Error {
	return NewError(ErrCancelled, op, subject, nil)
}

func Internalf(op, subject string, err error) *Error {
	return NewError(ErrInternal, op, subject, err)
}
