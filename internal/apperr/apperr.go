// Package apperr defines the failure kinds the costing engine reports to its
// callers. Callers match kinds with errors.Is.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrCycleDetected   = errors.New("cycle detected")
	ErrDataIntegrity   = errors.New("data integrity fault")
)

// Error attaches a message to one of the sentinel kinds.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func InvalidArgument(format string, args ...any) error {
	return newf(ErrInvalidArgument, format, args...)
}

func NotFound(format string, args ...any) error {
	return newf(ErrNotFound, format, args...)
}

func Conflict(format string, args ...any) error {
	return newf(ErrConflict, format, args...)
}

func DataIntegrity(format string, args ...any) error {
	return newf(ErrDataIntegrity, format, args...)
}

// CycleError reports a dish that was reached again while it was still being
// evaluated. Path lists the dishes on the recursion path, ending with DishID.
type CycleError struct {
	DishID string
	Path   []string
}

func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("%s: dish %s", ErrCycleDetected, e.DishID)
	}
	return fmt.Sprintf("%s: dish %s (%s)", ErrCycleDetected, e.DishID, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error {
	return ErrCycleDetected
}

// Message returns the caller-facing text of err without the kind prefix when
// err carries one.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return err.Error()
}
