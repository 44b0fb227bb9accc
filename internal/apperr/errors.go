// Package apperr defines the error kinds shared by every domain package.
// Domain code wraps a sentinel with context (fmt.Errorf("%w: ...", ErrX));
// the HTTP layer inspects kinds with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrNotFound            = errors.New("not found")
	ErrCapacityExceeded    = errors.New("capacity exceeded")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrDiscountCodeInvalid = errors.New("discount code invalid")
	ErrConflict            = errors.New("conflict")
	ErrStateTransition     = errors.New("invalid state transition")
	ErrForbidden           = errors.New("forbidden")
)

func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NotFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

func Conflict(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func Forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

func Transition(from, to string) error {
	return fmt.Errorf("%w: %s -> %s", ErrStateTransition, from, to)
}

// CapacityError is returned when a schedule is full. NextPosition is the
// waitlist position the caller would take if they enrolled now.
type CapacityError struct {
	ScheduleID   int
	Capacity     int
	NextPosition int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("schedule %d is at capacity (%d)", e.ScheduleID, e.Capacity)
}

func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}

func IsNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool   { return errors.Is(err, ErrConflict) }
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }
