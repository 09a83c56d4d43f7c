package model

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrPastDate          = errors.New("date is in the past")
	ErrWeekOff           = errors.New("doctor is off on this date")
	ErrSlotConflict      = errors.New("time slot already booked")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidState      = errors.New("operation not allowed in current state")
	ErrStore             = errors.New("store unavailable")
)

// StoreError wraps a failure of the persistence collaborator. Nothing the
// failed call attempted is considered committed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStore }

func NewStoreError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
