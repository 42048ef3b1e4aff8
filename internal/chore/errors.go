package chore

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyCompleted   = errors.New("task instance already completed")
	ErrNotAuthorized      = errors.New("person is not assigned to this task instance")
	ErrPrimaryIncomplete  = errors.New("primary tasks for the day must be completed first")
	ErrInvalidRecurrence  = errors.New("invalid recurrence")
	ErrInvalidRange       = errors.New("invalid date range")
	ErrInvalidInput       = errors.New("invalid input")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// storageErr marks err as a storage failure while keeping the cause reachable
// through errors.Is and errors.As.
func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
}
