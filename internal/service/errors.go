package service

import (
	"errors"
	"fmt"
)

// Closed error taxonomy of the registry. Codes are stable and exposed to clients.
var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrInvalidTaskData      = errors.New("invalid task data")
	ErrUnauthorized         = errors.New("caller is not the task owner")
	ErrTaskAlreadyCompleted = errors.New("task already completed")

	// ErrTaskNotPending is raised when a task can no longer be modified. It
	// matches ErrTaskAlreadyCompleted so existing callers keep seeing code 4.
	ErrTaskNotPending = fmt.Errorf("task is not pending: %w", ErrTaskAlreadyCompleted)

	ErrIDSpaceExhausted = errors.New("task id space exhausted")
)

const (
	CodeTaskNotFound         = 1
	CodeInvalidTaskData      = 2
	CodeUnauthorized         = 3
	CodeTaskAlreadyCompleted = 4
)

// Code returns the taxonomy code of err, or 0 when err is outside it.
func Code(err error) int {
	switch {
	case errors.Is(err, ErrTaskNotFound):
		return CodeTaskNotFound
	case errors.Is(err, ErrInvalidTaskData):
		return CodeInvalidTaskData
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrTaskAlreadyCompleted):
		return CodeTaskAlreadyCompleted
	default:
		return 0
	}
}
