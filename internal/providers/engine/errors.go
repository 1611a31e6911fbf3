package engine

import (
	"errors"
	"fmt"
	"time"
)

// LaunchError means the engine process could not be started.
type LaunchError struct {
	Command string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// TimeoutError means the engine was killed after exceeding its wall-clock budget.
type TimeoutError struct {
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("engine timed out after %s", e.Timeout)
}

// CapacityError means the engine was killed after its stdout outgrew the buffer.
type CapacityError struct {
	Limit int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("engine response exceeded maximum buffer size of %d bytes", e.Limit)
}

// ExitError carries the exit code and stderr of a failed engine run.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("engine exited with code %d\n%s", e.Code, e.Stderr)
}

// Kind classifies err for logs and activity entries.
func Kind(err error) string {
	var (
		launchErr   *LaunchError
		timeoutErr  *TimeoutError
		capacityErr *CapacityError
		exitErr     *ExitError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &launchErr):
		return "launch"
	case errors.As(err, &timeoutErr):
		return "timeout"
	case errors.As(err, &capacityErr):
		return "capacity"
	case errors.As(err, &exitErr):
		return "exit"
	default:
		return "other"
	}
}

func IsTimeout(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}
