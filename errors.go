package parcore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned by configuration operations invoked
	// before initialization or after shutdown.
	ErrNotInitialized = errors.New("parcore: not initialized")

	// ErrInvalidParallelism is returned for negative pool sizes.
	ErrInvalidParallelism = errors.New("parcore: invalid parallelism")

	// ErrInvalidTaskCount is returned for negative task counts.
	ErrInvalidTaskCount = errors.New("parcore: invalid number of tasks")
)

// An ExecutionFailedError reports that a caller-supplied action, computation,
// or range function returned an error.
type ExecutionFailedError struct {
	Cause error
}

func (e *ExecutionFailedError) Error() string {
	return fmt.Sprintf("execution failed: %v", e.Cause)
}

func (e *ExecutionFailedError) Unwrap() error {
	return e.Cause
}

// Failed wraps err in an *ExecutionFailedError, unless err is nil or already
// is one, in which case it is returned unchanged.
func Failed(err error) error {
	if err == nil {
		return nil
	}
	var failed *ExecutionFailedError
	if errors.As(err, &failed) {
		return err
	}
	return &ExecutionFailedError{Cause: err}
}

// FirstFailure returns the left-most non-nil error in errs, wrapped with
// Failed.
func FirstFailure(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return Failed(err)
		}
	}
	return nil
}
