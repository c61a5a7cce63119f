package cache

import (
	"fmt"

	"github.com/dnovak/webscout/pkg/failure"
)

type ErrorCause string

const (
	ErrCauseWriteFailure  ErrorCause = "write failed"
	ErrCauseEncodeFailure ErrorCause = "encode failed"
)

// Error is raised only on set; per spec.md §4.D, write failures are logged
// and ignored by callers - a cache miss is always survivable, so Error
// exists for observability, not control flow.
type Error struct {
	Message string
	Cause   ErrorCause
}

func (e *Error) Error() string {
	return fmt.Sprintf("cache error: %s", e.Cause)
}

func (e *Error) Severity() failure.Severity {
	return failure.SeverityRecoverable
}
