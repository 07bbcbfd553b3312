package engine

import (
	"errors"
	"fmt"
)

// ConflictError reports an optimistic-concurrency loss: another writer
// committed a version between this writer's read and its write. All three
// race windows (stale read, lost version-row insert, lost pointer update)
// surface as the same error — callers never need to distinguish them.
//
// Conflict is a data condition, not a defect. The remedy is always the
// same: re-read the latest version, re-decide, retry with the fresh base.
type ConflictError struct {
	TimelineID  string
	BaseVersion int64
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	return fmt.Sprintf("CONFLICT: timeline %s moved past base version %d", e.TimelineID, e.BaseVersion)
}

// IsConflict returns true if the error is an optimistic-concurrency loss.
// Uses errors.As to handle wrapped errors.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// BatchErrorCode categorizes batch application failures.
type BatchErrorCode string

const (
	// ErrCodeBatchTooLarge indicates the batch exceeds the
	// commands-per-call ceiling. Rejected before any I/O.
	ErrCodeBatchTooLarge BatchErrorCode = "BATCH_TOO_LARGE"

	// ErrCodeTurnBudgetExhausted indicates the per-turn tool-call budget
	// was already spent. Rejected before any I/O.
	ErrCodeTurnBudgetExhausted BatchErrorCode = "TURN_BUDGET_EXHAUSTED"

	// ErrCodeCommandRejected indicates a command in the batch was a no-op
	// against the shared snapshot; the whole batch is abandoned unwritten.
	ErrCodeCommandRejected BatchErrorCode = "COMMAND_REJECTED"

	// ErrCodeRetryExhausted indicates both the original attempt and the
	// single automatic retry lost their race. A human decides what's next.
	ErrCodeRetryExhausted BatchErrorCode = "CONFLICT_RETRY_EXHAUSTED"
)

// BatchError reports why a command batch was not persisted. Nothing from a
// failed batch is ever written — partial application does not exist.
type BatchError struct {
	Code    BatchErrorCode
	Message string

	// Index and Command identify the rejected command for
	// ErrCodeCommandRejected.
	Index   int
	Command CommandType

	// Err carries the underlying conflict for ErrCodeRetryExhausted.
	Err error
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	if e.Code == ErrCodeCommandRejected {
		return fmt.Sprintf("%s: command %d (%s) %s", e.Code, e.Index, e.Command, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying error, if any.
func (e *BatchError) Unwrap() error {
	return e.Err
}

// IsBatchError returns true if the error is a BatchError with the given
// code. Uses errors.As to handle wrapped errors.
func IsBatchError(err error, code BatchErrorCode) bool {
	var be *BatchError
	return errors.As(err, &be) && be.Code == code
}
