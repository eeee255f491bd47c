package feedsync

import (
	"context"
	"errors"
	"fmt"
)

// Error codes for the sync layer. Nothing here is fatal; the worst
// outcome is a stale list that a manual refresh corrects.
const (
	CodeTransient   = "TRANSIENT"
	CodeRateLimited = "RATE_LIMITED"
	CodeNotFound    = "NOT_FOUND"
	CodeAborted     = "ABORTED"
)

// SyncError is a classified failure of a remote feed operation.
type SyncError struct {
	Code    string
	Message string
	Err     error
}

func (e *SyncError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps a recoverable network or server failure.
func NewTransientError(err error) *SyncError {
	return &SyncError{
		Code:    CodeTransient,
		Message: "Something went wrong, please try again",
		Err:     err,
	}
}

// NewRateLimitedError marks a 429-style rejection. Callers revert
// optimistic state but present a softer message.
func NewRateLimitedError() *SyncError {
	return &SyncError{
		Code:    CodeRateLimited,
		Message: "You're doing that too fast, please wait a moment",
	}
}

// NewNotFoundError marks a race lost to a remote deletion.
func NewNotFoundError(itemID string) *SyncError {
	return &SyncError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("Item %s no longer exists", itemID),
	}
}

// NewAbortedError marks a request superseded by navigation, unmount or
// a filter change. Never surfaced to the user.
func NewAbortedError(err error) *SyncError {
	return &SyncError{
		Code:    CodeAborted,
		Message: "request aborted",
		Err:     err,
	}
}

func codeOf(err error) string {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Code
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return CodeAborted
	}
	return CodeTransient
}

// IsRateLimited reports whether err is a rate-limit rejection.
func IsRateLimited(err error) bool {
	return codeOf(err) == CodeRateLimited
}

// IsAborted reports whether err represents a superseded request rather
// than a real failure.
func IsAborted(err error) bool {
	return codeOf(err) == CodeAborted
}

// IsNotFound reports whether err means the target item is gone.
func IsNotFound(err error) bool {
	return codeOf(err) == CodeNotFound
}

// userMessage converts err into the dismissible message shown to the user.
func userMessage(err error) string {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Message
	}
	return NewTransientError(err).Message
}
