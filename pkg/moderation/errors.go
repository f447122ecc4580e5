package moderation

import (
	"errors"
	"fmt"
)

// Errors returned by Executor implementations
var (
	ErrPermissionDenied = errors.New("missing permissions")
	ErrNotFound         = errors.New("target not found")
)

// ErrNotConfigured marks an optional side effect skipped because the guild
// has not configured it (mute role, log channel). Never returned to callers.
var ErrNotConfigured = errors.New("not configured")

// ErrExpiredOrNotFound is wrapped by every lookup miss
var ErrExpiredOrNotFound = errors.New("expired or not found")

var (
	ErrWarningNotFound = fmt.Errorf("warning %w", ErrExpiredOrNotFound)
	ErrReasonNotFound  = fmt.Errorf("warn reason %w", ErrExpiredOrNotFound)
	ErrRuleNotFound    = fmt.Errorf("punishment %w", ErrExpiredOrNotFound)
)

// ValidationError rejects a request before anything is mutated
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Message
}

// ActionDeniedError reports an executor failure. Warnings already recorded
// are kept.
type ActionDeniedError struct {
	Action string
	UserID string
	Err    error
}

func (e *ActionDeniedError) Error() string {
	return fmt.Sprintf("%s on %s denied: %v", e.Action, e.UserID, e.Err)
}

func (e *ActionDeniedError) Unwrap() error {
	return e.Err
}

func denied(action Action, userID string, err error) error {
	return &ActionDeniedError{Action: string(action), UserID: userID, Err: err}
}
