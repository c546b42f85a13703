package utils

import (
	"errors"
	"fmt"
)

// AppError wraps an operation, the artifact or resource involved, a human-facing message and
// the underlying error.
type AppError struct {
	Op       string
	Resource string
	Msg      string
	Err      error
}

func (e *AppError) Error() string {
	prefix := e.Op
	if e.Resource != "" {
		prefix = fmt.Sprintf("%s %s", e.Op, e.Resource)
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", prefix, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %v", prefix, e.Msg, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError constructs an AppError without a resource.
func NewAppError(op, msg string, err error) error {
	return &AppError{Op: op, Msg: msg, Err: err}
}

// NewResourceError constructs an AppError naming the resource that failed.
func NewResourceError(op, resource, msg string, err error) error {
	return &AppError{Op: op, Resource: resource, Msg: msg, Err: err}
}

// UserMessage returns the human-facing message of the first AppError in err's chain, or the
// error text when there is none.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Resource != "" {
			return fmt.Sprintf("%s (%s)", appErr.Msg, appErr.Resource)
		}
		return appErr.Msg
	}
	return err.Error()
}
