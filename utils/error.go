package utils

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrorRecordNotFound   = errors.New("record not found")
	ErrUnauthenticated    = errors.New("login required")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("duplicate record")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrMissingCredentials = errors.New("please enter both username and password")
)

// ValidationError collects every problem found in one payload.
// Message, when set, replaces the "Missing/invalid: ..." rendering.
type ValidationError struct {
	Problems []string
	Message  string
}

func NewValidationError(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}

// NewRequestError is a ValidationError for a malformed request rather than a bad record.
func NewRequestError(message string) *ValidationError {
	return &ValidationError{Problems: []string{message}, Message: message}
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Missing/invalid: " + strings.Join(e.Problems, ", ")
}

// StorageError wraps a database failure with the operation that hit it.
type StorageError struct {
	Op  string
	Err error
}

func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("DB error: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
