package kvs

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes store errors.
type ErrorCode string

const (
	// ErrCodeKeyNotFound indicates the key exists in neither the working
	// data nor the defaults.
	ErrCodeKeyNotFound ErrorCode = "KEY_NOT_FOUND"

	// ErrCodeKeyDefaultNotFound indicates no default value exists for the key.
	ErrCodeKeyDefaultNotFound ErrorCode = "KEY_DEFAULT_NOT_FOUND"

	// ErrCodeInvalidSnapshotID indicates the snapshot identifier is out of
	// the restorable range.
	ErrCodeInvalidSnapshotID ErrorCode = "INVALID_SNAPSHOT_ID"

	// ErrCodeValidationFailed indicates a snapshot's data did not match its
	// recorded checksum.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"

	// ErrCodeFileNotFound indicates a required file is missing.
	ErrCodeFileNotFound ErrorCode = "FILE_NOT_FOUND"

	// ErrCodeParseError indicates a store or defaults file could not be parsed.
	ErrCodeParseError ErrorCode = "PARSE_ERROR"

	// ErrCodePhysicalStorage indicates an I/O failure underneath the store.
	ErrCodePhysicalStorage ErrorCode = "PHYSICAL_STORAGE_FAILURE"
)

// StoreError is a classified store error.
type StoreError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Key is the affected key, when the error concerns one.
	Key string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	switch {
	case e.Key != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s (key=%s): %v", e.Code, e.Message, e.Key, e.Err)
	case e.Key != "":
		return fmt.Sprintf("%s: %s (key=%s)", e.Code, e.Message, e.Key)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying cause.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// CodeOf extracts the error code from an error chain.
// Returns the empty code if err is not a StoreError.
func CodeOf(err error) ErrorCode {
	var se *StoreError
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

// IsKeyNotFound reports whether err is a key-not-found store error.
func IsKeyNotFound(err error) bool {
	return CodeOf(err) == ErrCodeKeyNotFound
}

func keyNotFound(key string) *StoreError {
	return &StoreError{Code: ErrCodeKeyNotFound, Message: "key not found", Key: key}
}

func defaultNotFound(key string) *StoreError {
	return &StoreError{Code: ErrCodeKeyDefaultNotFound, Message: "no default value for key", Key: key}
}
