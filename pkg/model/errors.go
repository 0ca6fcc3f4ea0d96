package model

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies failures across the catalog, ledger and notifier.
type ErrorCode string

const (
	CodeNotFound      ErrorCode = "not_found"
	CodeGeneric       ErrorCode = "generic_error"
	CodeAlreadyExists ErrorCode = "already_exists"
	CodeValidation    ErrorCode = "validation"
)

var (
	// ErrNotFound matches any error carrying CodeNotFound.
	ErrNotFound = &Error{Code: CodeNotFound}
	// ErrGeneric matches any error carrying CodeGeneric.
	ErrGeneric = &Error{Code: CodeGeneric}
	// ErrExists matches any error carrying CodeAlreadyExists.
	ErrExists = &Error{Code: CodeAlreadyExists}
	// ErrCanceled is returned when the operation is canceled by the client
	ErrCanceled = errors.New("operation canceled")
)

// Error is a coded application error. The optional Err is the underlying cause
// and is visible to errors.Is/As but never serialized.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message,omitempty"`
	Err     error     `json:"-"`
}

func (e *Error) Error() string {
	msg := string(e.Code)
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports a match on code, so errors.Is(err, model.ErrNotFound) works for
// any not_found error regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func GenericError(message string, cause error) *Error {
	return &Error{Code: CodeGeneric, Message: message, Err: cause}
}

func NotFoundError(message string) *Error {
	return &Error{Code: CodeNotFound, Message: message}
}

func AlreadyExistsError(message string) *Error {
	return &Error{Code: CodeAlreadyExists, Message: message}
}

func ValidationError(message string) *Error {
	return &Error{Code: CodeValidation, Message: message}
}

// CodeOf returns the code of the first *Error in the chain, or CodeGeneric for
// uncoded errors.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeGeneric
}

// ValidationErrors collects field-level validation failures for one request.
type ValidationErrors struct {
	Errors []*Error `json:"errors"`
}

// Add records a failure for the dotted field path.
func (v *ValidationErrors) Add(path, message string) {
	v.Errors = append(v.Errors, ValidationError(fmt.Sprintf("field '%s': %s", path, message)))
}

// Empty reports whether no failures were recorded.
func (v *ValidationErrors) Empty() bool {
	return len(v.Errors) == 0
}

func (v *ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v.Errors))
	for _, e := range v.Errors {
		msgs = append(msgs, e.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// IsCanceled returns true if the error is due to context cancellation or deadline exceeded.
// It checks both direct context errors and wrapped errors (e.g., from MongoDB driver).
func IsCanceled(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, ErrCanceled) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "context canceled") || strings.Contains(errStr, "context deadline exceeded")
}
