// Package errors defines the error taxonomy shared by the repository, import and HTTP layers.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode classifies an AppError.
type ErrorCode string

const (
	ErrInternal    ErrorCode = "INTERNAL_ERROR"
	ErrValidation  ErrorCode = "VALIDATION_ERROR"
	ErrDuplicate   ErrorCode = "DUPLICATE"
	ErrNotFound    ErrorCode = "NOT_FOUND"
	ErrPermission  ErrorCode = "PERMISSION_DENIED"
	ErrUnsupported ErrorCode = "UNSUPPORTED_MEDIA_TYPE"
)

// AppError carries a code, a user-facing message and optional field-level messages.
type AppError struct {
	Code    ErrorCode
	Message string
	Fields  map[string]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func Wrap(code ErrorCode, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// Validation builds a VALIDATION_ERROR holding one message per offending field.
func Validation(message string, fields map[string]string) *AppError {
	return &AppError{Code: ErrValidation, Message: message, Fields: fields}
}

func NotFound(what string) *AppError {
	return New(ErrNotFound, what+" not found")
}

// CodeOf returns the code of the first AppError in err's chain, or ErrInternal.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrInternal
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

// As is re-exported so callers importing this package under the name "errors" keep access to it.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}
