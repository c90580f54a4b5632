package errors

import (
	"errors"
	"fmt"
)

// Basic error check functions from standard library
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)

// appError implements the Error interface
type appError struct {
	code    ErrorCode
	message string
	err     error
	data    any
}

func (e *appError) Error() string {
	msg := e.message
	if msg == "" {
		msg = GetErrorMessage(e.code)
	}

	if e.data != nil {
		return fmt.Sprintf("%s: %v", msg, e.data)
	}

	if e.err != nil {
		return fmt.Sprintf("%s: %v", msg, e.err)
	}

	return msg
}

func (e *appError) Code() ErrorCode {
	return e.code
}

func (e *appError) WithMessage(msg string) Error {
	return &appError{
		code:    e.code,
		message: msg,
		err:     e.err,
		data:    e.data,
	}
}

func (e *appError) WithData(data any) Error {
	return &appError{
		code:    e.code,
		message: e.message,
		err:     e.err,
		data:    data,
	}
}

func (e *appError) GetData() any {
	return e.data
}

func (e *appError) Unwrap() error {
	return e.err
}

// New creates an error carrying the given code
func New(code ErrorCode) Error {
	return &appError{code: code}
}

// Wrap creates an error carrying the given code and cause
func Wrap(code ErrorCode, err error) Error {
	return &appError{code: code, err: err}
}

// WithMessage creates an error with the given code and a custom message
func WithMessage(code ErrorCode, msg string) Error {
	return &appError{code: code, message: msg}
}

// WithData creates an error with the given code and structured context data
func WithData(code ErrorCode, data any) Error {
	return &appError{code: code, data: data}
}

// HasCode reports whether any error in the chain carries the given code
func HasCode(err error, code ErrorCode) bool {
	for err != nil {
		var domainErr Error
		if errors.As(err, &domainErr) {
			if domainErr.Code() == code {
				return true
			}
			err = domainErr.Unwrap()
			continue
		}
		err = errors.Unwrap(err)
	}

	return false
}
