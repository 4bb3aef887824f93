// Package base provides the coded error type shared across the engine.
// Every failure that crosses the engine boundary carries a machine code
// plus a human-readable message.
package base

import (
	"errors"
	"fmt"
)

// Code is a machine-readable status code. Zero means success; failures
// are negative.
type Code int

// Status codes returned by engine operations.
const (
	CodeOK                 Code = 0
	CodeUnknown            Code = -1
	CodeCompileError       Code = -2
	CodeRunError           Code = -3
	CodeInvalidOutputShape Code = -4
	CodeInvalidArgument    Code = -5
	CodeNotFound           Code = -6
	CodeUnsupported        Code = -7
)

func (c Code) String() string {
	switch c {
	case CodeOK:
		return "ok"
	case CodeCompileError:
		return "compile error"
	case CodeRunError:
		return "run error"
	case CodeInvalidOutputShape:
		return "invalid output shape"
	case CodeInvalidArgument:
		return "invalid argument"
	case CodeNotFound:
		return "not found"
	case CodeUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Error is a status with a code and message.
type Error struct {
	Code Code
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Msg)
}

// New returns a coded error.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

// Errorf returns a coded error with a formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the status code from an error. A nil error is CodeOK;
// an uncoded error is CodeUnknown.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}
