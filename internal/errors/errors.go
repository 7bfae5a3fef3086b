// Package errors defines the relay's error taxonomy. Every error that crosses a
// component boundary carries one of the codes below so HTTP handlers and the CLI
// can classify it without string matching.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes.
const (
	CodeUnknown           = "UNKNOWN"
	CodeMissingCredential = "MISSING_CREDENTIAL"
	CodeMissingIdentifier = "MISSING_IDENTIFIER"
	CodeInvalidIdentifier = "INVALID_IDENTIFIER"
	CodeUpstreamRejected  = "UPSTREAM_REJECTED"
	CodeTransportFailure  = "TRANSPORT_FAILURE"
	CodeValidation        = "VALIDATION"
	CodeStore             = "STORE"
)

// Sentinels for errors.Is. Matching is by code, so any *Error with the same
// code satisfies errors.Is against these.
var (
	ErrMissingCredential = &Error{code: CodeMissingCredential, message: "telegram bot token is missing"}
	ErrMissingIdentifier = &Error{code: CodeMissingIdentifier, message: "chat id is missing"}
	ErrInvalidIdentifier = &Error{code: CodeInvalidIdentifier, message: "chat id looks invalid"}
	ErrUpstreamRejected  = &Error{code: CodeUpstreamRejected, message: "telegram api rejected the request"}
	ErrTransportFailure  = &Error{code: CodeTransportFailure, message: "network error"}
)

// ApplicationError is implemented by every error in this package.
type ApplicationError interface {
	error
	Code() string
	Unwrap() error
}

// Error is the basic coded error.
type Error struct {
	code    string
	message string
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.message, e.err)
	}
	return e.message
}

func (e *Error) Code() string {
	return e.code
}

func (e *Error) Unwrap() error {
	return e.err
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.code == e.code
	}
	return false
}

// New returns a coded error with a message and optional cause.
func New(code, message string, cause error) error {
	return &Error{code: code, message: message, err: cause}
}

// Code returns the code of the first ApplicationError in err's chain,
// or CodeUnknown if there is none.
func Code(err error) string {
	var appErr ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Code()
	}
	return CodeUnknown
}

// MissingIdentifier reports an absent chat id with a caller-facing hint.
func MissingIdentifier(hint string) error {
	return &Error{code: CodeMissingIdentifier, message: hint}
}

// InvalidIdentifier reports a chat id that failed the plausibility check.
func InvalidIdentifier(raw string) error {
	return &Error{
		code: CodeInvalidIdentifier,
		message: fmt.Sprintf("chat id %q looks invalid; open a DM with your bot, send any message, "+
			"then use chat discovery to grab the numeric id", raw),
	}
}

// Validation wraps a request or config validation failure.
func Validation(message string, cause error) error {
	return &Error{code: CodeValidation, message: message, err: cause}
}

// Store wraps a message store failure.
func Store(message string, cause error) error {
	return &Error{code: CodeStore, message: message, err: cause}
}

// UpstreamError is a non-acknowledged Telegram API response.
type UpstreamError struct {
	Method      string
	Status      int
	StatusText  string
	Description string
	ErrorCode   int
}

func (e *UpstreamError) Error() string {
	if e.Description != "" {
		return e.Description
	}
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.StatusText)
}

func (e *UpstreamError) Code() string {
	return CodeUpstreamRejected
}

func (e *UpstreamError) Unwrap() error {
	return nil
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamRejected
}

// TransportError is a network, timeout or decoding failure talking to Telegram.
type TransportError struct {
	Method string
	Err    error
}

func (e *TransportError) Error() string {
	return "Network error: " + e.Err.Error()
}

func (e *TransportError) Code() string {
	return CodeTransportFailure
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransportFailure
}

// HTTPStatus maps an error to the status code handlers answer with.
// upstreamStatus is used for upstream and transport failures, since some
// routes report those as 200 with success=false and others as 502.
func HTTPStatus(err error, upstreamStatus int) int {
	switch Code(err) {
	case CodeMissingCredential, CodeMissingIdentifier, CodeInvalidIdentifier, CodeValidation:
		return http.StatusBadRequest
	case CodeUpstreamRejected, CodeTransportFailure:
		return upstreamStatus
	default:
		return http.StatusInternalServerError
	}
}
