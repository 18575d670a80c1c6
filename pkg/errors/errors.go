package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code is the stable, client-facing error identifier.
type Code string

const (
	CodeValidation      Code = "VALIDATION_ERROR"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodeAlreadyFinished Code = "ALREADY_FINISHED"
	CodeGateViolation   Code = "GATE_VIOLATION"
	CodeStateConflict   Code = "STATE_CONFLICT"
	CodeStore           Code = "STORE_ERROR"
	CodeInternal        Code = "INTERNAL_ERROR"
	CodeDependency      Code = "DEPENDENCY_ERROR"
)

// Metadata describes how a code is rendered over HTTP. OwnMessage lets the
// error's own message replace PublicMessage.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
	OwnMessage     bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:      {http.StatusBadRequest, false, "validation failed", true, true},
	CodeUnauthorized:    {http.StatusUnauthorized, false, "authentication required", false, true},
	CodeForbidden:       {http.StatusForbidden, false, "access denied", false, false},
	CodeNotFound:        {http.StatusNotFound, false, "resource not found", false, true},
	CodeConflict:        {http.StatusConflict, false, "conflict detected", false, true},
	CodeAlreadyFinished: {http.StatusConflict, false, "stage already finished", true, true},
	CodeGateViolation:   {http.StatusBadRequest, false, "shipment gate closed", true, true},
	CodeStateConflict:   {http.StatusUnprocessableEntity, false, "state transition disallowed", true, true},
	CodeStore:           {http.StatusInternalServerError, false, "storage failure", false, false},
	CodeInternal:        {http.StatusInternalServerError, true, "internal server error", false, false},
	CodeDependency:      {http.StatusServiceUnavailable, true, "dependency unavailable", true, false},
}

// MetadataFor falls back to CodeInternal for unknown codes.
func MetadataFor(code Code) Metadata {
	meta, ok := metadataByCode[code]
	if !ok {
		meta = metadataByCode[CodeInternal]
	}
	return meta
}

// Error is a coded failure with an optional cause and client-safe details.
// All methods accept a nil receiver.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches code and message to err. A nil err behaves like New.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

// Store marks a persistence failure; the cause is kept as-is for logging.
func Store(err error, message string) *Error {
	return Wrap(CodeStore, err, message)
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails sets details in place and returns e for chaining.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain, or nil.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// Is reports whether the outermost *Error in err's chain has code.
func Is(err error, code Code) bool {
	if typed := As(err); typed != nil {
		return typed.code == code
	}
	return false
}
