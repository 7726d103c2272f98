package services

import (
	"net/http"

	"go.uber.org/zap"
)

// ErrorKind classifies a failed operation.
type ErrorKind string

const (
	KindNotFound          ErrorKind = "not_found"
	KindForbidden         ErrorKind = "forbidden"
	KindInvalidState      ErrorKind = "invalid_state"
	KindValidationFailure ErrorKind = "validation_failure"
	KindConflict          ErrorKind = "conflict"
	KindUnexpected        ErrorKind = "unexpected"
)

// Machine readable codes so clients can tell "wrong status" from "not yours"
// from "already done".
const (
	CodeNotFound          = "not_found"
	CodeNotOwner          = "not_owner"
	CodeWrongStatus       = "wrong_status"
	CodeAlreadyFinalized  = "already_finalized"
	CodeAlreadyReviewed   = "already_reviewed"
	CodeInvalidTransition = "invalid_transition"
	CodeStaleState        = "stale_state"
	CodeInvalidInput      = "invalid_input"
	CodeInProgress        = "request_in_progress"
	CodeInternal          = "internal_error"
)

// ServiceError represents a typed error with an HTTP status code.
type ServiceError struct {
	Kind       ErrorKind
	StatusCode int
	Code       string
	Message    string
	// Err is the underlying cause of an unexpected failure. It is logged and
	// never rendered to clients.
	Err error
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func newNotFound(msg string) *ServiceError {
	return &ServiceError{Kind: KindNotFound, StatusCode: http.StatusNotFound, Code: CodeNotFound, Message: msg}
}

func newForbidden(msg string) *ServiceError {
	return &ServiceError{Kind: KindForbidden, StatusCode: http.StatusForbidden, Code: CodeNotOwner, Message: msg}
}

func newInvalidState(code, msg string) *ServiceError {
	return &ServiceError{Kind: KindInvalidState, StatusCode: http.StatusUnprocessableEntity, Code: code, Message: msg}
}

func newValidationFailure(msg string) *ServiceError {
	return newValidationFailureCode(CodeInvalidInput, msg)
}

func newValidationFailureCode(code, msg string) *ServiceError {
	return &ServiceError{Kind: KindValidationFailure, StatusCode: http.StatusBadRequest, Code: code, Message: msg}
}

func newConflict(code, msg string) *ServiceError {
	return &ServiceError{Kind: KindConflict, StatusCode: http.StatusConflict, Code: code, Message: msg}
}

// newUnexpected logs the cause and returns a generic error that leaks no
// internal detail.
func newUnexpected(logger *zap.Logger, msg string, err error, fields ...zap.Field) *ServiceError {
	logger.Error(msg, append(fields, zap.Error(err))...)
	return &ServiceError{
		Kind:       KindUnexpected,
		StatusCode: http.StatusInternalServerError,
		Code:       CodeInternal,
		Message:    "Internal server error",
		Err:        err,
	}
}
