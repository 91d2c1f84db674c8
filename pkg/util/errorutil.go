package util

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Error codes shared by services and the HTTP layer.
const (
	CodeValidation   = "VALIDATION_FAILED"
	CodeInvalidID    = "INVALID_ID"
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// FieldViolation names one field that failed validation and why.
type FieldViolation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

// NewFieldValidationError reports every violated field in a single error.
func NewFieldValidationError(violations []FieldViolation) error {
	return NewDomainError(CodeValidation, "validation failed", http.StatusBadRequest, map[string]any{
		"fields": violations,
	})
}

// Violations returns the field list carried by a validation error.
func Violations(err error) []FieldViolation {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) || domainErr.Code != CodeValidation {
		return nil
	}
	fields, _ := domainErr.Details["fields"].([]FieldViolation)
	return fields
}

func NewInvalidID(resource, id string) error {
	return NewDomainError(CodeInvalidID, fmt.Sprintf("invalid %s id", resource), http.StatusBadRequest, map[string]any{
		"id": id,
	})
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

func NewForbidden(message string) error {
	return NewDomainError(CodeForbidden, message, http.StatusForbidden, nil)
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewPersistenceError logs a storage fault with its detail and returns an
// opaque INTERNAL_ERROR for the caller.
func NewPersistenceError(logger *zap.Logger, op string, err error) error {
	if logger != nil {
		logger.Error("persistence failure", zap.String("op", op), zap.Error(err))
	}
	return NewInternalError(fmt.Errorf("%s: %w", op, err))
}

// HasCode reports whether err is a DomainError carrying code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
