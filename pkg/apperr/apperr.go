// Package apperr defines the application error taxonomy. Services return these;
// the HTTP layer maps them onto the response envelope without string matching.
package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Kind คือประเภทของ error
type Kind string

const (
	KindValidation   Kind = "validation"
	KindHierarchy    Kind = "hierarchy"
	KindNotFound     Kind = "not_found"
	KindForbidden    Kind = "forbidden"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindRateLimited  Kind = "rate_limited"
)

// Machine-readable reason codes carried in the response envelope.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidHierarchy   = "INVALID_HIERARCHY"
	CodeNotFound           = "NOT_FOUND"
	CodeForbidden          = "FORBIDDEN"
	CodeEmailTaken         = "EMAIL_TAKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeDeactivated        = "ACCOUNT_DEACTIVATED"
	CodeRateLimited        = "RATE_LIMITED"
)

type Error struct {
	Kind    Kind
	Code    string
	Message string

	// Fields holds per-field messages for validation errors.
	Fields map[string]string

	// RetryAfter (seconds) is set for rate-limit errors.
	RetryAfter int
}

func (e *Error) Error() string {
	return e.Message
}

// Status maps the error kind onto an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation, KindHierarchy:
		return fiber.StatusUnprocessableEntity
	case KindNotFound:
		return fiber.StatusNotFound
	case KindForbidden:
		return fiber.StatusForbidden
	case KindConflict:
		return fiber.StatusConflict
	case KindUnauthorized:
		return fiber.StatusUnauthorized
	case KindRateLimited:
		return fiber.StatusTooManyRequests
	default:
		return fiber.StatusInternalServerError
	}
}

// ========== Constructors ==========

func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidation, Message: "validation failed", Fields: fields}
}

func ValidationField(field, message string) *Error {
	return Validation(map[string]string{field: message})
}

func Hierarchy(message string) *Error {
	return &Error{Kind: KindHierarchy, Code: CodeInvalidHierarchy, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Code: CodeForbidden, Message: message}
}

// Deactivated — soft-deleted account; 403 แต่ code แยกจาก FORBIDDEN ปกติ
func Deactivated() *Error {
	return &Error{Kind: KindForbidden, Code: CodeDeactivated, Message: "account is deactivated"}
}

func Conflict(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

func Unauthorized(code, message string) *Error {
	return &Error{Kind: KindUnauthorized, Code: code, Message: message}
}

func RateLimited(retryAfter int) *Error {
	return &Error{
		Kind:       KindRateLimited,
		Code:       CodeRateLimited,
		Message:    "too many attempts, slow down",
		RetryAfter: retryAfter,
	}
}

// ========== Inspection helpers ==========

// From extracts an *Error from err, or nil if err is not an application error.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return nil
}

func IsKind(err error, kind Kind) bool {
	if e := From(err); e != nil {
		return e.Kind == kind
	}
	return false
}

func IsNotFound(err error) bool  { return IsKind(err, KindNotFound) }
func IsForbidden(err error) bool { return IsKind(err, KindForbidden) }
func IsHierarchy(err error) bool { return IsKind(err, KindHierarchy) }
