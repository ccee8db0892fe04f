package errors

import (
	"errors"
	"fmt"
)

// Domain errors - Sentinel errors for use with errors.Is()
var (
	ErrNotFound       = errors.New("resource not found")
	ErrBadRequest     = errors.New("bad request")
	ErrConflict       = errors.New("resource already exists")
	ErrInternalServer = errors.New("internal server error")

	// Access-code rejection reasons. Exactly one of these is produced per
	// verification attempt, in check order (missing, invalid, used, expired).
	ErrMissingInput = errors.New("missing email or code")
	ErrInvalidCode  = errors.New("invalid code")
	ErrExpired      = errors.New("code expired")
	ErrUsed         = errors.New("code already used")

	ErrStorage       = errors.New("storage failure")
	ErrNotConfigured = errors.New("collaborator not configured")
)

// AppError carries a machine-readable code alongside a wrapped sentinel.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Constructors
func NotFound(msg string) *AppError {
	return &AppError{Code: "NOT_FOUND", Message: msg, Err: ErrNotFound}
}

func BadRequest(msg string) *AppError {
	return &AppError{Code: "BAD_REQUEST", Message: msg, Err: ErrBadRequest}
}

func Conflict(msg string) *AppError {
	return &AppError{Code: "CONFLICT", Message: msg, Err: ErrConflict}
}

func InternalServer(msg string, err error) *AppError {
	return &AppError{Code: "INTERNAL_SERVER_ERROR", Message: msg, Err: err}
}

func MissingInput(msg string) *AppError {
	return &AppError{Code: "MISSING", Message: msg, Err: ErrMissingInput}
}

func InvalidCode(msg string) *AppError {
	return &AppError{Code: "INVALID", Message: msg, Err: ErrInvalidCode}
}

func Expired(msg string) *AppError {
	return &AppError{Code: "EXPIRED", Message: msg, Err: ErrExpired}
}

func Used(msg string) *AppError {
	return &AppError{Code: "USED", Message: msg, Err: ErrUsed}
}

func Storage(msg string, err error) *AppError {
	return &AppError{Code: "STORAGE", Message: msg, Err: fmt.Errorf("%w: %w", ErrStorage, err)}
}

func NotConfigured(what string) *AppError {
	return &AppError{Code: "NOT_CONFIGURED", Message: what + " is not configured", Err: ErrNotConfigured}
}
