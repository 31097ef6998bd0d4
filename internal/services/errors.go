package services

import (
	"errors"

	apperrors "github.com/catprep/mocktest-service/internal/errors"
	"github.com/catprep/mocktest-service/internal/session"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrConflict         = errors.New("resource conflict")

	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")

	// Test content errors
	ErrTestNotFound = errors.New("test not found")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionNotOwned = errors.New("session belongs to another user")
	ErrNoActiveSession = errors.New("no active session for user")
	ErrNoAttempts      = errors.New("no completed attempts for user")
)

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// ===== ERROR HELPERS =====

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrTestNotFound) ||
		errors.Is(err, ErrNoAttempts) ||
		errors.Is(err, ErrNoActiveSession) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, session.ErrSessionNotFound) ||
		errors.Is(err, session.ErrTestNotFound) ||
		errors.Is(err, session.ErrQuestionNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrInvalidToken) ||
		errors.Is(err, ErrSessionNotOwned) ||
		errors.Is(err, session.ErrSessionNotOwned)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, session.ErrInvalidIndex) ||
		errors.Is(err, session.ErrUnknownSection) ||
		errors.Is(err, session.ErrInvalidFlagColor) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrUsernameTaken) ||
		errors.Is(err, session.ErrAlreadySubmitted) ||
		errors.Is(err, session.ErrSessionPaused) ||
		errors.Is(err, session.ErrSessionNotPaused)
}
