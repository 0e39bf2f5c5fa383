package models

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("already exists")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrAttemptsExceeded = errors.New("login attempts exceeded, reset your password")

	ErrAlreadyVerified = fmt.Errorf("user is already verified: %w", ErrConflict)
	ErrAlreadyAdded    = fmt.Errorf("friend request already sent: %w", ErrConflict)
	ErrAlreadyAccepted = fmt.Errorf("friend request already accepted: %w", ErrConflict)
)

// IncorrectPasswordError reports a failed login and how many attempts remain.
type IncorrectPasswordError struct {
	Remaining int
}

func (e *IncorrectPasswordError) Error() string {
	return fmt.Sprintf("incorrect password, %d attempts remaining", e.Remaining)
}

// ValidationError wraps ErrValidation with a readable reason.
func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
