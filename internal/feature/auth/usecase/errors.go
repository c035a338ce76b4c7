package usecase

import (
	"errors"
	"fmt"

	"marketplace_backend/internal/feature/auth/domain"
)

var (
	// ErrValidation is returned when required input is missing or malformed.
	ErrValidation = errors.New("validation error")

	// ErrUserNotFound is returned when a user cannot be found by email or ID.
	ErrUserNotFound = domain.ErrUserNotFound

	// ErrDuplicateEmail is returned when an email is already held by another user.
	ErrDuplicateEmail = domain.ErrDuplicateEmail

	// ErrInvalidCredentials is returned when authentication with email and password fails.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailNotRegistered and ErrInvalidPassword tell the two login failure
	// causes apart in server logs. Both match ErrInvalidCredentials.
	ErrEmailNotRegistered = fmt.Errorf("%w: email not registered", ErrInvalidCredentials)
	ErrInvalidPassword    = fmt.Errorf("%w: invalid password", ErrInvalidCredentials)

	// ErrIncorrectCurrentPassword is returned by UpdateProfile when the
	// current password does not verify.
	ErrIncorrectCurrentPassword = fmt.Errorf("%w: current password is incorrect", ErrInvalidCredentials)

	// ErrNotAdmin is returned by AdminLogin for a correct password on a non-admin account.
	ErrNotAdmin = fmt.Errorf("%w: account is not an admin", ErrInvalidCredentials)

	// ErrUnauthorized is returned when a bearer token is missing or fails verification.
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError describes which input was rejected. It matches ErrValidation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func validationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
