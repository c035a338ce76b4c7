// Package domain defines domain-level errors for the auth feature.
package domain

import "errors"

// Store errors shared by every feature that reads or writes user records.
// Repository implementations translate driver errors into these.
var (
	// ErrUserNotFound indicates that no user matched the given email or ID.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateEmail indicates that the email is already held by another user.
	// It is raised by the store's unique index, so it also covers two
	// registrations racing past the application-level existence check.
	ErrDuplicateEmail = errors.New("user with this email already exists")
)
