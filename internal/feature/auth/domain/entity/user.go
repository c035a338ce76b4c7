// Package entity defines the domain entities for the auth feature.
package entity

import (
	"net/mail"
	"strings"
	"time"
)

// MinPasswordLength is the shortest password accepted for any account.
const MinPasswordLength = 6

// User represents a registered account of the marketplace.
// It contains authentication credentials and profile metadata.
type User struct {
	// ID is the opaque unique identifier assigned by the store at creation.
	ID string `gorm:"primaryKey;size:36"`

	// FullName is the display name entered at registration.
	FullName string `gorm:"size:255;not null"`

	// Email is the normalized (trimmed, lower-cased) login identifier.
	// It must be unique across all users.
	Email string `gorm:"uniqueIndex;size:255;not null"`

	// Phone is the contact number entered at registration.
	Phone string `gorm:"size:64;not null"`

	// PasswordHash is the bcrypt hash of the user's password.
	// This never stores plaintext passwords.
	PasswordHash string `gorm:"size:255;not null"`

	// Role decides which routes the user may access.
	Role Role `gorm:"size:32;index;not null;default:student"`

	// IsVerified is never set by any flow of this service.
	IsVerified bool `gorm:"not null;default:false"`

	ProfileImage string `gorm:"size:512;not null;default:''"`

	// EnrolledCourses holds references to courses owned by the catalog service.
	EnrolledCourses []string `gorm:"serializer:json;type:text"`

	AgreedToTerms bool `gorm:"not null"`
	TermsAgreedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserUpdate carries a partial update of a user record.
// Nil fields are left untouched.
type UserUpdate struct {
	FullName     *string
	Email        *string
	Phone        *string
	PasswordHash *string
	Role         *Role
}

// IsEmpty reports whether the update changes nothing.
func (u UserUpdate) IsEmpty() bool {
	return u.FullName == nil && u.Email == nil && u.Phone == nil && u.PasswordHash == nil && u.Role == nil
}

// NormalizeEmail trims surrounding whitespace and lower-cases the address.
// Every lookup and every write goes through it, which makes email
// comparison case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email is a bare address such as "a@example.com".
// Display-name forms like "Bob <bob@example.com>" are rejected so the stored
// key is always the address itself.
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return false
	}
	return addr.Name == "" && addr.Address == email
}

// ValidPassword reports whether password is long enough.
func ValidPassword(password string) bool {
	return len(password) >= MinPasswordLength
}
