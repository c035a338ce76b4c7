// Package usecase implements user administration: listing, lookup, deletion
// and provisioning of admin accounts.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace_backend/internal/feature/auth/domain"
	"marketplace_backend/internal/feature/auth/domain/entity"
)

var (
	// ErrUserNotFound is returned when the target user does not exist.
	ErrUserNotFound = domain.ErrUserNotFound

	// ErrInvalidInput is returned when provisioning input is incomplete.
	ErrInvalidInput = errors.New("invalid input")
)

// UserStore abstracts the user persistence operations administration needs.
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type UserStore interface {
	Create(ctx context.Context, user *entity.User) error
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	FindByID(ctx context.Context, id string) (*entity.User, error)
	Update(ctx context.Context, id string, upd entity.UserUpdate) (*entity.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]entity.User, error)
}

// PasswordHasher hashes the password of provisioned admins.
type PasswordHasher interface {
	Hash(plain string) (string, error)
}

// ProvisionInput describes the admin account to create or promote.
type ProvisionInput struct {
	Email    string
	Password string
	FullName string
	Phone    string
}

// AdminUsecase provides business logic for user administration.
type AdminUsecase struct {
	users  UserStore
	hasher PasswordHasher
	now    func() time.Time
}

// NewAdminUsecase creates a new AdminUsecase.
func NewAdminUsecase(users UserStore, hasher PasswordHasher) *AdminUsecase {
	return &AdminUsecase{users: users, hasher: hasher, now: time.Now}
}

// ListUsers returns every user, newest first.
func (u *AdminUsecase) ListUsers(ctx context.Context) ([]entity.User, error) {
	users, err := u.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetUser returns the user with the given id.
func (u *AdminUsecase) GetUser(ctx context.Context, id string) (*entity.User, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrUserNotFound
	}
	return u.users.FindByID(ctx, id)
}

// DeleteUser removes the user permanently. Tokens already issued to the
// user stay valid until they expire, but every handler that loads the
// user from the store will answer 404.
func (u *AdminUsecase) DeleteUser(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrUserNotFound
	}
	return u.users.Delete(ctx, id)
}

// ProvisionAdmin creates an admin account, or promotes the existing account
// holding the email to admin. The password of an existing account is left
// untouched. created reports which of the two happened.
func (u *AdminUsecase) ProvisionAdmin(ctx context.Context, in ProvisionInput) (user *entity.User, created bool, err error) {
	email := entity.NormalizeEmail(in.Email)
	if !entity.ValidEmail(email) {
		return nil, false, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}

	existing, err := u.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role == entity.RoleAdmin {
			return existing, false, nil
		}
		role := entity.RoleAdmin
		promoted, err := u.users.Update(ctx, existing.ID, entity.UserUpdate{Role: &role})
		if err != nil {
			return nil, false, fmt.Errorf("failed to promote user: %w", err)
		}
		return promoted, false, nil
	case !errors.Is(err, ErrUserNotFound):
		return nil, false, fmt.Errorf("failed to look up user: %w", err)
	}

	fullName := strings.TrimSpace(in.FullName)
	if fullName == "" || !entity.ValidPassword(in.Password) {
		return nil, false, fmt.Errorf("%w: name and a password of at least %d characters are required", ErrInvalidInput, entity.MinPasswordLength)
	}

	hashed, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, false, err
	}
	agreedAt := u.now()
	user = &entity.User{
		FullName:      fullName,
		Email:         email,
		Phone:         strings.TrimSpace(in.Phone),
		PasswordHash:  hashed,
		Role:          entity.RoleAdmin,
		AgreedToTerms: true,
		TermsAgreedAt: &agreedAt,
	}
	if err := u.users.Create(ctx, user); err != nil {
		return nil, false, fmt.Errorf("failed to create admin: %w", err)
	}
	return user, true, nil
}
