package dto

import (
	"time"

	"marketplace_backend/internal/feature/auth/domain/entity"
)

// UserRes is the public view of a user. It never carries the password hash.
type UserRes struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUserRes converts an entity into its public view.
func NewUserRes(u *entity.User) UserRes {
	return UserRes{
		ID:        u.ID,
		FullName:  u.FullName,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role.String(),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// SessionData is the "data" object returned by register and login.
type SessionData struct {
	ID              string   `json:"id"`
	FullName        string   `json:"fullName"`
	Email           string   `json:"email"`
	Phone           string   `json:"phone"`
	Role            string   `json:"role"`
	IsVerified      bool     `json:"isVerified"`
	ProfileImage    string   `json:"profileImage,omitempty"`
	EnrolledCourses []string `json:"enrolledCourses,omitempty"`
	Token           string   `json:"token"`
}

// NewRegisterData builds the register response payload.
func NewRegisterData(u *entity.User, token string) SessionData {
	return SessionData{
		ID:         u.ID,
		FullName:   u.FullName,
		Email:      u.Email,
		Phone:      u.Phone,
		Role:       u.Role.String(),
		IsVerified: u.IsVerified,
		Token:      token,
	}
}

// NewLoginData builds the login response payload, which additionally
// carries the profile image and enrolled course references.
func NewLoginData(u *entity.User, token string) SessionData {
	d := NewRegisterData(u, token)
	d.ProfileImage = u.ProfileImage
	d.EnrolledCourses = u.EnrolledCourses
	if d.EnrolledCourses == nil {
		d.EnrolledCourses = []string{}
	}
	return d
}

// SessionRes wraps register and login results.
type SessionRes struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    SessionData `json:"data"`
}

// ProfileRes wraps a single user view.
type ProfileRes struct {
	Success bool    `json:"success"`
	Message string  `json:"message,omitempty"`
	User    UserRes `json:"user"`
}

// CheckEmailRes reports whether an email is registered.
type CheckEmailRes struct {
	Success bool `json:"success"`
	Exists  bool `json:"exists"`
}

// AdminInfo is the admin summary returned by admin login.
type AdminInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// AdminLoginRes is the admin login response.
type AdminLoginRes struct {
	Success bool      `json:"success"`
	Token   string    `json:"token"`
	Admin   AdminInfo `json:"admin"`
}

// MessageRes is the bare envelope used for failures and message-only successes.
type MessageRes struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
