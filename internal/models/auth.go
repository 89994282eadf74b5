package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// RegisterStudentRequest creates a student account.
type RegisterStudentRequest struct {
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=8"`
	FullName      string `json:"fullName" validate:"required"`
	StudentNumber string `json:"studentNumber" validate:"required"`
	IP            string `json:"-"`
	UserAgent     string `json:"-"`
}

// CreateUserRequest is a registrar-created account. StudentNumber is required for students.
type CreateUserRequest struct {
	Email         string   `json:"email" validate:"required,email"`
	Password      string   `json:"password" validate:"required,min=8"`
	FullName      string   `json:"fullName" validate:"required"`
	Role          UserRole `json:"role" validate:"required,oneof=STUDENT REGISTRAR"`
	StudentNumber string   `json:"studentNumber" validate:"required_if=Role STUDENT"`
	IP            string   `json:"-"`
	UserAgent     string   `json:"-"`
}

// LoginResponse returns the issued tokens and user info.
type LoginResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresIn    int64     `json:"expiresIn"`
	User         UserInfo  `json:"user"`
	IssuedAt     time.Time `json:"issuedAt"`
}

// RefreshTokenRequest exchanges a refresh token for a new access token.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
	IP           string `json:"-"`
	UserAgent    string `json:"-"`
}

// RefreshTokenResponse returns the refreshed tokens.
type RefreshTokenResponse struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresIn    int64     `json:"expiresIn"`
	IssuedAt     time.Time `json:"issuedAt"`
}

// ChangePasswordRequest payload for updating password.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// UserInfo describes the authenticated user in responses.
type UserInfo struct {
	ID            string   `json:"id"`
	Email         string   `json:"email"`
	FullName      string   `json:"fullName"`
	StudentNumber string   `json:"studentNumber,omitempty"`
	Role          UserRole `json:"role"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	UserID        string   `json:"user_id"`
	Role          UserRole `json:"role"`
	Email         string   `json:"email"`
	FullName      string   `json:"full_name"`
	StudentNumber string   `json:"student_number,omitempty"`
	jwt.RegisteredClaims
}

// IsRegistrar reports whether the token belongs to registrar staff.
func (c *JWTClaims) IsRegistrar() bool {
	return c != nil && c.Role == RoleRegistrar
}
