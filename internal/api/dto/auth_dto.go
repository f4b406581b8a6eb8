package dto

import (
	"time"

	"github.com/studiodesk/studio-desk/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse describes a staff member.
type UserResponse struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Code  string          `json:"code"`
	Email string          `json:"email"`
	Team  string          `json:"team"`
	Role  domain.UserRole `json:"role"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	User UserResponse `json:"user"`
	Auth AuthResponse `json:"auth"`
}

// NewUserResponse maps a user without credentials.
func NewUserResponse(u domain.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Code: u.Code, Email: u.Email, Team: u.Team, Role: u.Role}
}
