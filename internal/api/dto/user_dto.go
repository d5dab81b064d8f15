package dto

import (
	"time"

	"github.com/aniketverma031/helpdesk-project/internal/domain"
)

// RegisterRequest payload for new accounts. A "role" field in the body
// is deliberately absent from this struct: registration always yields a
// plain user.
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public shape of an account.
type UserResponse struct {
	ID          string      `json:"id"`
	Username    string      `json:"username"`
	Role        domain.Role `json:"role"`
	IsSuperuser bool        `json:"is_superuser"`
	CreatedAt   time.Time   `json:"created_at"`
}

// AssignRoleRequest payload for the admin role-management endpoint.
type AssignRoleRequest struct {
	Role string `json:"role"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		Role:        user.Role,
		IsSuperuser: user.IsSuperuser,
		CreatedAt:   user.CreatedAt,
	}
}
