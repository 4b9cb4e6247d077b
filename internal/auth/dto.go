package auth

import (
	"github.com/angelmondragon/photocard-store/internal/users"
	"github.com/angelmondragon/photocard-store/pkg/enums"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the payload for self sign-up and admin bootstrap.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest exchanges a refresh token for a new token pair. The access
// token may be expired.
type RefreshRequest struct {
	AccessToken  string `json:"token" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// Result is what a successful login, registration or refresh hands back.
// RefreshToken is empty when refresh sessions are disabled.
type Result struct {
	Token        string        `json:"token"`
	RefreshToken string        `json:"refreshToken,omitempty"`
	User         users.Profile `json:"user"`
}

// Identity is the caller resolved from a bearer token.
type Identity struct {
	ID    int64          `json:"id"`
	Email string         `json:"email"`
	Name  string         `json:"name"`
	Role  enums.UserRole `json:"role"`
	// SessionID is the token jti, the key of its refresh session.
	SessionID string `json:"-"`
}

func (i Identity) IsAdmin() bool { return i.Role == enums.UserRoleAdmin }
