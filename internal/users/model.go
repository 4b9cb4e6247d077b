package users

import (
	"strings"
	"time"

	"github.com/angelmondragon/photocard-store/pkg/enums"
)

// User is the record kept in users.json. PasswordHash is empty for accounts
// created through Google sign-in.
type User struct {
	ID           int64          `json:"id"`
	Email        string         `json:"email"`
	Name         string         `json:"name"`
	GoogleID     *string        `json:"googleId"`
	PasswordHash string         `json:"password,omitempty"`
	Role         enums.UserRole `json:"role"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// Profile is the transport shape that omits credentials.
type Profile struct {
	ID        int64          `json:"id"`
	Email     string         `json:"email"`
	Name      string         `json:"name"`
	Role      enums.UserRole `json:"role"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (u User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (u User) HasPassword() bool { return u.PasswordHash != "" }

// CreateInput holds what the store needs to append a user.
type CreateInput struct {
	Email        string
	Name         string
	PasswordHash string
	GoogleID     string
	Role         enums.UserRole
}

// NormalizeEmail lower-cases and trims an address for lookups and storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
