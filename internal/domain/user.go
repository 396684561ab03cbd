package domain

import (
	"time"

	"github.com/google/uuid"
)

// Roles stored in users.role.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is an application user row. AuthID links the row to the identity
// provider subject and is not necessarily equal to ID.
type User struct {
	ID        uuid.UUID `json:"id"`
	AuthID    string    `json:"auth_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Credential is a local identity-provider record from auth_users.
type Credential struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
