package user

import (
	"github.com/google/uuid"
)

// User is the public identity record
type User struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	Avatar      *string   `json:"avatar,omitempty"`
	IsConfirmed bool      `json:"is_confirmed"`
}

// Credential is the secret bound to exactly one user.
// It never leaves the auth flow.
type Credential struct {
	ID             uuid.UUID `json:"-"`
	UserID         uuid.UUID `json:"-"`
	Email          string    `json:"-"`
	HashedPassword string    `json:"-"` // Never expose password hash in JSON
}

// NewUser carries everything needed to create a user and its credential
type NewUser struct {
	Username       string
	Email          string
	HashedPassword string
	Avatar         string
}
