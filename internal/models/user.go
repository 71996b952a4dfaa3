package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string `db:"id"`

	// Email is the user's email address (unique).
	// Friend references with the same email are linked to this account.
	Email string `db:"email"`

	// DisplayName is shown to friends and in notifications.
	DisplayName string `db:"display_name"`

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string `db:"password_hash"`

	CreatedAt int64 `db:"created_at"`
	UpdatedAt int64 `db:"updated_at"`
}

// NewUser returns a user with a fresh ID and timestamps.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
