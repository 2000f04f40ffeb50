package models

import (
	"time"

	"github.com/google/uuid"
)

// Account represents a backup account on the tabsplit server. Bills backed up
// to the remote tier belong to exactly one account.
type Account struct {
	// ID is the unique identifier for the account (UUID format).
	ID string

	// Email is the login name. Unique.
	Email string

	// DisplayName is shown in the backup listing.
	DisplayName string

	// PasswordHash is the bcrypt hash of the account password.
	PasswordHash string

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// NewAccount creates an account with a fresh ID.
func NewAccount(email, displayName, passwordHash string) *Account {
	now := time.Now().Unix()
	return &Account{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
