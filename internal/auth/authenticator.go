// Package auth authenticates backup accounts and issues the bearer tokens
// that authorize remote-tier calls.
package auth

import (
	"context"

	"github.com/mmynk/tabsplit/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping between different auth methods without
// changing the service layer code.
type Authenticator interface {
	// Register creates a new account with the given email and credential.
	// Returns the created account or an error if registration fails.
	Register(ctx context.Context, email, displayName, credential string) (*models.Account, error)

	// Authenticate verifies the account's credentials and returns the
	// account if successful.
	Authenticate(ctx context.Context, email, credential string) (*models.Account, error)

	// Lookup returns the account with the given ID, or ErrUnknownAccount.
	Lookup(ctx context.Context, id string) (*models.Account, error)

	// ValidateCredential checks if the credential meets the implementation's
	// requirements.
	ValidateCredential(credential string) error
}
