package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrEmailExists        = errors.New("email already registered")
	ErrUnknownAccount     = errors.New("unknown account")
)

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage storage.AccountStore
}

var _ Authenticator = (*PasswordAuthenticator)(nil)

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(accounts storage.AccountStore) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		storage: accounts,
	}
}

// ValidateCredential checks if the password meets minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < 8 {
		return ErrWeakPassword
	}
	return nil
}

// Register creates a new account with a hashed password. Emails are compared
// case-insensitively.
func (a *PasswordAuthenticator) Register(ctx context.Context, email, displayName, credential string) (*models.Account, error) {
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}
	email = normalizeEmail(email)

	existing, err := a.storage.GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := models.NewAccount(email, displayName, string(hashedPassword))
	if err := a.storage.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return account, nil
}

// Authenticate verifies the email and password, returning the account if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (*models.Account, error) {
	account, err := a.storage.GetAccountByEmail(ctx, normalizeEmail(email))
	if err != nil || account == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return account, nil
}

// Lookup returns the account with the given ID.
func (a *PasswordAuthenticator) Lookup(ctx context.Context, id string) (*models.Account, error) {
	account, err := a.storage.GetAccountByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if account == nil {
		return nil, ErrUnknownAccount
	}
	return account, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
