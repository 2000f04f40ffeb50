package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mmynk/tabsplit/internal/models"
)

// CreateAccount inserts a new backup account into the database.
func (s *SQLiteStore) CreateAccount(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, email, display_name, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		account.ID,
		account.Email,
		account.DisplayName,
		account.PasswordHash,
		account.CreatedAt,
		account.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

// GetAccountByEmail retrieves an account by its email address.
func (s *SQLiteStore) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.getAccount(ctx, "email", email)
}

// GetAccountByID retrieves an account by its ID.
func (s *SQLiteStore) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	return s.getAccount(ctx, "id", id)
}

// getAccount looks an account up by a unique column. column is never user
// input.
func (s *SQLiteStore) getAccount(ctx context.Context, column, value string) (*models.Account, error) {
	query := `
		SELECT id, email, display_name, password_hash, created_at, updated_at
		FROM accounts
		WHERE ` + column + ` = ?`

	account := &models.Account{}
	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&account.ID,
		&account.Email,
		&account.DisplayName,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil // Account not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account by %s: %w", column, err)
	}

	return account, nil
}
