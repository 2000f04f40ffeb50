// Package sqlite provides a SQLite-backed implementation of the storage.Store interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/internal/storage"
)

// Ensure SQLiteStore implements storage.Store
var _ storage.Store = (*SQLiteStore)(nil)

// SQLiteStore implements storage.Store using SQLite. As a bill tier it is the
// app-local cache; on the server it also holds accounts and backups.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLiteStore with the given database path.
// It creates the parent directories and runs migrations automatically.
func New(dbPath string) (*SQLiteStore, error) {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Open database with pure Go driver
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Run migrations
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveBill stores the encoded bill, replacing any cached copy.
func (s *SQLiteStore) SaveBill(ctx context.Context, bill *models.Bill) error {
	data, err := storage.EncodeBill(bill)
	if err != nil {
		return err
	}
	info := storage.Info(bill)

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO bills (id, title, total, frozen, data, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     title = excluded.title,
		     total = excluded.total,
		     frozen = excluded.frozen,
		     data = excluded.data,
		     updated_at = excluded.updated_at`,
		info.ID, info.Title, info.Total, bill.Frozen, data, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to save bill: %w", err)
	}
	return nil
}

// LoadBill retrieves a cached bill by ID.
func (s *SQLiteStore) LoadBill(ctx context.Context, id string) (*models.Bill, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, "SELECT data FROM bills WHERE id = ?", id).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("bill %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}
	bill := storage.DecodeBill(id, data)
	bill.Saved |= models.TierCache
	return bill, nil
}

// ListBills lists cached bills, newest first.
func (s *SQLiteStore) ListBills(ctx context.Context) ([]storage.BillInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, title, total, frozen, length(data) FROM bills ORDER BY id DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list bills: %w", err)
	}
	defer rows.Close()

	var infos []storage.BillInfo
	for rows.Next() {
		var info storage.BillInfo
		if err := rows.Scan(&info.ID, &info.Title, &info.Total, &info.Frozen, &info.Size); err != nil {
			return nil, fmt.Errorf("failed to scan bill: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bills: %w", err)
	}
	return infos, nil
}

// DeleteBill removes a cached bill.
func (s *SQLiteStore) DeleteBill(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM bills WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	return nil
}
