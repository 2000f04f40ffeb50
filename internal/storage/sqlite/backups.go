package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/mmynk/tabsplit/internal/storage"
)

// PutBackup stores an encoded bill for an account, replacing any earlier
// backup of the same bill.
func (s *SQLiteStore) PutBackup(ctx context.Context, owner, id string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO backups (owner_id, bill_id, data, size, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(owner_id, bill_id) DO UPDATE SET
		     data = excluded.data,
		     size = excluded.size,
		     updated_at = excluded.updated_at`,
		owner, id, data, len(data), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store backup: %w", err)
	}

	return nil
}

// GetBackup retrieves a backed-up bill.
func (s *SQLiteStore) GetBackup(ctx context.Context, owner, id string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM backups WHERE owner_id = ? AND bill_id = ?`,
		owner, id,
	).Scan(&data)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("backup %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get backup: %w", err)
	}

	return data, nil
}

// ListBackups lists an account's backups, newest bill first.
func (s *SQLiteStore) ListBackups(ctx context.Context, owner string) ([]storage.BackupInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT bill_id, size, updated_at
		 FROM backups WHERE owner_id = ? ORDER BY bill_id DESC`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	defer rows.Close()

	var backups []storage.BackupInfo
	for rows.Next() {
		var b storage.BackupInfo
		if err := rows.Scan(&b.ID, &b.Size, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan backup: %w", err)
		}
		backups = append(backups, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate backups: %w", err)
	}

	return backups, nil
}

// DeleteBackup removes a backup.
func (s *SQLiteStore) DeleteBackup(ctx context.Context, owner, id string) error {
	// Check if backup exists
	var exists int
	err := s.db.QueryRowContext(ctx,
		"SELECT 1 FROM backups WHERE owner_id = ? AND bill_id = ?", owner, id,
	).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("backup %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to check backup existence: %w", err)
	}

	// Delete backup
	_, err = s.db.ExecContext(ctx, "DELETE FROM backups WHERE owner_id = ? AND bill_id = ?", owner, id)
	if err != nil {
		return fmt.Errorf("failed to delete backup: %w", err)
	}

	return nil
}
