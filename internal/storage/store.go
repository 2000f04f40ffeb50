// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/tabsplit/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// BillInfo summarizes a stored bill for listings.
type BillInfo struct {
	ID     string
	Title  string
	Total  string
	Frozen bool
	Size   int64
}

// BillStore is one persistence tier for bills.
// This abstraction allows the app cache, bill files and the remote backup to
// be used interchangeably by the Gateway.
type BillStore interface {
	// SaveBill writes the bill, replacing any stored copy with the same ID.
	SaveBill(ctx context.Context, bill *models.Bill) error

	// LoadBill reads a bill by ID. It returns ErrNotFound if the bill does
	// not exist. A stored bill that is empty or cannot be decoded is returned
	// as a bad bill (see models.NewBadBill), not as an error.
	LoadBill(ctx context.Context, id string) (*models.Bill, error)

	// ListBills lists stored bills, newest first.
	ListBills(ctx context.Context) ([]BillInfo, error)

	// DeleteBill removes a bill. Deleting a missing bill is not an error.
	DeleteBill(ctx context.Context, id string) error
}

// Directory is the participant directory. Bills refer to people by GUID
// only; nothing assumes a bill's diners are in sync with the directory.
type Directory interface {
	SavePerson(ctx context.Context, person *models.Person) error

	// GetPerson returns ErrNotFound for an unknown GUID.
	GetPerson(ctx context.Context, guid string) (*models.Person, error)

	ListPeople(ctx context.Context) ([]*models.Person, error)
}

// AccountStore holds backup server accounts.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *models.Account) error

	// GetAccountByEmail and GetAccountByID return nil, nil when no account
	// matches.
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)
}

// BackupInfo describes one bill backup held by the server.
type BackupInfo struct {
	ID        string
	Size      int64
	UpdatedAt int64
}

// BackupStore holds encoded bills backed up by each account.
type BackupStore interface {
	PutBackup(ctx context.Context, owner, id string, data []byte) error

	// GetBackup returns ErrNotFound for a missing backup.
	GetBackup(ctx context.Context, owner, id string) ([]byte, error)

	ListBackups(ctx context.Context, owner string) ([]BackupInfo, error)

	// DeleteBackup returns ErrNotFound for a missing backup.
	DeleteBackup(ctx context.Context, owner, id string) error
}

// Store is the full SQLite-backed store used by the app cache and the
// backup server.
type Store interface {
	BillStore
	Directory
	AccountStore
	BackupStore

	// Close releases any resources held by the store.
	Close() error
}
