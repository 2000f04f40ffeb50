// Package file stores bills as JSON files named after their ID, together with
// their receipt images, in one directory.
package file

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/internal/storage"
)

// Ext is the bill file extension.
const Ext = ".json"

var _ storage.BillStore = (*Store)(nil)

// Store is the local-file bill tier.
type Store struct {
	dir string
}

// New creates a Store in dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create bill directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory holding the bills.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+Ext)
}

// SaveBill writes the bill to <id>.json, replacing the file atomically.
func (s *Store) SaveBill(ctx context.Context, bill *models.Bill) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := storage.EncodeBill(bill)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, "."+bill.ID()+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write bill: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close bill file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(bill.ID())); err != nil {
		return fmt.Errorf("failed to replace bill file: %w", err)
	}
	return nil
}

// LoadBill reads <id>.json. An empty or corrupt file loads as a bad bill.
func (s *Store) LoadBill(ctx context.Context, id string) (*models.Bill, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("bill %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read bill: %w", err)
	}
	bill := storage.DecodeBill(id, data)
	bill.Saved |= models.TierFile
	return bill, nil
}

// ListBills lists the bill files, newest first. Every file is decoded so the
// listing can show titles and totals; unreadable files are listed with their
// reason as title.
func (s *Store) ListBills(ctx context.Context) ([]storage.BillInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read bill directory: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if id, ok := billID(e.Name()); ok && !e.IsDir() {
			ids = append(ids, id)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))

	infos := make([]storage.BillInfo, 0, len(ids))
	for _, id := range ids {
		bill, err := s.LoadBill(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			continue // removed while listing
		}
		if err != nil {
			return nil, err
		}
		infos = append(infos, storage.Info(bill))
	}
	return infos, nil
}

// DeleteBill removes <id>.json.
func (s *Store) DeleteBill(_ context.Context, id string) error {
	err := os.Remove(s.path(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete bill: %w", err)
	}
	return nil
}

// Copy copies the image named from to the name to within the directory.
func (s *Store) Copy(ctx context.Context, from, to string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := os.Open(filepath.Join(s.dir, filepath.Base(from)))
	if err != nil {
		return fmt.Errorf("failed to open image: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.dir, filepath.Base(to)))
	if err != nil {
		return fmt.Errorf("failed to create image: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("failed to copy image: %w", err)
	}
	return dst.Close()
}

// billID returns the bill ID for a bill file name.
func billID(name string) (string, bool) {
	if !strings.HasSuffix(name, Ext) || strings.HasPrefix(name, ".") {
		return "", false
	}
	id := strings.TrimSuffix(name, Ext)
	if _, err := models.ParseID(id); err != nil {
		return "", false
	}
	return id, true
}
