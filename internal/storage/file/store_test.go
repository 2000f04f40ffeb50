package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/internal/storage"
)

var created = time.Date(2024, 7, 4, 18, 15, 0, 0, time.Local)

func newBill(t time.Time, venue string) *models.Bill {
	b := models.NewBill(t)
	b.Venue = venue
	b.Items = []models.LineItem{models.NewLineItem("Burger", decimal.RequireFromString("11.25"))}
	return b
}

func TestStore_SaveLoad(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	b := newBill(created, "Grill")
	require.NoError(t, s.SaveBill(ctx, b))
	assert.FileExists(t, filepath.Join(s.Dir(), "20240704181500.json"))

	got, err := s.LoadBill(ctx, b.ID())
	require.NoError(t, err)
	assert.Equal(t, "Grill", got.Venue)
	assert.True(t, got.Items[0].Amount.Equal(decimal.RequireFromString("11.25")))
	assert.True(t, got.Saved.Has(models.TierFile))
	assert.Positive(t, got.Size)

	_, err = s.LoadBill(ctx, "20000101000000")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.DeleteBill(ctx, b.ID()))
	require.NoError(t, s.DeleteBill(ctx, b.ID()), "deleting twice is fine")
	_, err = s.LoadBill(ctx, b.ID())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_BadBills(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "20240101000000.json"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20240102000000.json"), []byte("{not json"), 0644))

	empty, err := s.LoadBill(ctx, "20240101000000")
	require.NoError(t, err, "corrupt bills are not errors")
	assert.True(t, empty.IsBad())
	assert.Equal(t, int64(-1), empty.Size)
	assert.Equal(t, "empty file", empty.BadReason)
	assert.Equal(t, "20240101000000", empty.ID())

	garbled, err := s.LoadBill(ctx, "20240102000000")
	require.NoError(t, err)
	assert.True(t, garbled.IsBad())
	assert.Contains(t, garbled.BadReason, "cannot decode")
}

func TestStore_ListBills(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.SaveBill(ctx, newBill(created, "Older")))
	require.NoError(t, s.SaveBill(ctx, newBill(created.Add(time.Hour), "Newer")))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20240101000000.json"), nil, 0644))

	infos, err := s.ListBills(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, "Newer", infos[0].Title)
	assert.Equal(t, "Older", infos[1].Title)
	assert.Equal(t, "11.25", infos[1].Total)
	assert.Equal(t, "empty file", infos[2].Title)
	assert.Equal(t, int64(-1), infos[2].Size)
}

func TestStore_CopyImage(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "20240101000000.jpg"), []byte("jpeg"), 0644))
	require.NoError(t, s.Copy(context.Background(), "20240101000000.jpg", "20240101000001.jpg"))

	data, err := os.ReadFile(filepath.Join(dir, "20240101000001.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", string(data))
}

func TestWatcher_ReportsRemovedBills(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := newBill(created, "Watched")
	require.NoError(t, s.SaveBill(ctx, b))

	w, err := s.NewWatcher(nil)
	require.NoError(t, err)
	defer w.Close()

	removed := make(chan string, 4)
	go w.Run(ctx, func(id string) { removed <- id })

	require.NoError(t, os.Remove(filepath.Join(dir, b.ID()+Ext)))

	select {
	case id := <-removed:
		assert.Equal(t, b.ID(), id)
	case <-time.After(2 * time.Second):
		t.Fatal("no removal reported")
	}
}
