package storage

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tabsplit/internal/models"
)

// flakyStore fails the first failures calls of every operation.
type flakyStore struct {
	mu       sync.Mutex
	bills    map[string][]byte
	failures int
	calls    int
}

func newFlakyStore(failures int) *flakyStore {
	return &flakyStore{bills: make(map[string][]byte), failures: failures}
}

var errSharing = errors.New("sharing violation")

func (f *flakyStore) fail() bool {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return true
	}
	return false
}

func (f *flakyStore) SaveBill(_ context.Context, b *models.Bill) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail() {
		return errSharing
	}
	data, err := EncodeBill(b)
	if err != nil {
		return err
	}
	f.bills[b.ID()] = data
	return nil
}

func (f *flakyStore) LoadBill(_ context.Context, id string) (*models.Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail() {
		return nil, errSharing
	}
	data, ok := f.bills[id]
	if !ok {
		return nil, ErrNotFound
	}
	return DecodeBill(id, data), nil
}

func (f *flakyStore) ListBills(context.Context) ([]BillInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []BillInfo
	for id, data := range f.bills {
		out = append(out, Info(DecodeBill(id, data)))
	}
	return out, nil
}

func (f *flakyStore) DeleteBill(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.bills, id)
	return nil
}

var fastRetry = RetryPolicy{Interval: time.Millisecond, Attempts: 3}

func TestGateway_SaveRetriesTransientFailures(t *testing.T) {
	cache := newFlakyStore(2)
	file := newFlakyStore(0)
	g := NewGateway(WithTier(models.TierCache, cache), WithTier(models.TierFile, file), WithRetryPolicy(fastRetry))

	b := models.NewBill(time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local))
	saved, err := g.Save(context.Background(), b, models.TierCache|models.TierFile)
	require.NoError(t, err)
	assert.Equal(t, models.TierCache|models.TierFile, saved)
	assert.Equal(t, 3, cache.calls)
}

func TestGateway_SaveReportsTiersIndependently(t *testing.T) {
	cache := newFlakyStore(10)
	file := newFlakyStore(0)
	g := NewGateway(WithTier(models.TierCache, cache), WithTier(models.TierFile, file), WithRetryPolicy(fastRetry))

	b := models.NewBill(time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local))
	saved, err := g.Save(context.Background(), b, models.AllTiers)
	assert.Error(t, err)
	assert.ErrorIs(t, err, errSharing)
	assert.Equal(t, models.TierFile, saved, "file saved, cache failed, remote not configured")
	assert.Equal(t, 3, cache.calls)
}

func TestGateway_LoadNearestTier(t *testing.T) {
	cache := newFlakyStore(0)
	file := newFlakyStore(0)
	g := NewGateway(WithTier(models.TierCache, cache), WithTier(models.TierFile, file), WithRetryPolicy(fastRetry))
	ctx := context.Background()

	b := models.NewBill(time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local))
	b.Venue = "On disk"
	_, err := g.Save(ctx, b, models.TierFile)
	require.NoError(t, err)

	got, tier, err := g.Load(ctx, b.ID())
	require.NoError(t, err)
	assert.Equal(t, models.TierFile, tier)
	assert.Equal(t, "On disk", got.Venue)
	assert.Equal(t, 1, cache.calls, "not-found is not retried")

	_, _, err = g.Load(ctx, "20000101000000")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, g.Delete(ctx, b.ID(), models.AllTiers))
	_, _, err = g.Load(ctx, b.ID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDecodeBill(t *testing.T) {
	assert.True(t, DecodeBill("20240101000000", nil).IsBad())
	assert.True(t, DecodeBill("20240101000000", []byte("[]")).IsBad())
	assert.True(t, DecodeBill("20240101000000", []byte(`{"creation_time":"2023-01-01T00:00:00Z"}`)).IsBad(),
		"file name and content disagree")

	b := models.NewBill(time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local))
	data, err := EncodeBill(b)
	require.NoError(t, err)
	got := DecodeBill(b.ID(), data)
	assert.False(t, got.IsBad())
	assert.Equal(t, int64(len(data)), got.Size)
}
