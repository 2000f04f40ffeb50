package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/tabsplit/internal/api"
	"github.com/mmynk/tabsplit/internal/auth"
	"github.com/mmynk/tabsplit/internal/middleware"
	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/internal/service"
	"github.com/mmynk/tabsplit/internal/storage"
	"github.com/mmynk/tabsplit/internal/storage/sqlite"
)

// newServer starts a backup server with one registered account.
func newServer(t *testing.T, tokenTTL time.Duration) string {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	jwt := auth.NewJWTManager("secret", tokenTTL)
	authenticator := auth.NewPasswordAuthenticator(store)
	_, err = authenticator.Register(context.Background(), "ann@example.com", "Ann", "correct horse")
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.Handle(api.NewAuthServiceHandler(service.NewAuthService(authenticator, jwt, nil)))
	mux.Handle(api.NewBackupServiceHandler(service.NewBackupService(store, nil),
		connect.WithInterceptors(middleware.RequireAuth(jwt))))
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestStore_RoundTrip(t *testing.T) {
	url := newServer(t, time.Hour)
	s := New(http.DefaultClient, url, "ann@example.com", "correct horse", nil)
	ctx := context.Background()

	b := models.NewBill(time.Date(2024, 3, 9, 19, 45, 0, 0, time.Local))
	b.Venue = "Sushi"
	b.Items = []models.LineItem{models.NewLineItem("Omakase", decimal.RequireFromString("80"))}
	require.NoError(t, s.SaveBill(ctx, b))

	got, err := s.LoadBill(ctx, b.ID())
	require.NoError(t, err)
	assert.Equal(t, "Sushi", got.Venue)
	assert.True(t, got.Saved.Has(models.TierRemote))

	infos, err := s.ListBills(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, b.ID(), infos[0].ID)
	assert.Positive(t, infos[0].Size)

	require.NoError(t, s.DeleteBill(ctx, b.ID()))
	require.NoError(t, s.DeleteBill(ctx, b.ID()), "deleting twice is fine")
	_, err = s.LoadBill(ctx, b.ID())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_LogsInAgainWhenTokenRejected(t *testing.T) {
	url := newServer(t, time.Hour)
	s := New(http.DefaultClient, url, "ann@example.com", "correct horse", nil)
	s.token = "stale"

	_, err := s.ListBills(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, "stale", s.currentToken())
}

func TestStore_BadCredentials(t *testing.T) {
	url := newServer(t, time.Hour)
	s := New(http.DefaultClient, url, "ann@example.com", "wrong password", nil)

	_, err := s.ListBills(context.Background())
	assert.Error(t, err)
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
}
