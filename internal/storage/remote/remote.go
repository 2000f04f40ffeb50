// Package remote is the remote bill tier: the backup service of a tabsplit
// server, reached over connect.
package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"connectrpc.com/connect"

	"github.com/mmynk/tabsplit/internal/api"
	"github.com/mmynk/tabsplit/internal/middleware"
	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/internal/storage"
)

var _ storage.BillStore = (*Store)(nil)

// Store backs bills up to one account on a tabsplit server. It logs in on
// first use and again whenever the server rejects its token.
type Store struct {
	backup *api.BackupServiceClient
	auth   *api.AuthServiceClient
	logger *slog.Logger

	email    string
	password string

	mu    sync.Mutex
	token string
}

// New creates a Store for the server at baseURL.
func New(httpClient connect.HTTPClient, baseURL, email, password string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		auth:     api.NewAuthServiceClient(httpClient, baseURL),
		logger:   logger,
		email:    email,
		password: password,
	}
	s.backup = api.NewBackupServiceClient(httpClient, baseURL,
		connect.WithInterceptors(middleware.BearerAuth(s.currentToken)))
	return s
}

func (s *Store) currentToken() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

func (s *Store) login(ctx context.Context) error {
	resp, err := s.auth.Login(ctx, connect.NewRequest(&api.LoginRequest{Email: s.email, Password: s.password}))
	if err != nil {
		return fmt.Errorf("remote login failed: %w", err)
	}
	s.mu.Lock()
	s.token = resp.Msg.Token
	s.mu.Unlock()
	s.logger.Debug("Logged in to backup server", "account_id", resp.Msg.Account.ID)
	return nil
}

// call runs fn with a valid token, logging in again once if the token was
// rejected.
func call[T any](ctx context.Context, s *Store, fn func() (*connect.Response[T], error)) (*connect.Response[T], error) {
	if s.currentToken() == "" {
		if err := s.login(ctx); err != nil {
			return nil, err
		}
	}
	resp, err := fn()
	if connect.CodeOf(err) != connect.CodeUnauthenticated {
		return resp, err
	}
	if err := s.login(ctx); err != nil {
		return nil, err
	}
	return fn()
}

// SaveBill backs the bill up.
func (s *Store) SaveBill(ctx context.Context, bill *models.Bill) error {
	_, err := call(ctx, s, func() (*connect.Response[api.SaveBillResponse], error) {
		return s.backup.SaveBill(ctx, connect.NewRequest(&api.SaveBillRequest{Bill: bill}))
	})
	if err != nil {
		return fmt.Errorf("failed to back up bill %s: %w", bill.ID(), err)
	}
	return nil
}

// LoadBill fetches a backup. A backup the server can no longer decode loads
// as a bad bill.
func (s *Store) LoadBill(ctx context.Context, id string) (*models.Bill, error) {
	resp, err := call(ctx, s, func() (*connect.Response[api.GetBillResponse], error) {
		return s.backup.GetBill(ctx, connect.NewRequest(&api.GetBillRequest{ID: id}))
	})
	switch connect.CodeOf(err) {
	case connect.CodeNotFound:
		return nil, fmt.Errorf("bill %s: %w", id, storage.ErrNotFound)
	case connect.CodeDataLoss:
		var connectErr *connect.Error
		errors.As(err, &connectErr)
		return models.NewBadBill(id, connectErr.Message()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bill %s: %w", id, err)
	}
	if resp.Msg.Bill == nil {
		return models.NewBadBill(id, "empty backup"), nil
	}

	bill := resp.Msg.Bill
	bill.SortCosts()
	bill.Saved |= models.TierRemote
	return bill, nil
}

// ListBills lists the account's backups, newest first. The server does not
// decode backups for listing, so only IDs and sizes are filled in.
func (s *Store) ListBills(ctx context.Context) ([]storage.BillInfo, error) {
	resp, err := call(ctx, s, func() (*connect.Response[api.ListBillsResponse], error) {
		return s.backup.ListBills(ctx, connect.NewRequest(&api.ListBillsRequest{}))
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	infos := make([]storage.BillInfo, 0, len(resp.Msg.Bills))
	for _, b := range resp.Msg.Bills {
		infos = append(infos, storage.BillInfo{ID: b.ID, Title: b.ID, Size: b.Size})
	}
	return infos, nil
}

// DeleteBill removes a backup. Deleting a missing backup is not an error.
func (s *Store) DeleteBill(ctx context.Context, id string) error {
	_, err := call(ctx, s, func() (*connect.Response[api.DeleteBillResponse], error) {
		return s.backup.DeleteBill(ctx, connect.NewRequest(&api.DeleteBillRequest{ID: id}))
	})
	if err != nil && connect.CodeOf(err) != connect.CodeNotFound {
		return fmt.Errorf("failed to delete backup %s: %w", id, err)
	}
	return nil
}
