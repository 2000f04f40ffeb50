package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/tabsplit/internal/api"
	"github.com/mmynk/tabsplit/internal/auth"
	"github.com/mmynk/tabsplit/internal/middleware"
	"github.com/mmynk/tabsplit/internal/models"
	"github.com/mmynk/tabsplit/internal/storage"
)

// BackupService implements the Connect BackupService: the remote bill tier.
// Every call acts on the authenticated account's own backups.
type BackupService struct {
	store  storage.BackupStore
	logger *slog.Logger
}

var _ api.BackupServiceHandler = (*BackupService)(nil)

// NewBackupService creates a BackupService over store.
func NewBackupService(store storage.BackupStore, logger *slog.Logger) *BackupService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BackupService{store: store, logger: logger}
}

func owner(ctx context.Context) (string, error) {
	id := middleware.GetAccountID(ctx)
	if id == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return id, nil
}

func validID(id string) error {
	if _, err := models.ParseID(id); err != nil {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	return nil
}

// storageError maps a storage error to a connect error.
func storageError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return connect.NewError(connect.CodeNotFound, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}

// SaveBill stores or replaces a backup.
func (s *BackupService) SaveBill(ctx context.Context, req *connect.Request[api.SaveBillRequest]) (*connect.Response[api.SaveBillResponse], error) {
	accountID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	bill := req.Msg.Bill
	if bill == nil || bill.CreationTime.IsZero() {
		return nil, connect.NewError(connect.CodeInvalidArgument, errNoBill)
	}

	data, err := storage.EncodeBill(bill)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if err := s.store.PutBackup(ctx, accountID, bill.ID(), data); err != nil {
		s.logger.Error("Backup failed", "account_id", accountID, "bill", bill.ID(), "error", err)
		return nil, storageError(err)
	}

	s.logger.Info("Bill backed up", "account_id", accountID, "bill", bill.ID(), "size", len(data))
	return connect.NewResponse(&api.SaveBillResponse{}), nil
}

// GetBill returns a backup. A backup that no longer decodes is reported as
// data loss.
func (s *BackupService) GetBill(ctx context.Context, req *connect.Request[api.GetBillRequest]) (*connect.Response[api.GetBillResponse], error) {
	accountID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	if err := validID(req.Msg.ID); err != nil {
		return nil, err
	}

	data, err := s.store.GetBackup(ctx, accountID, req.Msg.ID)
	if err != nil {
		return nil, storageError(err)
	}
	bill := storage.DecodeBill(req.Msg.ID, data)
	if bill.IsBad() {
		s.logger.Warn("Backup unreadable", "account_id", accountID, "bill", req.Msg.ID, "reason", bill.BadReason)
		return nil, connect.NewError(connect.CodeDataLoss, errors.New(bill.BadReason))
	}
	return connect.NewResponse(&api.GetBillResponse{Bill: bill}), nil
}

// ListBills lists the account's backups, newest first.
func (s *BackupService) ListBills(ctx context.Context, req *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error) {
	accountID, err := owner(ctx)
	if err != nil {
		return nil, err
	}

	infos, err := s.store.ListBackups(ctx, accountID)
	if err != nil {
		return nil, storageError(err)
	}
	resp := &api.ListBillsResponse{Bills: make([]api.BillSummary, 0, len(infos))}
	for _, info := range infos {
		resp.Bills = append(resp.Bills, api.BillSummary{ID: info.ID, Size: info.Size, UpdatedAt: info.UpdatedAt})
	}
	return connect.NewResponse(resp), nil
}

// DeleteBill removes a backup.
func (s *BackupService) DeleteBill(ctx context.Context, req *connect.Request[api.DeleteBillRequest]) (*connect.Response[api.DeleteBillResponse], error) {
	accountID, err := owner(ctx)
	if err != nil {
		return nil, err
	}
	if err := validID(req.Msg.ID); err != nil {
		return nil, err
	}

	if err := s.store.DeleteBackup(ctx, accountID, req.Msg.ID); err != nil {
		return nil, storageError(err)
	}
	s.logger.Info("Backup deleted", "account_id", accountID, "bill", req.Msg.ID)
	return connect.NewResponse(&api.DeleteBillResponse{}), nil
}
