package api

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// BackupServiceName is the fully-qualified name of the BackupService.
const BackupServiceName = "tabsplit.v1.BackupService"

// BackupService procedures.
const (
	BackupServiceSaveBillProcedure   = "/tabsplit.v1.BackupService/SaveBill"
	BackupServiceGetBillProcedure    = "/tabsplit.v1.BackupService/GetBill"
	BackupServiceListBillsProcedure  = "/tabsplit.v1.BackupService/ListBills"
	BackupServiceDeleteBillProcedure = "/tabsplit.v1.BackupService/DeleteBill"
)

// BackupServiceHandler is the server side of the BackupService.
type BackupServiceHandler interface {
	SaveBill(context.Context, *connect.Request[SaveBillRequest]) (*connect.Response[SaveBillResponse], error)
	GetBill(context.Context, *connect.Request[GetBillRequest]) (*connect.Response[GetBillResponse], error)
	ListBills(context.Context, *connect.Request[ListBillsRequest]) (*connect.Response[ListBillsResponse], error)
	DeleteBill(context.Context, *connect.Request[DeleteBillRequest]) (*connect.Response[DeleteBillResponse], error)
}

// NewBackupServiceHandler builds an HTTP handler for svc and returns the
// path to mount it on.
func NewBackupServiceHandler(svc BackupServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	o := handlerOptions(opts)
	return route(BackupServiceName, map[string]http.Handler{
		BackupServiceSaveBillProcedure:   connect.NewUnaryHandler(BackupServiceSaveBillProcedure, svc.SaveBill, o),
		BackupServiceGetBillProcedure:    connect.NewUnaryHandler(BackupServiceGetBillProcedure, svc.GetBill, o),
		BackupServiceListBillsProcedure:  connect.NewUnaryHandler(BackupServiceListBillsProcedure, svc.ListBills, o),
		BackupServiceDeleteBillProcedure: connect.NewUnaryHandler(BackupServiceDeleteBillProcedure, svc.DeleteBill, o),
	})
}

// BackupServiceClient is a client for the BackupService.
type BackupServiceClient struct {
	saveBill   *connect.Client[SaveBillRequest, SaveBillResponse]
	getBill    *connect.Client[GetBillRequest, GetBillResponse]
	listBills  *connect.Client[ListBillsRequest, ListBillsResponse]
	deleteBill *connect.Client[DeleteBillRequest, DeleteBillResponse]
}

// NewBackupServiceClient creates a BackupService client for the server at
// baseURL.
func NewBackupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *BackupServiceClient {
	baseURL = trimBase(baseURL)
	o := clientOptions(opts)
	return &BackupServiceClient{
		saveBill:   connect.NewClient[SaveBillRequest, SaveBillResponse](httpClient, baseURL+BackupServiceSaveBillProcedure, o),
		getBill:    connect.NewClient[GetBillRequest, GetBillResponse](httpClient, baseURL+BackupServiceGetBillProcedure, o),
		listBills:  connect.NewClient[ListBillsRequest, ListBillsResponse](httpClient, baseURL+BackupServiceListBillsProcedure, o),
		deleteBill: connect.NewClient[DeleteBillRequest, DeleteBillResponse](httpClient, baseURL+BackupServiceDeleteBillProcedure, o),
	}
}

// SaveBill calls tabsplit.v1.BackupService.SaveBill.
func (c *BackupServiceClient) SaveBill(ctx context.Context, req *connect.Request[SaveBillRequest]) (*connect.Response[SaveBillResponse], error) {
	return c.saveBill.CallUnary(ctx, req)
}

// GetBill calls tabsplit.v1.BackupService.GetBill.
func (c *BackupServiceClient) GetBill(ctx context.Context, req *connect.Request[GetBillRequest]) (*connect.Response[GetBillResponse], error) {
	return c.getBill.CallUnary(ctx, req)
}

// ListBills calls tabsplit.v1.BackupService.ListBills.
func (c *BackupServiceClient) ListBills(ctx context.Context, req *connect.Request[ListBillsRequest]) (*connect.Response[ListBillsResponse], error) {
	return c.listBills.CallUnary(ctx, req)
}

// DeleteBill calls tabsplit.v1.BackupService.DeleteBill.
func (c *BackupServiceClient) DeleteBill(ctx context.Context, req *connect.Request[DeleteBillRequest]) (*connect.Response[DeleteBillResponse], error) {
	return c.deleteBill.CallUnary(ctx, req)
}
