package api

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// SplitServiceName is the fully-qualified name of the SplitService.
const SplitServiceName = "tabsplit.v1.SplitService"

// SplitService procedures.
const (
	SplitServiceAllocateProcedure    = "/tabsplit.v1.SplitService/Allocate"
	SplitServiceInferSharesProcedure = "/tabsplit.v1.SplitService/InferShares"
	SplitServiceSettleUpProcedure    = "/tabsplit.v1.SplitService/SettleUp"
)

// SplitServiceHandler is the server side of the SplitService.
type SplitServiceHandler interface {
	Allocate(context.Context, *connect.Request[AllocateRequest]) (*connect.Response[AllocateResponse], error)
	InferShares(context.Context, *connect.Request[InferSharesRequest]) (*connect.Response[InferSharesResponse], error)
	SettleUp(context.Context, *connect.Request[SettleUpRequest]) (*connect.Response[SettleUpResponse], error)
}

// NewSplitServiceHandler builds an HTTP handler for svc and returns the path
// to mount it on.
func NewSplitServiceHandler(svc SplitServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	o := handlerOptions(opts)
	return route(SplitServiceName, map[string]http.Handler{
		SplitServiceAllocateProcedure:    connect.NewUnaryHandler(SplitServiceAllocateProcedure, svc.Allocate, o),
		SplitServiceInferSharesProcedure: connect.NewUnaryHandler(SplitServiceInferSharesProcedure, svc.InferShares, o),
		SplitServiceSettleUpProcedure:    connect.NewUnaryHandler(SplitServiceSettleUpProcedure, svc.SettleUp, o),
	})
}

// SplitServiceClient is a client for the SplitService.
type SplitServiceClient struct {
	allocate    *connect.Client[AllocateRequest, AllocateResponse]
	inferShares *connect.Client[InferSharesRequest, InferSharesResponse]
	settleUp    *connect.Client[SettleUpRequest, SettleUpResponse]
}

// NewSplitServiceClient creates a SplitService client for the server at
// baseURL.
func NewSplitServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *SplitServiceClient {
	baseURL = trimBase(baseURL)
	o := clientOptions(opts)
	return &SplitServiceClient{
		allocate:    connect.NewClient[AllocateRequest, AllocateResponse](httpClient, baseURL+SplitServiceAllocateProcedure, o),
		inferShares: connect.NewClient[InferSharesRequest, InferSharesResponse](httpClient, baseURL+SplitServiceInferSharesProcedure, o),
		settleUp:    connect.NewClient[SettleUpRequest, SettleUpResponse](httpClient, baseURL+SplitServiceSettleUpProcedure, o),
	}
}

// Allocate calls tabsplit.v1.SplitService.Allocate.
func (c *SplitServiceClient) Allocate(ctx context.Context, req *connect.Request[AllocateRequest]) (*connect.Response[AllocateResponse], error) {
	return c.allocate.CallUnary(ctx, req)
}

// InferShares calls tabsplit.v1.SplitService.InferShares.
func (c *SplitServiceClient) InferShares(ctx context.Context, req *connect.Request[InferSharesRequest]) (*connect.Response[InferSharesResponse], error) {
	return c.inferShares.CallUnary(ctx, req)
}

// SettleUp calls tabsplit.v1.SplitService.SettleUp.
func (c *SplitServiceClient) SettleUp(ctx context.Context, req *connect.Request[SettleUpRequest]) (*connect.Response[SettleUpResponse], error) {
	return c.settleUp.CallUnary(ctx, req)
}
