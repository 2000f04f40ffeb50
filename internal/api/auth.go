package api

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// AuthServiceName is the fully-qualified name of the AuthService.
const AuthServiceName = "tabsplit.v1.AuthService"

// AuthService procedures.
const (
	AuthServiceRegisterProcedure          = "/tabsplit.v1.AuthService/Register"
	AuthServiceLoginProcedure             = "/tabsplit.v1.AuthService/Login"
	AuthServiceGetCurrentAccountProcedure = "/tabsplit.v1.AuthService/GetCurrentAccount"
)

// AuthServiceHandler is the server side of the AuthService.
type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error)
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error)
	GetCurrentAccount(context.Context, *connect.Request[GetCurrentAccountRequest]) (*connect.Response[GetCurrentAccountResponse], error)
}

// NewAuthServiceHandler builds an HTTP handler for svc and returns the path
// to mount it on.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	o := handlerOptions(opts)
	return route(AuthServiceName, map[string]http.Handler{
		AuthServiceRegisterProcedure:          connect.NewUnaryHandler(AuthServiceRegisterProcedure, svc.Register, o),
		AuthServiceLoginProcedure:             connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, o),
		AuthServiceGetCurrentAccountProcedure: connect.NewUnaryHandler(AuthServiceGetCurrentAccountProcedure, svc.GetCurrentAccount, o),
	})
}

// AuthServiceClient is a client for the AuthService.
type AuthServiceClient struct {
	register          *connect.Client[RegisterRequest, RegisterResponse]
	login             *connect.Client[LoginRequest, LoginResponse]
	getCurrentAccount *connect.Client[GetCurrentAccountRequest, GetCurrentAccountResponse]
}

// NewAuthServiceClient creates an AuthService client for the server at
// baseURL.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthServiceClient {
	baseURL = trimBase(baseURL)
	o := clientOptions(opts)
	return &AuthServiceClient{
		register:          connect.NewClient[RegisterRequest, RegisterResponse](httpClient, baseURL+AuthServiceRegisterProcedure, o),
		login:             connect.NewClient[LoginRequest, LoginResponse](httpClient, baseURL+AuthServiceLoginProcedure, o),
		getCurrentAccount: connect.NewClient[GetCurrentAccountRequest, GetCurrentAccountResponse](httpClient, baseURL+AuthServiceGetCurrentAccountProcedure, o),
	}
}

// Register calls tabsplit.v1.AuthService.Register.
func (c *AuthServiceClient) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error) {
	return c.register.CallUnary(ctx, req)
}

// Login calls tabsplit.v1.AuthService.Login.
func (c *AuthServiceClient) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

// GetCurrentAccount calls tabsplit.v1.AuthService.GetCurrentAccount.
func (c *AuthServiceClient) GetCurrentAccount(ctx context.Context, req *connect.Request[GetCurrentAccountRequest]) (*connect.Response[GetCurrentAccountResponse], error) {
	return c.getCurrentAccount.CallUnary(ctx, req)
}
