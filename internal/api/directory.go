package api

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
)

// DirectoryServiceName is the fully-qualified name of the DirectoryService.
const DirectoryServiceName = "tabsplit.v1.DirectoryService"

// DirectoryService procedures.
const (
	DirectoryServiceSavePersonProcedure = "/tabsplit.v1.DirectoryService/SavePerson"
	DirectoryServiceGetPersonProcedure  = "/tabsplit.v1.DirectoryService/GetPerson"
	DirectoryServiceListPeopleProcedure = "/tabsplit.v1.DirectoryService/ListPeople"
)

// DirectoryServiceHandler is the server side of the DirectoryService.
type DirectoryServiceHandler interface {
	SavePerson(context.Context, *connect.Request[SavePersonRequest]) (*connect.Response[SavePersonResponse], error)
	GetPerson(context.Context, *connect.Request[GetPersonRequest]) (*connect.Response[GetPersonResponse], error)
	ListPeople(context.Context, *connect.Request[ListPeopleRequest]) (*connect.Response[ListPeopleResponse], error)
}

// NewDirectoryServiceHandler builds an HTTP handler for svc and returns the
// path to mount it on.
func NewDirectoryServiceHandler(svc DirectoryServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	o := handlerOptions(opts)
	return route(DirectoryServiceName, map[string]http.Handler{
		DirectoryServiceSavePersonProcedure: connect.NewUnaryHandler(DirectoryServiceSavePersonProcedure, svc.SavePerson, o),
		DirectoryServiceGetPersonProcedure:  connect.NewUnaryHandler(DirectoryServiceGetPersonProcedure, svc.GetPerson, o),
		DirectoryServiceListPeopleProcedure: connect.NewUnaryHandler(DirectoryServiceListPeopleProcedure, svc.ListPeople, o),
	})
}

// DirectoryServiceClient is a client for the DirectoryService.
type DirectoryServiceClient struct {
	savePerson *connect.Client[SavePersonRequest, SavePersonResponse]
	getPerson  *connect.Client[GetPersonRequest, GetPersonResponse]
	listPeople *connect.Client[ListPeopleRequest, ListPeopleResponse]
}

// NewDirectoryServiceClient creates a DirectoryService client for the server
// at baseURL.
func NewDirectoryServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *DirectoryServiceClient {
	baseURL = trimBase(baseURL)
	o := clientOptions(opts)
	return &DirectoryServiceClient{
		savePerson: connect.NewClient[SavePersonRequest, SavePersonResponse](httpClient, baseURL+DirectoryServiceSavePersonProcedure, o),
		getPerson:  connect.NewClient[GetPersonRequest, GetPersonResponse](httpClient, baseURL+DirectoryServiceGetPersonProcedure, o),
		listPeople: connect.NewClient[ListPeopleRequest, ListPeopleResponse](httpClient, baseURL+DirectoryServiceListPeopleProcedure, o),
	}
}

// SavePerson calls tabsplit.v1.DirectoryService.SavePerson.
func (c *DirectoryServiceClient) SavePerson(ctx context.Context, req *connect.Request[SavePersonRequest]) (*connect.Response[SavePersonResponse], error) {
	return c.savePerson.CallUnary(ctx, req)
}

// GetPerson calls tabsplit.v1.DirectoryService.GetPerson.
func (c *DirectoryServiceClient) GetPerson(ctx context.Context, req *connect.Request[GetPersonRequest]) (*connect.Response[GetPersonResponse], error) {
	return c.getPerson.CallUnary(ctx, req)
}

// ListPeople calls tabsplit.v1.DirectoryService.ListPeople.
func (c *DirectoryServiceClient) ListPeople(ctx context.Context, req *connect.Request[ListPeopleRequest]) (*connect.Response[ListPeopleResponse], error) {
	return c.listPeople.CallUnary(ctx, req)
}
