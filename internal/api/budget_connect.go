package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const (
	// BudgetServiceName is the fully-qualified name of the BudgetService.
	BudgetServiceName = "billplanner.v1.BudgetService"

	BudgetServiceAddEntryProcedure    = "/billplanner.v1.BudgetService/AddEntry"
	BudgetServiceListEntriesProcedure = "/billplanner.v1.BudgetService/ListEntries"
	BudgetServiceDeleteEntryProcedure = "/billplanner.v1.BudgetService/DeleteEntry"
	BudgetServiceGetSummaryProcedure  = "/billplanner.v1.BudgetService/GetSummary"
)

// BudgetServiceHandler is implemented by the server side of BudgetService.
type BudgetServiceHandler interface {
	AddEntry(context.Context, *connect.Request[AddEntryRequest]) (*connect.Response[AddEntryResponse], error)
	ListEntries(context.Context, *connect.Request[ListEntriesRequest]) (*connect.Response[ListEntriesResponse], error)
	DeleteEntry(context.Context, *connect.Request[DeleteEntryRequest]) (*connect.Response[DeleteEntryResponse], error)
	GetSummary(context.Context, *connect.Request[GetSummaryRequest]) (*connect.Response[GetSummaryResponse], error)
}

// NewBudgetServiceHandler builds an HTTP handler for BudgetService and
// returns the path to mount it on.
func NewBudgetServiceHandler(svc BudgetServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	routes := map[string]http.Handler{
		BudgetServiceAddEntryProcedure:    connect.NewUnaryHandler(BudgetServiceAddEntryProcedure, svc.AddEntry, opts...),
		BudgetServiceListEntriesProcedure: connect.NewUnaryHandler(BudgetServiceListEntriesProcedure, svc.ListEntries, opts...),
		BudgetServiceDeleteEntryProcedure: connect.NewUnaryHandler(BudgetServiceDeleteEntryProcedure, svc.DeleteEntry, opts...),
		BudgetServiceGetSummaryProcedure:  connect.NewUnaryHandler(BudgetServiceGetSummaryProcedure, svc.GetSummary, opts...),
	}
	return "/" + BudgetServiceName + "/", routeByPath(routes)
}

// BudgetServiceClient is a client for BudgetService.
type BudgetServiceClient interface {
	BudgetServiceHandler
}

// NewBudgetServiceClient creates a client for the BudgetService served at baseURL.
func NewBudgetServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) BudgetServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &budgetServiceClient{
		addEntry:    connect.NewClient[AddEntryRequest, AddEntryResponse](httpClient, baseURL+BudgetServiceAddEntryProcedure, opts...),
		listEntries: connect.NewClient[ListEntriesRequest, ListEntriesResponse](httpClient, baseURL+BudgetServiceListEntriesProcedure, opts...),
		deleteEntry: connect.NewClient[DeleteEntryRequest, DeleteEntryResponse](httpClient, baseURL+BudgetServiceDeleteEntryProcedure, opts...),
		getSummary:  connect.NewClient[GetSummaryRequest, GetSummaryResponse](httpClient, baseURL+BudgetServiceGetSummaryProcedure, opts...),
	}
}

type budgetServiceClient struct {
	addEntry    *connect.Client[AddEntryRequest, AddEntryResponse]
	listEntries *connect.Client[ListEntriesRequest, ListEntriesResponse]
	deleteEntry *connect.Client[DeleteEntryRequest, DeleteEntryResponse]
	getSummary  *connect.Client[GetSummaryRequest, GetSummaryResponse]
}

func (c *budgetServiceClient) AddEntry(ctx context.Context, req *connect.Request[AddEntryRequest]) (*connect.Response[AddEntryResponse], error) {
	return c.addEntry.CallUnary(ctx, req)
}

func (c *budgetServiceClient) ListEntries(ctx context.Context, req *connect.Request[ListEntriesRequest]) (*connect.Response[ListEntriesResponse], error) {
	return c.listEntries.CallUnary(ctx, req)
}

func (c *budgetServiceClient) DeleteEntry(ctx context.Context, req *connect.Request[DeleteEntryRequest]) (*connect.Response[DeleteEntryResponse], error) {
	return c.deleteEntry.CallUnary(ctx, req)
}

func (c *budgetServiceClient) GetSummary(ctx context.Context, req *connect.Request[GetSummaryRequest]) (*connect.Response[GetSummaryResponse], error) {
	return c.getSummary.CallUnary(ctx, req)
}
