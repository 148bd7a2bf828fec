package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const (
	// BillServiceName is the fully-qualified name of the BillService.
	BillServiceName = "billplanner.v1.BillService"

	BillServiceCreateBillProcedure      = "/billplanner.v1.BillService/CreateBill"
	BillServiceGetBillProcedure         = "/billplanner.v1.BillService/GetBill"
	BillServiceListBillsProcedure       = "/billplanner.v1.BillService/ListBills"
	BillServiceUpdateBillProcedure      = "/billplanner.v1.BillService/UpdateBill"
	BillServiceDeleteBillProcedure      = "/billplanner.v1.BillService/DeleteBill"
	BillServiceEditInstallmentProcedure = "/billplanner.v1.BillService/EditInstallment"
	BillServicePayInstallmentProcedure  = "/billplanner.v1.BillService/PayInstallment"
	BillServicePayRemainingProcedure    = "/billplanner.v1.BillService/PayRemaining"
)

// BillServiceHandler is implemented by the server side of BillService.
type BillServiceHandler interface {
	CreateBill(context.Context, *connect.Request[CreateBillRequest]) (*connect.Response[CreateBillResponse], error)
	GetBill(context.Context, *connect.Request[GetBillRequest]) (*connect.Response[GetBillResponse], error)
	ListBills(context.Context, *connect.Request[ListBillsRequest]) (*connect.Response[ListBillsResponse], error)
	UpdateBill(context.Context, *connect.Request[UpdateBillRequest]) (*connect.Response[UpdateBillResponse], error)
	DeleteBill(context.Context, *connect.Request[DeleteBillRequest]) (*connect.Response[DeleteBillResponse], error)
	EditInstallment(context.Context, *connect.Request[EditInstallmentRequest]) (*connect.Response[EditInstallmentResponse], error)
	PayInstallment(context.Context, *connect.Request[PayInstallmentRequest]) (*connect.Response[PayInstallmentResponse], error)
	PayRemaining(context.Context, *connect.Request[PayRemainingRequest]) (*connect.Response[PayRemainingResponse], error)
}

// NewBillServiceHandler builds an HTTP handler for BillService and returns
// the path to mount it on.
func NewBillServiceHandler(svc BillServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	routes := map[string]http.Handler{
		BillServiceCreateBillProcedure:      connect.NewUnaryHandler(BillServiceCreateBillProcedure, svc.CreateBill, opts...),
		BillServiceGetBillProcedure:         connect.NewUnaryHandler(BillServiceGetBillProcedure, svc.GetBill, opts...),
		BillServiceListBillsProcedure:       connect.NewUnaryHandler(BillServiceListBillsProcedure, svc.ListBills, opts...),
		BillServiceUpdateBillProcedure:      connect.NewUnaryHandler(BillServiceUpdateBillProcedure, svc.UpdateBill, opts...),
		BillServiceDeleteBillProcedure:      connect.NewUnaryHandler(BillServiceDeleteBillProcedure, svc.DeleteBill, opts...),
		BillServiceEditInstallmentProcedure: connect.NewUnaryHandler(BillServiceEditInstallmentProcedure, svc.EditInstallment, opts...),
		BillServicePayInstallmentProcedure:  connect.NewUnaryHandler(BillServicePayInstallmentProcedure, svc.PayInstallment, opts...),
		BillServicePayRemainingProcedure:    connect.NewUnaryHandler(BillServicePayRemainingProcedure, svc.PayRemaining, opts...),
	}
	return "/" + BillServiceName + "/", routeByPath(routes)
}

// BillServiceClient is a client for BillService.
type BillServiceClient interface {
	BillServiceHandler
}

// NewBillServiceClient creates a client for the BillService served at baseURL.
func NewBillServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) BillServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &billServiceClient{
		createBill:      connect.NewClient[CreateBillRequest, CreateBillResponse](httpClient, baseURL+BillServiceCreateBillProcedure, opts...),
		getBill:         connect.NewClient[GetBillRequest, GetBillResponse](httpClient, baseURL+BillServiceGetBillProcedure, opts...),
		listBills:       connect.NewClient[ListBillsRequest, ListBillsResponse](httpClient, baseURL+BillServiceListBillsProcedure, opts...),
		updateBill:      connect.NewClient[UpdateBillRequest, UpdateBillResponse](httpClient, baseURL+BillServiceUpdateBillProcedure, opts...),
		deleteBill:      connect.NewClient[DeleteBillRequest, DeleteBillResponse](httpClient, baseURL+BillServiceDeleteBillProcedure, opts...),
		editInstallment: connect.NewClient[EditInstallmentRequest, EditInstallmentResponse](httpClient, baseURL+BillServiceEditInstallmentProcedure, opts...),
		payInstallment:  connect.NewClient[PayInstallmentRequest, PayInstallmentResponse](httpClient, baseURL+BillServicePayInstallmentProcedure, opts...),
		payRemaining:    connect.NewClient[PayRemainingRequest, PayRemainingResponse](httpClient, baseURL+BillServicePayRemainingProcedure, opts...),
	}
}

type billServiceClient struct {
	createBill      *connect.Client[CreateBillRequest, CreateBillResponse]
	getBill         *connect.Client[GetBillRequest, GetBillResponse]
	listBills       *connect.Client[ListBillsRequest, ListBillsResponse]
	updateBill      *connect.Client[UpdateBillRequest, UpdateBillResponse]
	deleteBill      *connect.Client[DeleteBillRequest, DeleteBillResponse]
	editInstallment *connect.Client[EditInstallmentRequest, EditInstallmentResponse]
	payInstallment  *connect.Client[PayInstallmentRequest, PayInstallmentResponse]
	payRemaining    *connect.Client[PayRemainingRequest, PayRemainingResponse]
}

func (c *billServiceClient) CreateBill(ctx context.Context, req *connect.Request[CreateBillRequest]) (*connect.Response[CreateBillResponse], error) {
	return c.createBill.CallUnary(ctx, req)
}

func (c *billServiceClient) GetBill(ctx context.Context, req *connect.Request[GetBillRequest]) (*connect.Response[GetBillResponse], error) {
	return c.getBill.CallUnary(ctx, req)
}

func (c *billServiceClient) ListBills(ctx context.Context, req *connect.Request[ListBillsRequest]) (*connect.Response[ListBillsResponse], error) {
	return c.listBills.CallUnary(ctx, req)
}

func (c *billServiceClient) UpdateBill(ctx context.Context, req *connect.Request[UpdateBillRequest]) (*connect.Response[UpdateBillResponse], error) {
	return c.updateBill.CallUnary(ctx, req)
}

func (c *billServiceClient) DeleteBill(ctx context.Context, req *connect.Request[DeleteBillRequest]) (*connect.Response[DeleteBillResponse], error) {
	return c.deleteBill.CallUnary(ctx, req)
}

func (c *billServiceClient) EditInstallment(ctx context.Context, req *connect.Request[EditInstallmentRequest]) (*connect.Response[EditInstallmentResponse], error) {
	return c.editInstallment.CallUnary(ctx, req)
}

func (c *billServiceClient) PayInstallment(ctx context.Context, req *connect.Request[PayInstallmentRequest]) (*connect.Response[PayInstallmentResponse], error) {
	return c.payInstallment.CallUnary(ctx, req)
}

func (c *billServiceClient) PayRemaining(ctx context.Context, req *connect.Request[PayRemainingRequest]) (*connect.Response[PayRemainingResponse], error) {
	return c.payRemaining.CallUnary(ctx, req)
}

func routeByPath(routes map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}
