package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const (
	// FeedServiceName is the fully-qualified name of the FeedService.
	FeedServiceName = "billplanner.v1.FeedService"

	FeedServiceSubscribeProcedure = "/billplanner.v1.FeedService/Subscribe"
)

// FeedServiceHandler is implemented by the server side of FeedService.
type FeedServiceHandler interface {
	Subscribe(context.Context, *connect.Request[SubscribeRequest], *connect.ServerStream[FeedEvent]) error
}

// NewFeedServiceHandler builds an HTTP handler for FeedService and returns
// the path to mount it on.
func NewFeedServiceHandler(svc FeedServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	routes := map[string]http.Handler{
		FeedServiceSubscribeProcedure: connect.NewServerStreamHandler(FeedServiceSubscribeProcedure, svc.Subscribe, opts...),
	}
	return "/" + FeedServiceName + "/", routeByPath(routes)
}

// FeedServiceClient is a client for FeedService.
type FeedServiceClient interface {
	Subscribe(context.Context, *connect.Request[SubscribeRequest]) (*connect.ServerStreamForClient[FeedEvent], error)
}

// NewFeedServiceClient creates a client for the FeedService served at baseURL.
func NewFeedServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) FeedServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &feedServiceClient{
		subscribe: connect.NewClient[SubscribeRequest, FeedEvent](httpClient, baseURL+FeedServiceSubscribeProcedure, opts...),
	}
}

type feedServiceClient struct {
	subscribe *connect.Client[SubscribeRequest, FeedEvent]
}

func (c *feedServiceClient) Subscribe(ctx context.Context, req *connect.Request[SubscribeRequest]) (*connect.ServerStreamForClient[FeedEvent], error) {
	return c.subscribe.CallServerStream(ctx, req)
}
