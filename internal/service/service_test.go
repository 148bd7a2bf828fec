package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/billplanner/internal/api"
	"github.com/mmynk/billplanner/internal/auth"
	"github.com/mmynk/billplanner/internal/feed"
	"github.com/mmynk/billplanner/internal/middleware"
	"github.com/mmynk/billplanner/internal/models"
	"github.com/mmynk/billplanner/internal/storage"
	"github.com/mmynk/billplanner/internal/storage/sqlite"
)

// testEnv is a running server with every service mounted behind the real
// auth interceptor.
type testEnv struct {
	t      *testing.T
	server *httptest.Server
	store  *sqlite.SQLiteStore
	hub    *feed.Hub
	jwt    *auth.JWTManager
}

// clients holds one user's typed clients.
type clients struct {
	userID string
	auth   api.AuthServiceClient
	bills  api.BillServiceClient
	budget api.BudgetServiceClient
	feed   api.FeedServiceClient
}

type testOptions struct {
	feedBuffer int
	billStore  func(storage.Store) storage.Store
}

type testOption func(*testOptions)

// withFeedBuffer sets the per-subscriber buffer of the hub.
func withFeedBuffer(n int) testOption {
	return func(o *testOptions) { o.feedBuffer = n }
}

// withBillStore wraps the store seen by the BillService.
func withBillStore(wrap func(storage.Store) storage.Store) testOption {
	return func(o *testOptions) { o.billStore = wrap }
}

func setupTestServer(t *testing.T, opts ...testOption) *testEnv {
	t.Helper()

	o := testOptions{feedBuffer: feed.DefaultBuffer}
	for _, opt := range opts {
		opt(&o)
	}

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	var billStore storage.Store = store
	if o.billStore != nil {
		billStore = o.billStore(store)
	}

	hub := feed.NewHub(o.feedBuffer)
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	authenticator := auth.NewPasswordAuthenticatorWithCost(store, bcrypt.MinCost)

	interceptors := connect.WithInterceptors(
		middleware.NewAuthInterceptor(jwtManager,
			api.AuthServiceRegisterProcedure,
			api.AuthServiceLoginProcedure,
		),
	)

	mux := http.NewServeMux()
	mux.Handle(api.NewAuthServiceHandler(NewAuthService(authenticator, store, jwtManager, nil), interceptors))
	mux.Handle(api.NewBillServiceHandler(NewBillService(billStore, hub), interceptors))
	mux.Handle(api.NewBudgetServiceHandler(NewBudgetService(store, hub), interceptors))
	mux.Handle(api.NewFeedServiceHandler(NewFeedService(store, hub, nil), interceptors))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testEnv{t: t, server: server, store: store, hub: hub, jwt: jwtManager}
}

// newUser stores a user directly and returns clients carrying its token.
func (e *testEnv) newUser(email string) *clients {
	e.t.Helper()

	user := models.NewUser(email, email, "unused-hash")
	require.NoError(e.t, e.store.CreateUser(context.Background(), user))

	token, err := e.jwt.Generate(user)
	require.NoError(e.t, err)

	c := e.clientsWithToken(token)
	c.userID = user.ID
	return c
}

func (e *testEnv) clientsWithToken(token string) *clients {
	opts := connect.WithInterceptors(middleware.BearerToken(token))
	httpClient := e.server.Client()
	return &clients{
		auth:   api.NewAuthServiceClient(httpClient, e.server.URL, opts),
		bills:  api.NewBillServiceClient(httpClient, e.server.URL, opts),
		budget: api.NewBudgetServiceClient(httpClient, e.server.URL, opts),
		feed:   api.NewFeedServiceClient(httpClient, e.server.URL, opts),
	}
}

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func amounts(bill *api.Bill) []string {
	out := make([]string, len(bill.Installments))
	for i, inst := range bill.Installments {
		out[i] = inst.Amount.StringFixed(2)
	}
	return out
}

func requireCode(t *testing.T, err error, code connect.Code) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, connect.CodeOf(err), "error: %v", err)
}
