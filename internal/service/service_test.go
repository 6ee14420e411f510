package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"connectrpc.com/connect"

	"github.com/mmynk/tripsplit/internal/calculator"
	"github.com/mmynk/tripsplit/internal/metrics"
	"github.com/mmynk/tripsplit/internal/middleware"
	"github.com/mmynk/tripsplit/internal/storage/sqlite"
	"github.com/mmynk/tripsplit/pkg/api"
	"github.com/mmynk/tripsplit/pkg/api/apiconnect"
)

// testUserHeader selects the caller in tests. "-" means no authenticated caller.
const testUserHeader = "X-Test-User"

// testAuthInterceptor returns a Connect interceptor that sets the caller from
// testUserHeader, defaulting to alice.
func testAuthInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			userID := req.Header().Get(testUserHeader)
			if userID == "" {
				userID = "alice"
			}
			if userID != "-" {
				ctx = context.WithValue(ctx, middleware.UserIDKey, userID)
			}
			return next(ctx, req)
		}
	}
}

type testEnv struct {
	trips    apiconnect.TripServiceClient
	expenses apiconnect.ExpenseServiceClient
	store    *sqlite.SQLiteStore
	metrics  *metrics.Metrics
}

// setupTestServer creates a test server backed by a temporary SQLite database.
func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	m := metrics.New()
	interceptors := connect.WithInterceptors(testAuthInterceptor())

	tripPath, tripHandler := apiconnect.NewTripServiceHandler(NewTripService(store), interceptors)
	expensePath, expenseHandler := apiconnect.NewExpenseServiceHandler(NewExpenseService(store, calculator.Planner{}, m), interceptors)

	mux := http.NewServeMux()
	mux.Handle(tripPath, tripHandler)
	mux.Handle(expensePath, expenseHandler)

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		store.Close()
	})

	return &testEnv{
		trips:    apiconnect.NewTripServiceClient(http.DefaultClient, server.URL),
		expenses: apiconnect.NewExpenseServiceClient(http.DefaultClient, server.URL),
		store:    store,
		metrics:  m,
	}
}

// as builds a request made by userID.
func as[T any](userID string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	req.Header().Set(testUserHeader, userID)
	return req
}

// createTrip creates a EUR trip as alice with the given other members.
func createTrip(t *testing.T, env *testEnv, members ...string) api.Trip {
	t.Helper()
	req := &api.CreateTripRequest{Name: "Lisbon", Currency: "eur"}
	for _, m := range members {
		req.Members = append(req.Members, api.Member{UserID: m})
	}
	resp, err := env.trips.CreateTrip(context.Background(), as("alice", req))
	if err != nil {
		t.Fatalf("CreateTrip failed: %v", err)
	}
	return resp.Msg.Trip
}

func createExpense(t *testing.T, env *testEnv, req *api.CreateExpenseRequest) api.Expense {
	t.Helper()
	resp, err := env.expenses.CreateExpense(context.Background(), as("alice", req))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	return resp.Msg.Expense
}

func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	var connectErr *connect.Error
	if !errors.As(err, &connectErr) {
		t.Fatalf("expected connect.Error, got %T", err)
	}
	if connectErr.Code() != want {
		t.Errorf("expected %v, got %v (%s)", want, connectErr.Code(), connectErr.Message())
	}
}

func scrapeMetrics(t *testing.T, env *testEnv) string {
	t.Helper()
	rec := httptest.NewRecorder()
	env.metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("failed to read metrics: %v", err)
	}
	return string(body)
}
