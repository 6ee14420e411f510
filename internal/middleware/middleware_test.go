package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"connectrpc.com/connect"

	"github.com/mmynk/tripsplit/internal/auth"
	"github.com/mmynk/tripsplit/internal/metrics"
	"github.com/mmynk/tripsplit/pkg/api"
)

func echoUser(ctx context.Context, _ connect.AnyRequest) (connect.AnyResponse, error) {
	return connect.NewResponse(&api.GetTripResponse{Trip: api.Trip{ID: GetUserID(ctx), Name: GetDisplayName(ctx)}}), nil
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.Generate("alice", "Alice")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	tests := []struct {
		name     string
		header   string
		wantCode connect.Code
		wantUser string
	}{
		{"valid bearer token", "Bearer " + token, 0, "alice"},
		{"lowercase scheme", "bearer " + token, 0, "alice"},
		{"missing header", "", connect.CodeUnauthenticated, ""},
		{"wrong scheme", "Basic " + token, connect.CodeUnauthenticated, ""},
		{"no token", "Bearer ", connect.CodeUnauthenticated, ""},
		{"bad token", "Bearer garbage", connect.CodeUnauthenticated, ""},
	}

	handler := RequireAuth(jwtManager)(echoUser)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := connect.NewRequest(&api.GetTripRequest{})
			if tt.header != "" {
				req.Header().Set("Authorization", tt.header)
			}

			resp, err := handler(context.Background(), req)
			if tt.wantCode != 0 {
				if connect.CodeOf(err) != tt.wantCode {
					t.Fatalf("Expected code %v, got %v", tt.wantCode, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			got := resp.Any().(*api.GetTripResponse)
			if got.Trip.ID != tt.wantUser {
				t.Errorf("User in context: got %q, want %q", got.Trip.ID, tt.wantUser)
			}
			if got.Trip.Name != "Alice" {
				t.Errorf("Display name in context: got %q, want Alice", got.Trip.Name)
			}
		})
	}
}

func TestLoggingInterceptor(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	t.Run("success logs at info", func(t *testing.T) {
		buf.Reset()
		ctx := context.WithValue(context.Background(), UserIDKey, "alice")
		_, err := LoggingInterceptor(logger)(echoUser)(ctx, connect.NewRequest(&api.GetTripRequest{}))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "level=INFO") || !strings.Contains(out, "user_id=alice") {
			t.Errorf("Unexpected log output: %s", out)
		}
	})

	t.Run("client error logs at warn", func(t *testing.T) {
		buf.Reset()
		failing := func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
			return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("amount must be positive"))
		}
		_, err := LoggingInterceptor(logger)(failing)(context.Background(), connect.NewRequest(&api.GetTripRequest{}))
		if connect.CodeOf(err) != connect.CodeInvalidArgument {
			t.Fatalf("Expected error to pass through, got %v", err)
		}
		if !strings.Contains(buf.String(), "level=WARN") {
			t.Errorf("Expected warn level, got: %s", buf.String())
		}
	})

	t.Run("server error logs at error", func(t *testing.T) {
		buf.Reset()
		failing := func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
			return nil, connect.NewError(connect.CodeDataLoss, errors.New("ledger is imbalanced"))
		}
		_, _ = LoggingInterceptor(logger)(failing)(context.Background(), connect.NewRequest(&api.GetTripRequest{}))
		if !strings.Contains(buf.String(), "level=ERROR") {
			t.Errorf("Expected error level, got: %s", buf.String())
		}
	})
}

func TestMetricsInterceptor(t *testing.T) {
	m := metrics.New()
	interceptor := MetricsInterceptor(m)

	failing := func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("trip not found"))
	}

	_, _ = interceptor(echoUser)(context.Background(), connect.NewRequest(&api.GetTripRequest{}))
	_, _ = interceptor(failing)(context.Background(), connect.NewRequest(&api.GetTripRequest{}))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)

	for _, want := range []string{
		`tripsplit_rpc_requests_total{code="ok",procedure=""} 1`,
		`tripsplit_rpc_requests_total{code="not_found",procedure=""} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("Expected metrics output to contain %q", want)
		}
	}
}
