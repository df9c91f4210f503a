package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"sellerpromotions/admin-api/internal/core/identity"
	"sellerpromotions/admin-api/internal/infrastructure/config"
	"sellerpromotions/admin-api/internal/infrastructure/metrics"
	"sellerpromotions/admin-api/internal/testutil"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("healthy"))
})

func TestNew_NilLogger(t *testing.T) {
	_, err := New(Options{
		Config:        config.AppConfig{HTTP: config.HTTPSettings{Port: 8080}},
		HealthHandler: okHandler,
	})

	if err == nil {
		t.Fatal("expected error for nil logger")
	}
	if err.Error() != "logger is required" {
		t.Errorf("expected error 'logger is required', got %q", err.Error())
	}
}

func TestNew_NilHealthHandler(t *testing.T) {
	_, err := New(Options{
		Config: config.AppConfig{HTTP: config.HTTPSettings{Port: 8080}},
		Logger: testutil.NewTestLogger(),
	})

	if err == nil {
		t.Fatal("expected error for nil health handler")
	}
	if err.Error() != "health handler is required" {
		t.Errorf("expected error 'health handler is required', got %q", err.Error())
	}
}

func TestNew_ValidOptions(t *testing.T) {
	cfg := config.AppConfig{
		HTTP: config.HTTPSettings{
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
	}

	server, err := New(Options{Config: cfg, Logger: testutil.NewTestLogger(), HealthHandler: okHandler})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if server.httpServer.Addr != ":8080" {
		t.Errorf("expected address ':8080', got %q", server.httpServer.Addr)
	}
	if server.httpServer.WriteTimeout != 60*time.Second {
		t.Errorf("expected write timeout 60s, got %v", server.httpServer.WriteTimeout)
	}
	if server.shutdownTimeout != 30*time.Second {
		t.Errorf("expected shutdown timeout 30s, got %v", server.shutdownTimeout)
	}
}

func TestServer_HealthAndMetricsArePublic(t *testing.T) {
	denyAll := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})
	}

	server, err := New(Options{
		Config:        config.AppConfig{HTTP: config.HTTPSettings{Port: 8080}},
		Logger:        testutil.NewNullLogger(),
		Metrics:       metrics.New(),
		Authenticator: denyAll,
		HealthHandler: okHandler,
		Routes: []Route{{Prefix: "/promotions", Register: func(r chi.Router) {
			r.Get("/list", func(w http.ResponseWriter, r *http.Request) {})
		}}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		path           string
		expectedStatus int
	}{
		{"/health", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/api/promotions/list", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestServer_SharedPrefix(t *testing.T) {
	inject := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(identity.WithUser(r.Context(), identity.User{UserID: "42"})))
		})
	}
	reply := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			user, _ := identity.FromContext(r.Context())
			_, _ = w.Write([]byte(body + ":" + user.UserID))
		}
	}

	server, err := New(Options{
		Config:        config.AppConfig{HTTP: config.HTTPSettings{Port: 8080}},
		Logger:        testutil.NewNullLogger(),
		Authenticator: inject,
		HealthHandler: okHandler,
		Routes: []Route{
			{Prefix: "/promotions", Register: func(r chi.Router) { r.Get("/list", reply("list")) }},
			{Prefix: "/items", Register: func(r chi.Router) { r.Get("/search", reply("search")) }},
			{Prefix: "/promotions", Register: func(r chi.Router) { r.Get("/{promotionId}/candidates/items", reply("candidates")) }},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for path, expected := range map[string]string{
		"/api/promotions/list":               "list:42",
		"/api/items/search":                  "search:42",
		"/api/promotions/P1/candidates/items": "candidates:42",
	} {
		w := httptest.NewRecorder()
		server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Body.String() != expected {
			t.Errorf("%s: expected %q, got %q", path, expected, w.Body.String())
		}
	}
}

func TestServer_NotFound(t *testing.T) {
	server, err := New(Options{
		Config:        config.AppConfig{HTTP: config.HTTPSettings{Port: 8080}},
		Logger:        testutil.NewNullLogger(),
		HealthHandler: okHandler,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "not found") {
		t.Errorf("unexpected body %q", w.Body.String())
	}
}

func TestServer_Run_ContextCancel(t *testing.T) {
	cfg := config.AppConfig{
		HTTP: config.HTTPSettings{
			Port:            0,
			ShutdownTimeout: time.Second,
		},
	}

	server, err := New(Options{Config: cfg, Logger: testutil.NewNullLogger(), HealthHandler: okHandler})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	if err := server.Run(ctx); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
