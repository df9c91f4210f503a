package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	apphealth "sellerpromotions/admin-api/internal/application/health"
	corehealth "sellerpromotions/admin-api/internal/core/health"
	"sellerpromotions/admin-api/internal/testutil"
)

func TestNewHandler(t *testing.T) {
	service := &apphealth.Service{}
	handler := NewHandler(service, testutil.NewNullLogger())

	if handler == nil {
		t.Fatal("expected handler to be created, got nil")
	}

	if handler.service != service {
		t.Error("expected handler to have the provided service")
	}
}

func TestHandler_Status(t *testing.T) {
	meta := apphealth.Metadata{
		Service:     "promotions-admin-api",
		Version:     "1.0.0",
		Environment: "test",
	}

	tests := []struct {
		name           string
		checks         []apphealth.Check
		expectedStatus string
		expectedDeps   int
	}{
		{
			name:           "no dependencies",
			expectedStatus: corehealth.StatusUp,
		},
		{
			name: "healthy dependency",
			checks: []apphealth.Check{
				{Name: "redis", Ping: func(ctx context.Context) error { return nil }},
			},
			expectedStatus: corehealth.StatusUp,
			expectedDeps:   1,
		},
		{
			name: "failing dependency degrades",
			checks: []apphealth.Check{
				{Name: "redis", Ping: func(ctx context.Context) error { return nil }},
				{Name: "audit-db", Ping: func(ctx context.Context) error { return errors.New("connection refused") }},
			},
			expectedStatus: corehealth.StatusDegraded,
			expectedDeps:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHandler(apphealth.NewService(meta, tt.checks...), testutil.NewNullLogger())
			r := chi.NewRouter()
			handler.Register(r)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != http.StatusOK {
				t.Errorf("expected status code %d, got %d", http.StatusOK, w.Code)
			}

			if contentType := w.Header().Get("Content-Type"); contentType != "application/json" {
				t.Errorf("expected Content-Type application/json, got %s", contentType)
			}

			var status corehealth.Status
			if err := json.NewDecoder(w.Body).Decode(&status); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}

			if status.Service != meta.Service || status.Version != meta.Version || status.Environment != meta.Environment {
				t.Errorf("unexpected metadata %+v", status)
			}
			if status.Status != tt.expectedStatus {
				t.Errorf("expected status %q, got %q", tt.expectedStatus, status.Status)
			}
			if len(status.Dependencies) != tt.expectedDeps {
				t.Errorf("expected %d dependencies, got %d", tt.expectedDeps, len(status.Dependencies))
			}
		})
	}
}
