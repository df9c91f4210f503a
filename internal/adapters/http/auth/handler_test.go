package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"sellerpromotions/admin-api/internal/core/identity"
	"sellerpromotions/admin-api/internal/infrastructure/http/middleware"
	"sellerpromotions/admin-api/internal/testutil"
)

func TestHandler_RoleProbes(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		roles          []string
		expectedStatus int
		expectedMsg    string
	}{
		{"development role", "/api/auth/authorized", []string{"DEVELOPMENT_FULL"}, http.StatusOK, "authorized"},
		{"payments role", "/api/auth/authorized", []string{"PAYMENTS_FULL"}, http.StatusOK, "authorized"},
		{"no role", "/api/auth/authorized", []string{"SP_CENTRAL_ADMIN"}, http.StatusForbidden, "unauthorized"},
		{"unauthorized probe", "/api/auth/unauthorized", []string{"UNAUTHORIZED"}, http.StatusOK, "authorized"},
		{"unauthorized probe denied", "/api/auth/unauthorized", []string{"DEVELOPMENT_FULL"}, http.StatusForbidden, "unauthorized"},
	}

	log := testutil.NewNullLogger()
	handler := NewHandler(middleware.NewAuthorizer(http.StatusForbidden, log), log)
	r := chi.NewRouter()
	r.Route("/api/auth", handler.Register)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testutil.AsUser(httptest.NewRequest(http.MethodGet, tt.path, nil), identity.User{UserID: "42", Roles: tt.roles})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			body := testutil.ReadErrorResponse(t, w)
			if body["message"] != tt.expectedMsg {
				t.Errorf("expected message %q, got %v", tt.expectedMsg, body["message"])
			}
		})
	}
}

func TestHandler_Anonymous(t *testing.T) {
	log := testutil.NewNullLogger()
	handler := NewHandler(middleware.NewAuthorizer(http.StatusForbidden, log), log)
	r := chi.NewRouter()
	r.Route("/api/auth", handler.Register)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/auth/authorized", nil))

	if w.Code != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", w.Code)
	}
}
