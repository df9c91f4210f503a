package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	ctxutil "sellerpromotions/admin-api/internal/infrastructure/context"
	"sellerpromotions/admin-api/internal/infrastructure/metrics"
	"sellerpromotions/admin-api/internal/testutil"
)

func TestRequestLogger(t *testing.T) {
	middleware := RequestLogger(testutil.NewTestLogger(), nil)

	tests := []struct {
		name       string
		statusCode int
	}{
		{"2xx status logs as info", http.StatusOK},
		{"3xx status logs as info", http.StatusMovedPermanently},
		{"4xx status logs as warn", http.StatusBadRequest},
		{"5xx status logs as error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				w.Write([]byte("test response"))
			}))

			handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

			if w.Code != tt.statusCode {
				t.Errorf("expected status code %d, got %d", tt.statusCode, w.Code)
			}
		})
	}
}

func TestRequestLogger_UsesRequestIDAsTraceID(t *testing.T) {
	middleware := RequestLogger(testutil.NewNullLogger(), nil)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req = req.WithContext(context.WithValue(req.Context(), chimw.RequestIDKey, "test-request-id"))

	var traceID string
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = ctxutil.GetTraceID(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if traceID != "test-request-id" {
		t.Errorf("expected trace id from request id, got %q", traceID)
	}
}

func TestRequestLogger_GeneratesTraceID(t *testing.T) {
	middleware := RequestLogger(testutil.NewNullLogger(), nil)

	var traceID string
	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID = ctxutil.GetTraceID(r.Context())
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/test", nil))

	if traceID == "" {
		t.Error("expected a generated trace id")
	}
}

func TestRequestLogger_RecordsRoutePattern(t *testing.T) {
	m := metrics.New()
	router := chi.NewRouter()
	router.Use(RequestLogger(testutil.NewNullLogger(), m))
	router.Get("/api/promotions/{promotionId}/offers", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/promotions/P-1/offers", nil))

	scrape := httptest.NewRecorder()
	m.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(scrape.Body)

	if !strings.Contains(string(body), `route="/api/promotions/{promotionId}/offers"`) {
		t.Errorf("expected the route pattern label, got:\n%s", body)
	}
	if strings.Contains(string(body), "P-1") {
		t.Error("raw path must not become a label")
	}
}

func TestResponseWriter_WriteHeader(t *testing.T) {
	base := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: base, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusNotFound)

	if rw.statusCode != http.StatusNotFound || base.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d/%d", rw.statusCode, base.Code)
	}
}

func TestResponseWriter_Write(t *testing.T) {
	base := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: base}

	data := []byte("test data")
	n, err := rw.Write(data)

	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if n != len(data) || rw.bytesWritten != int64(len(data)) {
		t.Errorf("expected %d bytes, got n=%d written=%d", len(data), n, rw.bytesWritten)
	}
	if rw.statusCode != http.StatusOK {
		t.Errorf("expected default status code %d, got %d", http.StatusOK, rw.statusCode)
	}
}

func TestResponseWriter_Flush(t *testing.T) {
	base := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: base}

	rw.Flush()

	if !base.Flushed {
		t.Error("expected flush to reach the underlying writer")
	}
}
