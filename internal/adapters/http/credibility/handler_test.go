package credibility

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"sellerpromotions/admin-api/internal/adapters/http/support"
	appaudit "sellerpromotions/admin-api/internal/application/audit"
	appcredibility "sellerpromotions/admin-api/internal/application/credibility"
	"sellerpromotions/admin-api/internal/application/siteconfig"
	"sellerpromotions/admin-api/internal/core/identity"
	"sellerpromotions/admin-api/internal/core/middleend"
	"sellerpromotions/admin-api/internal/infrastructure/config"
	"sellerpromotions/admin-api/internal/infrastructure/http/middleware"
	"sellerpromotions/admin-api/internal/testutil"
)

type fixture struct {
	router   http.Handler
	doer     *testutil.MockDoer
	writer   *testutil.MockAuditWriter
	recorder *appaudit.Recorder
}

func newFixture(doer *testutil.MockDoer) fixture {
	log := testutil.NewNullLogger()
	writer := testutil.NewMockAuditWriter()
	recorder := appaudit.NewRecorder(writer, config.AuditSettings{Enabled: true, WriteTimeout: time.Second}, log, nil)
	resolver := siteconfig.NewResolver(config.MiddleendSettings{Scope: "prod"})
	base := support.Base{Resolver: resolver, Recorder: recorder, Log: log, MaxUploadSize: 1 << 20}

	handler := NewHandler(base, appcredibility.NewService(doer, resolver), middleware.NewAuthorizer(http.StatusUnauthorized, log))
	r := chi.NewRouter()
	r.Route("/api/credibility", handler.Register)
	return fixture{router: r, doer: doer, writer: writer, recorder: recorder}
}

func TestHandler_Exceptions(t *testing.T) {
	tests := []struct {
		name           string
		scopes         []string
		expectedStatus int
	}{
		{"granted", []string{scopeExceptions}, http.StatusOK},
		{"denied", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(&testutil.MockDoer{})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/credibility/exceptions?siteId=MLA", nil)
			f.router.ServeHTTP(w, testutil.AsUser(req, identity.User{UserID: "42", Scopes: tt.scopes}))

			if w.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if tt.expectedStatus == http.StatusOK {
				if path := f.doer.LastRequest().Path; path != "/seller-promotions/admin-middleend/sites/MLA/credibility_whitelist" {
					t.Errorf("unexpected path %s", path)
				}
			}
			f.recorder.Wait()
			if len(f.writer.Records()) != 0 {
				t.Error("credibility routes are not audited")
			}
		})
	}
}

func TestHandler_Upload(t *testing.T) {
	doer := &testutil.MockDoer{
		DoFunc: func(ctx context.Context, req middleend.Request) (*middleend.Response, error) {
			return testutil.JSONResponse(http.StatusOK, `{"status":"success","message":"processing"}`), nil
		},
	}
	f := newFixture(doer)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "whitelist.csv")
	_, _ = part.Write([]byte("item_id\nMLA1\n"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/credibility/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, testutil.AsUser(req, identity.User{UserID: "42"}))

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var notice middleend.Notice
	testutil.ReadJSONResponse(t, w, &notice)
	if notice.Type != "success" || notice.Message != "processing" {
		t.Errorf("unexpected notice %+v", notice)
	}

	upstream := doer.LastRequest()
	if upstream.Path != "/seller-promotions/batch/files//credibility-item-whitelist/process" {
		t.Errorf("unexpected path %s", upstream.Path)
	}
	if upstream.Params.Get("type") != "CREDIBILITY_ITEM_WL" || upstream.Params.Get("version") != "prod" {
		t.Errorf("unexpected params %v", upstream.Params)
	}
}
