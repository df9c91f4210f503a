package offers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"sellerpromotions/admin-api/internal/core/middleend"
	"sellerpromotions/admin-api/internal/testutil"
)

func testConfig() middleend.Config {
	return middleend.Config{
		SiteID:  "MLA",
		Version: "v1",
		URL:     func(siteID string) string { return "/sites/" + siteID + "/promotions" },
	}
}

func TestList_ForwardsQuery(t *testing.T) {
	doer := &testutil.MockDoer{}
	svc := NewService(doer)

	query := url.Values{"status": {"pending"}, "limit": {"20"}}
	if _, err := svc.List(context.Background(), testConfig(), "P-1", "42", query); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := doer.LastRequest()
	if req.Path != "/sites/MLA/promotions/P-1/offers" {
		t.Errorf("unexpected path %q", req.Path)
	}
	if req.Params.Get("status") != "pending" || req.Params.Get("user_id") != "42" || req.Params.Get("version") != "v1" {
		t.Errorf("unexpected params %v", req.Params)
	}
}

func TestAdd_UsesPayloadSite(t *testing.T) {
	doer := &testutil.MockDoer{}
	svc := NewService(doer)

	in := Input{SiteID: "MLB", ItemID: "MLB123", PromotionID: "P-1", FinalPrice: json.Number("90"), RebatePrice: json.Number("5"), SIMax: json.Number("10")}
	if _, err := svc.Add(context.Background(), testConfig(), in, "42"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := doer.LastRequest()
	if req.Method != http.MethodPost || req.Path != "/sites/MLB/promotions/P-1/offers" {
		t.Errorf("unexpected request %s %s", req.Method, req.Path)
	}
	body := req.Body.(map[string]any)
	if body["item_id"] != "MLB123" || body["new_price"] != json.Number("90") {
		t.Errorf("unexpected body %v", body)
	}
	if body["si_max"] != json.Number("10") {
		t.Errorf("expected si_max 10, got %v", body["si_max"])
	}
}

func TestSIMax(t *testing.T) {
	tests := []struct {
		name     string
		rebate   any
		siMax    any
		expected any
	}{
		{"with rebate", json.Number("5"), json.Number("10"), json.Number("10")},
		{"zero rebate", json.Number("0"), json.Number("10"), nil},
		{"no rebate", nil, json.Number("10"), nil},
		{"empty rebate", "", json.Number("10"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &testutil.MockDoer{}
			svc := NewService(doer)

			in := Input{PromotionID: "P-1", OfferID: "O-1", RebatePrice: tt.rebate, SIMax: tt.siMax}
			if _, err := svc.Edit(context.Background(), testConfig(), in, "42"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			body := doer.LastRequest().Body.(map[string]any)
			if body["si_max"] != tt.expected {
				t.Errorf("expected si_max %v, got %v", tt.expected, body["si_max"])
			}
		})
	}
}

func TestEdit_FallsBackToResolvedSite(t *testing.T) {
	doer := &testutil.MockDoer{}
	svc := NewService(doer)

	if _, err := svc.Edit(context.Background(), testConfig(), Input{PromotionID: "P-1", OfferID: "O-1"}, "42"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req := doer.LastRequest()
	if req.Method != http.MethodPut || req.Path != "/sites/MLA/promotions/P-1/offers/O-1" {
		t.Errorf("unexpected request %s %s", req.Method, req.Path)
	}
}

func TestOfferPaths(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()

	tests := []struct {
		name   string
		call   func(*Service) error
		method string
		path   string
	}{
		{"validate", func(s *Service) error {
			_, err := s.ValidateItem(ctx, cfg, Input{ItemID: "MLA1", PromotionID: "P-1"}, "42")
			return err
		}, http.MethodPost, "/sites/MLA/promotions/P-1/items/validate"},
		{"edit form", func(s *Service) error {
			_, err := s.GetEditForm(ctx, cfg, "P-1", "O-1", "42")
			return err
		}, http.MethodGet, "/sites/MLA/promotions/P-1/offers/O-1"},
		{"delete", func(s *Service) error {
			_, err := s.Delete(ctx, cfg, "P-1", "O-1", "42")
			return err
		}, http.MethodDelete, "/sites/MLA/promotions/P-1/offers/O-1"},
		{"approve", func(s *Service) error {
			_, err := s.Approve(ctx, cfg, "P-1", "O-1", "42")
			return err
		}, http.MethodPost, "/sites/MLA/promotions/P-1/offers/O-1/approve"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doer := &testutil.MockDoer{}
			if err := tt.call(NewService(doer)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			req := doer.LastRequest()
			if req.Method != tt.method || req.Path != tt.path {
				t.Errorf("expected %s %s, got %s %s", tt.method, tt.path, req.Method, req.Path)
			}
			if req.Params.Get("userId") != "42" {
				t.Errorf("expected userId param, got %v", req.Params)
			}
		})
	}
}

func TestDelete_ErrorMessage(t *testing.T) {
	doer := &testutil.MockDoer{
		DoFunc: func(ctx context.Context, req middleend.Request) (*middleend.Response, error) {
			return nil, context.DeadlineExceeded
		},
	}
	svc := NewService(doer)

	_, err := svc.Delete(context.Background(), testConfig(), "P-1", "O-1", "42")
	if err == nil || err.Error() != "Error on delete offer middleEnd service" {
		t.Errorf("unexpected error %v", err)
	}
}
