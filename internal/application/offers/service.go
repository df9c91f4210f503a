package offers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"sellerpromotions/admin-api/internal/core/middleend"
)

// Service forwards offer operations of a promotion to the middleend.
type Service struct {
	client middleend.Doer
}

func NewService(client middleend.Doer) *Service {
	return &Service{client: client}
}

// Input is the offer payload sent by the admin UI. Prices keep whatever JSON
// type the UI sent.
type Input struct {
	SiteID      string `json:"siteId"`
	ItemID      string `json:"itemId"`
	PromotionID string `json:"promotionId"`
	OfferID     string `json:"offerId"`
	FinalPrice  any    `json:"finalPrice"`
	RebatePrice any    `json:"rebatePrice"`
	SIMax       any    `json:"siMax"`
	StartDate   any    `json:"startDate"`
	EndDate     any    `json:"endDate"`
}

// siMax is only meaningful when the offer carries a rebate.
func (in Input) siMax() any {
	if middleend.Truthy(in.RebatePrice) {
		return in.SIMax
	}
	return nil
}

// basePath targets the site named by the payload, or the resolved one.
func (in Input) basePath(cfg middleend.Config) string {
	if in.SiteID == "" {
		return cfg.Path()
	}
	return cfg.PathFor(in.SiteID)
}

func userParams(cfg middleend.Config, userID string) url.Values {
	params := middleend.NewParams(cfg.Version)
	params.Set("userId", userID)
	return params
}

// List returns the offers of a promotion. The inbound query is forwarded.
func (s *Service) List(ctx context.Context, cfg middleend.Config, promotionID, userID string, query url.Values) (*middleend.Response, error) {
	params := middleend.NewParams(cfg.Version)
	params.Set("user_id", userID)
	middleend.Merge(params, query)

	return middleend.Call(ctx, s.client, "Error on get offers middleEnd service", middleend.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("%s/%s/offers", cfg.Path(), url.PathEscape(promotionID)),
		Params: params,
	})
}

// ValidateItem checks whether an item can join the promotion.
func (s *Service) ValidateItem(ctx context.Context, cfg middleend.Config, in Input, userID string) (*middleend.Response, error) {
	return middleend.Call(ctx, s.client, "Error on validate item middleEnd service", middleend.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("%s/%s/items/validate", in.basePath(cfg), url.PathEscape(in.PromotionID)),
		Params: userParams(cfg, userID),
		Body: map[string]any{
			"item_id":      in.ItemID,
			"promotion_id": in.PromotionID,
		},
	})
}

// GetEditForm returns the edit form of one offer.
func (s *Service) GetEditForm(ctx context.Context, cfg middleend.Config, promotionID, offerID, userID string) (*middleend.Response, error) {
	return middleend.Call(ctx, s.client, "Error on edit offer middleEnd service", middleend.Request{
		Method: http.MethodGet,
		Path:   offerPath(cfg.Path(), promotionID, offerID),
		Params: userParams(cfg, userID),
	})
}

// Add creates an offer on the site named by the payload.
func (s *Service) Add(ctx context.Context, cfg middleend.Config, in Input, userID string) (*middleend.Response, error) {
	return middleend.Call(ctx, s.client, "Error on add offer middleEnd service", middleend.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("%s/%s/offers", in.basePath(cfg), url.PathEscape(in.PromotionID)),
		Params: userParams(cfg, userID),
		Body: map[string]any{
			"promotion_id":       in.PromotionID,
			"item_id":            in.ItemID,
			"new_price":          in.FinalPrice,
			"rebate_meli_amount": in.RebatePrice,
			"si_max":             in.siMax(),
			"start_date":         in.StartDate,
			"end_date":           in.EndDate,
		},
	})
}

// Edit updates the prices of an offer.
func (s *Service) Edit(ctx context.Context, cfg middleend.Config, in Input, userID string) (*middleend.Response, error) {
	return middleend.Call(ctx, s.client, "Error on edit offer middleEnd service", middleend.Request{
		Method: http.MethodPut,
		Path:   offerPath(in.basePath(cfg), in.PromotionID, in.OfferID),
		Params: userParams(cfg, userID),
		Body: map[string]any{
			"new_price":          in.FinalPrice,
			"rebate_meli_amount": in.RebatePrice,
			"si_max":             in.siMax(),
		},
	})
}

// Delete removes an offer from the resolved site.
func (s *Service) Delete(ctx context.Context, cfg middleend.Config, promotionID, offerID, userID string) (*middleend.Response, error) {
	return middleend.Call(ctx, s.client, "Error on delete offer middleEnd service", middleend.Request{
		Method: http.MethodDelete,
		Path:   offerPath(cfg.Path(), promotionID, offerID),
		Params: userParams(cfg, userID),
	})
}

// Approve approves a pending offer.
func (s *Service) Approve(ctx context.Context, cfg middleend.Config, promotionID, offerID, userID string) (*middleend.Response, error) {
	return middleend.Call(ctx, s.client, "Error on approve offer middleEnd service", middleend.Request{
		Method: http.MethodPost,
		Path:   offerPath(cfg.Path(), promotionID, offerID) + "/approve",
		Params: userParams(cfg, userID),
	})
}

func offerPath(base, promotionID, offerID string) string {
	return fmt.Sprintf("%s/%s/offers/%s", base, url.PathEscape(promotionID), url.PathEscape(offerID))
}
