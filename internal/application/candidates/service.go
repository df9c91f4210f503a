package candidates

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"sellerpromotions/admin-api/internal/core/middleend"
)

const listError = "Error getting items candidates from middleEnd service."

// Service lists the candidate items of a promotion.
type Service struct {
	client middleend.Doer
}

func NewService(client middleend.Doer) *Service {
	return &Service{client: client}
}

// Items returns the items that may join the promotion.
func (s *Service) Items(ctx context.Context, cfg middleend.Config, promotionID, userID string, query url.Values) (*middleend.Response, error) {
	return s.list(ctx, cfg, promotionID, "items", userID, query)
}

// Invalid returns the items rejected as candidates.
func (s *Service) Invalid(ctx context.Context, cfg middleend.Config, promotionID, userID string, query url.Values) (*middleend.Response, error) {
	return s.list(ctx, cfg, promotionID, "invalid", userID, query)
}

func (s *Service) list(ctx context.Context, cfg middleend.Config, promotionID, kind, userID string, query url.Values) (*middleend.Response, error) {
	params := middleend.NewParams(cfg.Version)
	params.Set("user_id", userID)
	middleend.Merge(params, middleend.Without(query, "siteId"))

	return middleend.Call(ctx, s.client, listError, middleend.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("%s/%s/candidates/%s", cfg.Path(), url.PathEscape(promotionID), kind),
		Params: params,
	})
}
