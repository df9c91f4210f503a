package items

import (
	"context"
	"net/http"
	"net/url"

	"sellerpromotions/admin-api/internal/core/middleend"
)

// Service searches catalog items through the middleend.
type Service struct {
	client middleend.Doer
}

func NewService(client middleend.Doer) *Service {
	return &Service{client: client}
}

// Search looks an item up by the search query parameter. The middleend reads
// the item id from the request body.
func (s *Service) Search(ctx context.Context, cfg middleend.Config, userID string, query url.Values) (*middleend.Response, error) {
	params := middleend.NewParams(cfg.Version)
	params.Set("user_id", userID)
	middleend.Merge(params, middleend.Without(query, "siteId"))

	return middleend.Call(ctx, s.client, "Error in bringing item.", middleend.Request{
		Method: http.MethodGet,
		Path:   cfg.Path(),
		Params: params,
		Body:   map[string]string{"item_id": query.Get("search")},
	})
}
