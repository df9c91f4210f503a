package massiveoffers

import (
	"context"
	"net/http"
	"net/url"

	"sellerpromotions/admin-api/internal/core/middleend"
)

// BatchPaths resolves massive operation paths and the scope sent to them.
type BatchPaths interface {
	BatchPath(path string) string
	Scope() string
}

// Service drives massive offer uploads.
type Service struct {
	client middleend.Doer
	paths  BatchPaths
}

func NewService(client middleend.Doer, paths BatchPaths) *Service {
	return &Service{client: client, paths: paths}
}

// Form returns the massive upload form.
func (s *Service) Form(ctx context.Context, cfg middleend.Config, userID string, query url.Values) (*middleend.Response, error) {
	params := middleend.NewParams(cfg.Version)
	params.Set("user_id", userID)
	middleend.Merge(params, middleend.Without(query, "siteId"))

	return middleend.Call(ctx, s.client, "Error in bringing massive offers form.", middleend.Request{
		Method: http.MethodGet,
		Path:   cfg.Path() + "/offers/batch",
		Params: params,
	})
}

// Upload sends a massive offers file of the given offer type.
func (s *Service) Upload(ctx context.Context, cfg middleend.Config, file middleend.File, offerType, userID string) (middleend.Notice, error) {
	params := url.Values{}
	middleend.SetIfPresent(params, "version", s.paths.Scope())
	params.Set("user_id", userID)
	params.Set("site_id", cfg.SiteID)

	resp, err := middleend.Call(ctx, s.client, "Error on upload CSV File.", middleend.Request{
		Method: http.MethodPost,
		Path:   s.paths.BatchPath("massive-operation/offer/" + url.PathEscape(offerType)),
		Params: params,
		File:   &file,
	})
	if err != nil {
		return middleend.Notice{}, err
	}
	return middleend.DecodeNotice(resp.Data), nil
}

// Modal returns the result modal of a massive upload.
func (s *Service) Modal(ctx context.Context, cfg middleend.Config, userID string, query url.Values) (*middleend.Response, error) {
	params := middleend.NewParams(cfg.Version)
	params.Set("user_id", userID)
	params.Set("site_id", cfg.SiteID)
	middleend.SetIfPresent(params, "offerType", query.Get("type"))
	middleend.Merge(params, query)

	return middleend.Call(ctx, s.client, "Error in bringing modal.", middleend.Request{
		Method: http.MethodGet,
		Path:   cfg.Path() + "/offers/batch/success",
		Params: params,
	})
}
