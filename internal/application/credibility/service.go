package credibility

import (
	"context"
	"net/http"
	"net/url"

	"sellerpromotions/admin-api/internal/core/middleend"
)

const whitelistType = "CREDIBILITY_ITEM_WL"

// BatchPaths resolves batch file paths and the scope sent to them.
type BatchPaths interface {
	BatchFilesPath(path string) string
	Scope() string
}

// Service manages the credibility item whitelist.
type Service struct {
	client middleend.Doer
	paths  BatchPaths
}

func NewService(client middleend.Doer, paths BatchPaths) *Service {
	return &Service{client: client, paths: paths}
}

// Form returns the whitelist form.
func (s *Service) Form(ctx context.Context, cfg middleend.Config, userID string, query url.Values) (*middleend.Response, error) {
	params := middleend.NewParams(cfg.Version)
	params.Set("user_id", userID)
	middleend.Merge(params, middleend.Without(query, "siteId"))

	return middleend.Call(ctx, s.client, "Error in bringing credibility whitelist form.", middleend.Request{
		Method: http.MethodGet,
		Path:   cfg.Path(),
		Params: params,
	})
}

// Upload sends a whitelist file to the batch API.
func (s *Service) Upload(ctx context.Context, file middleend.File, userID string) (middleend.Notice, error) {
	params := url.Values{}
	middleend.SetIfPresent(params, "version", s.paths.Scope())
	params.Set("user_id", userID)
	params.Set("type", whitelistType)

	// The batch API registers this route with a leading slash.
	resp, err := middleend.Call(ctx, s.client, "Error on upload CSV File", middleend.Request{
		Method: http.MethodPost,
		Path:   s.paths.BatchFilesPath("/credibility-item-whitelist/process"),
		Params: params,
		File:   &file,
	})
	if err != nil {
		return middleend.Notice{}, err
	}
	return middleend.DecodeNotice(resp.Data), nil
}
