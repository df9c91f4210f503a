package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/sync/singleflight"

	"sellerpromotions/admin-api/internal/core/middleend"
	"sellerpromotions/admin-api/internal/infrastructure/cache"
)

const cacheKeyPrefix = "lookup:"

// Service resolves reference data (countries, currencies and sites) from the
// internal API. Countries and currencies are cached; concurrent misses for the
// same key share one upstream call.
type Service struct {
	client middleend.Doer
	store  cache.Store
	ttl    time.Duration
	log    *slog.Logger
	group  singleflight.Group
}

func NewService(client middleend.Doer, store cache.Store, ttl time.Duration, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{client: client, store: store, ttl: ttl, log: log}
}

// Country returns the country or nil when it cannot be resolved.
func (s *Service) Country(ctx context.Context, id string) json.RawMessage {
	return s.cached(ctx, "countries", id)
}

// Currency returns the currency or nil when it cannot be resolved.
func (s *Service) Currency(ctx context.Context, id string) json.RawMessage {
	return s.cached(ctx, "currencies", id)
}

// Site returns the site, nil when it does not exist, or the normalized
// upstream failure.
func (s *Service) Site(ctx context.Context, siteID string) (json.RawMessage, error) {
	resp, err := middleend.Call(ctx, s.client, "Error getting site", middleend.Request{
		Method: http.MethodGet,
		Path:   "/sites/" + url.PathEscape(siteID),
	})
	if err != nil {
		var upstream *middleend.Error
		if errors.As(err, &upstream) && upstream.Status == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return resp.Data, nil
}

func (s *Service) cached(ctx context.Context, resource, id string) json.RawMessage {
	if id == "" {
		return nil
	}
	key := cacheKeyPrefix + resource + ":" + id

	if s.store != nil {
		value, ok, err := s.store.Get(ctx, key)
		if err != nil {
			s.log.Warn("lookup cache read failed", "key", key, "error", err)
		} else if ok {
			return value
		}
	}

	value, err, _ := s.group.Do(key, func() (any, error) {
		resp, err := s.client.Do(ctx, middleend.Request{
			Method: http.MethodGet,
			Path:   "/" + resource + "/" + url.PathEscape(id),
		})
		if err != nil {
			return nil, err
		}

		data := resp.Data
		if s.store != nil {
			if err := s.store.Set(ctx, key, data, s.ttl); err != nil {
				s.log.Warn("lookup cache write failed", "key", key, "error", err)
			}
		}
		return data, nil
	})
	if err != nil {
		s.log.Warn("lookup failed", "resource", resource, "id", id, "error", err)
		return nil
	}
	return value.(json.RawMessage)
}
