package service

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/worldscope/countries-api/internal/api/metrics"
	"github.com/worldscope/countries-api/internal/core/ports"
)

// CatalogService is a read-only proxy over the upstream country catalog with
// a cache in front. Payloads stay opaque; this layer never interprets the
// country schema. Cache failures degrade to a direct fetch, never to an
// error surfaced to the caller.
type CatalogService struct {
	fetcher ports.CountryFetcher
	cache   ports.CatalogCache
	logger  zerolog.Logger
}

func NewCatalogService(fetcher ports.CountryFetcher, cache ports.CatalogCache, logger zerolog.Logger) *CatalogService {
	return &CatalogService{fetcher: fetcher, cache: cache, logger: logger}
}

func (s *CatalogService) All(ctx context.Context) (json.RawMessage, error) {
	return s.cached(ctx, "countries:all", s.fetcher.All)
}

func (s *CatalogService) ByName(ctx context.Context, name string) (json.RawMessage, error) {
	return s.cached(ctx, "countries:name:"+name, func(ctx context.Context) (json.RawMessage, error) {
		return s.fetcher.ByName(ctx, name)
	})
}

func (s *CatalogService) ByRegion(ctx context.Context, region string) (json.RawMessage, error) {
	return s.cached(ctx, "countries:region:"+region, func(ctx context.Context) (json.RawMessage, error) {
		return s.fetcher.ByRegion(ctx, region)
	})
}

func (s *CatalogService) ByCode(ctx context.Context, code string) (json.RawMessage, error) {
	return s.cached(ctx, "countries:code:"+code, func(ctx context.Context) (json.RawMessage, error) {
		return s.fetcher.ByCode(ctx, code)
	})
}

func (s *CatalogService) cached(ctx context.Context, key string, fetch func(context.Context) (json.RawMessage, error)) (json.RawMessage, error) {
	payload, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	} else if hit {
		metrics.CatalogCacheTotal.WithLabelValues("hit").Inc()
		return payload, nil
	}
	metrics.CatalogCacheTotal.WithLabelValues("miss").Inc()

	payload, err = fetch(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, payload); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
	return payload, nil
}
