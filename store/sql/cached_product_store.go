package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/omnirevenue/agent/core"
)

const productCacheKeyPrefix = "agent::product::v1"

// CachedProductStore keeps SKU lookups off the hot checkout path. Products
// change rarely and every paid order reads one, so reads go through the cache
// and Upsert invalidates the SKU entry.
type CachedProductStore struct {
	base  core.ProductStore
	cache repositorycache.CacheService
}

func NewCachedProductStore(
	base core.ProductStore,
	cacheService repositorycache.CacheService,
) (*CachedProductStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base product store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: product cache service is required")
	}
	return &CachedProductStore{base: base, cache: cacheService}, nil
}

func ProductCacheKey(sku string) (string, error) {
	trimmed := strings.TrimSpace(sku)
	if trimmed == "" {
		return "", fmt.Errorf("sqlstore: sku is required")
	}
	return productCacheKeyPrefix + "::" + url.PathEscape(trimmed), nil
}

func (s *CachedProductStore) FindBySKU(ctx context.Context, sku string) (core.Product, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Product{}, fmt.Errorf("sqlstore: cached product store is not configured")
	}
	cacheKey, err := ProductCacheKey(sku)
	if err != nil {
		return core.Product{}, err
	}
	return repositorycache.GetOrFetch(ctx, s.cache, cacheKey, func(ctx context.Context) (core.Product, error) {
		return s.base.FindBySKU(ctx, sku)
	})
}

func (s *CachedProductStore) Upsert(ctx context.Context, product core.Product) (core.Product, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Product{}, fmt.Errorf("sqlstore: cached product store is not configured")
	}
	saved, err := s.base.Upsert(ctx, product)
	if err != nil {
		return core.Product{}, err
	}
	cacheKey, err := ProductCacheKey(saved.SKU)
	if err != nil {
		return core.Product{}, err
	}
	if err := s.cache.Delete(ctx, cacheKey); err != nil {
		return core.Product{}, err
	}
	return saved, nil
}

var _ core.ProductStore = (*CachedProductStore)(nil)
