package sqlstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/omnirevenue/agent/core"
)

type stubProductStore struct {
	mu          sync.Mutex
	product     core.Product
	findCalls   int
	upsertCalls int
	findErr     error
}

func (s *stubProductStore) FindBySKU(_ context.Context, _ string) (core.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findCalls++
	if s.findErr != nil {
		return core.Product{}, s.findErr
	}
	return s.product, nil
}

func (s *stubProductStore) Upsert(_ context.Context, product core.Product) (core.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertCalls++
	s.product = product
	return product, nil
}

func TestCachedProductStore_FindBySKU_MissFetchThenHit(t *testing.T) {
	cacheService := newTestProductCacheService(t)
	base := &stubProductStore{
		product: core.Product{
			SKU:             "COPYKIT-PRO",
			Name:            "CopyKit Pro",
			Price:           49.00,
			FulfillmentKind: core.FulfillmentKindCopyKit,
			Active:          true,
		},
	}

	store, err := NewCachedProductStore(base, cacheService)
	if err != nil {
		t.Fatalf("new cached product store: %v", err)
	}

	if _, err := store.FindBySKU(context.Background(), "COPYKIT-PRO"); err != nil {
		t.Fatalf("first find: %v", err)
	}
	if base.findCalls != 1 {
		t.Fatalf("expected first find to fetch base store once, got %d", base.findCalls)
	}

	if _, err := store.FindBySKU(context.Background(), "COPYKIT-PRO"); err != nil {
		t.Fatalf("second find: %v", err)
	}
	if base.findCalls != 1 {
		t.Fatalf("expected second find to be cache hit, base find calls=%d", base.findCalls)
	}
}

func TestCachedProductStore_UpsertInvalidatesSKU(t *testing.T) {
	cacheService := newTestProductCacheService(t)
	base := &stubProductStore{
		product: core.Product{SKU: "COPYKIT-PRO", Name: "CopyKit Pro", Price: 49.00},
	}

	store, err := NewCachedProductStore(base, cacheService)
	if err != nil {
		t.Fatalf("new cached product store: %v", err)
	}

	if _, err := store.FindBySKU(context.Background(), "COPYKIT-PRO"); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	if _, err := store.Upsert(context.Background(), core.Product{
		SKU:   "COPYKIT-PRO",
		Name:  "CopyKit Pro v2",
		Price: 59.00,
	}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	refreshed, err := store.FindBySKU(context.Background(), "COPYKIT-PRO")
	if err != nil {
		t.Fatalf("find after upsert: %v", err)
	}
	if refreshed.Name != "CopyKit Pro v2" {
		t.Fatalf("expected invalidated cache to refetch, got %q", refreshed.Name)
	}
	if base.findCalls != 2 {
		t.Fatalf("expected refetch after invalidation, base find calls=%d", base.findCalls)
	}
}

func TestCachedProductStore_BaseErrorPropagates(t *testing.T) {
	cacheService := newTestProductCacheService(t)
	base := &stubProductStore{findErr: core.ErrProductNotFound}

	store, err := NewCachedProductStore(base, cacheService)
	if err != nil {
		t.Fatalf("new cached product store: %v", err)
	}

	if _, err := store.FindBySKU(context.Background(), "MISSING"); !errors.Is(err, core.ErrProductNotFound) {
		t.Fatalf("expected base error propagation, got %v", err)
	}
}

func newTestProductCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}
