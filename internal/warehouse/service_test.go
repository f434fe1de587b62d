package warehouse

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zerofy/zerofy-backend/internal/cache"
	"github.com/zerofy/zerofy-backend/internal/wildberries"
	"github.com/zerofy/zerofy-backend/pkg/config"
	pkgerrors "github.com/zerofy/zerofy-backend/pkg/errors"
)

type memoryKV struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: map[string]string{}}
}

func (m *memoryKV) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	}
	return nil
}

func (m *memoryKV) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryKV) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryKV) ScanKeys(_ context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := pattern
	if len(prefix) > 0 && prefix[len(prefix)-1] == '*' {
		prefix = prefix[:len(prefix)-1]
	}
	var keys []string
	for k := range m.data {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

type stubFetcher struct {
	warehouses     []wildberries.Warehouse
	warehousesErr  error
	warehouseCalls int

	coefficients []wildberries.AcceptanceCoefficient
	remains      []wildberries.StockRemain
	paidStorage  []wildberries.PaidStorage
	sales        []wildberries.Sale
	salesErr     error
}

func (s *stubFetcher) Warehouses(context.Context, string) ([]wildberries.Warehouse, error) {
	s.warehouseCalls++
	if s.warehousesErr != nil {
		return nil, s.warehousesErr
	}
	return s.warehouses, nil
}

func (s *stubFetcher) AcceptanceCoefficients(context.Context, string) ([]wildberries.AcceptanceCoefficient, error) {
	return s.coefficients, nil
}

func (s *stubFetcher) StockRemains(context.Context, string) ([]wildberries.StockRemain, error) {
	return s.remains, nil
}

func (s *stubFetcher) PaidStorage(context.Context, string, time.Time, time.Time) ([]wildberries.PaidStorage, error) {
	return s.paidStorage, nil
}

func (s *stubFetcher) Sales(context.Context, string, time.Time) ([]wildberries.Sale, error) {
	if s.salesErr != nil {
		return nil, s.salesErr
	}
	return s.sales, nil
}

func newTestService(fetcher Fetcher) *Service {
	store := cache.NewStore(newMemoryKV(), nil, nil)
	return NewService(store, fetcher, config.CacheConfig{WarehouseTTL: time.Hour}, nil)
}

func TestWarehousesFetchedOnceThenCached(t *testing.T) {
	fetcher := &stubFetcher{warehouses: []wildberries.Warehouse{{ID: 507, Name: "Коледино"}}}
	svc := newTestService(fetcher)
	ctx := context.Background()

	first, err := svc.Warehouses(ctx, "store-1", "key")
	if err != nil {
		t.Fatalf("warehouses: %v", err)
	}
	if first.IsDemo || len(first.Data) != 1 {
		t.Fatalf("unexpected first dataset %+v", first)
	}

	second, err := svc.Warehouses(ctx, "store-1", "key")
	if err != nil {
		t.Fatalf("warehouses again: %v", err)
	}
	if fetcher.warehouseCalls != 1 {
		t.Errorf("expected single fetch, got %d", fetcher.warehouseCalls)
	}
	if second.Data[0].Name != "Коледино" {
		t.Errorf("unexpected cached data %+v", second.Data)
	}
}

func TestWarehousesDemoFallback(t *testing.T) {
	fetcher := &stubFetcher{warehousesErr: pkgerrors.New(pkgerrors.CodeDependency, "down")}
	svc := newTestService(fetcher)

	dataset, err := svc.Warehouses(context.Background(), "store-1", "key")
	if err != nil {
		t.Fatalf("warehouses: %v", err)
	}
	if !dataset.IsDemo {
		t.Error("expected demo flag")
	}
	if len(dataset.Data) == 0 {
		t.Error("expected demo warehouses")
	}
}

func TestWarehousesUnauthorizedSurfaces(t *testing.T) {
	fetcher := &stubFetcher{warehousesErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "check your API key")}
	svc := newTestService(fetcher)

	_, err := svc.Warehouses(context.Background(), "store-1", "key")
	if err == nil {
		t.Fatal("expected error")
	}
	var typed *pkgerrors.Error
	if !errors.As(err, &typed) || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestAverageSalesComputedFromFeed(t *testing.T) {
	now := time.Now()
	fetcher := &stubFetcher{sales: []wildberries.Sale{
		{NmID: 1, SubjectName: "A", Date: now},
		{NmID: 1, SubjectName: "A", Date: now},
		{NmID: 2, SubjectName: "B", Date: now},
	}}
	svc := newTestService(fetcher)

	dataset, err := svc.AverageSales(context.Background(), "store-1", "key")
	if err != nil {
		t.Fatalf("average sales: %v", err)
	}
	if len(dataset.Data) != 2 {
		t.Fatalf("expected 2 products, got %d", len(dataset.Data))
	}
	first := dataset.Data[0]
	if first.NmID != 1 || first.PerDay != 2.0/averageSalesWindowDays {
		t.Errorf("unexpected average %+v", first)
	}
}

func TestSeedFromCopiesDatasets(t *testing.T) {
	fetcher := &stubFetcher{warehouses: []wildberries.Warehouse{{ID: 507, Name: "Коледино"}}}
	svc := newTestService(fetcher)
	ctx := context.Background()

	if _, err := svc.Warehouses(ctx, "old-store", "key"); err != nil {
		t.Fatalf("prime source: %v", err)
	}
	if err := svc.SeedFrom(ctx, "old-store", "new-store"); err != nil {
		t.Fatalf("seed: %v", err)
	}

	dataset, err := svc.Warehouses(ctx, "new-store", "key")
	if err != nil {
		t.Fatalf("warehouses for seeded store: %v", err)
	}
	if fetcher.warehouseCalls != 1 {
		t.Errorf("seeded store must not refetch, got %d calls", fetcher.warehouseCalls)
	}
	if len(dataset.Data) != 1 || dataset.Data[0].ID != 507 {
		t.Errorf("unexpected seeded data %+v", dataset.Data)
	}
}

func TestRefreshReplacesCachedData(t *testing.T) {
	fetcher := &stubFetcher{warehouses: []wildberries.Warehouse{{ID: 507, Name: "Коледино"}}}
	svc := newTestService(fetcher)
	ctx := context.Background()

	if _, err := svc.Warehouses(ctx, "store-1", "key"); err != nil {
		t.Fatalf("prime: %v", err)
	}

	fetcher.warehouses = []wildberries.Warehouse{{ID: 117986, Name: "Казань"}}
	if err := svc.Refresh(ctx, "store-1", "key"); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	dataset, err := svc.Warehouses(ctx, "store-1", "key")
	if err != nil {
		t.Fatalf("warehouses after refresh: %v", err)
	}
	if len(dataset.Data) != 1 || dataset.Data[0].Name != "Казань" {
		t.Errorf("expected refreshed data, got %+v", dataset.Data)
	}
}
