package warehouse

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zerofy/zerofy-backend/internal/cache"
	"github.com/zerofy/zerofy-backend/internal/wildberries"
	"github.com/zerofy/zerofy-backend/pkg/config"
	pkgerrors "github.com/zerofy/zerofy-backend/pkg/errors"
	"github.com/zerofy/zerofy-backend/pkg/logger"
)

// averageSalesWindowDays is the lookback used for the average daily sales
// dataset.
const averageSalesWindowDays = 30

// Fetcher is the slice of the Wildberries client the warehouse service needs.
type Fetcher interface {
	Warehouses(ctx context.Context, apiKey string) ([]wildberries.Warehouse, error)
	AcceptanceCoefficients(ctx context.Context, apiKey string) ([]wildberries.AcceptanceCoefficient, error)
	StockRemains(ctx context.Context, apiKey string) ([]wildberries.StockRemain, error)
	PaidStorage(ctx context.Context, apiKey string, from, to time.Time) ([]wildberries.PaidStorage, error)
	Sales(ctx context.Context, apiKey string, from time.Time) ([]wildberries.Sale, error)
}

// AverageSales is the computed average daily sales per product.
type AverageSales struct {
	NmID        int64   `json:"nm_id"`
	ProductName string  `json:"product_name"`
	PerDay      float64 `json:"per_day"`
}

// Dataset is one cached warehouse-related payload with provenance.
type Dataset[T any] struct {
	Data   T     `json:"data"`
	IsDemo bool  `json:"is_demo"`
	AgeSec int64 `json:"age_seconds"`
}

// Service serves the five warehouse-related datasets from cache, fetching on
// miss and falling back to demo data when the marketplace is unreachable.
type Service struct {
	cache   *cache.Store
	fetcher Fetcher
	ttl     time.Duration
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the warehouse data service.
func NewService(cacheStore *cache.Store, fetcher Fetcher, cfg config.CacheConfig, logg *logger.Logger) *Service {
	return &Service{
		cache:   cacheStore,
		fetcher: fetcher,
		ttl:     cfg.WarehouseTTL,
		logg:    logg,
		now:     time.Now,
	}
}

// Warehouses returns the warehouse list for a store.
func (s *Service) Warehouses(ctx context.Context, storeID, apiKey string) (*Dataset[[]wildberries.Warehouse], error) {
	return loadKind(ctx, s, cache.KindWarehouses, storeID,
		func(ctx context.Context) ([]wildberries.Warehouse, error) {
			return s.fetcher.Warehouses(ctx, apiKey)
		},
		func() []wildberries.Warehouse { return wildberries.DemoWarehouses() },
	)
}

// Coefficients returns the acceptance coefficients for a store.
func (s *Service) Coefficients(ctx context.Context, storeID, apiKey string) (*Dataset[[]wildberries.AcceptanceCoefficient], error) {
	return loadKind(ctx, s, cache.KindCoefficients, storeID,
		func(ctx context.Context) ([]wildberries.AcceptanceCoefficient, error) {
			return s.fetcher.AcceptanceCoefficients(ctx, apiKey)
		},
		func() []wildberries.AcceptanceCoefficient { return wildberries.DemoCoefficients(s.now()) },
	)
}

// Remains returns the stock remainders for a store.
func (s *Service) Remains(ctx context.Context, storeID, apiKey string) (*Dataset[[]wildberries.StockRemain], error) {
	return loadKind(ctx, s, cache.KindRemains, storeID,
		func(ctx context.Context) ([]wildberries.StockRemain, error) {
			return s.fetcher.StockRemains(ctx, apiKey)
		},
		func() []wildberries.StockRemain { return wildberries.DemoRemains() },
	)
}

// PaidStorage returns paid-storage charges for the average-sales window.
func (s *Service) PaidStorage(ctx context.Context, storeID, apiKey string) (*Dataset[[]wildberries.PaidStorage], error) {
	return loadKind(ctx, s, cache.KindPaidStorage, storeID,
		func(ctx context.Context) ([]wildberries.PaidStorage, error) {
			now := s.now()
			return s.fetcher.PaidStorage(ctx, apiKey, now.AddDate(0, 0, -averageSalesWindowDays), now)
		},
		func() []wildberries.PaidStorage { return wildberries.DemoPaidStorage(s.now()) },
	)
}

// AverageSales returns per-product average daily sales over the lookback
// window, computed from the sales feed.
func (s *Service) AverageSales(ctx context.Context, storeID, apiKey string) (*Dataset[[]AverageSales], error) {
	return loadKind(ctx, s, cache.KindAverageSales, storeID,
		func(ctx context.Context) ([]AverageSales, error) {
			sales, err := s.fetcher.Sales(ctx, apiKey, s.now().AddDate(0, 0, -averageSalesWindowDays))
			if err != nil {
				return nil, err
			}
			return averageDailySales(sales), nil
		},
		func() []AverageSales { return averageDailySales(wildberries.DemoSales(s.now())) },
	)
}

// Refresh refetches every warehouse dataset for a store, replacing whatever
// is cached. Used by the background worker.
func (s *Service) Refresh(ctx context.Context, storeID, apiKey string) error {
	for _, kind := range []cache.Kind{cache.KindWarehouses, cache.KindCoefficients, cache.KindRemains, cache.KindPaidStorage, cache.KindAverageSales} {
		if err := s.cache.Clear(ctx, kind, storeID); err != nil {
			return err
		}
	}

	if _, err := s.Warehouses(ctx, storeID, apiKey); err != nil {
		return fmt.Errorf("refresh warehouses: %w", err)
	}
	if _, err := s.Coefficients(ctx, storeID, apiKey); err != nil {
		return fmt.Errorf("refresh coefficients: %w", err)
	}
	if _, err := s.Remains(ctx, storeID, apiKey); err != nil {
		return fmt.Errorf("refresh remains: %w", err)
	}
	if _, err := s.PaidStorage(ctx, storeID, apiKey); err != nil {
		return fmt.Errorf("refresh paid storage: %w", err)
	}
	if _, err := s.AverageSales(ctx, storeID, apiKey); err != nil {
		return fmt.Errorf("refresh average sales: %w", err)
	}
	return nil
}

// SeedFrom copies every cached dataset from an existing store so a newly
// linked store renders immediately without refetching.
func (s *Service) SeedFrom(ctx context.Context, sourceStoreID, targetStoreID string) error {
	return s.cache.CopyBetweenStores(ctx, sourceStoreID, targetStoreID)
}

// loadKind is the shared cache-or-fetch-or-demo path for one dataset kind.
func loadKind[T any](
	ctx context.Context,
	s *Service,
	kind cache.Kind,
	storeID string,
	fetch func(ctx context.Context) (T, error),
	demo func() T,
) (*Dataset[T], error) {
	if entry, ok := s.cache.Load(ctx, kind, storeID); ok {
		var data T
		if err := entry.Decode(&data); err == nil {
			return &Dataset[T]{
				Data:   data,
				IsDemo: entry.IsDemo,
				AgeSec: entry.AgeSeconds(s.now()),
			}, nil
		}
	}

	data, err := fetch(ctx)
	if err != nil {
		if fatal(err) {
			return nil, err
		}
		if s.logg != nil {
			s.logg.Warn(ctx, fmt.Sprintf("wildberries %s unavailable, serving demo data: %v", kind, err))
		}
		demoData := demo()
		if err := s.cache.Save(ctx, kind, storeID, demoData, s.ttl, true); err != nil {
			return nil, err
		}
		return &Dataset[T]{Data: demoData, IsDemo: true}, nil
	}

	if err := s.cache.Save(ctx, kind, storeID, data, s.ttl, false); err != nil {
		return nil, err
	}
	return &Dataset[T]{Data: data}, nil
}

func averageDailySales(sales []wildberries.Sale) []AverageSales {
	type acc struct {
		name  string
		count int
	}
	byProduct := map[int64]*acc{}
	order := []int64{}
	for _, sale := range sales {
		a, ok := byProduct[sale.NmID]
		if !ok {
			a = &acc{name: sale.SubjectName}
			byProduct[sale.NmID] = a
			order = append(order, sale.NmID)
		}
		a.count++
	}

	result := make([]AverageSales, 0, len(order))
	for _, nmID := range order {
		a := byProduct[nmID]
		result = append(result, AverageSales{
			NmID:        nmID,
			ProductName: a.name,
			PerDay:      float64(a.count) / averageSalesWindowDays,
		})
	}
	return result
}

func fatal(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var typed *pkgerrors.Error
	if errors.As(err, &typed) {
		return typed.Code() == pkgerrors.CodeUnauthorized || typed.Code() == pkgerrors.CodeValidation
	}
	return false
}
