package analytics

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

// ReportFetcher is the slice of the Wildberries client the service needs.
type ReportFetcher interface {
	ReportDetail(ctx context.Context, apiKey string, from, to time.Time) ([]wildberries.ReportRow, error)
	Orders(ctx context.Context, apiKey string, from time.Time) ([]wildberries.Order, error)
	Sales(ctx context.Context, apiKey string, from time.Time) ([]wildberries.Sale, error)
	Balance(ctx context.Context, apiKey string) (*wildberries.Balance, error)
	AdSpend(ctx context.Context, apiKey string, from, to time.Time) ([]wildberries.AdSpend, error)
}

// Service orchestrates the stats pipeline: cache check, fetch with demo
// fallback, aggregation, cache write.
type Service struct {
	cache     *cache.Store
	fetcher   ReportFetcher
	processor *Processor
	cfg       config.CacheConfig
	delay     time.Duration
	logg      *logger.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewService wires the analytics pipeline together.
func NewService(cacheStore *cache.Store, fetcher ReportFetcher, processor *Processor, cfg config.CacheConfig, interPeriodDelay time.Duration, logg *logger.Logger) *Service {
	return &Service{
		cache:     cacheStore,
		fetcher:   fetcher,
		processor: processor,
		cfg:       cfg,
		delay:     interPeriodDelay,
		logg:      logg,
		now:       time.Now,
		sleep:     sleepCtx,
	}
}

// GetStats produces analytics for [start, end] plus the preceding period of
// equal length for comparison. On fetch failure past the retry budget the
// demo dataset is substituted and the result is flagged so the API response
// discloses it. A bad API key is never masked with demo data.
func (s *Service) GetStats(ctx context.Context, storeID, apiKey string, start, end time.Time) (*StatsResult, error) {
	periodLen := end.Sub(start)
	prevEnd := start.Add(-24 * time.Hour)
	prevStart := prevEnd.Add(-periodLen)

	currentRows, isDemo, err := s.loadRows(ctx, storeID, apiKey, start, end)
	if err != nil {
		return nil, err
	}

	// sequencing plus a delay between period fetches keeps the per-minute
	// rate limit happy when both periods miss the cache
	if err := s.sleep(ctx, s.delay); err != nil {
		return nil, err
	}

	previousRows, prevDemo, err := s.loadRows(ctx, storeID, apiKey, prevStart, prevEnd)
	if err != nil {
		return nil, err
	}

	current, err := s.processor.Process(ctx, storeID, currentRows, start, end)
	if err != nil {
		return nil, err
	}
	previous, err := s.processor.Process(ctx, storeID, previousRows, prevStart, prevEnd)
	if err != nil {
		return nil, err
	}

	result := &StatsResult{
		Current:  current,
		Previous: previous,
		IsDemo:   isDemo || prevDemo,
	}
	if age := s.cache.AgeSeconds(ctx, cache.KindStats, rowsCacheID(storeID, start, end)); age != nil {
		result.CacheAge = age
		result.CacheAgeText = cache.FormatAge(*age)
	}
	return result, nil
}

// Orders returns cached order events for the store, fetching on miss.
func (s *Service) Orders(ctx context.Context, storeID, apiKey string, from time.Time) ([]wildberries.Order, bool, error) {
	if entry, ok := s.cache.Load(ctx, cache.KindOrders, storeID); ok {
		var orders []wildberries.Order
		if err := entry.Decode(&orders); err == nil {
			return orders, entry.IsDemo, nil
		}
	}

	orders, err := s.fetcher.Orders(ctx, apiKey, from)
	if err != nil {
		if fatal(err) {
			return nil, false, err
		}
		s.warnFallback(ctx, "orders", err)
		orders = wildberries.DemoOrders(s.now())
		if err := s.cache.Save(ctx, cache.KindOrders, storeID, orders, s.cfg.ReportTTL, true); err != nil {
			return nil, false, err
		}
		return orders, true, nil
	}

	if err := s.cache.Save(ctx, cache.KindOrders, storeID, orders, s.cfg.ReportTTL, false); err != nil {
		return nil, false, err
	}
	return orders, false, nil
}

// Sales returns cached sale events for the store, fetching on miss.
func (s *Service) Sales(ctx context.Context, storeID, apiKey string, from time.Time) ([]wildberries.Sale, bool, error) {
	if entry, ok := s.cache.Load(ctx, cache.KindSales, storeID); ok {
		var sales []wildberries.Sale
		if err := entry.Decode(&sales); err == nil {
			return sales, entry.IsDemo, nil
		}
	}

	sales, err := s.fetcher.Sales(ctx, apiKey, from)
	if err != nil {
		if fatal(err) {
			return nil, false, err
		}
		s.warnFallback(ctx, "sales", err)
		sales = wildberries.DemoSales(s.now())
		if err := s.cache.Save(ctx, cache.KindSales, storeID, sales, s.cfg.ReportTTL, true); err != nil {
			return nil, false, err
		}
		return sales, true, nil
	}

	if err := s.cache.Save(ctx, cache.KindSales, storeID, sales, s.cfg.ReportTTL, false); err != nil {
		return nil, false, err
	}
	return sales, false, nil
}

// Balance returns the cached seller account balance, fetching on miss.
func (s *Service) Balance(ctx context.Context, storeID, apiKey string) (*wildberries.Balance, bool, error) {
	if entry, ok := s.cache.Load(ctx, cache.KindBalance, storeID); ok {
		var balance wildberries.Balance
		if err := entry.Decode(&balance); err == nil {
			return &balance, entry.IsDemo, nil
		}
	}

	balance, err := s.fetcher.Balance(ctx, apiKey)
	if err != nil {
		if fatal(err) {
			return nil, false, err
		}
		s.warnFallback(ctx, "balance", err)
		balance = wildberries.DemoBalance()
		if err := s.cache.Save(ctx, cache.KindBalance, storeID, balance, s.cfg.ReportTTL, true); err != nil {
			return nil, false, err
		}
		return balance, true, nil
	}

	if err := s.cache.Save(ctx, cache.KindBalance, storeID, balance, s.cfg.ReportTTL, false); err != nil {
		return nil, false, err
	}
	return balance, false, nil
}

// AdSpend returns cached advertising spend for the period, fetching on miss.
// The cache entry is period-scoped like the report rows.
func (s *Service) AdSpend(ctx context.Context, storeID, apiKey string, from, to time.Time) ([]wildberries.AdSpend, bool, error) {
	cacheID := rowsCacheID(storeID, from, to)
	if entry, ok := s.cache.Load(ctx, cache.KindAdSpend, cacheID); ok {
		var spend []wildberries.AdSpend
		if err := entry.Decode(&spend); err == nil {
			return spend, entry.IsDemo, nil
		}
	}

	spend, err := s.fetcher.AdSpend(ctx, apiKey, from, to)
	if err != nil {
		if fatal(err) {
			return nil, false, err
		}
		s.warnFallback(ctx, "ad-spend", err)
		spend = wildberries.DemoAdSpend(s.now())
		if err := s.cache.Save(ctx, cache.KindAdSpend, cacheID, spend, s.cfg.ReportTTL, true); err != nil {
			return nil, false, err
		}
		return spend, true, nil
	}

	if err := s.cache.Save(ctx, cache.KindAdSpend, cacheID, spend, s.cfg.ReportTTL, false); err != nil {
		return nil, false, err
	}
	return spend, false, nil
}

// ClearStore drops every cached dataset for a store, forcing a refetch.
func (s *Service) ClearStore(ctx context.Context, storeID string) error {
	return s.cache.ClearAllForStore(ctx, storeID)
}

// loadRows returns report rows for the period from cache or the API, falling
// back to the demo dataset when the marketplace is unreachable.
func (s *Service) loadRows(ctx context.Context, storeID, apiKey string, start, end time.Time) ([]wildberries.ReportRow, bool, error) {
	cacheID := rowsCacheID(storeID, start, end)
	if entry, ok := s.cache.Load(ctx, cache.KindStats, cacheID); ok {
		var rows []wildberries.ReportRow
		if err := entry.Decode(&rows); err == nil {
			return rows, entry.IsDemo, nil
		}
	}

	rows, err := s.fetcher.ReportDetail(ctx, apiKey, start, end)
	if err != nil {
		if fatal(err) {
			return nil, false, err
		}
		s.warnFallback(ctx, "report-detail", err)
		rows = wildberries.DemoReportRows(end)
		if err := s.cache.Save(ctx, cache.KindStats, cacheID, rows, s.cfg.ReportTTL, true); err != nil {
			return nil, false, err
		}
		return rows, true, nil
	}

	if err := s.cache.Save(ctx, cache.KindStats, cacheID, rows, s.cfg.ReportTTL, false); err != nil {
		return nil, false, err
	}
	return rows, false, nil
}

func (s *Service) warnFallback(ctx context.Context, endpoint string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(ctx, fmt.Sprintf("wildberries %s unavailable, serving demo data: %v", endpoint, err))
}

// fatal reports errors the demo fallback must not mask: a rejected API key
// needs the seller's attention, and a canceled context means nobody is
// waiting for an answer.
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

func rowsCacheID(storeID string, start, end time.Time) string {
	return fmt.Sprintf("%s:%s:%s", storeID, start.Format("2006-01-02"), end.Format("2006-01-02"))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
