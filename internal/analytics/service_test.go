package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zerofy/zerofy-backend/internal/cache"
	"github.com/zerofy/zerofy-backend/internal/wildberries"
	"github.com/zerofy/zerofy-backend/pkg/config"
	pkgerrors "github.com/zerofy/zerofy-backend/pkg/errors"
)

type stubFetcher struct {
	rows       []wildberries.ReportRow
	reportErr  error
	orders     []wildberries.Order
	ordersErr  error
	sales      []wildberries.Sale
	salesErr   error
	balance    *wildberries.Balance
	balanceErr error
	adSpend    []wildberries.AdSpend
	adSpendErr error

	reportCalls  int
	balanceCalls int
	adSpendCalls int
}

func (s *stubFetcher) ReportDetail(_ context.Context, _ string, _, _ time.Time) ([]wildberries.ReportRow, error) {
	s.reportCalls++
	if s.reportErr != nil {
		return nil, s.reportErr
	}
	return s.rows, nil
}

func (s *stubFetcher) Orders(context.Context, string, time.Time) ([]wildberries.Order, error) {
	if s.ordersErr != nil {
		return nil, s.ordersErr
	}
	return s.orders, nil
}

func (s *stubFetcher) Sales(context.Context, string, time.Time) ([]wildberries.Sale, error) {
	if s.salesErr != nil {
		return nil, s.salesErr
	}
	return s.sales, nil
}

func (s *stubFetcher) Balance(context.Context, string) (*wildberries.Balance, error) {
	s.balanceCalls++
	if s.balanceErr != nil {
		return nil, s.balanceErr
	}
	return s.balance, nil
}

func (s *stubFetcher) AdSpend(context.Context, string, time.Time, time.Time) ([]wildberries.AdSpend, error) {
	s.adSpendCalls++
	if s.adSpendErr != nil {
		return nil, s.adSpendErr
	}
	return s.adSpend, nil
}

func newTestService(fetcher ReportFetcher) *Service {
	store := cache.NewStore(newMemoryKV(), nil, nil)
	svc := NewService(store, fetcher, NewProcessor(store, nil), config.CacheConfig{
		ReportTTL: 30 * time.Minute,
	}, 0, nil)
	svc.sleep = func(context.Context, time.Duration) error { return nil }
	return svc
}

func TestGetStatsFetchesAndAggregates(t *testing.T) {
	fetcher := &stubFetcher{rows: []wildberries.ReportRow{
		{NmID: 1, SubjectName: "A", DocTypeName: "Продажа", SaleDt: inRange, RetailPrice: 1000, Quantity: 2},
	}}
	svc := newTestService(fetcher)

	result, err := svc.GetStats(context.Background(), "store-1", "key", periodStart, periodEnd)
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if result.IsDemo {
		t.Error("real data must not be flagged demo")
	}
	if result.Current.GeneralSalesAnalytics.TotalSalesVolume != 2000 {
		t.Errorf("unexpected totals %+v", result.Current.GeneralSalesAnalytics)
	}
	if result.Previous == nil {
		t.Fatal("expected previous period analytics")
	}
	// current and previous period both fetched
	if fetcher.reportCalls != 2 {
		t.Errorf("expected 2 report fetches, got %d", fetcher.reportCalls)
	}
	if result.CacheAge == nil {
		t.Error("expected cache age after the rows were cached")
	}
}

func TestGetStatsServesCachedRowsWithoutFetching(t *testing.T) {
	fetcher := &stubFetcher{rows: []wildberries.ReportRow{
		{NmID: 1, SubjectName: "A", DocTypeName: "Продажа", SaleDt: inRange, RetailPrice: 500, Quantity: 1},
	}}
	svc := newTestService(fetcher)
	ctx := context.Background()

	if _, err := svc.GetStats(ctx, "store-1", "key", periodStart, periodEnd); err != nil {
		t.Fatalf("first get stats: %v", err)
	}
	calls := fetcher.reportCalls

	if _, err := svc.GetStats(ctx, "store-1", "key", periodStart, periodEnd); err != nil {
		t.Fatalf("second get stats: %v", err)
	}
	if fetcher.reportCalls != calls {
		t.Errorf("expected no extra fetches on cache hit, got %d -> %d", calls, fetcher.reportCalls)
	}
}

func TestGetStatsFallsBackToDemoOnFetchFailure(t *testing.T) {
	fetcher := &stubFetcher{reportErr: pkgerrors.New(pkgerrors.CodeDependency, "wildberries down")}
	svc := newTestService(fetcher)

	result, err := svc.GetStats(context.Background(), "store-1", "key", periodStart, periodEnd)
	if err != nil {
		t.Fatalf("get stats: %v", err)
	}
	if !result.IsDemo {
		t.Error("fallback result must be flagged demo")
	}
	if result.Current == nil {
		t.Fatal("expected demo analytics")
	}
}

func TestGetStatsDoesNotMaskBadAPIKey(t *testing.T) {
	fetcher := &stubFetcher{reportErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "check your API key")}
	svc := newTestService(fetcher)

	_, err := svc.GetStats(context.Background(), "store-1", "key", periodStart, periodEnd)
	if err == nil {
		t.Fatal("expected error")
	}
	var typed *pkgerrors.Error
	if !errors.As(err, &typed) || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED to surface, got %v", err)
	}
}

func TestOrdersDemoFallbackIsCached(t *testing.T) {
	fetcher := &stubFetcher{ordersErr: pkgerrors.New(pkgerrors.CodeDependency, "timeout")}
	svc := newTestService(fetcher)
	ctx := context.Background()

	orders, isDemo, err := svc.Orders(ctx, "store-1", "key", periodStart)
	if err != nil {
		t.Fatalf("orders: %v", err)
	}
	if !isDemo {
		t.Error("expected demo flag")
	}
	if len(orders) == 0 {
		t.Error("expected demo orders")
	}

	// second call is served from cache, still flagged demo
	fetcher.ordersErr = nil
	fetcher.orders = []wildberries.Order{{Srid: "real"}}
	orders, isDemo, err = svc.Orders(ctx, "store-1", "key", periodStart)
	if err != nil {
		t.Fatalf("orders from cache: %v", err)
	}
	if !isDemo {
		t.Error("cached demo entry must keep its flag")
	}
	if len(orders) > 0 && orders[0].Srid == "real" {
		t.Error("cache hit must not refetch")
	}
}

func TestSalesCachedAfterFirstFetch(t *testing.T) {
	fetcher := &stubFetcher{sales: []wildberries.Sale{{SaleID: "S-1", NmID: 5}}}
	svc := newTestService(fetcher)
	ctx := context.Background()

	sales, isDemo, err := svc.Sales(ctx, "store-1", "key", periodStart)
	if err != nil {
		t.Fatalf("sales: %v", err)
	}
	if isDemo || len(sales) != 1 {
		t.Fatalf("unexpected first result: demo=%v sales=%+v", isDemo, sales)
	}

	fetcher.sales = nil
	sales, _, err = svc.Sales(ctx, "store-1", "key", periodStart)
	if err != nil {
		t.Fatalf("sales from cache: %v", err)
	}
	if len(sales) != 1 || sales[0].SaleID != "S-1" {
		t.Fatalf("expected cached sales, got %+v", sales)
	}
}

func TestBalanceCachedAfterFirstFetch(t *testing.T) {
	fetcher := &stubFetcher{balance: &wildberries.Balance{Currency: "RUB", Current: 1500, ForWithdraw: 900}}
	svc := newTestService(fetcher)
	ctx := context.Background()

	balance, isDemo, err := svc.Balance(ctx, "store-1", "key")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if isDemo || balance.Current != 1500 {
		t.Fatalf("unexpected first result: demo=%v balance=%+v", isDemo, balance)
	}

	balance, _, err = svc.Balance(ctx, "store-1", "key")
	if err != nil {
		t.Fatalf("balance from cache: %v", err)
	}
	if fetcher.balanceCalls != 1 {
		t.Errorf("expected 1 fetch, got %d", fetcher.balanceCalls)
	}
	if balance.ForWithdraw != 900 {
		t.Fatalf("expected cached balance, got %+v", balance)
	}
}

func TestBalanceDemoFallbackDoesNotMaskBadAPIKey(t *testing.T) {
	fetcher := &stubFetcher{balanceErr: pkgerrors.New(pkgerrors.CodeDependency, "timeout")}
	svc := newTestService(fetcher)

	balance, isDemo, err := svc.Balance(context.Background(), "store-1", "key")
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !isDemo || balance == nil {
		t.Fatalf("expected demo balance, got demo=%v %+v", isDemo, balance)
	}

	fetcher = &stubFetcher{balanceErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "check your API key")}
	svc = newTestService(fetcher)

	_, _, err = svc.Balance(context.Background(), "store-2", "bad-key")
	var typed *pkgerrors.Error
	if !errors.As(err, &typed) || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED to surface, got %v", err)
	}
}

func TestAdSpendPeriodScopedCache(t *testing.T) {
	fetcher := &stubFetcher{adSpend: []wildberries.AdSpend{{CampaignID: 7, Sum: 320}}}
	svc := newTestService(fetcher)
	ctx := context.Background()

	spend, isDemo, err := svc.AdSpend(ctx, "store-1", "key", periodStart, periodEnd)
	if err != nil {
		t.Fatalf("ad spend: %v", err)
	}
	if isDemo || len(spend) != 1 {
		t.Fatalf("unexpected first result: demo=%v spend=%+v", isDemo, spend)
	}

	// same period is a cache hit, a different period fetches again
	if _, _, err := svc.AdSpend(ctx, "store-1", "key", periodStart, periodEnd); err != nil {
		t.Fatalf("ad spend from cache: %v", err)
	}
	if fetcher.adSpendCalls != 1 {
		t.Errorf("expected 1 fetch after cache hit, got %d", fetcher.adSpendCalls)
	}
	if _, _, err := svc.AdSpend(ctx, "store-1", "key", periodStart.AddDate(0, 0, -7), periodStart); err != nil {
		t.Fatalf("ad spend other period: %v", err)
	}
	if fetcher.adSpendCalls != 2 {
		t.Errorf("expected a fetch for the new period, got %d calls", fetcher.adSpendCalls)
	}
}

func TestAdSpendDemoFallbackIsFlagged(t *testing.T) {
	fetcher := &stubFetcher{adSpendErr: pkgerrors.New(pkgerrors.CodeDependency, "wildberries down")}
	svc := newTestService(fetcher)

	spend, isDemo, err := svc.AdSpend(context.Background(), "store-1", "key", periodStart, periodEnd)
	if err != nil {
		t.Fatalf("ad spend: %v", err)
	}
	if !isDemo || len(spend) == 0 {
		t.Fatalf("expected flagged demo spend, got demo=%v %+v", isDemo, spend)
	}
}

func TestClearStoreForcesRefetch(t *testing.T) {
	fetcher := &stubFetcher{rows: []wildberries.ReportRow{
		{NmID: 1, SubjectName: "A", DocTypeName: "Продажа", SaleDt: inRange, RetailPrice: 500, Quantity: 1},
	}}
	svc := newTestService(fetcher)
	ctx := context.Background()

	if _, err := svc.GetStats(ctx, "store-1", "key", periodStart, periodEnd); err != nil {
		t.Fatalf("get stats: %v", err)
	}
	calls := fetcher.reportCalls

	if err := svc.ClearStore(ctx, "store-1"); err != nil {
		t.Fatalf("clear store: %v", err)
	}
	if _, err := svc.GetStats(ctx, "store-1", "key", periodStart, periodEnd); err != nil {
		t.Fatalf("get stats after clear: %v", err)
	}
	if fetcher.reportCalls == calls {
		t.Error("expected refetch after clearing the store cache")
	}
}
