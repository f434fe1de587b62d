package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/zerofy/zerofy-backend/internal/cache"
	"github.com/zerofy/zerofy-backend/internal/wildberries"
	"github.com/zerofy/zerofy-backend/pkg/enums"
	"github.com/zerofy/zerofy-backend/pkg/logger"
)

// resultTTL is fixed: aggregation results live ten minutes regardless of the
// raw-row cache configuration.
const resultTTL = 10 * time.Minute

// Processor folds report rows into aggregated analytics. Results are cached
// per store and period so repeated dashboard widgets do not recompute.
type Processor struct {
	cache *cache.Store
	logg  *logger.Logger
	now   func() time.Time
}

// NewProcessor builds an aggregation processor over the cache store.
func NewProcessor(cacheStore *cache.Store, logg *logger.Logger) *Processor {
	return &Processor{
		cache: cacheStore,
		logg:  logg,
		now:   time.Now,
	}
}

// Process aggregates rows for [start, end] inclusive. A cached result for the
// same store and period is returned verbatim without touching rows.
func (p *Processor) Process(ctx context.Context, storeID string, rows []wildberries.ReportRow, start, end time.Time) (*Aggregated, error) {
	cacheID := resultCacheID(storeID, start, end)
	if entry, ok := p.cache.Load(ctx, cache.KindAnalytics, cacheID); ok {
		var cached Aggregated
		if err := entry.Decode(&cached); err == nil {
			return &cached, nil
		}
		// unreadable result cache is not fatal, recompute
		if p.logg != nil {
			p.logg.Warn(ctx, "discarding unreadable analytics cache entry")
		}
	}

	result := p.aggregate(rows, start, end)

	if err := p.cache.Save(ctx, cache.KindAnalytics, cacheID, result, resultTTL, false); err != nil {
		return nil, fmt.Errorf("caching analytics result: %w", err)
	}
	return result, nil
}

// aggregate runs the fold. Rows outside the period contribute nothing; rows
// with doc types other than sale/return stay out of the totals but still feed
// the per-product expense accumulation, matching the dashboard's historical
// numbers.
func (p *Processor) aggregate(rows []wildberries.ReportRow, start, end time.Time) *Aggregated {
	filtered := make([]wildberries.ReportRow, 0, len(rows))
	for _, row := range rows {
		if row.SaleDt.Before(start) || row.SaleDt.After(end) {
			continue
		}
		filtered = append(filtered, row)
	}

	general := GeneralSales{}
	for _, row := range filtered {
		switch {
		case enums.DocType(row.DocTypeName).IsSale():
			general.TotalSalesVolume += row.RetailPrice * row.Quantity
			general.TotalOrdersCount++
		case enums.DocType(row.DocTypeName).IsReturn():
			general.TotalReturnsCount++
		}
	}
	if general.TotalOrdersCount > 0 {
		general.ReturnRate = float64(general.TotalReturnsCount) / float64(general.TotalOrdersCount) * 100
	}

	type accumulator struct {
		product  ProductSales
		expenses float64
	}
	products := map[int64]*accumulator{}

	// input order matters: profit uses the last-seen row's ppvz_for_pay
	for _, row := range filtered {
		acc, ok := products[row.NmID]
		if !ok {
			acc = &accumulator{product: ProductSales{ProductName: row.SubjectName}}
			products[row.NmID] = acc
		}
		if acc.product.ProductName == "" {
			acc.product.ProductName = row.SubjectName
		}

		switch {
		case enums.DocType(row.DocTypeName).IsSale():
			acc.product.QuantitySold += row.Quantity
			acc.product.SalesAmount += row.RetailPrice * row.Quantity
			acc.product.OrdersCount++
		case enums.DocType(row.DocTypeName).IsReturn():
			acc.product.ReturnsCount++
			acc.expenses += row.RetailAmount
		}

		acc.expenses += row.DeliveryRub + row.StorageFee + row.Penalty +
			row.AdditionalPayment + row.Deduction + row.Acceptance

		acc.product.Profit = row.PpvzForPay - acc.expenses
		if acc.product.QuantitySold > 0 {
			acc.product.AveragePrice = acc.product.SalesAmount / acc.product.QuantitySold
		} else {
			acc.product.AveragePrice = 0
		}
		if acc.product.SalesAmount > 0 {
			acc.product.Profitability = acc.product.Profit / acc.product.SalesAmount * 100
		} else {
			acc.product.Profitability = 0
		}
		if acc.product.OrdersCount > 0 {
			acc.product.ReturnRate = float64(acc.product.ReturnsCount) / float64(acc.product.OrdersCount) * 100
		} else {
			acc.product.ReturnRate = 0
		}
	}

	result := &Aggregated{
		GeneralSalesAnalytics: general,
		ProductSalesAnalysis:  make(map[int64]ProductSales, len(products)),
		ReturnsAnalysis:       make(map[int64]ReturnsItem, len(products)),
		ProfitabilityAnalysis: make(map[int64]ProfitabilityItem, len(products)),
	}
	for nmID, acc := range products {
		result.ProductSalesAnalysis[nmID] = acc.product
		result.ReturnsAnalysis[nmID] = ReturnsItem{
			ProductName:  acc.product.ProductName,
			OrdersCount:  acc.product.OrdersCount,
			ReturnsCount: acc.product.ReturnsCount,
			ReturnRate:   acc.product.ReturnRate,
		}
		result.ProfitabilityAnalysis[nmID] = ProfitabilityItem{
			ProductName: acc.product.ProductName,
			Profit:      acc.product.Profit,
		}
	}
	return result
}

func resultCacheID(storeID string, start, end time.Time) string {
	return fmt.Sprintf("%s:%s:%s", storeID, start.Format("2006-01-02"), end.Format("2006-01-02"))
}
