package wildberries

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/zerofy/zerofy-backend/pkg/config"
	pkgerrors "github.com/zerofy/zerofy-backend/pkg/errors"
	"github.com/zerofy/zerofy-backend/pkg/logger"
	"github.com/zerofy/zerofy-backend/pkg/metrics"
)

const isoDate = "2006-01-02"

// Client talks to the Wildberries seller APIs. It never consults the cache;
// cache checks belong to callers so that fallback policy stays explicit.
type Client struct {
	cfg     config.WildberriesConfig
	fetcher *fetcher
}

// NewClient builds a Wildberries API client from configuration.
func NewClient(cfg config.WildberriesConfig, logg *logger.Logger, m *metrics.PipelineMetrics) *Client {
	httpClient := &http.Client{Timeout: cfg.RequestTimeout}
	return &Client{
		cfg:     cfg,
		fetcher: newFetcher(httpClient, cfg.Retries, cfg.BaseDelay, logg, m),
	}
}

// ReportDetail loads the detailed sales report rows for a period. Rows are
// validated before they reach the aggregator.
func (c *Client) ReportDetail(ctx context.Context, apiKey string, from, to time.Time) ([]ReportRow, error) {
	query := url.Values{}
	query.Set("dateFrom", from.Format(isoDate))
	query.Set("dateTo", to.Format(isoDate))
	query.Set("limit", "100000")

	body, err := c.fetcher.fetchWithRetry(ctx, "report-detail", apiKey,
		c.cfg.StatisticsBaseURL+"/api/v5/supplier/reportDetailByPeriod", query)
	if err != nil {
		return nil, err
	}

	var rows []ReportRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding report detail response")
	}
	if err := ValidateRows(rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Orders loads order events starting from the given date.
func (c *Client) Orders(ctx context.Context, apiKey string, from time.Time) ([]Order, error) {
	query := url.Values{}
	query.Set("dateFrom", from.Format(isoDate))

	body, err := c.fetcher.fetchWithRetry(ctx, "orders", apiKey,
		c.cfg.StatisticsBaseURL+"/api/v1/supplier/orders", query)
	if err != nil {
		return nil, err
	}

	var orders []Order
	if err := json.Unmarshal(body, &orders); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding orders response")
	}
	return orders, nil
}

// Sales loads sale and return events starting from the given date.
func (c *Client) Sales(ctx context.Context, apiKey string, from time.Time) ([]Sale, error) {
	query := url.Values{}
	query.Set("dateFrom", from.Format(isoDate))

	body, err := c.fetcher.fetchWithRetry(ctx, "sales", apiKey,
		c.cfg.StatisticsBaseURL+"/api/v1/supplier/sales", query)
	if err != nil {
		return nil, err
	}

	var sales []Sale
	if err := json.Unmarshal(body, &sales); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding sales response")
	}
	return sales, nil
}

// Balance loads the current seller balance.
func (c *Client) Balance(ctx context.Context, apiKey string) (*Balance, error) {
	body, err := c.fetcher.fetchWithRetry(ctx, "balance", apiKey,
		c.cfg.SuppliersBaseURL+"/api/v1/account/balance", nil)
	if err != nil {
		return nil, err
	}

	var balance Balance
	if err := json.Unmarshal(body, &balance); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding balance response")
	}
	return &balance, nil
}

// Warehouses lists the marketplace warehouses available to the seller.
func (c *Client) Warehouses(ctx context.Context, apiKey string) ([]Warehouse, error) {
	body, err := c.fetcher.fetchWithRetry(ctx, "warehouses", apiKey,
		c.cfg.SuppliersBaseURL+"/api/v3/warehouses", nil)
	if err != nil {
		return nil, err
	}

	var warehouses []Warehouse
	if err := json.Unmarshal(body, &warehouses); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding warehouses response")
	}
	return warehouses, nil
}

// AcceptanceCoefficients loads per-warehouse acceptance coefficients.
func (c *Client) AcceptanceCoefficients(ctx context.Context, apiKey string) ([]AcceptanceCoefficient, error) {
	body, err := c.fetcher.fetchWithRetry(ctx, "acceptance-coefficients", apiKey,
		c.cfg.SuppliersBaseURL+"/api/v1/acceptance/coefficients", nil)
	if err != nil {
		return nil, err
	}

	var coefficients []AcceptanceCoefficient
	if err := json.Unmarshal(body, &coefficients); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding acceptance coefficients response")
	}
	return coefficients, nil
}

// StockRemains loads current stock remainders across warehouses.
func (c *Client) StockRemains(ctx context.Context, apiKey string) ([]StockRemain, error) {
	query := url.Values{}
	// full snapshot per WB statistics API convention
	query.Set("dateFrom", "2019-06-20")

	body, err := c.fetcher.fetchWithRetry(ctx, "stocks", apiKey,
		c.cfg.StatisticsBaseURL+"/api/v1/supplier/stocks", query)
	if err != nil {
		return nil, err
	}

	var remains []StockRemain
	if err := json.Unmarshal(body, &remains); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding stocks response")
	}
	return remains, nil
}

// PaidStorage loads paid-storage charges for a period.
func (c *Client) PaidStorage(ctx context.Context, apiKey string, from, to time.Time) ([]PaidStorage, error) {
	query := url.Values{}
	query.Set("dateFrom", from.Format(isoDate))
	query.Set("dateTo", to.Format(isoDate))

	body, err := c.fetcher.fetchWithRetry(ctx, "paid-storage", apiKey,
		c.cfg.StatisticsBaseURL+"/api/v1/paid_storage", query)
	if err != nil {
		return nil, err
	}

	var storage []PaidStorage
	if err := json.Unmarshal(body, &storage); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding paid storage response")
	}
	return storage, nil
}

// AdSpend loads advertising spend records for a period.
func (c *Client) AdSpend(ctx context.Context, apiKey string, from, to time.Time) ([]AdSpend, error) {
	query := url.Values{}
	query.Set("from", from.Format(isoDate))
	query.Set("to", to.Format(isoDate))

	body, err := c.fetcher.fetchWithRetry(ctx, "ad-spend", apiKey,
		c.cfg.AdvertBaseURL+"/adv/v1/upd", query)
	if err != nil {
		return nil, err
	}

	var spend []AdSpend
	if err := json.Unmarshal(body, &spend); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding ad spend response")
	}
	return spend, nil
}
