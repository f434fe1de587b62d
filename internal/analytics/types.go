package analytics

// GeneralSales holds the period-wide totals of the dashboard header.
type GeneralSales struct {
	TotalSalesVolume  float64 `json:"total_sales_volume"`
	TotalOrdersCount  int     `json:"total_orders_count"`
	TotalReturnsCount int     `json:"total_returns_count"`
	ReturnRate        float64 `json:"return_rate"`
}

// ProductSales is the per-product accumulator keyed by nmId.
type ProductSales struct {
	ProductName   string  `json:"product_name"`
	QuantitySold  float64 `json:"quantity_sold"`
	SalesAmount   float64 `json:"sales_amount"`
	AveragePrice  float64 `json:"average_price"`
	Profit        float64 `json:"profit"`
	Profitability float64 `json:"profitability"`
	OrdersCount   int     `json:"orders_count"`
	ReturnsCount  int     `json:"returns_count"`
	ReturnRate    float64 `json:"return_rate"`
}

// ReturnsItem is the returns-focused projection of ProductSales.
type ReturnsItem struct {
	ProductName  string  `json:"product_name"`
	OrdersCount  int     `json:"orders_count"`
	ReturnsCount int     `json:"returns_count"`
	ReturnRate   float64 `json:"return_rate"`
}

// ProfitabilityItem is the profit-focused projection of ProductSales.
type ProfitabilityItem struct {
	ProductName string  `json:"product_name"`
	Profit      float64 `json:"profit"`
}

// Aggregated is the full analytics result for one period.
type Aggregated struct {
	GeneralSalesAnalytics GeneralSales                `json:"general_sales_analytics"`
	ProductSalesAnalysis  map[int64]ProductSales      `json:"product_sales_analysis"`
	ReturnsAnalysis       map[int64]ReturnsItem       `json:"returns_analysis"`
	ProfitabilityAnalysis map[int64]ProfitabilityItem `json:"profitability_analysis"`
}

// StatsResult is what the API layer renders: current and previous period
// analytics plus cache provenance so demo data is always disclosed.
type StatsResult struct {
	Current  *Aggregated `json:"current"`
	Previous *Aggregated `json:"previous,omitempty"`

	IsDemo       bool   `json:"is_demo"`
	CacheAge     *int64 `json:"cache_age_seconds,omitempty"`
	CacheAgeText string `json:"cache_age_text,omitempty"`
}
