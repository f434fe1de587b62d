package wildberries

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/zerofy/zerofy-backend/pkg/errors"
)

var validate = validator.New()

// ReportRow is one line of the sales report (reportDetailByPeriod). Rows are
// immutable once received; aggregation keys on NmID and DocTypeName.
type ReportRow struct {
	NmID              int64     `json:"nm_id" validate:"required,gt=0"`
	SubjectName       string    `json:"subject_name"`
	BrandName         string    `json:"brand_name"`
	DocTypeName       string    `json:"doc_type_name" validate:"required"`
	SaleDt            time.Time `json:"sale_dt" validate:"required"`
	Quantity          float64   `json:"quantity"`
	RetailPrice       float64   `json:"retail_price"`
	RetailAmount      float64   `json:"retail_amount"`
	PpvzForPay        float64   `json:"ppvz_for_pay"`
	DeliveryRub       float64   `json:"delivery_rub"`
	StorageFee        float64   `json:"storage_fee"`
	Penalty           float64   `json:"penalty"`
	AdditionalPayment float64   `json:"additional_payment"`
	AcquiringFee      float64   `json:"acquiring_fee"`
	Deduction         float64   `json:"deduction"`
	Acceptance        float64   `json:"acceptance"`
	CommissionPercent float64   `json:"commission_percent"`
}

// ValidateRows rejects the whole batch when any row misses its identity
// fields, instead of letting zero values poison downstream sums.
func ValidateRows(rows []ReportRow) error {
	for i, row := range rows {
		if err := validate.Struct(row); err != nil {
			return pkgerrors.New(
				pkgerrors.CodeValidation,
				fmt.Sprintf("report row %d failed validation: %v", i, err),
			)
		}
	}
	return nil
}

// Order is a single order event from the orders feed.
type Order struct {
	Srid        string    `json:"srid"`
	NmID        int64     `json:"nm_id"`
	SubjectName string    `json:"subject"`
	Date        time.Time `json:"date"`
	TotalPrice  float64   `json:"total_price"`
	IsCancel    bool      `json:"is_cancel"`
	Warehouse   string    `json:"warehouse_name"`
	Region      string    `json:"region_name"`
}

// Sale is a single sale or return event from the sales feed.
type Sale struct {
	SaleID        string    `json:"sale_id"`
	NmID          int64     `json:"nm_id"`
	SubjectName   string    `json:"subject"`
	Date          time.Time `json:"date"`
	ForPay        float64   `json:"for_pay"`
	PriceWithDisc float64   `json:"price_with_disc"`
}

// Balance is the seller account balance snapshot.
type Balance struct {
	Currency    string  `json:"currency"`
	Current     float64 `json:"balance"`
	ForWithdraw float64 `json:"for_withdraw"`
}

// Warehouse describes one marketplace warehouse.
type Warehouse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	City     string `json:"city"`
	Selected bool   `json:"selected"`
}

// AcceptanceCoefficient is a per-warehouse acceptance rate for a date.
type AcceptanceCoefficient struct {
	WarehouseID   int64     `json:"warehouseID"`
	WarehouseName string    `json:"warehouseName"`
	Date          time.Time `json:"date"`
	Coefficient   float64   `json:"coefficient"`
	BoxTypeName   string    `json:"boxTypeName"`
}

// StockRemain is a stock remainder line per product and warehouse.
type StockRemain struct {
	NmID            int64  `json:"nmId"`
	SubjectName     string `json:"subject"`
	WarehouseName   string `json:"warehouseName"`
	Quantity        int64  `json:"quantity"`
	InWayToClient   int64  `json:"inWayToClient"`
	InWayFromClient int64  `json:"inWayFromClient"`
}

// PaidStorage is a paid-storage charge line.
type PaidStorage struct {
	NmID          int64     `json:"nmId"`
	Date          time.Time `json:"date"`
	WarehouseName string    `json:"warehouse"`
	StorageSum    float64   `json:"warehousePrice"`
	BarcodesCount int64     `json:"barcodesCount"`
}

// AdSpend is one advertising spend record from the promotion API.
type AdSpend struct {
	CampaignID   int64     `json:"advertId"`
	Date         time.Time `json:"updTime"`
	Sum          float64   `json:"updSum"`
	CampaignName string    `json:"campName"`
}
