package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tariff is a subscription plan sellers can purchase.
type Tariff struct {
	ID           uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string          `gorm:"column:name;not null;uniqueIndex"`
	Description  *string         `gorm:"column:description"`
	PriceRub     decimal.Decimal `gorm:"column:price_rub;type:numeric(12,2);not null"`
	PeriodDays   int             `gorm:"column:period_days;not null"`
	StoreLimit   int             `gorm:"column:store_limit;not null;default:1"`
	IsActive     bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
