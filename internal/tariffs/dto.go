package tariffs

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/zerofy/zerofy-backend/pkg/db/models"
	"github.com/zerofy/zerofy-backend/pkg/enums"
)

// TariffDTO exposes a subscription plan in API responses.
type TariffDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description,omitempty"`
	PriceRub    decimal.Decimal `json:"price_rub"`
	PeriodDays  int             `json:"period_days"`
	StoreLimit  int             `json:"store_limit"`
	IsActive    bool            `json:"is_active"`
}

// CreateTariffInput holds the admin-facing fields for a new plan.
type CreateTariffInput struct {
	Name        string          `json:"name" validate:"required,min=1,max=120"`
	Description *string         `json:"description" validate:"omitempty,max=500"`
	PriceRub    decimal.Decimal `json:"price_rub" validate:"required"`
	PeriodDays  int             `json:"period_days" validate:"required,gt=0"`
	StoreLimit  int             `json:"store_limit" validate:"required,gt=0"`
}

// UpdateTariffInput holds the mutable plan fields.
type UpdateTariffInput struct {
	Description *string          `json:"description" validate:"omitempty,max=500"`
	PriceRub    *decimal.Decimal `json:"price_rub"`
	StoreLimit  *int             `json:"store_limit" validate:"omitempty,gt=0"`
	IsActive    *bool            `json:"is_active"`
}

// SubscriptionDTO exposes a user's tariff binding.
type SubscriptionDTO struct {
	ID        uuid.UUID                `json:"id"`
	TariffID  uuid.UUID                `json:"tariff_id"`
	Status    enums.SubscriptionStatus `json:"status"`
	StartsAt  time.Time                `json:"starts_at"`
	ExpiresAt time.Time                `json:"expires_at"`
	Tariff    *TariffDTO               `json:"tariff,omitempty"`
}

// FromModel maps a persisted tariff into a DTO.
func FromModel(m *models.Tariff) *TariffDTO {
	if m == nil {
		return nil
	}
	return &TariffDTO{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		PriceRub:    m.PriceRub,
		PeriodDays:  m.PeriodDays,
		StoreLimit:  m.StoreLimit,
		IsActive:    m.IsActive,
	}
}

// SubscriptionFromModel maps a persisted subscription into a DTO.
func SubscriptionFromModel(m *models.Subscription) *SubscriptionDTO {
	if m == nil {
		return nil
	}
	return &SubscriptionDTO{
		ID:        m.ID,
		TariffID:  m.TariffID,
		Status:    m.Status,
		StartsAt:  m.StartsAt,
		ExpiresAt: m.ExpiresAt,
		Tariff:    FromModel(m.Tariff),
	}
}
