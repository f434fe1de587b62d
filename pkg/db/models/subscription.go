package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zerofy/zerofy-backend/pkg/enums"
)

// Subscription binds a user to a tariff for a period.
type Subscription struct {
	ID        uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index"`
	TariffID  uuid.UUID                `gorm:"column:tariff_id;type:uuid;not null"`
	Status    enums.SubscriptionStatus `gorm:"column:status;type:text;not null;default:'trial'"`
	StartsAt  time.Time                `gorm:"column:starts_at;not null"`
	ExpiresAt time.Time                `gorm:"column:expires_at;not null"`
	CreatedAt time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time                `gorm:"column:updated_at;autoUpdateTime"`

	Tariff *Tariff `gorm:"foreignKey:TariffID"`
}
