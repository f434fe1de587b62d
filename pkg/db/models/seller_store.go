package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/zerofy/zerofy-backend/pkg/enums"
)

// SellerStore is a marketplace store linked to a Zerofy account. The API key
// is the seller's statistics token for the marketplace, stored as-is and
// masked in every API response.
type SellerStore struct {
	ID          uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID     uuid.UUID         `gorm:"column:owner;type:uuid;not null;index"`
	Name        string            `gorm:"column:name;not null"`
	Marketplace enums.Marketplace `gorm:"column:marketplace;type:text;not null;default:'wildberries'"`
	APIKey      string            `gorm:"column:api_key;not null"`
	IsActive    bool              `gorm:"column:is_active;not null;default:true"`
	LastSyncAt  *time.Time        `gorm:"column:last_sync_at"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
