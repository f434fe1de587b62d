package stores

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zerofy/zerofy-backend/pkg/db/models"
	"github.com/zerofy/zerofy-backend/pkg/enums"
)

// StoreDTO exposes a linked marketplace store. The API key never leaves the
// backend unmasked.
type StoreDTO struct {
	ID           uuid.UUID         `json:"id"`
	Name         string            `json:"name"`
	Marketplace  enums.Marketplace `json:"marketplace"`
	APIKeyMasked string            `json:"api_key_masked"`
	IsActive     bool              `json:"is_active"`
	LastSyncAt   *time.Time        `json:"last_sync_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// CreateStoreInput holds the fields for linking a new store.
type CreateStoreInput struct {
	Name        string `json:"name" validate:"required,min=1,max=120"`
	Marketplace string `json:"marketplace" validate:"required"`
	APIKey      string `json:"api_key" validate:"required,min=16"`
	// SeedFromStoreID optionally copies cached datasets from another of the
	// user's stores so the dashboard renders without waiting on fetches.
	SeedFromStoreID *uuid.UUID `json:"seed_from_store_id"`
}

// UpdateStoreInput holds the mutable store fields.
type UpdateStoreInput struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=120"`
	APIKey   *string `json:"api_key" validate:"omitempty,min=16"`
	IsActive *bool   `json:"is_active"`
}

// FromModel maps the persisted store into a DTO.
func FromModel(m *models.SellerStore) *StoreDTO {
	if m == nil {
		return nil
	}
	return &StoreDTO{
		ID:           m.ID,
		Name:         m.Name,
		Marketplace:  m.Marketplace,
		APIKeyMasked: MaskAPIKey(m.APIKey),
		IsActive:     m.IsActive,
		LastSyncAt:   m.LastSyncAt,
		CreatedAt:    m.CreatedAt,
	}
}

// MaskAPIKey hides all but the last four characters of a statistics token.
func MaskAPIKey(key string) string {
	key = strings.TrimSpace(key)
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", 8) + key[len(key)-4:]
}
