package stores

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zerofy/zerofy-backend/pkg/db/models"
)

// Repository handles seller store persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to seller store operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a new store row.
func (r *Repository) Create(ctx context.Context, store *models.SellerStore) error {
	return r.db.WithContext(ctx).Create(store).Error
}

// FindByID loads a store by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.SellerStore, error) {
	var store models.SellerStore
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// FindByOwner returns every store linked by an account, oldest first.
func (r *Repository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.SellerStore, error) {
	var rows []models.SellerStore
	if err := r.db.WithContext(ctx).
		Where("owner = ?", ownerID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountByOwner counts an account's linked stores.
func (r *Repository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SellerStore{}).
		Where("owner = ?", ownerID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Update persists mutable store fields.
func (r *Repository) Update(ctx context.Context, store *models.SellerStore) error {
	return r.db.WithContext(ctx).Save(store).Error
}

// Delete removes a store row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.SellerStore{}).Error
}

// TouchLastSync records a successful background refresh.
func (r *Repository) TouchLastSync(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.SellerStore{}).
		Where("id = ?", id).
		Update("last_sync_at", gorm.Expr("now()")).Error
}

// ListActive returns every active store across all accounts. Used by the
// background refresh worker.
func (r *Repository) ListActive(ctx context.Context) ([]models.SellerStore, error) {
	var rows []models.SellerStore
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
