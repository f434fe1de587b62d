package tariffs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zerofy/zerofy-backend/pkg/db/models"
	"github.com/zerofy/zerofy-backend/pkg/enums"
)

// Repository handles tariff and subscription persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to tariff operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// ListActive returns every purchasable plan ordered by price.
func (r *Repository) ListActive(ctx context.Context) ([]models.Tariff, error) {
	var tariffs []models.Tariff
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("price_rub ASC").
		Find(&tariffs).Error; err != nil {
		return nil, err
	}
	return tariffs, nil
}

// FindByID loads a tariff by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Tariff, error) {
	var tariff models.Tariff
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&tariff).Error; err != nil {
		return nil, err
	}
	return &tariff, nil
}

// Create persists a new tariff row.
func (r *Repository) Create(ctx context.Context, tariff *models.Tariff) error {
	if tariff == nil {
		return fmt.Errorf("tariff is required")
	}
	return r.db.WithContext(ctx).Create(tariff).Error
}

// Update saves the provided tariff.
func (r *Repository) Update(ctx context.Context, tariff *models.Tariff) error {
	if tariff == nil {
		return fmt.Errorf("tariff is required")
	}
	return r.db.WithContext(ctx).Save(tariff).Error
}

// CreateSubscription persists a new subscription row.
func (r *Repository) CreateSubscription(ctx context.Context, sub *models.Subscription) error {
	if sub == nil {
		return fmt.Errorf("subscription is required")
	}
	return r.db.WithContext(ctx).Create(sub).Error
}

// FindCurrentSubscription returns the user's newest non-expired subscription
// with its tariff preloaded.
func (r *Repository) FindCurrentSubscription(ctx context.Context, userID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).
		Preload("Tariff").
		Where("user_id = ? AND status IN ?", userID,
			[]enums.SubscriptionStatus{enums.SubscriptionStatusTrial, enums.SubscriptionStatusActive}).
		Order("expires_at DESC").
		First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpdateSubscriptionStatus sets the status of one subscription.
func (r *Repository) UpdateSubscriptionStatus(ctx context.Context, id uuid.UUID, status enums.SubscriptionStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// ExpireDue flips every overdue trial/active subscription to expired and
// returns how many rows changed.
func (r *Repository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("status IN ? AND expires_at <= ?",
			[]enums.SubscriptionStatus{enums.SubscriptionStatusTrial, enums.SubscriptionStatusActive}, now).
		Update("status", enums.SubscriptionStatusExpired)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
