package tariffs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zerofy/zerofy-backend/pkg/db/models"
	"github.com/zerofy/zerofy-backend/pkg/enums"
	pkgerrors "github.com/zerofy/zerofy-backend/pkg/errors"
)

// trialDays is the subscription length granted on first signup without a paid
// plan.
const trialDays = 14

// defaultStoreLimit applies to accounts that have never subscribed.
const defaultStoreLimit = 1

type tariffRepository interface {
	ListActive(ctx context.Context) ([]models.Tariff, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tariff, error)
	Create(ctx context.Context, tariff *models.Tariff) error
	Update(ctx context.Context, tariff *models.Tariff) error
	CreateSubscription(ctx context.Context, sub *models.Subscription) error
	FindCurrentSubscription(ctx context.Context, userID uuid.UUID) (*models.Subscription, error)
	UpdateSubscriptionStatus(ctx context.Context, id uuid.UUID, status enums.SubscriptionStatus) error
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

// Service exposes tariff and subscription operations.
type Service interface {
	ListActive(ctx context.Context) ([]TariffDTO, error)
	Create(ctx context.Context, input CreateTariffInput) (*TariffDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateTariffInput) (*TariffDTO, error)
	Subscribe(ctx context.Context, userID, tariffID uuid.UUID) (*SubscriptionDTO, error)
	StartTrial(ctx context.Context, userID, tariffID uuid.UUID) (*SubscriptionDTO, error)
	CurrentSubscription(ctx context.Context, userID uuid.UUID) (*SubscriptionDTO, error)
	Cancel(ctx context.Context, userID uuid.UUID) error
	StoreLimitFor(ctx context.Context, userID uuid.UUID) (int, error)
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}

type service struct {
	repo tariffRepository
	now  func() time.Time
}

// NewService builds a tariff service with the provided repository.
func NewService(repo tariffRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("tariff repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) ListActive(ctx context.Context) ([]TariffDTO, error) {
	tariffs, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list tariffs")
	}
	dtos := make([]TariffDTO, 0, len(tariffs))
	for i := range tariffs {
		dtos = append(dtos, *FromModel(&tariffs[i]))
	}
	return dtos, nil
}

func (s *service) Create(ctx context.Context, input CreateTariffInput) (*TariffDTO, error) {
	if input.PriceRub.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	tariff := &models.Tariff{
		Name:        strings.TrimSpace(input.Name),
		Description: input.Description,
		PriceRub:    input.PriceRub,
		PeriodDays:  input.PeriodDays,
		StoreLimit:  input.StoreLimit,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, tariff); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create tariff")
	}
	return FromModel(tariff), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateTariffInput) (*TariffDTO, error) {
	tariff, err := s.findTariff(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Description != nil {
		tariff.Description = input.Description
	}
	if input.PriceRub != nil {
		if input.PriceRub.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
		}
		tariff.PriceRub = *input.PriceRub
	}
	if input.StoreLimit != nil {
		tariff.StoreLimit = *input.StoreLimit
	}
	if input.IsActive != nil {
		tariff.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, tariff); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update tariff")
	}
	return FromModel(tariff), nil
}

func (s *service) Subscribe(ctx context.Context, userID, tariffID uuid.UUID) (*SubscriptionDTO, error) {
	return s.subscribe(ctx, userID, tariffID, enums.SubscriptionStatusActive, 0)
}

// StartTrial grants the trial period on the chosen plan. A user with a live
// subscription cannot start another trial.
func (s *service) StartTrial(ctx context.Context, userID, tariffID uuid.UUID) (*SubscriptionDTO, error) {
	return s.subscribe(ctx, userID, tariffID, enums.SubscriptionStatusTrial, trialDays)
}

func (s *service) subscribe(ctx context.Context, userID, tariffID uuid.UUID, status enums.SubscriptionStatus, overrideDays int) (*SubscriptionDTO, error) {
	tariff, err := s.findTariff(ctx, tariffID)
	if err != nil {
		return nil, err
	}
	if !tariff.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tariff is not available")
	}

	if existing, err := s.repo.FindCurrentSubscription(ctx, userID); err == nil && existing != nil {
		if existing.ExpiresAt.After(s.now()) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "an active subscription already exists")
		}
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check current subscription")
	}

	days := tariff.PeriodDays
	if overrideDays > 0 {
		days = overrideDays
	}
	now := s.now()
	sub := &models.Subscription{
		UserID:    userID,
		TariffID:  tariff.ID,
		Status:    status,
		StartsAt:  now,
		ExpiresAt: now.AddDate(0, 0, days),
		Tariff:    tariff,
	}
	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription")
	}
	return SubscriptionFromModel(sub), nil
}

func (s *service) CurrentSubscription(ctx context.Context, userID uuid.UUID) (*SubscriptionDTO, error) {
	sub, err := s.repo.FindCurrentSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active subscription")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	return SubscriptionFromModel(sub), nil
}

func (s *service) Cancel(ctx context.Context, userID uuid.UUID) error {
	sub, err := s.repo.FindCurrentSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "no active subscription")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	if err := s.repo.UpdateSubscriptionStatus(ctx, sub.ID, enums.SubscriptionStatusCanceled); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel subscription")
	}
	return nil
}

// StoreLimitFor returns how many marketplace stores the user may link. An
// expired or missing subscription falls back to the default single store.
func (s *service) StoreLimitFor(ctx context.Context, userID uuid.UUID) (int, error) {
	sub, err := s.repo.FindCurrentSubscription(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return defaultStoreLimit, nil
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
	}
	if sub.ExpiresAt.Before(s.now()) || sub.Tariff == nil {
		return defaultStoreLimit, nil
	}
	return sub.Tariff.StoreLimit, nil
}

func (s *service) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	count, err := s.repo.ExpireDue(ctx, now)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire subscriptions")
	}
	return count, nil
}

func (s *service) findTariff(ctx context.Context, id uuid.UUID) (*models.Tariff, error) {
	tariff, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "tariff not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tariff")
	}
	return tariff, nil
}
