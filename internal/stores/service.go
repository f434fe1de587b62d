package stores

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zerofy/zerofy-backend/pkg/db/models"
	"github.com/zerofy/zerofy-backend/pkg/enums"
	pkgerrors "github.com/zerofy/zerofy-backend/pkg/errors"
	"github.com/zerofy/zerofy-backend/pkg/logger"
)

type storeRepository interface {
	Create(ctx context.Context, store *models.SellerStore) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.SellerStore, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.SellerStore, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
	Update(ctx context.Context, store *models.SellerStore) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type storeLimiter interface {
	StoreLimitFor(ctx context.Context, userID uuid.UUID) (int, error)
}

type cacheSeeder interface {
	SeedFrom(ctx context.Context, sourceStoreID, targetStoreID string) error
}

type cacheCleaner interface {
	ClearAllForStore(ctx context.Context, storeID string) error
}

// Service exposes seller store management for the dashboard.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, input CreateStoreInput) (*StoreDTO, error)
	GetByID(ctx context.Context, ownerID, storeID uuid.UUID) (*StoreDTO, error)
	ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]StoreDTO, error)
	Update(ctx context.Context, ownerID, storeID uuid.UUID, input UpdateStoreInput) (*StoreDTO, error)
	Delete(ctx context.Context, ownerID, storeID uuid.UUID) error
	// ResolveOwned loads a store and verifies ownership, returning the model
	// with the unmasked API key for internal callers.
	ResolveOwned(ctx context.Context, ownerID, storeID uuid.UUID) (*models.SellerStore, error)
}

type service struct {
	repo    storeRepository
	limits  storeLimiter
	seeder  cacheSeeder
	cleaner cacheCleaner
	logg    *logger.Logger
}

// NewService builds a store service. The seeder and cleaner are optional; when
// nil, new stores start cold and deletes leave the cache to expire on its own.
func NewService(
	repo storeRepository,
	limits storeLimiter,
	seeder cacheSeeder,
	cleaner cacheCleaner,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if limits == nil {
		return nil, fmt.Errorf("store limiter required")
	}
	return &service{
		repo:    repo,
		limits:  limits,
		seeder:  seeder,
		cleaner: cleaner,
		logg:    logg,
	}, nil
}

func (s *service) Create(ctx context.Context, ownerID uuid.UUID, input CreateStoreInput) (*StoreDTO, error) {
	marketplace, err := enums.ParseMarketplace(input.Marketplace)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	limit, err := s.limits.StoreLimitFor(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count stores")
	}
	if count >= int64(limit) {
		return nil, pkgerrors.New(
			pkgerrors.CodeForbidden,
			fmt.Sprintf("store limit reached: your plan allows %d store(s)", limit),
		)
	}

	store := &models.SellerStore{
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(input.Name),
		Marketplace: marketplace,
		APIKey:      strings.TrimSpace(input.APIKey),
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, store); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create store")
	}

	if input.SeedFromStoreID != nil && s.seeder != nil {
		if err := s.seedFromSibling(ctx, ownerID, *input.SeedFromStoreID, store.ID); err != nil {
			// Seeding is best-effort: the store exists, the cache just starts cold.
			s.warn(ctx, store.ID, fmt.Sprintf("seed cache from sibling store failed: %v", err))
		}
	}

	return FromModel(store), nil
}

func (s *service) seedFromSibling(ctx context.Context, ownerID, sourceID, targetID uuid.UUID) error {
	source, err := s.repo.FindByID(ctx, sourceID)
	if err != nil {
		return fmt.Errorf("load source store: %w", err)
	}
	if source.OwnerID != ownerID {
		return fmt.Errorf("source store belongs to another account")
	}
	return s.seeder.SeedFrom(ctx, sourceID.String(), targetID.String())
}

func (s *service) GetByID(ctx context.Context, ownerID, storeID uuid.UUID) (*StoreDTO, error) {
	store, err := s.ResolveOwned(ctx, ownerID, storeID)
	if err != nil {
		return nil, err
	}
	return FromModel(store), nil
}

func (s *service) ListForOwner(ctx context.Context, ownerID uuid.UUID) ([]StoreDTO, error) {
	rows, err := s.repo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stores")
	}
	out := make([]StoreDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, ownerID, storeID uuid.UUID, input UpdateStoreInput) (*StoreDTO, error) {
	store, err := s.ResolveOwned(ctx, ownerID, storeID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "store name cannot be empty")
		}
		store.Name = name
	}
	if input.APIKey != nil {
		store.APIKey = strings.TrimSpace(*input.APIKey)
	}
	if input.IsActive != nil {
		store.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, store); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update store")
	}

	// A new API key means previously cached datasets may belong to a different
	// seller account. Drop them so the next request refetches.
	if input.APIKey != nil && s.cleaner != nil {
		if err := s.cleaner.ClearAllForStore(ctx, storeID.String()); err != nil {
			s.warn(ctx, storeID, fmt.Sprintf("clear cache after key rotation failed: %v", err))
		}
	}

	return FromModel(store), nil
}

func (s *service) Delete(ctx context.Context, ownerID, storeID uuid.UUID) error {
	if _, err := s.ResolveOwned(ctx, ownerID, storeID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, storeID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete store")
	}
	if s.cleaner != nil {
		if err := s.cleaner.ClearAllForStore(ctx, storeID.String()); err != nil {
			s.warn(ctx, storeID, fmt.Sprintf("clear cache after store delete failed: %v", err))
		}
	}
	return nil
}

func (s *service) ResolveOwned(ctx context.Context, ownerID, storeID uuid.UUID) (*models.SellerStore, error) {
	store, err := s.repo.FindByID(ctx, storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	if store.OwnerID != ownerID {
		// Do not leak existence of other users' stores.
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	return store, nil
}

func (s *service) warn(ctx context.Context, storeID uuid.UUID, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithStoreID(ctx, storeID.String()), msg)
}
