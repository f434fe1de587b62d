package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/zerofy/zerofy-backend/pkg/db/models"
	"github.com/zerofy/zerofy-backend/pkg/enums"
	"github.com/zerofy/zerofy-backend/pkg/logger"
)

type activeStoreLister interface {
	ListActive(ctx context.Context) ([]models.SellerStore, error)
	TouchLastSync(ctx context.Context, id uuid.UUID) error
}

type datasetRefresher interface {
	Refresh(ctx context.Context, storeID, apiKey string) error
}

// CacheRefreshJobParams configures the scheduled warehouse refresh.
type CacheRefreshJobParams struct {
	Logger    *logger.Logger
	StoreRepo activeStoreLister
	Refresher datasetRefresher
	// PerStoreDelay spaces out marketplace calls between stores so the worker
	// does not trip the shared rate limit.
	PerStoreDelay time.Duration
}

// NewCacheRefreshJob constructs the job that re-fetches warehouse datasets for
// every active store, keeping dashboards warm between user visits.
func NewCacheRefreshJob(params CacheRefreshJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.StoreRepo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	if params.Refresher == nil {
		return nil, fmt.Errorf("refresher required")
	}
	return &cacheRefreshJob{
		logg:          params.Logger,
		storeRepo:     params.StoreRepo,
		refresher:     params.Refresher,
		perStoreDelay: params.PerStoreDelay,
	}, nil
}

type cacheRefreshJob struct {
	logg          *logger.Logger
	storeRepo     activeStoreLister
	refresher     datasetRefresher
	perStoreDelay time.Duration
}

func (j *cacheRefreshJob) Name() string { return "cache-refresh" }

func (j *cacheRefreshJob) Run(ctx context.Context) error {
	stores, err := j.storeRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active stores: %w", err)
	}

	var errs []error
	refreshed := 0
	for i, store := range stores {
		if store.Marketplace != enums.MarketplaceWildberries {
			continue
		}
		if i > 0 && j.perStoreDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(j.perStoreDelay):
			}
		}
		if err := j.refreshStore(ctx, store); err != nil {
			// One broken API key must not starve the remaining stores.
			errs = append(errs, fmt.Errorf("store %s: %w", store.ID, err))
			continue
		}
		refreshed++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"total":     len(stores),
		"refreshed": refreshed,
		"failed":    len(errs),
	})
	j.logg.Info(logCtx, "cache refresh loop complete")
	return multierr.Combine(errs...)
}

func (j *cacheRefreshJob) refreshStore(ctx context.Context, store models.SellerStore) error {
	if err := j.refresher.Refresh(ctx, store.ID.String(), store.APIKey); err != nil {
		return err
	}
	if err := j.storeRepo.TouchLastSync(ctx, store.ID); err != nil {
		return fmt.Errorf("touch last sync: %w", err)
	}
	return nil
}
