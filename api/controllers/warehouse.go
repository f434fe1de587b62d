package controllers

import (
	"net/http"

	"github.com/zerofy/zerofy-backend/api/responses"
	"github.com/zerofy/zerofy-backend/internal/stores"
	"github.com/zerofy/zerofy-backend/internal/warehouse"
	"github.com/zerofy/zerofy-backend/internal/wildberries"
	pkgerrors "github.com/zerofy/zerofy-backend/pkg/errors"
	"github.com/zerofy/zerofy-backend/pkg/logger"
)

// warehouseDataset adapts the per-kind service methods into one handler shape.
func warehouseDataset[T any](
	storeSvc stores.Service,
	logg *logger.Logger,
	load func(r *http.Request, store *storeWithKey) (*warehouse.Dataset[T], error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if storeSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "warehouse service unavailable"))
			return
		}

		store, err := ownedStore(r, storeSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dataset, err := load(r, store)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dataset)
	}
}

// WarehousesGet returns the store's warehouse list.
func WarehousesGet(svc *warehouse.Service, storeSvc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return warehouseDataset(storeSvc, logg, func(r *http.Request, store *storeWithKey) (*warehouse.Dataset[[]wildberries.Warehouse], error) {
		return svc.Warehouses(r.Context(), store.ID.String(), store.APIKey)
	})
}

// CoefficientsGet returns warehouse acceptance coefficients.
func CoefficientsGet(svc *warehouse.Service, storeSvc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return warehouseDataset(storeSvc, logg, func(r *http.Request, store *storeWithKey) (*warehouse.Dataset[[]wildberries.AcceptanceCoefficient], error) {
		return svc.Coefficients(r.Context(), store.ID.String(), store.APIKey)
	})
}

// RemainsGet returns current stock remains.
func RemainsGet(svc *warehouse.Service, storeSvc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return warehouseDataset(storeSvc, logg, func(r *http.Request, store *storeWithKey) (*warehouse.Dataset[[]wildberries.StockRemain], error) {
		return svc.Remains(r.Context(), store.ID.String(), store.APIKey)
	})
}

// PaidStorageGet returns paid storage charges.
func PaidStorageGet(svc *warehouse.Service, storeSvc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return warehouseDataset(storeSvc, logg, func(r *http.Request, store *storeWithKey) (*warehouse.Dataset[[]wildberries.PaidStorage], error) {
		return svc.PaidStorage(r.Context(), store.ID.String(), store.APIKey)
	})
}

// AverageSalesGet returns per-product average daily sales.
func AverageSalesGet(svc *warehouse.Service, storeSvc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return warehouseDataset(storeSvc, logg, func(r *http.Request, store *storeWithKey) (*warehouse.Dataset[[]warehouse.AverageSales], error) {
		return svc.AverageSales(r.Context(), store.ID.String(), store.APIKey)
	})
}

// WarehouseRefresh force-refetches every warehouse dataset for a store.
func WarehouseRefresh(svc *warehouse.Service, storeSvc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || storeSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "warehouse service unavailable"))
			return
		}

		store, err := ownedStore(r, storeSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Refresh(r.Context(), store.ID.String(), store.APIKey); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "refreshed"})
	}
}
