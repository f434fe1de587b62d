package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zerofy/zerofy-backend/api/responses"
	"github.com/zerofy/zerofy-backend/api/validators"
	"github.com/zerofy/zerofy-backend/internal/analytics"
	"github.com/zerofy/zerofy-backend/internal/stores"
	pkgerrors "github.com/zerofy/zerofy-backend/pkg/errors"
	"github.com/zerofy/zerofy-backend/pkg/logger"
)

type storeWithKey struct {
	ID     uuid.UUID
	APIKey string
}

type ordersEnvelope struct {
	Orders any  `json:"orders"`
	IsDemo bool `json:"is_demo"`
}

type salesEnvelope struct {
	Sales  any  `json:"sales"`
	IsDemo bool `json:"is_demo"`
}

type balanceEnvelope struct {
	Balance any  `json:"balance"`
	IsDemo  bool `json:"is_demo"`
}

type adSpendEnvelope struct {
	AdSpend any  `json:"ad_spend"`
	IsDemo  bool `json:"is_demo"`
}

// StatsGet aggregates the sales report for the requested period, with the
// preceding period alongside for comparison.
func StatsGet(svc *analytics.Service, storeSvc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || storeSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		store, err := ownedStore(r, storeSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		start, end, err := validators.ParseDateRange(r, time.Now())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.GetStats(r.Context(), store.ID.String(), store.APIKey, start, end)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// OrdersGet returns recent orders for an owned store.
func OrdersGet(svc *analytics.Service, storeSvc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || storeSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		store, err := ownedStore(r, storeSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		from, err := parseFromDate(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orders, isDemo, err := svc.Orders(r.Context(), store.ID.String(), store.APIKey, from)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, ordersEnvelope{Orders: orders, IsDemo: isDemo})
	}
}

// SalesGet returns recent sales for an owned store.
func SalesGet(svc *analytics.Service, storeSvc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || storeSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		store, err := ownedStore(r, storeSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		from, err := parseFromDate(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sales, isDemo, err := svc.Sales(r.Context(), store.ID.String(), store.APIKey, from)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, salesEnvelope{Sales: sales, IsDemo: isDemo})
	}
}

// BalanceGet returns the seller account balance for an owned store.
func BalanceGet(svc *analytics.Service, storeSvc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || storeSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		store, err := ownedStore(r, storeSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		balance, isDemo, err := svc.Balance(r.Context(), store.ID.String(), store.APIKey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, balanceEnvelope{Balance: balance, IsDemo: isDemo})
	}
}

// AdSpendGet returns advertising spend for an owned store over the requested
// period.
func AdSpendGet(svc *analytics.Service, storeSvc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || storeSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		store, err := ownedStore(r, storeSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		from, to, err := validators.ParseDateRange(r, time.Now())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		spend, isDemo, err := svc.AdSpend(r.Context(), store.ID.String(), store.APIKey, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, adSpendEnvelope{AdSpend: spend, IsDemo: isDemo})
	}
}

// StoreCacheClear drops every cached dataset for an owned store.
func StoreCacheClear(svc *analytics.Service, storeSvc stores.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil || storeSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "analytics service unavailable"))
			return
		}

		store, err := ownedStore(r, storeSvc)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ClearStore(r.Context(), store.ID.String()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}

// ownedStore resolves the storeId path parameter to a store the caller owns,
// returning the model with the unmasked API key.
func ownedStore(r *http.Request, storeSvc stores.Service) (*storeWithKey, error) {
	userID, err := currentUserID(r)
	if err != nil {
		return nil, err
	}
	storeID, err := validators.ParseUUIDParam(chi.URLParam(r, "storeId"), "storeId")
	if err != nil {
		return nil, err
	}
	store, err := storeSvc.ResolveOwned(r.Context(), userID, storeID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(store.APIKey) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store has no API key configured")
	}
	return &storeWithKey{ID: store.ID, APIKey: store.APIKey}, nil
}

func parseFromDate(r *http.Request) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("dateFrom"))
	if raw == "" {
		now := time.Now().UTC()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	from, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "dateFrom must be formatted as YYYY-MM-DD")
	}
	return from, nil
}
