package controllers

import (
	"net/http"

	"github.com/zerofy/zerofy-backend/api/responses"
	"github.com/zerofy/zerofy-backend/internal/users"
	pkgerrors "github.com/zerofy/zerofy-backend/pkg/errors"
	"github.com/zerofy/zerofy-backend/pkg/logger"
)

// Profile returns the authenticated account.
func Profile(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "user service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.GetByID(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
