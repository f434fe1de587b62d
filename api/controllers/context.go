package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/zerofy/zerofy-backend/api/middleware"
	pkgerrors "github.com/zerofy/zerofy-backend/pkg/errors"
)

// currentUserID extracts the authenticated account's UUID from the request.
func currentUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return id, nil
}
