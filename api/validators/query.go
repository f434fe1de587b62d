package validators

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/zerofy/zerofy-backend/pkg/errors"
)

const dateLayout = "2006-01-02"

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseDateRange reads an inclusive reporting period from dateFrom/dateTo
// query parameters. When both are absent it falls back to the last seven days.
func ParseDateRange(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	rawFrom := strings.TrimSpace(r.URL.Query().Get("dateFrom"))
	rawTo := strings.TrimSpace(r.URL.Query().Get("dateTo"))

	if rawFrom == "" && rawTo == "" {
		end := now.UTC().Truncate(24 * time.Hour).Add(24*time.Hour - time.Second)
		start := end.AddDate(0, 0, -6).Truncate(24 * time.Hour)
		return start, end, nil
	}
	if rawFrom == "" || rawTo == "" {
		return time.Time{}, time.Time{}, pkgerrors.New(
			pkgerrors.CodeValidation,
			"dateFrom and dateTo must be provided together",
		)
	}

	start, err := time.ParseInLocation(dateLayout, rawFrom, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "dateFrom must be formatted as YYYY-MM-DD")
	}
	endDay, err := time.ParseInLocation(dateLayout, rawTo, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "dateTo must be formatted as YYYY-MM-DD")
	}
	end := endDay.Add(24*time.Hour - time.Second)
	if end.Before(start) {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "dateTo must not be before dateFrom")
	}
	return start, end, nil
}

// ParseUUIDParam validates a path parameter as a UUID.
func ParseUUIDParam(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "identifier must be a UUID").WithDetails(map[string]any{"field": field})
	}
	return id, nil
}
