package dates

import (
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/tna-backend/pkg/errors"
)

const day = 24 * time.Hour

// DateLayout is the calendar-date form accepted alongside RFC3339.
const DateLayout = "2006-01-02"

// DayFloor normalizes t to midnight UTC.
func DayFloor(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the signed whole-day distance from `from` to `to`, with
// both sides floored to midnight UTC first.
func DaysBetween(from, to time.Time) int {
	return int(DayFloor(to).Sub(DayFloor(from)) / day)
}

// AddDays moves t forward by n exact 24h days.
func AddDays(t time.Time, n int) time.Time {
	return t.Add(time.Duration(n) * day)
}

// Reference picks the instant statuses are measured against: the shipment date
// once shipment tracking exists, otherwise now.
func Reference(shipDate *time.Time, now time.Time) time.Time {
	if shipDate != nil && !shipDate.IsZero() {
		return *shipDate
	}
	return now
}

// IsBeforeDay reports whether a falls on an earlier UTC calendar day than b.
func IsBeforeDay(a, b time.Time) bool {
	return DayFloor(a).Before(DayFloor(b))
}

// Parse accepts RFC3339 timestamps or YYYY-MM-DD dates. Unparseable input is
// a validation error.
func Parse(field, raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, field+" is required").
			WithDetails(map[string]any{"field": field})
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid date").
		WithDetails(map[string]any{"field": field, "value": value})
}

// ParseOptional is Parse for fields that may be omitted.
func ParseOptional(field, raw string) (*time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := Parse(field, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
