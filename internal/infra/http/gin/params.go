package ginserver

import (
	"strings"
	"time"

	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/validation"
)

// parseStay reads YYYY-MM-DD dates. Missing dates are left zero for the range
// validation downstream; malformed ones are rejected here.
func parseStay(checkIn, checkOut string) (time.Time, time.Time, error) {
	in, err := parseDate("check_in", checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	out, err := parseDate("check_out", checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return in, out, nil
}

func parseDate(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := daterange.Parse(raw)
	if err != nil {
		return time.Time{}, validation.New(validation.ReasonInvalidField, field, "date must be formatted as YYYY-MM-DD")
	}
	return t, nil
}

func parseMonth(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01", raw)
	if err != nil {
		return time.Time{}, validation.New(validation.ReasonInvalidField, "month", "month must be formatted as YYYY-MM")
	}
	return t, nil
}
