// Package stay holds the length-of-stay rules applied to a selected date range.
package stay

import (
	"fmt"
	"time"

	"staybook/internal/domain/availability"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/validation"
)

// IsValid reports whether r is at least minimumStayNights long. Empty and inverted
// ranges are never valid, whatever the minimum.
func IsValid(r daterange.DateRange, minimumStayNights int) bool {
	return Validate(r, minimumStayNights) == nil
}

// Validate is IsValid with the reason attached: a ValidationError for empty or
// inverted ranges, a MinimumStayError for short stays.
func Validate(r daterange.DateRange, minimumStayNights int) error {
	nights := r.Nights()
	if r.CheckIn.IsZero() || r.CheckOut.IsZero() || nights <= 0 {
		return validation.New(validation.ReasonInvalidRange, "check_out", "check-out must be after check-in")
	}
	if minimumStayNights < 1 {
		minimumStayNights = 1
	}
	if nights < minimumStayNights {
		return &validation.MinimumStayError{Minimum: minimumStayNights, Nights: nights}
	}
	return nil
}

// CheckAvailability verifies that every night of r is free. The check-out day itself
// is not slept in and is not checked.
func CheckAvailability(r daterange.DateRange, lookup availability.Lookup) error {
	if lookup == nil {
		return nil
	}
	var blocked time.Time
	r.EachNight(func(night time.Time) {
		if blocked.IsZero() && !lookup.IsAvailable(night) {
			blocked = night
		}
	})
	if !blocked.IsZero() {
		return validation.New(validation.ReasonDatesUnavailable, "check_in",
			fmt.Sprintf("%s is already booked", blocked.Format(time.DateOnly)))
	}
	return nil
}

// CheckNotPast rejects ranges whose check-in lies before today.
func CheckNotPast(r daterange.DateRange, today time.Time) error {
	if daterange.Day(r.CheckIn).Before(daterange.Day(today)) {
		return validation.New(validation.ReasonCheckInInPast, "check_in", "check-in date is in the past")
	}
	return nil
}
