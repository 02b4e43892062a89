package policies

import (
	"context"
	"time"

	domainavailability "staybook/internal/domain/availability"
)

// AvailabilityPort refreshes occupancy for a window. It never fails; an unreachable
// channel manager yields an all-available window.
type AvailabilityPort interface {
	Refresh(ctx context.Context, windowStart, windowEnd time.Time) map[time.Time]domainavailability.CalendarDay
}

var _ AvailabilityPort = (*domainavailability.Index)(nil)
