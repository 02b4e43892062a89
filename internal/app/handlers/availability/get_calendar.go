package availability

import (
	"context"
	"time"

	"staybook/internal/app/dto"
	"staybook/internal/app/policies"
	"staybook/internal/app/queries"
	domainavailability "staybook/internal/domain/availability"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/validation"
)

const (
	getCalendarKey = "availability.calendar"
	maxWindowDays  = 93
)

// GetCalendarQuery asks for the month pair starting at Month, or for [From, To] when both are set.
type GetCalendarQuery struct {
	Month time.Time
	From  time.Time
	To    time.Time
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

type GetCalendarHandler struct {
	Availability policies.AvailabilityPort
	Now          func() time.Time
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	from, to, err := h.window(q)
	if err != nil {
		return dto.Calendar{}, err
	}
	if h.Availability == nil {
		return dto.MapCalendar(from, to, domainavailability.DefaultWindow(from, to)), nil
	}
	days := h.Availability.Refresh(ctx, from, to)
	return dto.MapCalendar(from, to, days), nil
}

func (h *GetCalendarHandler) window(q GetCalendarQuery) (time.Time, time.Time, error) {
	if !q.From.IsZero() || !q.To.IsZero() {
		from, to := daterange.Day(q.From), daterange.Day(q.To)
		if q.From.IsZero() || q.To.IsZero() || to.Before(from) {
			return time.Time{}, time.Time{}, validation.New(validation.ReasonInvalidRange, "to", "from and to must both be set, from <= to")
		}
		if to.Sub(from) > maxWindowDays*24*time.Hour {
			return time.Time{}, time.Time{}, validation.New(validation.ReasonInvalidRange, "to", "calendar window is limited to 93 days")
		}
		return from, to, nil
	}
	month := q.Month
	if month.IsZero() {
		month = time.Now()
		if h.Now != nil {
			month = h.Now()
		}
	}
	from, to := domainavailability.MonthPairWindow(month)
	return from, to, nil
}

var _ queries.Handler[GetCalendarQuery, dto.Calendar] = (*GetCalendarHandler)(nil)
