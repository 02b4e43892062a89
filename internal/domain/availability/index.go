package availability

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"staybook/internal/domain/shared/daterange"
)

const defaultSourceTimeout = 5 * time.Second

// FallbackObserver is notified whenever a refresh degrades to the open calendar.
type FallbackObserver interface {
	ObserveAvailabilityFallback(cause string)
}

// Index loads the occupancy of a visible window (normally a month pair). Refresh never
// fails: when the channel manager cannot answer, every date of the window is reported
// available so date selection is never blocked.
type Index struct {
	Source   Source
	Timeout  time.Duration
	Logger   *slog.Logger
	Observer FallbackObserver

	group singleflight.Group
}

func NewIndex(source Source, timeout time.Duration, logger *slog.Logger) *Index {
	return &Index{Source: source, Timeout: timeout, Logger: logger}
}

// Refresh loads [windowStart, windowEnd]. Concurrent refreshes of the same window share
// one source call, which is detached from any single caller's cancellation; a caller that
// gives up early gets the open window without affecting the others.
func (i *Index) Refresh(ctx context.Context, windowStart, windowEnd time.Time) map[time.Time]CalendarDay {
	start, end := daterange.Day(windowStart), daterange.Day(windowEnd)
	if end.Before(start) {
		return map[time.Time]CalendarDay{}
	}
	key := start.Format(time.DateOnly) + "/" + end.Format(time.DateOnly)
	shared := context.WithoutCancel(ctx)
	ch := i.group.DoChan(key, func() (any, error) {
		return i.load(shared, start, end), nil
	})
	select {
	case res := <-ch:
		return copyDays(res.Val.(map[time.Time]CalendarDay))
	case <-ctx.Done():
		i.fallback("cancelled", start, end, ctx.Err())
		return DefaultWindow(start, end)
	}
}

func (i *Index) load(ctx context.Context, start, end time.Time) map[time.Time]CalendarDay {
	if i.Source == nil {
		i.fallback("no_source", start, end, ErrSourceUnavailable)
		return DefaultWindow(start, end)
	}
	timeout := i.Timeout
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	records, err := i.Source.Availability(callCtx, start, end)
	if err != nil {
		cause := "error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			cause = "timeout"
		}
		i.fallback(cause, start, end, err)
		return DefaultWindow(start, end)
	}
	days, skipped := BuildWindow(start, end, records)
	if skipped > 0 && i.Logger != nil {
		i.Logger.Warn("availability records without date skipped", "count", skipped, "from", start.Format(time.DateOnly), "to", end.Format(time.DateOnly))
	}
	return days
}

func (i *Index) fallback(cause string, start, end time.Time, err error) {
	if i.Logger != nil {
		i.Logger.Warn("availability source failed, assuming open calendar",
			"cause", cause,
			"from", start.Format(time.DateOnly),
			"to", end.Format(time.DateOnly),
			"error", err,
		)
	}
	if i.Observer != nil {
		i.Observer.ObserveAvailabilityFallback(cause)
	}
}

func copyDays(in map[time.Time]CalendarDay) map[time.Time]CalendarDay {
	out := make(map[time.Time]CalendarDay, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
