package availability

import (
	"context"
	"errors"
	"sort"
	"time"

	"staybook/internal/domain/shared/daterange"
)

var ErrSourceUnavailable = errors.New("availability: source unavailable")

type DaySource string

const (
	SourceExternal DaySource = "external"
	SourceDefault  DaySource = "default"
)

// CalendarDay is the occupancy status of one date inside the visible window.
type CalendarDay struct {
	Date      time.Time
	Available bool
	Source    DaySource
}

// Record is one entry reported by the channel manager. Dates it does not report are free.
type Record struct {
	Date      time.Time
	Available bool
}

// Source reads occupancy for the closed interval [start, end] from the channel manager.
type Source interface {
	Availability(ctx context.Context, start, end time.Time) ([]Record, error)
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func(ctx context.Context, start, end time.Time) ([]Record, error)

func (f SourceFunc) Availability(ctx context.Context, start, end time.Time) ([]Record, error) {
	return f(ctx, start, end)
}

// Lookup answers whether a single date can be booked.
type Lookup interface {
	IsAvailable(date time.Time) bool
}

// Days is a refreshed window used as a Lookup. Dates outside it count as available.
type Days map[time.Time]CalendarDay

func (d Days) IsAvailable(date time.Time) bool {
	day, ok := d[daterange.Day(date)]
	return !ok || day.Available
}

// MonthPairWindow returns the first day of month and the last day of the following month.
func MonthPairWindow(month time.Time) (time.Time, time.Time) {
	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 2, -1)
	return first, last
}

// BuildWindow merges source records into a full window. Missing dates default to available;
// a date reported more than once is unavailable if any report says so.
func BuildWindow(start, end time.Time, records []Record) (map[time.Time]CalendarDay, int) {
	days := DefaultWindow(start, end)
	skipped := 0
	seen := make(map[time.Time]bool, len(records))
	for _, rec := range records {
		if rec.Date.IsZero() {
			skipped++
			continue
		}
		key := daterange.Day(rec.Date)
		current, ok := days[key]
		if !ok {
			continue
		}
		available := rec.Available
		if seen[key] {
			available = current.Available && rec.Available
		}
		seen[key] = true
		days[key] = CalendarDay{Date: key, Available: available, Source: SourceExternal}
	}
	return days, skipped
}

// DefaultWindow marks every date of [start, end] as available.
func DefaultWindow(start, end time.Time) map[time.Time]CalendarDay {
	dates := daterange.Dates(start, end)
	days := make(map[time.Time]CalendarDay, len(dates))
	for _, d := range dates {
		days[d] = CalendarDay{Date: d, Available: true, Source: SourceDefault}
	}
	return days
}

// Sorted returns the calendar days in date order.
func Sorted(days map[time.Time]CalendarDay) []CalendarDay {
	out := make([]CalendarDay, 0, len(days))
	for _, d := range days {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}
