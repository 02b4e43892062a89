package booking

import (
	"sort"
	"time"

	"staybook/internal/domain/shared/daterange"
)

// SortNewestFirst orders requests by creation time, newest first. Equal timestamps fall back to id.
func SortNewestFirst(requests []*BookingRequest) {
	sort.SliceStable(requests, func(i, j int) bool {
		a, b := requests[i], requests[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// Select filters and orders requests the way Repository.List must return them.
func Select(requests []*BookingRequest, filter Filter) []*BookingRequest {
	out := make([]*BookingRequest, 0, len(requests))
	for _, r := range requests {
		if filter.Matches(r) {
			out = append(out, r)
		}
	}
	SortNewestFirst(out)
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return out[:0]
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out
}

type Summary struct {
	Pending     int
	Confirmed   int
	Cancelled   int
	Total       int
	NextArrival *BookingRequest
}

func Summarize(requests []*BookingRequest, today time.Time) Summary {
	var s Summary
	for _, r := range requests {
		if r == nil {
			continue
		}
		s.Total++
		switch r.Status {
		case StatusPending:
			s.Pending++
		case StatusConfirmed:
			s.Confirmed++
		case StatusCancelled:
			s.Cancelled++
		}
	}
	s.NextArrival, _ = NextConfirmedArrival(requests, today)
	return s
}

// NextConfirmedArrival is the confirmed request with the earliest check-in on or after
// today. Ties go to the earliest created.
func NextConfirmedArrival(requests []*BookingRequest, today time.Time) (*BookingRequest, bool) {
	day := daterange.Day(today)
	var next *BookingRequest
	for _, r := range requests {
		if r == nil || r.Status != StatusConfirmed || r.Range.CheckIn.Before(day) {
			continue
		}
		if next == nil ||
			r.Range.CheckIn.Before(next.Range.CheckIn) ||
			(r.Range.CheckIn.Equal(next.Range.CheckIn) && r.CreatedAt.Before(next.CreatedAt)) {
			next = r
		}
	}
	return next, next != nil
}
