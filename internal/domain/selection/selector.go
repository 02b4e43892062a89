// Package selection turns two calendar clicks into a booking date range.
package selection

import (
	"time"

	"staybook/internal/domain/availability"
	"staybook/internal/domain/shared/daterange"
)

type Mode string

const (
	SelectingStart Mode = "start"
	SelectingEnd   Mode = "end"
)

// Outcome describes what a click did.
type Outcome string

const (
	OutcomeIgnoredPast        Outcome = "ignored_past"
	OutcomeIgnoredUnavailable Outcome = "ignored_unavailable"
	OutcomeStartSet           Outcome = "start_set"
	OutcomeStartReset         Outcome = "start_reset"
	OutcomeRangeCompleted     Outcome = "range_completed"
)

// Selector is one guest's selection state. It is not safe for concurrent use.
type Selector struct {
	Availability availability.Lookup
	Today        func() time.Time

	mode         Mode
	pendingStart time.Time
	last         daterange.DateRange
}

func New(lookup availability.Lookup, today func() time.Time) *Selector {
	return &Selector{Availability: lookup, Today: today, mode: SelectingStart}
}

func (s *Selector) Mode() Mode {
	if s.mode == "" {
		return SelectingStart
	}
	return s.mode
}

// PendingStart returns the first click of an unfinished selection.
func (s *Selector) PendingStart() (time.Time, bool) {
	return s.pendingStart, !s.pendingStart.IsZero()
}

// Last returns the most recently completed range.
func (s *Selector) Last() (daterange.DateRange, bool) {
	return s.last, !s.last.IsZero()
}

// Click applies one date click. When the click completes a range it is returned with ok = true.
func (s *Selector) Click(clicked time.Time) (daterange.DateRange, Outcome, bool) {
	d := daterange.Day(clicked)
	if d.Before(s.today()) {
		return daterange.DateRange{}, OutcomeIgnoredPast, false
	}
	if s.Availability != nil && !s.Availability.IsAvailable(d) {
		return daterange.DateRange{}, OutcomeIgnoredUnavailable, false
	}
	if s.Mode() == SelectingStart {
		s.pendingStart = d
		s.mode = SelectingEnd
		return daterange.DateRange{}, OutcomeStartSet, false
	}
	if !d.After(s.pendingStart) {
		s.pendingStart = d
		return daterange.DateRange{}, OutcomeStartReset, false
	}
	r := daterange.DateRange{CheckIn: s.pendingStart, CheckOut: d}
	s.last = r
	s.mode = SelectingStart
	s.pendingStart = time.Time{}
	return r, OutcomeRangeCompleted, true
}

// InRange reports whether date lies within the last emitted range, both ends included.
func (s *Selector) InRange(date time.Time) bool {
	if s.last.IsZero() {
		return false
	}
	return s.last.Covers(date)
}

// Selected reports whether date is the check-in or check-out of the last emitted range.
func (s *Selector) Selected(date time.Time) bool {
	if s.last.IsZero() {
		return false
	}
	d := daterange.Day(date)
	return d.Equal(s.last.CheckIn) || d.Equal(s.last.CheckOut)
}

func (s *Selector) today() time.Time {
	if s.Today == nil {
		return daterange.Day(time.Now())
	}
	return daterange.Day(s.Today())
}
