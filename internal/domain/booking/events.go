package booking

import (
	"time"

	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

const (
	EventRequested = "booking.requested"
	EventConfirmed = "booking.confirmed"
	EventCancelled = "booking.cancelled"
)

type BookingRequested struct {
	RequestID    RequestID           `json:"request_id"`
	Range        daterange.DateRange `json:"range"`
	Adults       int                 `json:"adults"`
	Children     int                 `json:"children"`
	DogsIncluded bool                `json:"dogs_included"`
	GuestName    string              `json:"guest_name"`
	GuestEmail   string              `json:"guest_email"`
	QuotedTotal  money.Money         `json:"quoted_total"`
	At           time.Time           `json:"occurred_at"`
}

func (e BookingRequested) EventName() string     { return EventRequested }
func (e BookingRequested) AggregateID() string   { return string(e.RequestID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	RequestID  RequestID           `json:"request_id"`
	Range      daterange.DateRange `json:"range"`
	GuestName  string              `json:"guest_name"`
	GuestEmail string              `json:"guest_email"`
	At         time.Time           `json:"occurred_at"`
}

func (e BookingConfirmed) EventName() string     { return EventConfirmed }
func (e BookingConfirmed) AggregateID() string   { return string(e.RequestID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	RequestID  RequestID           `json:"request_id"`
	Range      daterange.DateRange `json:"range"`
	GuestName  string              `json:"guest_name"`
	GuestEmail string              `json:"guest_email"`
	At         time.Time           `json:"occurred_at"`
}

func (e BookingCancelled) EventName() string     { return EventCancelled }
func (e BookingCancelled) AggregateID() string   { return string(e.RequestID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }
