package dto

import (
	"time"

	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/shared/money"
)

type MoneyDTO struct {
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Formatted string `json:"formatted"`
}

type BookingRequestSummary struct {
	ID           string    `json:"id"`
	CheckIn      string    `json:"check_in"`
	CheckOut     string    `json:"check_out"`
	Nights       int       `json:"nights"`
	Adults       int       `json:"adults"`
	Children     int       `json:"children"`
	GuestCount   int       `json:"guest_count"`
	DogsIncluded bool      `json:"dogs_included"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone,omitempty"`
	Message      string    `json:"message,omitempty"`
	QuotedTotal  *MoneyDTO `json:"quoted_total,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type BookingRequestCollection struct {
	Items      []BookingRequestSummary `json:"items"`
	HasMore    bool                    `json:"has_more"`
	NextOffset *int                    `json:"next_offset,omitempty"`
}

type StatusCounts struct {
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Cancelled int `json:"cancelled"`
	Total     int `json:"total"`
}

type OperatorSummary struct {
	Counts      StatusCounts           `json:"counts"`
	NextArrival *BookingRequestSummary `json:"next_arrival"`
}

func MapMoney(value money.Money) MoneyDTO {
	return MoneyDTO{
		Amount:    value.Amount,
		Currency:  value.Currency,
		Formatted: value.Format(),
	}
}

func MapBookingRequest(req *domainbooking.BookingRequest) BookingRequestSummary {
	out := BookingRequestSummary{
		ID:           string(req.ID),
		CheckIn:      req.Range.CheckIn.Format(time.DateOnly),
		CheckOut:     req.Range.CheckOut.Format(time.DateOnly),
		Nights:       req.Range.Nights(),
		Adults:       req.Adults,
		Children:     req.Children,
		GuestCount:   req.GuestCount,
		DogsIncluded: req.DogsIncluded,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		Message:      req.Message,
		Status:       string(req.Status),
		CreatedAt:    req.CreatedAt,
		UpdatedAt:    req.UpdatedAt,
	}
	if req.QuotedTotal.Currency != "" {
		total := MapMoney(req.QuotedTotal)
		out.QuotedTotal = &total
	}
	return out
}

func MapBookingRequests(reqs []*domainbooking.BookingRequest) BookingRequestCollection {
	items := make([]BookingRequestSummary, 0, len(reqs))
	for _, r := range reqs {
		items = append(items, MapBookingRequest(r))
	}
	return BookingRequestCollection{Items: items}
}

func MapSummary(s domainbooking.Summary) OperatorSummary {
	out := OperatorSummary{Counts: StatusCounts{
		Pending:   s.Pending,
		Confirmed: s.Confirmed,
		Cancelled: s.Cancelled,
		Total:     s.Total,
	}}
	if s.NextArrival != nil {
		next := MapBookingRequest(s.NextArrival)
		out.NextArrival = &next
	}
	return out
}
