package booking

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/events"
	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/shared/validation"
	"staybook/internal/domain/stay"
)

var (
	ErrInvalidTransition = errors.New("booking: invalid status transition")
	ErrBookingNotFound   = errors.New("booking: not found")
	ErrConcurrentUpdate  = errors.New("booking: concurrent update")
	ErrUnknownStatus     = errors.New("booking: unknown status")
)

type RequestID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return s, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
}

func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusCancelled
}

// InvalidTransitionError reports a rejected status change. It matches ErrInvalidTransition.
type InvalidTransitionError struct {
	ID   RequestID
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("booking: request %s cannot move from %s to %s", e.ID, e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// BookingRequest is a guest's inquiry for the unit. It starts pending and is
// confirmed or cancelled exactly once by the operator.
type BookingRequest struct {
	ID           RequestID
	Range        daterange.DateRange
	Adults       int
	Children     int
	GuestCount   int
	DogsIncluded bool
	Name         string
	Email        string
	Phone        string
	Message      string
	QuotedTotal  money.Money
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
	events.EventRecorder
}

// Filter selects a page of requests. Offset skips that many matches in newest-first order.
type Filter struct {
	Status Status
	Limit  int
	Offset int
}

func (f Filter) Matches(r *BookingRequest) bool {
	return r != nil && (f.Status == "" || r.Status == f.Status)
}

type Repository interface {
	ByID(ctx context.Context, id RequestID) (*BookingRequest, error)
	Save(ctx context.Context, request *BookingRequest) error
	// List returns matching requests, most recently created first.
	List(ctx context.Context, filter Filter) ([]*BookingRequest, error)
}

type CreateParams struct {
	ID                RequestID
	Range             daterange.DateRange
	Adults            int
	Children          int
	DogsIncluded      bool
	Name              string
	Email             string
	Phone             string
	Message           string
	MinimumStayNights int
	QuotedTotal       money.Money
	CreatedAt         time.Time
}

func NewRequest(params CreateParams) (*BookingRequest, error) {
	name := strings.TrimSpace(params.Name)
	email := strings.TrimSpace(params.Email)
	switch {
	case name == "":
		return nil, validation.New(validation.ReasonMissingField, "name", "name is required")
	case email == "":
		return nil, validation.New(validation.ReasonMissingField, "email", "email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, validation.New(validation.ReasonInvalidField, "email", "email address is malformed")
	}
	if params.Adults < 1 {
		return nil, validation.New(validation.ReasonInvalidField, "adults", "at least one adult is required")
	}
	if params.Children < 0 {
		return nil, validation.New(validation.ReasonInvalidField, "children", "children cannot be negative")
	}
	r, err := daterange.New(params.Range.CheckIn, params.Range.CheckOut)
	if err != nil {
		return nil, validation.New(validation.ReasonInvalidRange, "check_out", "check-out must be after check-in")
	}
	if err := stay.Validate(r, params.MinimumStayNights); err != nil {
		return nil, err
	}
	if params.ID == "" {
		return nil, errors.New("booking: id required")
	}

	now := params.CreatedAt.UTC()
	req := &BookingRequest{
		ID:           params.ID,
		Range:        r,
		Adults:       params.Adults,
		Children:     params.Children,
		GuestCount:   params.Adults + params.Children,
		DogsIncluded: params.DogsIncluded,
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(params.Phone),
		Message:      strings.TrimSpace(params.Message),
		QuotedTotal:  params.QuotedTotal,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	req.Record(BookingRequested{
		RequestID:    req.ID,
		Range:        req.Range,
		Adults:       req.Adults,
		Children:     req.Children,
		DogsIncluded: req.DogsIncluded,
		GuestName:    req.Name,
		GuestEmail:   req.Email,
		QuotedTotal:  req.QuotedTotal,
		At:           now,
	})
	return req, nil
}

// UpdateStatus applies an operator decision. Only pending requests move, and only to
// confirmed or cancelled; anything else leaves the request untouched.
func (b *BookingRequest) UpdateStatus(next Status, now time.Time) error {
	if b.Status != StatusPending || !next.Terminal() {
		return &InvalidTransitionError{ID: b.ID, From: b.Status, To: next}
	}
	b.Status = next
	b.UpdatedAt = now.UTC()
	switch next {
	case StatusConfirmed:
		b.Record(BookingConfirmed{RequestID: b.ID, Range: b.Range, GuestName: b.Name, GuestEmail: b.Email, At: b.UpdatedAt})
	case StatusCancelled:
		b.Record(BookingCancelled{RequestID: b.ID, Range: b.Range, GuestName: b.Name, GuestEmail: b.Email, At: b.UpdatedAt})
	}
	return nil
}

func (b *BookingRequest) Confirm(now time.Time) error {
	return b.UpdateStatus(StatusConfirmed, now)
}

func (b *BookingRequest) Cancel(now time.Time) error {
	return b.UpdateStatus(StatusCancelled, now)
}
