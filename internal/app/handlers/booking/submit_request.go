package booking

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	"staybook/internal/app/middleware"
	"staybook/internal/app/outbox"
	"staybook/internal/app/policies"
	"staybook/internal/app/uow"
	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainpricing "staybook/internal/domain/pricing"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/stay"
)

const submitBookingRequestKey = "booking_request.submit"

type SubmitBookingRequestCommand struct {
	RequestID       string    `json:"-"`
	CheckIn         time.Time `json:"check_in"`
	CheckOut        time.Time `json:"check_out"`
	Adults          int       `json:"adults" validate:"gte=1,lte=16"`
	Children        int       `json:"children" validate:"gte=0,lte=16"`
	DogsIncluded    bool      `json:"dogs_included"`
	Name            string    `json:"name" validate:"required,max=200"`
	Email           string    `json:"email" validate:"required,email,max=254"`
	Phone           string    `json:"phone" validate:"omitempty,max=40"`
	Message         string    `json:"message" validate:"omitempty,max=4000"`
	IdempotencyKeyV string    `json:"-"`
}

func (c SubmitBookingRequestCommand) Key() string { return submitBookingRequestKey }

func (c SubmitBookingRequestCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c SubmitBookingRequestCommand) ResultPrototype() any { return &SubmitBookingRequestResult{} }

type SubmitBookingRequestResult struct {
	ID          string        `json:"id"`
	Status      string        `json:"status"`
	Nights      int           `json:"nights"`
	QuotedTotal *dto.MoneyDTO `json:"quoted_total,omitempty"`
}

// SubmitBookingRequestHandler turns a guest inquiry into a pending booking request.
// The range is checked against the minimum stay, today and the channel manager
// before the request is stored with a snapshot of the quoted total.
type SubmitBookingRequestHandler struct {
	Pricing      policies.PricingPort
	Availability policies.AvailabilityPort
	Outbox       outbox.Outbox
	Encoder      outbox.EventEncoder
	Now          func() time.Time
	Logger       *slog.Logger
}

var ErrPricingUnavailable = errors.New("booking: pricing configuration unavailable")

func (h *SubmitBookingRequestHandler) Handle(ctx context.Context, cmd SubmitBookingRequestCommand) (*SubmitBookingRequestResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	if h.Pricing == nil {
		return nil, ErrPricingUnavailable
	}
	cfg, err := h.Pricing.Configuration(ctx)
	if err != nil {
		return nil, errors.Join(ErrPricingUnavailable, err)
	}

	now := h.now()
	dr := daterange.DateRange{CheckIn: daterange.Day(cmd.CheckIn), CheckOut: daterange.Day(cmd.CheckOut)}
	if err := stay.Validate(dr, cfg.MinimumStayNights); err != nil {
		return nil, err
	}
	if err := stay.CheckNotPast(dr, now); err != nil {
		return nil, err
	}
	if h.Availability != nil {
		days := h.Availability.Refresh(ctx, dr.CheckIn, dr.CheckOut.AddDate(0, 0, -1))
		// An abandoned refresh reports the open window; never accept a stay on it.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := stay.CheckAvailability(dr, domainavailability.Days(days)); err != nil {
			return nil, err
		}
	}

	quote, err := domainpricing.ComputePrice(dr, cmd.Adults, cmd.Children, cmd.DogsIncluded, cfg)
	if err != nil {
		return nil, err
	}

	id := strings.TrimSpace(cmd.RequestID)
	if id == "" {
		id = uuid.NewString()
	}
	req, err := domainbooking.NewRequest(domainbooking.CreateParams{
		ID:                domainbooking.RequestID(id),
		Range:             dr,
		Adults:            cmd.Adults,
		Children:          cmd.Children,
		DogsIncluded:      cmd.DogsIncluded,
		Name:              cmd.Name,
		Email:             cmd.Email,
		Phone:             cmd.Phone,
		Message:           cmd.Message,
		MinimumStayNights: cfg.MinimumStayNights,
		QuotedTotal:       quote.Total,
		CreatedAt:         now,
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Bookings().Save(ctx, req); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, req.Drain()); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "booking request submitted",
			"request_id", req.ID, "check_in", dr.CheckIn.Format(time.DateOnly), "nights", dr.Nights(), "total", quote.Total.Format())
	}

	total := dto.MapMoney(req.QuotedTotal)
	return &SubmitBookingRequestResult{
		ID:          string(req.ID),
		Status:      string(req.Status),
		Nights:      dr.Nights(),
		QuotedTotal: &total,
	}, nil
}

func (h *SubmitBookingRequestHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

var _ commands.Handler[SubmitBookingRequestCommand, *SubmitBookingRequestResult] = (*SubmitBookingRequestHandler)(nil)
var _ middleware.IdempotentCommand = SubmitBookingRequestCommand{}
