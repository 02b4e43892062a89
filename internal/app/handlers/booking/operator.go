package booking

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	handlersupport "staybook/internal/app/handlers/support"
	"staybook/internal/app/outbox"
	"staybook/internal/app/queries"
	"staybook/internal/app/uow"
	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/shared/validation"
)

const (
	updateBookingStatusKey = "booking_request.update_status"
	listBookingRequestsKey = "booking_request.list"
	bookingSummaryKey      = "booking_request.summary"
	defaultListLimit       = 200
	allStatusesFilterValue = "all"
)

type UpdateBookingStatusCommand struct {
	RequestID string `json:"id" validate:"required"`
	Status    string `json:"status" validate:"required"`
}

func (c UpdateBookingStatusCommand) Key() string { return updateBookingStatusKey }
func (UpdateBookingStatusCommand) OperatorOnly() {}

type BookingStatusResult struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type UpdateBookingStatusHandler struct {
	Outbox  outbox.Outbox
	Encoder outbox.EventEncoder
	Now     func() time.Time
	Logger  *slog.Logger
}

func (h *UpdateBookingStatusHandler) Handle(ctx context.Context, cmd UpdateBookingStatusCommand) (*BookingStatusResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	next, err := domainbooking.ParseStatus(cmd.Status)
	if err != nil {
		return nil, validation.New(validation.ReasonInvalidField, "status", "status must be confirmed or cancelled")
	}

	req, err := unit.Bookings().ByID(ctx, domainbooking.RequestID(strings.TrimSpace(cmd.RequestID)))
	if err != nil {
		return nil, err
	}
	previous := req.Status
	now := time.Now()
	if h.Now != nil {
		now = h.Now()
	}
	if err := req.UpdateStatus(next, now); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, req); err != nil {
		return nil, err
	}
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, req.Drain()); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.InfoContext(ctx, "booking request status updated", "request_id", req.ID, "from", previous, "to", req.Status)
	}
	return &BookingStatusResult{ID: string(req.ID), Status: string(req.Status)}, nil
}

type ListBookingRequestsQuery struct {
	Status string `json:"status"`
	Limit  int    `json:"limit" validate:"gte=0,lte=1000"`
	Offset int    `json:"offset" validate:"gte=0"`
}

func (q ListBookingRequestsQuery) Key() string { return listBookingRequestsKey }
func (ListBookingRequestsQuery) OperatorOnly() {}

type ListBookingRequestsHandler struct {
	UoWFactory uow.UoWFactory
	Logger     *slog.Logger
}

func (h *ListBookingRequestsHandler) Handle(ctx context.Context, q ListBookingRequestsQuery) (dto.BookingRequestCollection, error) {
	limit := q.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	// One extra row tells whether another page follows.
	filter := domainbooking.Filter{Limit: limit + 1, Offset: q.Offset}
	raw := strings.ToLower(strings.TrimSpace(q.Status))
	if raw != "" && raw != allStatusesFilterValue {
		status, err := domainbooking.ParseStatus(raw)
		if err != nil {
			return dto.BookingRequestCollection{}, validation.New(validation.ReasonInvalidField, "status", "unknown status filter")
		}
		filter.Status = status
	}

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingRequestCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	items, err := unit.Bookings().List(execCtx, filter)
	if err != nil {
		return dto.BookingRequestCollection{}, err
	}
	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	if h.Logger != nil {
		h.Logger.DebugContext(ctx, "booking requests listed", "count", len(items), "offset", q.Offset, "status", filter.Status)
	}
	out := dto.MapBookingRequests(items)
	if hasMore {
		next := q.Offset + limit
		out.HasMore = true
		out.NextOffset = &next
	}
	return out, nil
}

type BookingSummaryQuery struct{}

func (q BookingSummaryQuery) Key() string { return bookingSummaryKey }
func (BookingSummaryQuery) OperatorOnly() {}

type BookingSummaryHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
}

func (h *BookingSummaryHandler) Handle(ctx context.Context, _ BookingSummaryQuery) (dto.OperatorSummary, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.OperatorSummary{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	all, err := unit.Bookings().List(execCtx, domainbooking.Filter{})
	if err != nil {
		return dto.OperatorSummary{}, err
	}
	today := time.Now()
	if h.Now != nil {
		today = h.Now()
	}
	return dto.MapSummary(domainbooking.Summarize(all, today)), nil
}

var _ commands.Handler[UpdateBookingStatusCommand, *BookingStatusResult] = (*UpdateBookingStatusHandler)(nil)
var _ queries.Handler[ListBookingRequestsQuery, dto.BookingRequestCollection] = (*ListBookingRequestsHandler)(nil)
var _ queries.Handler[BookingSummaryQuery, dto.OperatorSummary] = (*BookingSummaryHandler)(nil)
