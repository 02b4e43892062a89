package booking_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"staybook/internal/app/commands"
	"staybook/internal/app/dto"
	bookingapp "staybook/internal/app/handlers/booking"
	"staybook/internal/app/handlers/notifications"
	"staybook/internal/app/middleware"
	"staybook/internal/app/queries"
	domainavailability "staybook/internal/domain/availability"
	domainbooking "staybook/internal/domain/booking"
	domainpricing "staybook/internal/domain/pricing"
	"staybook/internal/domain/shared/validation"
	"staybook/internal/infra/storage/memory"
)

var today = time.Date(2026, 10, 18, 11, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return today }

type blockedCalendar map[time.Time]bool

func (b blockedCalendar) Refresh(_ context.Context, start, end time.Time) map[time.Time]domainavailability.CalendarDay {
	records := make([]domainavailability.Record, 0, len(b))
	for d, blocked := range b {
		records = append(records, domainavailability.Record{Date: d, Available: !blocked})
	}
	days, _ := domainavailability.BuildWindow(start, end, records)
	return days
}

type harness struct {
	commands commands.Bus
	queries  queries.Bus
	repo     *memory.BookingRepository
	notifier *memory.Notifier
}

func newHarness(t *testing.T, calendar blockedCalendar) harness {
	t.Helper()
	return newHarnessAt(t, calendar, fixedNow)
}

func newHarnessAt(t *testing.T, calendar blockedCalendar, now func() time.Time) harness {
	t.Helper()
	repo := memory.NewBookingRepository()
	factory := memory.Factory{BookingRepo: repo}
	notifier := &memory.Notifier{}
	box := memory.NewOutbox(&notifications.BookingEventNotifier{Notifier: notifier, OperatorEmail: "host@example.com"}, nil)
	pricing := domainpricing.Service{Config: memory.NewPricingStore(memory.DefaultPricing())}

	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, bookingapp.SubmitBookingRequestCommand{}.Key(), &bookingapp.SubmitBookingRequestHandler{
		Pricing:      pricing,
		Availability: calendar,
		Outbox:       box,
		Now:          now,
	})
	commands.RegisterHandler(bus, bookingapp.UpdateBookingStatusCommand{}.Key(), &bookingapp.UpdateBookingStatusHandler{
		Outbox: box,
		Now:    now,
	})
	qbus := queries.NewInMemoryBus()
	queries.RegisterHandler(qbus, bookingapp.ListBookingRequestsQuery{}.Key(), &bookingapp.ListBookingRequestsHandler{UoWFactory: factory})
	queries.RegisterHandler(qbus, bookingapp.BookingSummaryQuery{}.Key(), &bookingapp.BookingSummaryHandler{UoWFactory: factory, Now: now})

	validator := middleware.NewStructValidator()
	return harness{
		commands: middleware.ChainCommands(bus,
			middleware.Validation(validator),
			middleware.Authorization(middleware.OperatorAuthorizer{}),
			middleware.Idempotency(memory.NewIdempotencyStore(time.Hour), nil),
			middleware.OutboxFlush(box),
			middleware.Transaction(factory, nil),
		),
		queries: middleware.ChainQueries(qbus,
			middleware.QueryValidation(validator),
			middleware.QueryAuthorization(middleware.OperatorAuthorizer{}),
		),
		repo:     repo,
		notifier: notifier,
	}
}

func march(d int) time.Time { return time.Date(2027, 3, d, 0, 0, 0, 0, time.UTC) }

func submission() bookingapp.SubmitBookingRequestCommand {
	return bookingapp.SubmitBookingRequestCommand{
		CheckIn:  march(8),
		CheckOut: march(13),
		Adults:   2,
		Name:     "Anna Berger",
		Email:    "anna@example.com",
		Message:  "Arriving late",
	}
}

func submit(ctx context.Context, h harness, cmd bookingapp.SubmitBookingRequestCommand) (*bookingapp.SubmitBookingRequestResult, error) {
	return commands.Dispatch[bookingapp.SubmitBookingRequestCommand, *bookingapp.SubmitBookingRequestResult](ctx, h.commands, cmd)
}

func operatorCtx() context.Context {
	return middleware.ContextWithOperator(context.Background(), "owner")
}

func TestSubmitCreatesPendingRequestWithQuote(t *testing.T) {
	h := newHarness(t, nil)

	res, err := submit(context.Background(), h, submission())
	require.NoError(t, err)
	require.NotEmpty(t, res.ID)
	require.Equal(t, "pending", res.Status)
	require.Equal(t, 5, res.Nights)
	require.Equal(t, int64(54100), res.QuotedTotal.Amount)
	require.Equal(t, "541.00 EUR", res.QuotedTotal.Formatted)

	stored, err := h.repo.ByID(context.Background(), domainbooking.RequestID(res.ID))
	require.NoError(t, err)
	require.Equal(t, domainbooking.StatusPending, stored.Status)
	require.Equal(t, 2, stored.GuestCount)
	require.Equal(t, int64(1), stored.Version)

	sent := h.notifier.Sent()
	require.Len(t, sent, 2)
	require.Equal(t, "anna@example.com", sent[0].To)
	require.Equal(t, "host@example.com", sent[1].To)
}

func TestSubmitRejections(t *testing.T) {
	cases := []struct {
		name     string
		calendar blockedCalendar
		mutate   func(*bookingapp.SubmitBookingRequestCommand)
		reason   validation.Reason
	}{
		{"missing name", nil, func(c *bookingapp.SubmitBookingRequestCommand) { c.Name = "" }, validation.ReasonMissingField},
		{"bad email", nil, func(c *bookingapp.SubmitBookingRequestCommand) { c.Email = "not-an-email" }, validation.ReasonInvalidField},
		{"no adults", nil, func(c *bookingapp.SubmitBookingRequestCommand) { c.Adults = 0 }, validation.ReasonInvalidField},
		{"inverted", nil, func(c *bookingapp.SubmitBookingRequestCommand) { c.CheckOut = march(7) }, validation.ReasonInvalidRange},
		{"missing dates", nil, func(c *bookingapp.SubmitBookingRequestCommand) { c.CheckIn = time.Time{} }, validation.ReasonInvalidRange},
		{"too short", nil, func(c *bookingapp.SubmitBookingRequestCommand) { c.CheckOut = march(10) }, validation.ReasonMinStayNotMet},
		{"in the past", nil, func(c *bookingapp.SubmitBookingRequestCommand) {
			c.CheckIn = today.AddDate(0, 0, -1)
			c.CheckOut = today.AddDate(0, 0, 4)
		}, validation.ReasonCheckInInPast},
		{"occupied night", blockedCalendar{march(10): true}, func(*bookingapp.SubmitBookingRequestCommand) {}, validation.ReasonDatesUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, tc.calendar)
			cmd := submission()
			tc.mutate(&cmd)

			_, err := submit(context.Background(), h, cmd)
			require.ErrorIs(t, err, validation.ErrValidation)
			reason, ok := validation.ReasonOf(err)
			require.True(t, ok)
			require.Equal(t, tc.reason, reason)

			all, err := h.repo.List(context.Background(), domainbooking.Filter{})
			require.NoError(t, err)
			require.Empty(t, all)
		})
	}
}

func TestSubmitAllowsCheckoutOnOccupiedDay(t *testing.T) {
	h := newHarness(t, blockedCalendar{march(13): true})
	_, err := submit(context.Background(), h, submission())
	require.NoError(t, err)
}

func TestSubmitIsIdempotentPerKey(t *testing.T) {
	h := newHarness(t, nil)
	cmd := submission()
	cmd.IdempotencyKeyV = "form-123"

	first, err := submit(context.Background(), h, cmd)
	require.NoError(t, err)
	second, err := submit(context.Background(), h, cmd)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	all, err := h.repo.List(context.Background(), domainbooking.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestSubmitRejectsKeyReusedForDifferentRequest(t *testing.T) {
	h := newHarness(t, nil)
	cmd := submission()
	cmd.IdempotencyKeyV = "form-123"
	_, err := submit(context.Background(), h, cmd)
	require.NoError(t, err)

	changed := cmd
	changed.CheckIn, changed.CheckOut = march(20), march(24)
	_, err = submit(context.Background(), h, changed)
	require.ErrorIs(t, err, middleware.ErrIdempotencyKeyReused)

	all, err := h.repo.List(context.Background(), domainbooking.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, march(8), all[0].Range.CheckIn)
}

func TestSubmitFailedCommandSendsNoNotifications(t *testing.T) {
	h := newHarness(t, blockedCalendar{march(10): true})
	_, err := submit(context.Background(), h, submission())
	require.Error(t, err)

	later := submission()
	later.CheckIn, later.CheckOut = march(20), march(24)
	_, err = submit(context.Background(), h, later)
	require.NoError(t, err)
	require.Len(t, h.notifier.Sent(), 2)
}

func TestSubmitAbandonedRequestIsNotStored(t *testing.T) {
	h := newHarness(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := submit(ctx, h, submission())
	require.ErrorIs(t, err, context.Canceled)

	all, err := h.repo.List(context.Background(), domainbooking.Filter{})
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestSubmitJudgesPastDatesInUnitZone(t *testing.T) {
	berlin := time.FixedZone("CEST", 2*60*60)
	// 22:30 UTC on the 17th is already the 18th at the unit.
	now := func() time.Time { return time.Date(2026, 10, 17, 22, 30, 0, 0, time.UTC).In(berlin) }
	h := newHarnessAt(t, nil, now)

	cmd := submission()
	cmd.CheckIn = time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)
	cmd.CheckOut = time.Date(2026, 10, 21, 0, 0, 0, 0, time.UTC)
	_, err := submit(context.Background(), h, cmd)
	reason, ok := validation.ReasonOf(err)
	require.True(t, ok)
	require.Equal(t, validation.ReasonCheckInInPast, reason)

	cmd.CheckIn = time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	_, err = submit(context.Background(), h, cmd)
	require.NoError(t, err)
}

func TestOperatorListPagesThroughAllRequests(t *testing.T) {
	h := newHarness(t, nil)
	for i := 0; i < 250; i++ {
		_, err := submit(context.Background(), h, submission())
		require.NoError(t, err)
	}

	first, err := queries.Ask[bookingapp.ListBookingRequestsQuery, dto.BookingRequestCollection](operatorCtx(), h.queries, bookingapp.ListBookingRequestsQuery{})
	require.NoError(t, err)
	require.Len(t, first.Items, 200)
	require.True(t, first.HasMore)
	require.NotNil(t, first.NextOffset)
	require.Equal(t, 200, *first.NextOffset)

	second, err := queries.Ask[bookingapp.ListBookingRequestsQuery, dto.BookingRequestCollection](operatorCtx(), h.queries,
		bookingapp.ListBookingRequestsQuery{Offset: *first.NextOffset})
	require.NoError(t, err)
	require.Len(t, second.Items, 50)
	require.False(t, second.HasMore)
	require.Nil(t, second.NextOffset)

	seen := map[string]bool{}
	for _, item := range append(first.Items, second.Items...) {
		seen[item.ID] = true
	}
	require.Len(t, seen, 250)

	small, err := queries.Ask[bookingapp.ListBookingRequestsQuery, dto.BookingRequestCollection](operatorCtx(), h.queries,
		bookingapp.ListBookingRequestsQuery{Limit: 100, Offset: 100})
	require.NoError(t, err)
	require.Len(t, small.Items, 100)
	require.True(t, small.HasMore)
	require.Equal(t, 200, *small.NextOffset)
	require.Equal(t, first.Items[100].ID, small.Items[0].ID)
}

func TestOperatorStatusLifecycle(t *testing.T) {
	h := newHarness(t, nil)
	res, err := submit(context.Background(), h, submission())
	require.NoError(t, err)

	update := bookingapp.UpdateBookingStatusCommand{RequestID: res.ID, Status: "confirmed"}
	_, err = commands.Dispatch[bookingapp.UpdateBookingStatusCommand, *bookingapp.BookingStatusResult](context.Background(), h.commands, update)
	require.ErrorIs(t, err, middleware.ErrOperatorRequired)

	out, err := commands.Dispatch[bookingapp.UpdateBookingStatusCommand, *bookingapp.BookingStatusResult](operatorCtx(), h.commands, update)
	require.NoError(t, err)
	require.Equal(t, "confirmed", out.Status)

	update.Status = "cancelled"
	_, err = commands.Dispatch[bookingapp.UpdateBookingStatusCommand, *bookingapp.BookingStatusResult](operatorCtx(), h.commands, update)
	require.ErrorIs(t, err, domainbooking.ErrInvalidTransition)

	stored, err := h.repo.ByID(context.Background(), domainbooking.RequestID(res.ID))
	require.NoError(t, err)
	require.Equal(t, domainbooking.StatusConfirmed, stored.Status)

	sent := h.notifier.Sent()
	require.Equal(t, "booking_request_confirmed", sent[len(sent)-1].Template)
}

func TestOperatorStatusRejectsUnknownAndMissing(t *testing.T) {
	h := newHarness(t, nil)

	_, err := commands.Dispatch[bookingapp.UpdateBookingStatusCommand, *bookingapp.BookingStatusResult](operatorCtx(), h.commands,
		bookingapp.UpdateBookingStatusCommand{RequestID: "nope", Status: "confirmed"})
	require.ErrorIs(t, err, domainbooking.ErrBookingNotFound)

	_, err = commands.Dispatch[bookingapp.UpdateBookingStatusCommand, *bookingapp.BookingStatusResult](operatorCtx(), h.commands,
		bookingapp.UpdateBookingStatusCommand{RequestID: "nope", Status: "archived"})
	reason, _ := validation.ReasonOf(err)
	require.Equal(t, validation.ReasonInvalidField, reason)
}

func TestOperatorListAndSummary(t *testing.T) {
	h := newHarness(t, nil)
	first, err := submit(context.Background(), h, submission())
	require.NoError(t, err)

	later := submission()
	later.CheckIn, later.CheckOut = march(20), march(24)
	second, err := submit(context.Background(), h, later)
	require.NoError(t, err)

	_, err = commands.Dispatch[bookingapp.UpdateBookingStatusCommand, *bookingapp.BookingStatusResult](operatorCtx(), h.commands,
		bookingapp.UpdateBookingStatusCommand{RequestID: second.ID, Status: "confirmed"})
	require.NoError(t, err)

	_, err = queries.Ask[bookingapp.ListBookingRequestsQuery, dto.BookingRequestCollection](context.Background(), h.queries, bookingapp.ListBookingRequestsQuery{})
	require.ErrorIs(t, err, middleware.ErrOperatorRequired)

	pending, err := queries.Ask[bookingapp.ListBookingRequestsQuery, dto.BookingRequestCollection](operatorCtx(), h.queries,
		bookingapp.ListBookingRequestsQuery{Status: "pending"})
	require.NoError(t, err)
	require.Len(t, pending.Items, 1)
	require.Equal(t, first.ID, pending.Items[0].ID)
	require.Equal(t, "2027-03-08", pending.Items[0].CheckIn)

	all, err := queries.Ask[bookingapp.ListBookingRequestsQuery, dto.BookingRequestCollection](operatorCtx(), h.queries,
		bookingapp.ListBookingRequestsQuery{Status: "all"})
	require.NoError(t, err)
	require.Len(t, all.Items, 2)

	summary, err := queries.Ask[bookingapp.BookingSummaryQuery, dto.OperatorSummary](operatorCtx(), h.queries, bookingapp.BookingSummaryQuery{})
	require.NoError(t, err)
	require.Equal(t, dto.StatusCounts{Pending: 1, Confirmed: 1, Total: 2}, summary.Counts)
	require.NotNil(t, summary.NextArrival)
	require.Equal(t, second.ID, summary.NextArrival.ID)
}
