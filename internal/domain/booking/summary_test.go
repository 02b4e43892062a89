package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"staybook/internal/domain/shared/daterange"
)

func request(id string, status Status, checkIn time.Time, createdAt time.Time) *BookingRequest {
	return &BookingRequest{
		ID:        RequestID(id),
		Status:    status,
		Range:     daterange.DateRange{CheckIn: checkIn, CheckOut: checkIn.AddDate(0, 0, 3)},
		CreatedAt: createdAt,
	}
}

func TestSelectFiltersAndOrdersNewestFirst(t *testing.T) {
	all := []*BookingRequest{
		request("a", StatusPending, day(11, 2), created),
		request("b", StatusConfirmed, day(11, 9), created.Add(2*time.Hour)),
		request("c", StatusPending, day(12, 1), created.Add(time.Hour)),
	}

	got := Select(all, Filter{})
	require.Equal(t, []RequestID{"b", "c", "a"}, ids(got))

	got = Select(all, Filter{Status: StatusPending})
	require.Equal(t, []RequestID{"c", "a"}, ids(got))

	got = Select(all, Filter{Limit: 1})
	require.Equal(t, []RequestID{"b"}, ids(got))

	got = Select(all, Filter{Limit: 1, Offset: 1})
	require.Equal(t, []RequestID{"c"}, ids(got))

	got = Select(all, Filter{Offset: 3})
	require.Empty(t, got)
}

func TestSummarizeCountsAndNextArrival(t *testing.T) {
	today := time.Date(2026, 11, 5, 15, 0, 0, 0, time.UTC)
	all := []*BookingRequest{
		request("past", StatusConfirmed, day(11, 1), created),
		request("later", StatusConfirmed, day(11, 20), created),
		request("today-late", StatusConfirmed, day(11, 5), created.Add(time.Hour)),
		request("today-early", StatusConfirmed, day(11, 5), created),
		request("pending", StatusPending, day(11, 6), created),
		request("cancelled", StatusCancelled, day(11, 5), created.Add(-time.Hour)),
	}

	s := Summarize(all, today)
	require.Equal(t, 1, s.Pending)
	require.Equal(t, 4, s.Confirmed)
	require.Equal(t, 1, s.Cancelled)
	require.Equal(t, 6, s.Total)
	require.NotNil(t, s.NextArrival)
	require.Equal(t, RequestID("today-early"), s.NextArrival.ID)
}

func TestNextConfirmedArrivalNone(t *testing.T) {
	_, ok := NextConfirmedArrival([]*BookingRequest{request("p", StatusPending, day(12, 1), created)}, day(11, 1))
	require.False(t, ok)
	require.Nil(t, Summarize(nil, day(11, 1)).NextArrival)
}

func ids(requests []*BookingRequest) []RequestID {
	out := make([]RequestID, 0, len(requests))
	for _, r := range requests {
		out = append(out, r.ID)
	}
	return out
}
