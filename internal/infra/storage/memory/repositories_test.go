package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"staybook/internal/app/middleware"
	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/shared/daterange"
)

func newPending(t *testing.T, id string) *domainbooking.BookingRequest {
	t.Helper()
	checkIn := time.Date(2027, 4, 10, 0, 0, 0, 0, time.UTC)
	req, err := domainbooking.NewRequest(domainbooking.CreateParams{
		ID:        domainbooking.RequestID(id),
		Range:     daterange.DateRange{CheckIn: checkIn, CheckOut: checkIn.AddDate(0, 0, 3)},
		Adults:    1,
		Name:      "Lea",
		Email:     "lea@example.com",
		CreatedAt: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return req
}

func TestBookingRepositoryRejectsStaleWrites(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository()
	require.NoError(t, repo.Save(ctx, newPending(t, "r1")))

	first, err := repo.ByID(ctx, "r1")
	require.NoError(t, err)
	second, err := repo.ByID(ctx, "r1")
	require.NoError(t, err)

	now := time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, first.Confirm(now))
	require.NoError(t, second.Cancel(now))

	require.NoError(t, repo.Save(ctx, first))
	require.ErrorIs(t, repo.Save(ctx, second), domainbooking.ErrConcurrentUpdate)

	stored, err := repo.ByID(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, domainbooking.StatusConfirmed, stored.Status)
	require.Equal(t, int64(2), stored.Version)
}

func TestBookingRepositoryRejectsDuplicateCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository()
	require.NoError(t, repo.Save(ctx, newPending(t, "r1")))
	require.ErrorIs(t, repo.Save(ctx, newPending(t, "r1")), domainbooking.ErrConcurrentUpdate)
}

func TestIdempotencyStoreExpires(t *testing.T) {
	store := NewIdempotencyStore(time.Millisecond)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, middleware.IdempotencyRecord{Key: "k", OccurredAt: time.Now().UTC()}))
	time.Sleep(5 * time.Millisecond)
	_, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, found)
}
