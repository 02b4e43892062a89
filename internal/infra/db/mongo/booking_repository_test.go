package mongo

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"staybook/internal/app/middleware"
	domainbooking "staybook/internal/domain/booking"
	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
)

var testClient *Client

func TestMain(m *testing.M) {
	if os.Getenv("STAYBOOK_INTEGRATION") != "1" {
		os.Exit(m.Run())
	}
	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			AutoRemove:   true,
			WaitingFor:   wait.ForListeningPort("27017/tcp"),
		},
		Started: true,
	})
	if err != nil {
		log.Fatal("mongo container: ", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		log.Fatal("mongo host: ", err)
	}
	port, err := container.MappedPort(ctx, nat.Port("27017/tcp"))
	if err != nil {
		log.Fatal("mongo port: ", err)
	}
	testClient, err = New(fmt.Sprintf("mongodb://%s:%s", host, port.Port()), "staybook_test", 20*time.Second)
	if err != nil {
		log.Fatal("mongo connect: ", err)
	}

	code := m.Run()
	_ = testClient.Close(ctx)
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func requireMongo(t *testing.T) *Client {
	t.Helper()
	if testClient == nil {
		t.Skip("set STAYBOOK_INTEGRATION=1 to run against a Mongo container")
	}
	return testClient
}

func pendingRequest(t *testing.T, id string, checkIn time.Time, created time.Time) *domainbooking.BookingRequest {
	t.Helper()
	req, err := domainbooking.NewRequest(domainbooking.CreateParams{
		ID:          domainbooking.RequestID(id),
		Range:       daterange.DateRange{CheckIn: checkIn, CheckOut: checkIn.AddDate(0, 0, 4)},
		Adults:      2,
		Children:    1,
		Name:        "Jonas Weber",
		Email:       "jonas@example.com",
		QuotedTotal: money.Must(54100, "EUR"),
		CreatedAt:   created,
	})
	require.NoError(t, err)
	return req
}

func TestBookingRepositoryRoundTripAndVersioning(t *testing.T) {
	client := requireMongo(t)
	ctx := context.Background()
	repo := NewBookingRepository(client.DB)
	require.NoError(t, repo.EnsureIndexes(ctx))

	created := time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)
	req := pendingRequest(t, "rt-1", time.Date(2027, 5, 3, 0, 0, 0, 0, time.UTC), created)
	require.NoError(t, repo.Save(ctx, req))
	require.Equal(t, int64(1), req.Version)

	loaded, err := repo.ByID(ctx, "rt-1")
	require.NoError(t, err)
	require.Equal(t, req.Range, loaded.Range)
	require.Equal(t, 3, loaded.GuestCount)
	require.Equal(t, int64(54100), loaded.QuotedTotal.Amount)
	require.Equal(t, domainbooking.StatusPending, loaded.Status)

	stale, err := repo.ByID(ctx, "rt-1")
	require.NoError(t, err)

	require.NoError(t, loaded.Confirm(created.Add(time.Hour)))
	require.NoError(t, repo.Save(ctx, loaded))

	require.NoError(t, stale.Cancel(created.Add(2*time.Hour)))
	require.ErrorIs(t, repo.Save(ctx, stale), domainbooking.ErrConcurrentUpdate)

	_, err = repo.ByID(ctx, "missing")
	require.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
}

func TestBookingRepositoryListFiltersNewestFirst(t *testing.T) {
	client := requireMongo(t)
	ctx := context.Background()
	require.NoError(t, client.DB.Collection(bookingCollection).Drop(ctx))
	repo := NewBookingRepository(client.DB)

	base := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	checkIn := time.Date(2027, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Save(ctx, pendingRequest(t, id, checkIn, base.Add(time.Duration(i)*time.Hour))))
	}
	b, err := repo.ByID(ctx, "b")
	require.NoError(t, err)
	require.NoError(t, b.Cancel(base.Add(5*time.Hour)))
	require.NoError(t, repo.Save(ctx, b))

	pending, err := repo.List(ctx, domainbooking.Filter{Status: domainbooking.StatusPending})
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, domainbooking.RequestID("c"), pending[0].ID)
	require.Equal(t, domainbooking.RequestID("a"), pending[1].ID)

	limited, err := repo.List(ctx, domainbooking.Filter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestIdempotencyStore(t *testing.T) {
	client := requireMongo(t)
	ctx := context.Background()
	store := NewIdempotencyStore(client.DB, time.Hour)

	_, found, err := store.Get(ctx, "booking_request.submit:k1")
	require.NoError(t, err)
	require.False(t, found)

	rec := middleware.IdempotencyRecord{Key: "booking_request.submit:k1", Fingerprint: "abc123", Payload: []byte(`{"id":"x"}`), OccurredAt: time.Now().UTC()}
	require.NoError(t, store.Save(ctx, rec))

	got, found, err := store.Get(ctx, rec.Key)
	require.NoError(t, err)
	require.True(t, found)
	require.JSONEq(t, `{"id":"x"}`, string(got.Payload))
	require.Equal(t, "abc123", got.Fingerprint)
}
