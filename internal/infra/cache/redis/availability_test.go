package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"staybook/internal/domain/availability"
)

type countingSource struct {
	calls   int
	records []availability.Record
	err     error
}

func (s *countingSource) Availability(context.Context, time.Time, time.Time) ([]availability.Record, error) {
	s.calls++
	return s.records, s.err
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newCache(t *testing.T, next availability.Source) (*CachedSource, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCachedSource(next, client, time.Minute, nil), mr
}

func TestCachedSourceServesRepeatedWindowFromRedis(t *testing.T) {
	next := &countingSource{records: []availability.Record{
		{Date: day(2027, 3, 20), Available: false},
		{Available: false},
	}}
	cache, mr := newCache(t, next)
	ctx := context.Background()

	first, err := cache.Availability(ctx, day(2027, 3, 1), day(2027, 4, 30))
	require.NoError(t, err)
	second, err := cache.Availability(ctx, day(2027, 3, 1), day(2027, 4, 30))
	require.NoError(t, err)

	require.Equal(t, 1, next.calls)
	require.Equal(t, first, second)
	require.True(t, second[1].Date.IsZero())
	require.True(t, mr.Exists("staybook:availability:2027-03-01:2027-04-30"))

	mr.FastForward(2 * time.Minute)
	_, err = cache.Availability(ctx, day(2027, 3, 1), day(2027, 4, 30))
	require.NoError(t, err)
	require.Equal(t, 2, next.calls)
}

func TestCachedSourceDoesNotStoreFailures(t *testing.T) {
	next := &countingSource{err: errors.New("boom")}
	cache, mr := newCache(t, next)

	_, err := cache.Availability(context.Background(), day(2027, 3, 1), day(2027, 4, 30))
	require.Error(t, err)
	require.Empty(t, mr.Keys())
}

func TestCachedSourceBypassesBrokenRedis(t *testing.T) {
	next := &countingSource{records: []availability.Record{{Date: day(2027, 3, 20)}}}
	cache, mr := newCache(t, next)
	mr.Close()

	records, err := cache.Availability(context.Background(), day(2027, 3, 1), day(2027, 4, 30))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, 1, next.calls)
}

func TestCachedSourceIgnoresCorruptEntries(t *testing.T) {
	next := &countingSource{records: []availability.Record{{Date: day(2027, 3, 20)}}}
	cache, mr := newCache(t, next)
	require.NoError(t, mr.Set("staybook:availability:2027-03-01:2027-04-30", "not-json"))

	records, err := cache.Availability(context.Background(), day(2027, 3, 1), day(2027, 4, 30))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, 1, next.calls)
}
