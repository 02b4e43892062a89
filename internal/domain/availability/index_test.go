package availability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type recordingObserver struct {
	causes []string
}

func (o *recordingObserver) ObserveAvailabilityFallback(cause string) {
	o.causes = append(o.causes, cause)
}

func TestRefreshMergesRecordsAndDefaultsMissingDates(t *testing.T) {
	plus2 := time.FixedZone("UTC+2", 2*60*60)
	source := SourceFunc(func(ctx context.Context, start, end time.Time) ([]Record, error) {
		require.Equal(t, date(2026, 10, 1), start)
		require.Equal(t, date(2026, 11, 30), end)
		return []Record{
			{Date: date(2026, 10, 5), Available: false},
			{Date: time.Date(2026, 10, 6, 0, 30, 0, 0, plus2), Available: false},
			{Date: date(2026, 10, 7), Available: true},
			{Date: date(2027, 1, 1), Available: false},
		}, nil
	})
	idx := NewIndex(source, time.Second, nil)

	start, end := MonthPairWindow(date(2026, 10, 18))
	days := idx.Refresh(context.Background(), start, end)

	require.Len(t, days, 61)
	require.Equal(t, CalendarDay{Date: date(2026, 10, 5), Available: false, Source: SourceExternal}, days[date(2026, 10, 5)])
	require.False(t, days[date(2026, 10, 6)].Available)
	require.Equal(t, SourceExternal, days[date(2026, 10, 7)].Source)
	require.Equal(t, CalendarDay{Date: date(2026, 11, 30), Available: true, Source: SourceDefault}, days[date(2026, 11, 30)])

	lookup := Days(days)
	require.False(t, lookup.IsAvailable(date(2026, 10, 5)))
	require.True(t, lookup.IsAvailable(date(2026, 10, 8)))
	require.True(t, lookup.IsAvailable(date(2027, 1, 1)), "dates outside the window are open")
}

func TestRefreshFailsSoftOnSourceError(t *testing.T) {
	observer := &recordingObserver{}
	idx := NewIndex(SourceFunc(func(ctx context.Context, start, end time.Time) ([]Record, error) {
		return nil, errors.New("connection refused")
	}), time.Second, nil)
	idx.Observer = observer

	days := idx.Refresh(context.Background(), date(2026, 10, 1), date(2026, 10, 31))

	require.Len(t, days, 31)
	for _, d := range days {
		require.True(t, d.Available)
		require.Equal(t, SourceDefault, d.Source)
	}
	require.Equal(t, []string{"error"}, observer.causes)
}

func TestRefreshFailsSoftOnTimeout(t *testing.T) {
	observer := &recordingObserver{}
	idx := NewIndex(SourceFunc(func(ctx context.Context, start, end time.Time) ([]Record, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), 20*time.Millisecond, nil)
	idx.Observer = observer

	days := idx.Refresh(context.Background(), date(2026, 2, 1), date(2026, 2, 28))

	require.Len(t, days, 28)
	for _, d := range days {
		require.True(t, d.Available)
	}
	require.Equal(t, []string{"timeout"}, observer.causes)
}

func TestRefreshWithoutSourceIsOpen(t *testing.T) {
	idx := &Index{}
	days := idx.Refresh(context.Background(), date(2026, 1, 1), date(2026, 1, 3))
	require.Len(t, days, 3)
	require.True(t, days[date(2026, 1, 2)].Available)
}

func TestRefreshSharedLoadSurvivesCallerCancellation(t *testing.T) {
	called := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	idx := NewIndex(SourceFunc(func(ctx context.Context, start, end time.Time) ([]Record, error) {
		once.Do(func() { close(called) })
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return []Record{{Date: date(2026, 10, 20), Available: false}}, nil
	}), time.Second, nil)

	first, cancel := context.WithCancel(context.Background())
	firstDone := make(chan map[time.Time]CalendarDay, 1)
	go func() {
		firstDone <- idx.Refresh(first, date(2026, 10, 1), date(2026, 11, 30))
	}()
	<-called

	secondDone := make(chan map[time.Time]CalendarDay, 1)
	go func() {
		secondDone <- idx.Refresh(context.Background(), date(2026, 10, 1), date(2026, 11, 30))
	}()

	cancel()
	abandoned := <-firstDone
	require.Equal(t, SourceDefault, abandoned[date(2026, 10, 20)].Source)

	close(release)
	days := <-secondDone
	require.Equal(t, CalendarDay{Date: date(2026, 10, 20), Available: false, Source: SourceExternal}, days[date(2026, 10, 20)])
}

func TestRefreshReturnsIndependentCopies(t *testing.T) {
	idx := NewIndex(SourceFunc(func(ctx context.Context, start, end time.Time) ([]Record, error) {
		return []Record{{Date: start, Available: false}}, nil
	}), time.Second, nil)

	days := idx.Refresh(context.Background(), date(2026, 10, 1), date(2026, 10, 31))
	delete(days, date(2026, 10, 1))

	again := idx.Refresh(context.Background(), date(2026, 10, 1), date(2026, 10, 31))
	require.Len(t, again, 31)
	require.False(t, again[date(2026, 10, 1)].Available)
}

func TestBuildWindowSkipsUndatedAndPrefersOccupied(t *testing.T) {
	days, skipped := BuildWindow(date(2026, 5, 1), date(2026, 5, 2), []Record{
		{Available: false},
		{Date: date(2026, 5, 1), Available: false},
		{Date: date(2026, 5, 1), Available: true},
	})
	require.Equal(t, 1, skipped)
	require.False(t, days[date(2026, 5, 1)].Available)
	require.True(t, days[date(2026, 5, 2)].Available)
}

func TestMonthPairWindow(t *testing.T) {
	start, end := MonthPairWindow(time.Date(2026, 12, 24, 15, 0, 0, 0, time.UTC))
	require.Equal(t, date(2026, 12, 1), start)
	require.Equal(t, date(2027, 1, 31), end)

	start, end = MonthPairWindow(date(2028, 1, 31))
	require.Equal(t, date(2028, 1, 1), start)
	require.Equal(t, date(2028, 2, 29), end)
}
