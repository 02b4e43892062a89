package stay

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/validation"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func stayOf(nights int) daterange.DateRange {
	in := date(2026, 11, 2)
	return daterange.DateRange{CheckIn: in, CheckOut: in.AddDate(0, 0, nights)}
}

func TestMinimumStayBoundary(t *testing.T) {
	require.False(t, IsValid(stayOf(2), 3))
	require.True(t, IsValid(stayOf(3), 3))
	require.True(t, IsValid(stayOf(4), 3))

	err := Validate(stayOf(2), 3)
	var mse *validation.MinimumStayError
	require.True(t, errors.As(err, &mse))
	require.Equal(t, 3, mse.Minimum)
	require.Equal(t, 2, mse.Nights)
	require.ErrorIs(t, err, validation.ErrValidation)
}

func TestZeroAndNegativeNightsAreInvalid(t *testing.T) {
	same := daterange.DateRange{CheckIn: date(2026, 11, 2), CheckOut: date(2026, 11, 2)}
	inverted := daterange.DateRange{CheckIn: date(2026, 11, 5), CheckOut: date(2026, 11, 2)}

	for _, r := range []daterange.DateRange{same, inverted, {}} {
		require.False(t, IsValid(r, 1))
		reason, ok := validation.ReasonOf(Validate(r, 0))
		require.True(t, ok)
		require.Equal(t, validation.ReasonInvalidRange, reason)
	}
}

type blockedDates map[time.Time]bool

func (b blockedDates) IsAvailable(d time.Time) bool { return !b[d] }

func TestCheckAvailability(t *testing.T) {
	r := stayOf(3)

	require.NoError(t, CheckAvailability(r, blockedDates{}))
	require.NoError(t, CheckAvailability(r, nil))
	require.NoError(t, CheckAvailability(r, blockedDates{r.CheckOut: true}), "check-out day is not a night")

	err := CheckAvailability(r, blockedDates{date(2026, 11, 3): true})
	reason, ok := validation.ReasonOf(err)
	require.True(t, ok)
	require.Equal(t, validation.ReasonDatesUnavailable, reason)
	require.Contains(t, err.Error(), "2026-11-03")
}

func TestCheckNotPast(t *testing.T) {
	today := time.Date(2026, 11, 2, 18, 0, 0, 0, time.UTC)
	require.NoError(t, CheckNotPast(stayOf(3), today))

	err := CheckNotPast(stayOf(3), today.AddDate(0, 0, 1))
	reason, _ := validation.ReasonOf(err)
	require.Equal(t, validation.ReasonCheckInInPast, reason)
}
