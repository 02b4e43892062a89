package pricing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"staybook/internal/domain/shared/money"
)

var (
	ErrCurrencyUnset      = errors.New("pricing: currency must be defined")
	ErrNegativeComponent  = errors.New("pricing: amounts cannot be negative")
	ErrInvalidMinimumStay = errors.New("pricing: minimum stay must be at least one night")
	ErrInvalidMultiplier  = errors.New("pricing: seasonal multiplier must be positive")
	ErrInvalidMonthDay    = errors.New("pricing: invalid month-day")
)

// DefaultRoundingUnit rounds nightly rates to whole currency units.
const DefaultRoundingUnit int64 = 100

// MonthDay is a calendar day that repeats every year.
type MonthDay struct {
	Month time.Month
	Day   int
}

// ParseMonthDay reads "MM-DD".
func ParseMonthDay(raw string) (MonthDay, error) {
	parts := strings.Split(strings.TrimSpace(raw), "-")
	if len(parts) != 2 {
		return MonthDay{}, fmt.Errorf("%w: %q", ErrInvalidMonthDay, raw)
	}
	m, errM := strconv.Atoi(parts[0])
	d, errD := strconv.Atoi(parts[1])
	if errM != nil || errD != nil {
		return MonthDay{}, fmt.Errorf("%w: %q", ErrInvalidMonthDay, raw)
	}
	md := MonthDay{Month: time.Month(m), Day: d}
	if err := md.Validate(); err != nil {
		return MonthDay{}, fmt.Errorf("%w: %q", err, raw)
	}
	return md, nil
}

func MonthDayOf(t time.Time) MonthDay {
	return MonthDay{Month: t.Month(), Day: t.Day()}
}

func (md MonthDay) Validate() error {
	if md.Month < time.January || md.Month > time.December || md.Day < 1 {
		return ErrInvalidMonthDay
	}
	// 2024 is a leap year so Feb 29 stays expressible.
	last := time.Date(2024, md.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if md.Day > last {
		return ErrInvalidMonthDay
	}
	return nil
}

func (md MonthDay) ordinal() int {
	return int(md.Month)*100 + md.Day
}

func (md MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", int(md.Month), md.Day)
}

// SeasonalRule scales the base nightly price for nights whose month-day falls in [Start, End].
// When Start is after End the window wraps the year boundary.
type SeasonalRule struct {
	Name       string
	Start      MonthDay
	End        MonthDay
	Multiplier int64 // basis points, 10000 = 1.0
}

func (r SeasonalRule) Contains(night time.Time) bool {
	md := MonthDayOf(night).ordinal()
	start, end := r.Start.ordinal(), r.End.ordinal()
	if start <= end {
		return md >= start && md <= end
	}
	return md >= start || md <= end
}

// Configuration is the pricing document maintained by the owner. The engine only reads it.
type Configuration struct {
	Currency                string
	BasePricePerNight       money.Money
	CleaningFee             money.Money
	DogFee                  money.Money
	CityTaxPerAdultPerNight money.Money
	MinimumStayNights       int
	NightlyRoundingUnit     int64
	SeasonalRules           []SeasonalRule
}

func (c Configuration) Validate() error {
	if c.Currency == "" {
		return ErrCurrencyUnset
	}
	for _, m := range []money.Money{c.BasePricePerNight, c.CleaningFee, c.DogFee, c.CityTaxPerAdultPerNight} {
		if m.Currency != c.Currency {
			return money.ErrCurrencyMismatch
		}
		if m.Amount < 0 {
			return ErrNegativeComponent
		}
	}
	if c.MinimumStayNights < 1 {
		return ErrInvalidMinimumStay
	}
	for _, rule := range c.SeasonalRules {
		if rule.Multiplier <= 0 {
			return fmt.Errorf("%w: rule %q", ErrInvalidMultiplier, rule.Name)
		}
		if err := rule.Start.Validate(); err != nil {
			return fmt.Errorf("rule %q start: %w", rule.Name, err)
		}
		if err := rule.End.Validate(); err != nil {
			return fmt.Errorf("rule %q end: %w", rule.Name, err)
		}
	}
	return nil
}

// SeasonFor returns the first rule, in definition order, that covers night.
func (c Configuration) SeasonFor(night time.Time) (SeasonalRule, bool) {
	for _, rule := range c.SeasonalRules {
		if rule.Contains(night) {
			return rule, true
		}
	}
	return SeasonalRule{}, false
}

func (c Configuration) roundingUnit() int64 {
	if c.NightlyRoundingUnit <= 0 {
		return DefaultRoundingUnit
	}
	return c.NightlyRoundingUnit
}

// ConfigProvider hands out the current pricing document.
type ConfigProvider interface {
	Current(ctx context.Context) (Configuration, error)
}

// StaticProvider always returns the same configuration.
type StaticProvider struct {
	Config Configuration
}

func (p StaticProvider) Current(context.Context) (Configuration, error) {
	return p.Config, nil
}
