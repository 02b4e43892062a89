package pricing

import (
	"context"
	"errors"
	"time"

	"staybook/internal/domain/shared/daterange"
	"staybook/internal/domain/shared/money"
	"staybook/internal/domain/shared/validation"
)

// ErrInvalidRange is returned for stays with no nights.
var ErrInvalidRange = validation.New(validation.ReasonInvalidRange, "check_out", "stay must span at least one night")

var ErrNegativeGuests = validation.New(validation.ReasonInvalidField, "adults", "guest counts cannot be negative")

type NightlyRate struct {
	Date       time.Time
	Season     string
	Multiplier int64
	Amount     money.Money
}

type PriceBreakdown struct {
	Nights                int
	NightlyRates          []NightlyRate
	AccommodationSubtotal money.Money
	CleaningFee           money.Money
	DogFee                money.Money
	TouristTax            money.Money
	Total                 money.Money
}

// ComputePrice prices a stay night by night. Every night takes the multiplier of the first
// seasonal rule covering it (1.0 when none does); cleaning and dog fees are charged once;
// tourist tax is charged per adult and night, children are exempt.
func ComputePrice(r daterange.DateRange, adults, children int, hasDog bool, cfg Configuration) (PriceBreakdown, error) {
	nights := r.Nights()
	if r.CheckIn.IsZero() || nights <= 0 {
		return PriceBreakdown{}, ErrInvalidRange
	}
	if adults < 0 || children < 0 {
		return PriceBreakdown{}, ErrNegativeGuests
	}
	if err := cfg.Validate(); err != nil {
		return PriceBreakdown{}, err
	}

	unit := cfg.roundingUnit()
	subtotal := money.Zero(cfg.Currency)
	rates := make([]NightlyRate, 0, nights)
	var err error
	r.EachNight(func(night time.Time) {
		if err != nil {
			return
		}
		multiplier := money.BasisPointScale
		season := ""
		if rule, ok := cfg.SeasonFor(night); ok {
			multiplier = rule.Multiplier
			season = rule.Name
		}
		amount := cfg.BasePricePerNight.ApplyRate(multiplier, unit)
		rates = append(rates, NightlyRate{Date: night, Season: season, Multiplier: multiplier, Amount: amount})
		subtotal, err = subtotal.Add(amount)
	})
	if err != nil {
		return PriceBreakdown{}, err
	}

	dogFee := money.Zero(cfg.Currency)
	if hasDog {
		dogFee = cfg.DogFee
	}
	touristTax := cfg.CityTaxPerAdultPerNight.Multiply(int64(adults) * int64(nights))

	total := subtotal
	for _, component := range []money.Money{cfg.CleaningFee, dogFee, touristTax} {
		if total, err = total.Add(component); err != nil {
			return PriceBreakdown{}, err
		}
	}

	return PriceBreakdown{
		Nights:                nights,
		NightlyRates:          rates,
		AccommodationSubtotal: subtotal,
		CleaningFee:           cfg.CleaningFee,
		DogFee:                dogFee,
		TouristTax:            touristTax,
		Total:                 total,
	}, nil
}

// QuoteInput is a guest's pricing request.
type QuoteInput struct {
	Range    daterange.DateRange
	Adults   int
	Children int
	HasDog   bool
}

var ErrProviderMissing = errors.New("pricing: configuration provider missing")

// Service prices stays against whatever configuration the provider currently holds.
type Service struct {
	Config ConfigProvider
}

func (s Service) Quote(ctx context.Context, input QuoteInput) (PriceBreakdown, error) {
	cfg, err := s.Configuration(ctx)
	if err != nil {
		return PriceBreakdown{}, err
	}
	return ComputePrice(input.Range, input.Adults, input.Children, input.HasDog, cfg)
}

func (s Service) Configuration(ctx context.Context) (Configuration, error) {
	if s.Config == nil {
		return Configuration{}, ErrProviderMissing
	}
	return s.Config.Current(ctx)
}
