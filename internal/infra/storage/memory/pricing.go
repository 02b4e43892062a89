package memory

import (
	"context"
	"sync"
	"time"

	domainpricing "staybook/internal/domain/pricing"
	"staybook/internal/domain/shared/money"
)

// DefaultPricing is the documented example configuration: 85 EUR a night, 75 EUR
// cleaning, 25 EUR per dog, 4.10 EUR city tax per adult and night, three night minimum.
func DefaultPricing() domainpricing.Configuration {
	return domainpricing.Configuration{
		Currency:                "EUR",
		BasePricePerNight:       money.Must(8500, "EUR"),
		CleaningFee:             money.Must(7500, "EUR"),
		DogFee:                  money.Must(2500, "EUR"),
		CityTaxPerAdultPerNight: money.Must(410, "EUR"),
		MinimumStayNights:       3,
		NightlyRoundingUnit:     domainpricing.DefaultRoundingUnit,
		SeasonalRules: []domainpricing.SeasonalRule{
			{Name: "summer", Start: domainpricing.MonthDay{Month: time.June, Day: 15}, End: domainpricing.MonthDay{Month: time.September, Day: 15}, Multiplier: 13_000},
			{Name: "winter", Start: domainpricing.MonthDay{Month: time.December, Day: 20}, End: domainpricing.MonthDay{Month: time.January, Day: 6}, Multiplier: 12_000},
		},
	}
}

// PricingStore holds the pricing document in memory. Replace is the admin write path.
type PricingStore struct {
	mu  sync.RWMutex
	cfg domainpricing.Configuration
}

func NewPricingStore(cfg domainpricing.Configuration) *PricingStore {
	return &PricingStore{cfg: cfg}
}

func (s *PricingStore) Current(ctx context.Context) (domainpricing.Configuration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneConfiguration(s.cfg), nil
}

func (s *PricingStore) Replace(cfg domainpricing.Configuration) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cloneConfiguration(cfg)
	s.mu.Unlock()
	return nil
}

func cloneConfiguration(cfg domainpricing.Configuration) domainpricing.Configuration {
	cfg.SeasonalRules = append([]domainpricing.SeasonalRule(nil), cfg.SeasonalRules...)
	return cfg
}

var _ domainpricing.ConfigProvider = (*PricingStore)(nil)
