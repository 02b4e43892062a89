package dto

import (
	"strconv"
	"time"

	domainpricing "staybook/internal/domain/pricing"
	"staybook/internal/domain/shared/money"
)

type NightlyRate struct {
	Date       string   `json:"date"`
	Season     string   `json:"season,omitempty"`
	Multiplier string   `json:"multiplier"`
	Amount     MoneyDTO `json:"amount"`
}

type PriceBreakdown struct {
	CheckIn               string        `json:"check_in"`
	CheckOut              string        `json:"check_out"`
	Nights                int           `json:"nights"`
	MinimumStayNights     int           `json:"minimum_stay_nights"`
	MeetsMinimumStay      bool          `json:"meets_minimum_stay"`
	NightlyRates          []NightlyRate `json:"nightly_rates"`
	AccommodationSubtotal MoneyDTO      `json:"accommodation_subtotal"`
	CleaningFee           MoneyDTO      `json:"cleaning_fee"`
	DogFee                MoneyDTO      `json:"dog_fee"`
	TouristTax            MoneyDTO      `json:"tourist_tax"`
	Total                 MoneyDTO      `json:"total"`
}

type SeasonalRule struct {
	Name       string `json:"name,omitempty"`
	Start      string `json:"start"`
	End        string `json:"end"`
	Multiplier string `json:"multiplier"`
}

type PricingConfiguration struct {
	Currency                string         `json:"currency"`
	BasePricePerNight       MoneyDTO       `json:"base_price_per_night"`
	CleaningFee             MoneyDTO       `json:"cleaning_fee"`
	DogFee                  MoneyDTO       `json:"dog_fee"`
	CityTaxPerAdultPerNight MoneyDTO       `json:"city_tax_per_adult_per_night"`
	MinimumStayNights       int            `json:"minimum_stay_nights"`
	SeasonalRules           []SeasonalRule `json:"seasonal_rules"`
}

func MapPriceBreakdown(checkIn, checkOut time.Time, minimumStay int, p domainpricing.PriceBreakdown) PriceBreakdown {
	rates := make([]NightlyRate, 0, len(p.NightlyRates))
	for _, r := range p.NightlyRates {
		rates = append(rates, NightlyRate{
			Date:       r.Date.Format(time.DateOnly),
			Season:     r.Season,
			Multiplier: formatMultiplier(r.Multiplier),
			Amount:     MapMoney(r.Amount),
		})
	}
	return PriceBreakdown{
		CheckIn:               checkIn.Format(time.DateOnly),
		CheckOut:              checkOut.Format(time.DateOnly),
		Nights:                p.Nights,
		MinimumStayNights:     minimumStay,
		MeetsMinimumStay:      p.Nights >= minimumStay,
		NightlyRates:          rates,
		AccommodationSubtotal: MapMoney(p.AccommodationSubtotal),
		CleaningFee:           MapMoney(p.CleaningFee),
		DogFee:                MapMoney(p.DogFee),
		TouristTax:            MapMoney(p.TouristTax),
		Total:                 MapMoney(p.Total),
	}
}

func MapPricingConfiguration(cfg domainpricing.Configuration) PricingConfiguration {
	rules := make([]SeasonalRule, 0, len(cfg.SeasonalRules))
	for _, r := range cfg.SeasonalRules {
		rules = append(rules, SeasonalRule{
			Name:       r.Name,
			Start:      r.Start.String(),
			End:        r.End.String(),
			Multiplier: formatMultiplier(r.Multiplier),
		})
	}
	return PricingConfiguration{
		Currency:                cfg.Currency,
		BasePricePerNight:       MapMoney(cfg.BasePricePerNight),
		CleaningFee:             MapMoney(cfg.CleaningFee),
		DogFee:                  MapMoney(cfg.DogFee),
		CityTaxPerAdultPerNight: MapMoney(cfg.CityTaxPerAdultPerNight),
		MinimumStayNights:       cfg.MinimumStayNights,
		SeasonalRules:           rules,
	}
}

// formatMultiplier renders basis points as a decimal factor, e.g. 13000 -> "1.3".
func formatMultiplier(bp int64) string {
	return strconv.FormatFloat(float64(bp)/float64(money.BasisPointScale), 'f', -1, 64)
}
