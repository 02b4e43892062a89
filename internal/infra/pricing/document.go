// Package pricing loads the owner's pricing document from a file or an S3 object.
package pricing

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	domainpricing "staybook/internal/domain/pricing"
	"staybook/internal/domain/shared/money"
)

var ErrInvalidDocument = errors.New("pricing: invalid pricing document")

// Document is the on-disk shape of the pricing configuration. Amounts are in major
// currency units, multipliers are plain factors (1.3 = +30%).
type Document struct {
	Currency                string         `mapstructure:"currency" validate:"required,len=3,uppercase"`
	BasePricePerNight       float64        `mapstructure:"base_price_per_night" validate:"gt=0"`
	CleaningFee             float64        `mapstructure:"cleaning_fee" validate:"gte=0"`
	DogFee                  float64        `mapstructure:"dog_fee" validate:"gte=0"`
	CityTaxPerAdultPerNight float64        `mapstructure:"city_tax_per_adult_per_night" validate:"gte=0"`
	MinimumStayNights       int            `mapstructure:"minimum_stay_nights" validate:"gte=1,lte=365"`
	NightlyRoundingUnit     int64          `mapstructure:"nightly_rounding_unit" validate:"gte=0"`
	SeasonalRules           []RuleDocument `mapstructure:"seasonal_rules" validate:"dive"`
}

type RuleDocument struct {
	Name       string  `mapstructure:"name" validate:"required"`
	Start      string  `mapstructure:"start" validate:"required,len=5"`
	End        string  `mapstructure:"end" validate:"required,len=5"`
	Multiplier float64 `mapstructure:"multiplier" validate:"gt=0,lte=10"`
}

var documentValidator = validator.New()

// ParseDocument decodes data in the given format (yaml, json or toml).
func ParseDocument(data []byte, format string) (Document, error) {
	v := viper.New()
	v.SetConfigType(strings.TrimPrefix(strings.ToLower(format), "."))
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (Document, error) {
	var doc Document
	if err := v.Unmarshal(&doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return doc, nil
}

// Configuration validates the document and converts it into the engine's form.
func (d Document) Configuration() (domainpricing.Configuration, error) {
	if err := documentValidator.Struct(d); err != nil {
		return domainpricing.Configuration{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	cfg := domainpricing.Configuration{
		Currency:            d.Currency,
		MinimumStayNights:   d.MinimumStayNights,
		NightlyRoundingUnit: d.NightlyRoundingUnit,
	}
	amounts := []struct {
		value  float64
		target *money.Money
	}{
		{d.BasePricePerNight, &cfg.BasePricePerNight},
		{d.CleaningFee, &cfg.CleaningFee},
		{d.DogFee, &cfg.DogFee},
		{d.CityTaxPerAdultPerNight, &cfg.CityTaxPerAdultPerNight},
	}
	for _, a := range amounts {
		m, err := money.FromMajor(a.value, d.Currency)
		if err != nil {
			return domainpricing.Configuration{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		*a.target = m
	}
	for _, r := range d.SeasonalRules {
		start, err := domainpricing.ParseMonthDay(r.Start)
		if err != nil {
			return domainpricing.Configuration{}, fmt.Errorf("%w: rule %q start: %v", ErrInvalidDocument, r.Name, err)
		}
		end, err := domainpricing.ParseMonthDay(r.End)
		if err != nil {
			return domainpricing.Configuration{}, fmt.Errorf("%w: rule %q end: %v", ErrInvalidDocument, r.Name, err)
		}
		cfg.SeasonalRules = append(cfg.SeasonalRules, domainpricing.SeasonalRule{
			Name:       r.Name,
			Start:      start,
			End:        end,
			Multiplier: int64(math.Round(r.Multiplier * float64(money.BasisPointScale))),
		})
	}
	if err := cfg.Validate(); err != nil {
		return domainpricing.Configuration{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return cfg, nil
}

// ReloadObserver is told about every reload attempt.
type ReloadObserver interface {
	ObservePricingReload(source string, err error)
}
