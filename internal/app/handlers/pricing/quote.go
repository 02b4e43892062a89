package pricing

import (
	"context"
	"errors"
	"time"

	"staybook/internal/app/dto"
	"staybook/internal/app/policies"
	"staybook/internal/app/queries"
	domainpricing "staybook/internal/domain/pricing"
	"staybook/internal/domain/shared/daterange"
)

const (
	quoteStayKey  = "pricing.quote"
	getPricingKey = "pricing.configuration"
)

var ErrPricingPortMissing = errors.New("pricing: port not configured")

type QuoteStayQuery struct {
	CheckIn      time.Time `json:"check_in"`
	CheckOut     time.Time `json:"check_out"`
	Adults       int       `json:"adults" validate:"gte=1,lte=16"`
	Children     int       `json:"children" validate:"gte=0,lte=16"`
	DogsIncluded bool      `json:"dogs_included"`
}

func (q QuoteStayQuery) Key() string { return quoteStayKey }

// QuoteStayHandler prices a candidate stay for display. Short stays are still priced;
// the result says whether the minimum is met.
type QuoteStayHandler struct {
	Pricing policies.PricingPort
}

func (h *QuoteStayHandler) Handle(ctx context.Context, q QuoteStayQuery) (dto.PriceBreakdown, error) {
	if h.Pricing == nil {
		return dto.PriceBreakdown{}, ErrPricingPortMissing
	}
	cfg, err := h.Pricing.Configuration(ctx)
	if err != nil {
		return dto.PriceBreakdown{}, err
	}
	dr := daterange.DateRange{CheckIn: daterange.Day(q.CheckIn), CheckOut: daterange.Day(q.CheckOut)}
	breakdown, err := h.Pricing.Quote(ctx, domainpricing.QuoteInput{
		Range:    dr,
		Adults:   q.Adults,
		Children: q.Children,
		HasDog:   q.DogsIncluded,
	})
	if err != nil {
		return dto.PriceBreakdown{}, err
	}
	return dto.MapPriceBreakdown(dr.CheckIn, dr.CheckOut, cfg.MinimumStayNights, breakdown), nil
}

type GetPricingQuery struct{}

func (q GetPricingQuery) Key() string { return getPricingKey }

type GetPricingHandler struct {
	Pricing policies.PricingPort
}

func (h *GetPricingHandler) Handle(ctx context.Context, _ GetPricingQuery) (dto.PricingConfiguration, error) {
	if h.Pricing == nil {
		return dto.PricingConfiguration{}, ErrPricingPortMissing
	}
	cfg, err := h.Pricing.Configuration(ctx)
	if err != nil {
		return dto.PricingConfiguration{}, err
	}
	return dto.MapPricingConfiguration(cfg), nil
}

var _ queries.Handler[QuoteStayQuery, dto.PriceBreakdown] = (*QuoteStayHandler)(nil)
var _ queries.Handler[GetPricingQuery, dto.PricingConfiguration] = (*GetPricingHandler)(nil)
