package policies

import (
	"context"

	domainpricing "staybook/internal/domain/pricing"
)

// PricingPort quotes stays against the pricing document currently in force.
type PricingPort interface {
	Quote(ctx context.Context, input domainpricing.QuoteInput) (domainpricing.PriceBreakdown, error)
	Configuration(ctx context.Context) (domainpricing.Configuration, error)
}

var _ PricingPort = domainpricing.Service{}
