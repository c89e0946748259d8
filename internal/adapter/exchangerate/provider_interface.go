package exchangerate

import (
	"context"

	"family-budget-service/internal/entity"
)

// RateProvider fetches the live rate for one ordered currency pair. Any
// transport error, bad status, malformed payload, or non-positive value is
// returned as an error; callers treat all of them the same way.
type RateProvider interface {
	FetchRate(ctx context.Context, base, target entity.CurrencyCode) (float64, error)
}
