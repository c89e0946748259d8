package usecase

import (
	"context"

	"family-budget-service/internal/entity"
)

type ConversionUsecase interface {
	Convert(ctx context.Context, amount float64, from string) float64
	Rate(ctx context.Context, from, to entity.CurrencyCode) float64
	SetDisplayCurrency(code entity.CurrencyCode)
	DisplayCurrency() entity.CurrencyCode
	DisplaySymbol() string
	RefreshRates(ctx context.Context) error
}
