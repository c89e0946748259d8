package postgres

import (
	"context"

	"family-budget-service/internal/entity"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type RateRepository interface {
	GetRate(ctx context.Context, base, target entity.CurrencyCode) (*entity.ExchangeRate, error)
	UpsertRate(ctx context.Context, rate entity.ExchangeRate) error
}

type Pool interface {
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
}
