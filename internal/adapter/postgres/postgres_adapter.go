package postgres

import (
	"context"
	"errors"
	"fmt"

	"family-budget-service/internal/entity"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

var (
	psql        = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	ErrNotFound = errors.New("not found")
)

type PostgresRepo struct {
	pool   Pool
	logger *logrus.Logger
}

func NewPostgresRepo(pool Pool, logger *logrus.Logger) *PostgresRepo {
	return &PostgresRepo{
		pool:   pool,
		logger: logger,
	}
}

func (r *PostgresRepo) GetRate(ctx context.Context, base, target entity.CurrencyCode) (*entity.ExchangeRate, error) {
	query, args, err := psql.
		Select("base_currency", "target_currency", "rate", "last_updated").
		From("exchange_rates").
		Where(sq.Eq{"base_currency": base, "target_currency": target}).
		Limit(1).
		ToSql()
	if err != nil {
		r.logger.WithError(err).Error("Failed to build select query")
		return nil, fmt.Errorf("build select: %w", err)
	}

	var rate entity.ExchangeRate
	err = r.pool.QueryRow(ctx, query, args...).
		Scan(
			&rate.BaseCurrency,
			&rate.TargetCurrency,
			&rate.Rate,
			&rate.LastUpdated,
		)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WithFields(logrus.Fields{"base": base, "target": target}).Debug("No stored rate for pair")
			return nil, ErrNotFound
		}
		r.logger.WithError(err).WithFields(logrus.Fields{"base": base, "target": target}).Error("Failed to query stored rate")
		return nil, fmt.Errorf("query rate: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"base":         rate.BaseCurrency,
		"target":       rate.TargetCurrency,
		"rate":         rate.Rate,
		"last_updated": rate.LastUpdated,
	}).Debug("Retrieved stored rate")

	return &rate, nil
}

func (r *PostgresRepo) UpsertRate(ctx context.Context, rate entity.ExchangeRate) error {
	if !rate.Valid() {
		return fmt.Errorf("refusing to store non-positive rate %v for %s/%s", rate.Rate, rate.BaseCurrency, rate.TargetCurrency)
	}

	query, args, err := psql.Insert("exchange_rates").
		Columns("base_currency", "target_currency", "rate", "last_updated").
		Values(rate.BaseCurrency, rate.TargetCurrency, rate.Rate, rate.LastUpdated).
		Suffix(`
            ON CONFLICT (base_currency, target_currency) DO UPDATE SET
                rate = EXCLUDED.rate,
                last_updated = EXCLUDED.last_updated
        `).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert for %s/%s: %w", rate.BaseCurrency, rate.TargetCurrency, err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{"base": rate.BaseCurrency, "target": rate.TargetCurrency}).Error("Failed to upsert rate")
		return fmt.Errorf("upsert rate: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"base":   rate.BaseCurrency,
		"target": rate.TargetCurrency,
		"rate":   rate.Rate,
	}).Debug("Stored rate")

	return nil
}
