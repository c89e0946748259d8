package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"family-budget-service/internal/adapter/exchangerate"
	"family-budget-service/internal/adapter/postgres"
	"family-budget-service/internal/entity"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// rateFreshness is how long a stored rate is served without refetching.
const rateFreshness = 24 * time.Hour

// Resolver produces a unit rate for an ordered currency pair. Resolve never
// fails: every error inside the chain degrades to the next tier, ending at 1.
type Resolver interface {
	Resolve(ctx context.Context, source, target entity.CurrencyCode) float64
	RefreshRates(ctx context.Context, target entity.CurrencyCode) error
}

type RateService struct {
	provider exchangerate.RateProvider
	dbRepo   postgres.RateRepository
	logger   *logrus.Logger
}

var _ Resolver = (*RateService)(nil)

func NewRateService(provider exchangerate.RateProvider, dbRepo postgres.RateRepository, logger *logrus.Logger) *RateService {
	return &RateService{
		provider: provider,
		dbRepo:   dbRepo,
		logger:   logger,
	}
}

// Resolve walks the chain: fresh stored rate, provider fetch (persisted best
// effort), stale stored rate, static fallback table, identity.
func (s *RateService) Resolve(ctx context.Context, source, target entity.CurrencyCode) float64 {
	if source == target {
		return 1
	}

	stored, err := s.dbRepo.GetRate(ctx, source, target)
	if err != nil && !errors.Is(err, postgres.ErrNotFound) {
		s.logger.WithError(err).Warnf("Failed to read stored rate for %s/%s", source, target)
	}

	if stored != nil && time.Since(stored.LastUpdated) < rateFreshness {
		s.logger.Debugf("Using stored rate for %s/%s: %.6f", source, target, stored.Rate)
		return stored.Rate
	}

	fresh, err := s.provider.FetchRate(ctx, source, target)
	if err == nil {
		record := entity.ExchangeRate{
			BaseCurrency:   source,
			TargetCurrency: target,
			Rate:           fresh,
			LastUpdated:    time.Now(),
		}
		// Persistence is an optimization, not a correctness dependency.
		if storeErr := s.dbRepo.UpsertRate(ctx, record); storeErr != nil {
			s.logger.WithError(storeErr).Warnf("Failed to store fetched rate for %s/%s", source, target)
		}
		s.logger.Infof("Fetched rate for %s/%s: %.6f", source, target, fresh)
		return fresh
	}
	s.logger.WithError(err).Warnf("Provider fetch failed for %s/%s", source, target)

	if stored != nil {
		s.logger.Infof("Using stale stored rate for %s/%s: %.6f", source, target, stored.Rate)
		return stored.Rate
	}

	if rate, ok := entity.FallbackRate(source, target); ok {
		s.logger.Warnf("Using static fallback rate for %s/%s: %.6f", source, target, rate)
		return rate
	}

	s.logger.Warnf("No rate available for %s/%s, degrading to identity", source, target)
	return 1
}

// RefreshRates warms the store with provider rates for every supported source
// against target. Per-pair failures are collected, not fatal.
func (s *RateService) RefreshRates(ctx context.Context, target entity.CurrencyCode) error {
	s.logger.Infof("Refreshing rates against %s...", target)

	var errs error
	updated := 0
	for _, source := range entity.SupportedCurrencies() {
		if source == target {
			continue
		}

		rate, err := s.provider.FetchRate(ctx, source, target)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("fetch %s/%s: %w", source, target, err))
			continue
		}

		record := entity.ExchangeRate{
			BaseCurrency:   source,
			TargetCurrency: target,
			Rate:           rate,
			LastUpdated:    time.Now(),
		}
		if err := s.dbRepo.UpsertRate(ctx, record); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("store %s/%s: %w", source, target, err))
			continue
		}
		updated++
	}

	if errs != nil {
		s.logger.WithError(errs).Warnf("Refreshed %d rates against %s with errors", updated, target)
		return errs
	}

	s.logger.Infof("Successfully refreshed %d rates against %s", updated, target)
	return nil
}
