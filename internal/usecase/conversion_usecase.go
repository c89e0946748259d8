package usecase

import (
	"context"
	"math"
	"sync"

	"family-budget-service/internal/entity"
	"family-budget-service/internal/service"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// ConversionSession memoizes resolved rates for the lifetime of one display
// currency. Changing the display currency throws the whole cache away: every
// cached rate is keyed to the old target, so none of them survive the switch.
//
// Convert never fails. Bad amounts come back as 0, unknown source currencies
// fall back to the configured default, and a fully failed resolution degrades
// to the unconverted amount.
type ConversionSession struct {
	resolver      service.Resolver
	defaultSource entity.CurrencyCode
	logger        *logrus.Logger

	mu      sync.RWMutex
	display entity.CurrencyCode
	rates   map[string]float64
	flight  singleflight.Group
}

var _ ConversionUsecase = (*ConversionSession)(nil)

func NewConversionSession(resolver service.Resolver, display, defaultSource entity.CurrencyCode, logger *logrus.Logger) *ConversionSession {
	if !display.Supported() {
		logger.Warnf("Unsupported initial display currency %q, using %s", display, entity.INR)
		display = entity.INR
	}
	if !defaultSource.Supported() {
		logger.Warnf("Unsupported default source currency %q, using %s", defaultSource, entity.USD)
		defaultSource = entity.USD
	}

	return &ConversionSession{
		resolver:      resolver,
		defaultSource: defaultSource,
		logger:        logger,
		display:       display,
		rates:         make(map[string]float64),
	}
}

func cacheKey(from, to entity.CurrencyCode) string {
	return string(from) + "_" + string(to)
}

func (s *ConversionSession) Convert(ctx context.Context, amount float64, from string) float64 {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		s.logger.Debugf("Rejecting invalid amount %v", amount)
		return 0
	}

	source, ok := entity.Normalize(from)
	if !ok {
		s.logger.Debugf("Unknown source currency %q, using default %s", from, s.defaultSource)
		source = s.defaultSource
	}

	s.mu.RLock()
	target := s.display
	key := cacheKey(source, target)
	rate, hit := s.rates[key]
	s.mu.RUnlock()

	if source == target {
		return amount
	}

	if hit {
		return amount * rate
	}

	// Renderers fan out one Convert per line item, so the first miss for a
	// pair collapses the concurrent resolutions into a single fetch.
	v, _, _ := s.flight.Do(key, func() (any, error) {
		resolved := s.resolver.Resolve(ctx, source, target)
		s.storeRate(key, target, resolved)
		return resolved, nil
	})

	return amount * v.(float64)
}

// storeRate caches the rate unless the display currency moved while the
// resolution was in flight; a rate keyed to the old target must not leak in.
func (s *ConversionSession) storeRate(key string, target entity.CurrencyCode, rate float64) {
	s.mu.Lock()
	if s.display == target {
		s.rates[key] = rate
	}
	s.mu.Unlock()
}

// Rate exposes the unit rate for an explicit pair, bypassing the session cache.
func (s *ConversionSession) Rate(ctx context.Context, from, to entity.CurrencyCode) float64 {
	return s.resolver.Resolve(ctx, from, to)
}

// SetDisplayCurrency switches the session target and clears the cache. The
// clear is unconditional so switching A -> B -> A still re-resolves every pair.
func (s *ConversionSession) SetDisplayCurrency(code entity.CurrencyCode) {
	if !code.Supported() {
		s.logger.Warnf("Ignoring unsupported display currency %q", code)
		return
	}

	s.mu.Lock()
	prev := s.display
	s.display = code
	s.rates = make(map[string]float64)
	s.mu.Unlock()

	if prev != code {
		s.logger.Infof("Display currency changed %s -> %s, rate cache invalidated", prev, code)
	}
}

func (s *ConversionSession) DisplayCurrency() entity.CurrencyCode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.display
}

func (s *ConversionSession) DisplaySymbol() string {
	return s.DisplayCurrency().Symbol()
}

// RefreshRates warms the persisted store against the current display currency
// and drops the session cache so the fresh rates take effect immediately.
func (s *ConversionSession) RefreshRates(ctx context.Context) error {
	s.mu.RLock()
	target := s.display
	s.mu.RUnlock()

	if err := s.resolver.RefreshRates(ctx, target); err != nil {
		return err
	}

	s.mu.Lock()
	if s.display == target {
		s.rates = make(map[string]float64)
	}
	s.mu.Unlock()

	return nil
}
