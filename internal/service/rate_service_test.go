package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"family-budget-service/internal/adapter/postgres"
	"family-budget-service/internal/entity"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockRateProvider struct {
	mock.Mock
}

func (m *mockRateProvider) FetchRate(ctx context.Context, base, target entity.CurrencyCode) (float64, error) {
	args := m.Called(ctx, base, target)
	return args.Get(0).(float64), args.Error(1)
}

type mockRateRepository struct {
	mock.Mock
}

func (m *mockRateRepository) GetRate(ctx context.Context, base, target entity.CurrencyCode) (*entity.ExchangeRate, error) {
	args := m.Called(ctx, base, target)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ExchangeRate), args.Error(1)
}

func (m *mockRateRepository) UpsertRate(ctx context.Context, rate entity.ExchangeRate) error {
	args := m.Called(ctx, rate)
	return args.Error(0)
}

func setupTestService() (*RateService, *mockRateProvider, *mockRateRepository, *logrus.Logger, *test.Hook) {
	mockProvider := new(mockRateProvider)
	mockRepo := new(mockRateRepository)
	logger, hook := test.NewNullLogger()
	service := NewRateService(mockProvider, mockRepo, logger)
	return service, mockProvider, mockRepo, logger, hook
}

func storedRate(base, target entity.CurrencyCode, rate float64, age time.Duration) *entity.ExchangeRate {
	return &entity.ExchangeRate{
		BaseCurrency:   base,
		TargetCurrency: target,
		Rate:           rate,
		LastUpdated:    time.Now().Add(-age),
	}
}

func TestResolve_Identity(t *testing.T) {
	ctx := context.Background()
	service, mockProvider, mockRepo, _, _ := setupTestService()

	rate := service.Resolve(ctx, entity.USD, entity.USD)
	assert.Equal(t, 1.0, rate)

	// identity conversions must never touch the store or the network
	mockRepo.AssertNotCalled(t, "GetRate", mock.Anything, mock.Anything, mock.Anything)
	mockProvider.AssertNotCalled(t, "FetchRate", mock.Anything, mock.Anything, mock.Anything)
}

func TestResolve_FreshStoredRate(t *testing.T) {
	ctx := context.Background()
	service, mockProvider, mockRepo, _, _ := setupTestService()

	mockRepo.On("GetRate", ctx, entity.USD, entity.INR).
		Return(storedRate(entity.USD, entity.INR, 85.0, time.Hour), nil)

	rate := service.Resolve(ctx, entity.USD, entity.INR)
	assert.Equal(t, 85.0, rate)

	mockProvider.AssertNotCalled(t, "FetchRate", mock.Anything, mock.Anything, mock.Anything)
	mockRepo.AssertExpectations(t)
}

func TestResolve_StalenessBoundary(t *testing.T) {
	ctx := context.Background()

	t.Run("just under 24h is fresh", func(t *testing.T) {
		service, mockProvider, mockRepo, _, _ := setupTestService()

		mockRepo.On("GetRate", ctx, entity.USD, entity.INR).
			Return(storedRate(entity.USD, entity.INR, 85.0, 23*time.Hour+59*time.Minute), nil)

		rate := service.Resolve(ctx, entity.USD, entity.INR)
		assert.Equal(t, 85.0, rate)
		mockProvider.AssertNotCalled(t, "FetchRate", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("just over 24h triggers a provider call", func(t *testing.T) {
		service, mockProvider, mockRepo, _, _ := setupTestService()

		mockRepo.On("GetRate", ctx, entity.USD, entity.INR).
			Return(storedRate(entity.USD, entity.INR, 85.0, 24*time.Hour+time.Minute), nil)
		mockProvider.On("FetchRate", ctx, entity.USD, entity.INR).Return(86.2, nil)
		mockRepo.On("UpsertRate", ctx, mock.MatchedBy(func(r entity.ExchangeRate) bool {
			return r.BaseCurrency == entity.USD && r.TargetCurrency == entity.INR && r.Rate == 86.2
		})).Return(nil)

		rate := service.Resolve(ctx, entity.USD, entity.INR)
		assert.Equal(t, 86.2, rate)
		mockProvider.AssertExpectations(t)
		mockRepo.AssertExpectations(t)
	})
}

func TestResolve_FetchPersistsAndReturns(t *testing.T) {
	ctx := context.Background()
	service, mockProvider, mockRepo, _, _ := setupTestService()

	mockRepo.On("GetRate", ctx, entity.EUR, entity.INR).Return(nil, postgres.ErrNotFound)
	mockProvider.On("FetchRate", ctx, entity.EUR, entity.INR).Return(92.3, nil)
	mockRepo.On("UpsertRate", ctx, mock.MatchedBy(func(r entity.ExchangeRate) bool {
		return r.Rate == 92.3 && r.Valid()
	})).Return(nil)

	rate := service.Resolve(ctx, entity.EUR, entity.INR)
	assert.Equal(t, 92.3, rate)

	mockProvider.AssertExpectations(t)
	mockRepo.AssertExpectations(t)
}

func TestResolve_UpsertFailureDoesNotFailResolution(t *testing.T) {
	ctx := context.Background()
	service, mockProvider, mockRepo, _, _ := setupTestService()

	mockRepo.On("GetRate", ctx, entity.EUR, entity.INR).Return(nil, postgres.ErrNotFound)
	mockProvider.On("FetchRate", ctx, entity.EUR, entity.INR).Return(92.3, nil)
	mockRepo.On("UpsertRate", ctx, mock.Anything).Return(errors.New("connection refused"))

	rate := service.Resolve(ctx, entity.EUR, entity.INR)
	assert.Equal(t, 92.3, rate)
}

func TestResolve_ProviderFailureFallsBackToStale(t *testing.T) {
	ctx := context.Background()
	service, mockProvider, mockRepo, _, _ := setupTestService()

	mockRepo.On("GetRate", ctx, entity.USD, entity.INR).
		Return(storedRate(entity.USD, entity.INR, 84.1, 48*time.Hour), nil)
	mockProvider.On("FetchRate", ctx, entity.USD, entity.INR).
		Return(0.0, errors.New("provider unavailable"))

	rate := service.Resolve(ctx, entity.USD, entity.INR)
	assert.Equal(t, 84.1, rate)

	// a stale rate is served as-is, never re-persisted
	mockRepo.AssertNotCalled(t, "UpsertRate", mock.Anything, mock.Anything)
}

func TestResolve_ProviderFailureFallsBackToStaticTable(t *testing.T) {
	ctx := context.Background()
	service, mockProvider, mockRepo, _, _ := setupTestService()

	mockRepo.On("GetRate", ctx, entity.USD, entity.EUR).Return(nil, postgres.ErrNotFound)
	mockProvider.On("FetchRate", ctx, entity.USD, entity.EUR).
		Return(0.0, errors.New("provider unavailable"))

	rate := service.Resolve(ctx, entity.USD, entity.EUR)
	assert.Equal(t, 0.85, rate)

	// approximations are not persisted
	mockRepo.AssertNotCalled(t, "UpsertRate", mock.Anything, mock.Anything)
}

func TestResolve_FullFailureDegradesToIdentity(t *testing.T) {
	ctx := context.Background()
	service, mockProvider, mockRepo, _, hook := setupTestService()

	from := entity.CurrencyCode("XXX")
	to := entity.CurrencyCode("YYY")

	mockRepo.On("GetRate", ctx, from, to).Return(nil, postgres.ErrNotFound)
	mockProvider.On("FetchRate", ctx, from, to).
		Return(0.0, errors.New("provider unavailable"))

	rate := service.Resolve(ctx, from, to)
	assert.Equal(t, 1.0, rate)

	// degradation is silent to the caller but visible in the logs
	found := false
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel && e.Message == "No rate available for XXX/YYY, degrading to identity" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestResolve_RepoErrorStillFetches(t *testing.T) {
	ctx := context.Background()
	service, mockProvider, mockRepo, _, _ := setupTestService()

	mockRepo.On("GetRate", ctx, entity.GBP, entity.INR).
		Return(nil, errors.New("connection refused"))
	mockProvider.On("FetchRate", ctx, entity.GBP, entity.INR).Return(104.7, nil)
	mockRepo.On("UpsertRate", ctx, mock.Anything).Return(nil)

	rate := service.Resolve(ctx, entity.GBP, entity.INR)
	assert.Equal(t, 104.7, rate)
}

func TestRefreshRates(t *testing.T) {
	ctx := context.Background()
	service, mockProvider, mockRepo, _, _ := setupTestService()

	for _, source := range entity.SupportedCurrencies() {
		if source == entity.INR {
			continue
		}
		mockProvider.On("FetchRate", ctx, source, entity.INR).Return(10.0, nil)
	}
	mockRepo.On("UpsertRate", ctx, mock.Anything).Return(nil).Times(4)

	err := service.RefreshRates(ctx, entity.INR)
	assert.NoError(t, err)

	mockProvider.AssertExpectations(t)
	mockRepo.AssertExpectations(t)

	// the identity pair is never fetched
	mockProvider.AssertNotCalled(t, "FetchRate", ctx, entity.INR, entity.INR)
}

func TestRefreshRates_PartialFailure(t *testing.T) {
	ctx := context.Background()
	service, mockProvider, mockRepo, _, _ := setupTestService()

	mockProvider.On("FetchRate", ctx, entity.USD, entity.INR).Return(83.2, nil)
	mockProvider.On("FetchRate", ctx, entity.EUR, entity.INR).
		Return(0.0, errors.New("provider unavailable"))
	mockProvider.On("FetchRate", ctx, entity.GBP, entity.INR).Return(104.7, nil)
	mockProvider.On("FetchRate", ctx, entity.JPY, entity.INR).Return(0.55, nil)
	mockRepo.On("UpsertRate", ctx, mock.Anything).Return(nil)

	err := service.RefreshRates(ctx, entity.INR)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "fetch EUR/INR")

	// the failed pair must not block the others
	mockRepo.AssertNumberOfCalls(t, "UpsertRate", 3)
}
