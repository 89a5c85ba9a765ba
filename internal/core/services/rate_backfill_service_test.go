package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fintrack-app/fintrack_backend/internal/apperrors"
	"github.com/fintrack-app/fintrack_backend/internal/core/domain"
	"github.com/fintrack-app/fintrack_backend/internal/core/services"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock UserReader ---
type MockUserReader struct {
	mock.Mock
}

func (m *MockUserReader) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// --- Test Suite ---
type RateBackfillServiceTestSuite struct {
	suite.Suite
	mockUsageRepo *MockCurrencyUsageReader
	mockRateRepo  *MockExchangeRateRepository
	mockUserRepo  *MockUserReader
	mockProvider  *MockQuoteProvider
	clock         fixedClock
	service       *services.RateBackfillService
	userID        string
}

func (suite *RateBackfillServiceTestSuite) SetupTest() {
	suite.mockUsageRepo = new(MockCurrencyUsageReader)
	suite.mockRateRepo = new(MockExchangeRateRepository)
	suite.mockUserRepo = new(MockUserReader)
	suite.mockProvider = new(MockQuoteProvider)
	suite.clock = fixedClock{now: time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)}
	suite.userID = uuid.NewString()
	suite.service = services.NewRateBackfillService(
		suite.mockUsageRepo,
		suite.mockRateRepo,
		suite.mockUserRepo,
		suite.mockProvider,
		"USD",
		services.WithBackfillClock(suite.clock),
		services.WithPacing(0),
	)
}

func (suite *RateBackfillServiceTestSuite) expectUser(defaultCurrency string) {
	suite.mockUserRepo.On("FindUserByID", mock.Anything, suite.userID).
		Return(&domain.User{UserID: suite.userID, Name: "Test User", DefaultCurrencyCode: defaultCurrency}, nil).Once()
}

func civil(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func (suite *RateBackfillServiceTestSuite) TestBackfill_Success() {
	ctx := context.Background()
	suite.expectUser("USD")

	cutoff := civil(2023, 6, 1)
	suite.mockUsageRepo.On("NonDefaultCurrenciesWithEarliestDates", ctx, suite.userID, "USD", []string(nil)).
		Return(map[string]time.Time{"EUR": cutoff}, nil).Once()

	// No coverage yet.
	suite.mockRateRepo.On("CoverageFloor", ctx, "EUR", "USD").
		Return(time.Time{}, apperrors.NewNotFoundError("no rows")).Once()

	series := []domain.DailyQuote{
		{Date: civil(2023, 6, 1), Close: decimal.NewFromFloat(1.07)},
		{Date: civil(2023, 6, 2), Close: decimal.NewFromFloat(1.08)},
		{Date: civil(2023, 6, 5), Close: decimal.NewFromFloat(1.09)},
	}
	suite.mockProvider.On("FetchDailyHistory", ctx, "EUR", "USD").Return(series, nil).Once()

	var saved []domain.ExchangeRate
	suite.mockRateRepo.On("SaveRatesBatch", ctx, mock.AnythingOfType("[]domain.ExchangeRate")).
		Run(func(args mock.Arguments) { saved = args.Get(1).([]domain.ExchangeRate) }).
		Return(nil).Once()

	summary, err := suite.service.BackfillHistoricalRates(ctx, suite.userID, nil)

	suite.Require().NoError(err)
	suite.Equal(1, summary.TotalPairs)
	suite.Equal(1, summary.Successful)
	suite.Equal(0, summary.Failed)
	suite.Equal(3, summary.TotalRatesLoaded)

	suite.Require().Len(saved, 3)
	for _, rate := range saved {
		suite.Equal("EUR", rate.FromCurrencyCode)
		suite.Equal("USD", rate.ToCurrencyCode)
		suite.Equal("test-provider", rate.Source)
		suite.Equal(services.SystemActor, rate.CreatedBy)
	}

	suite.mockRateRepo.AssertExpectations(suite.T())
	suite.mockProvider.AssertExpectations(suite.T())
}

func (suite *RateBackfillServiceTestSuite) TestBackfill_CutoffFilterAndDedupe() {
	ctx := context.Background()
	suite.expectUser("USD")

	cutoff := civil(2023, 6, 3)
	suite.mockUsageRepo.On("NonDefaultCurrenciesWithEarliestDates", ctx, suite.userID, "USD", []string(nil)).
		Return(map[string]time.Time{"EUR": cutoff}, nil).Once()
	suite.mockRateRepo.On("CoverageFloor", ctx, "EUR", "USD").
		Return(time.Time{}, apperrors.NewNotFoundError("no rows")).Once()

	series := []domain.DailyQuote{
		{Date: civil(2023, 6, 1), Close: decimal.NewFromFloat(1.01)}, // before cutoff, dropped
		{Date: civil(2023, 6, 3), Close: decimal.NewFromFloat(1.03)},
		{Date: civil(2023, 6, 3), Close: decimal.NewFromFloat(9.99)}, // duplicate date, dropped
		{Date: civil(2023, 6, 4), Close: decimal.NewFromFloat(1.04)},
	}
	suite.mockProvider.On("FetchDailyHistory", ctx, "EUR", "USD").Return(series, nil).Once()

	var saved []domain.ExchangeRate
	suite.mockRateRepo.On("SaveRatesBatch", ctx, mock.AnythingOfType("[]domain.ExchangeRate")).
		Run(func(args mock.Arguments) { saved = args.Get(1).([]domain.ExchangeRate) }).
		Return(nil).Once()

	summary, err := suite.service.BackfillHistoricalRates(ctx, suite.userID, nil)

	suite.Require().NoError(err)
	suite.Equal(2, summary.TotalRatesLoaded)
	suite.Require().Len(saved, 2)
	// First-seen close wins for the duplicated date.
	suite.True(saved[0].Rate.Equal(decimal.NewFromFloat(1.03)))
	suite.Equal(civil(2023, 6, 3), saved[0].DateEffective)
	suite.Equal(civil(2023, 6, 4), saved[1].DateEffective)
}

func (suite *RateBackfillServiceTestSuite) TestBackfill_SkipsCoveredPair() {
	ctx := context.Background()
	suite.expectUser("USD")

	cutoff := civil(2023, 6, 1)
	suite.mockUsageRepo.On("NonDefaultCurrenciesWithEarliestDates", ctx, suite.userID, "USD", []string(nil)).
		Return(map[string]time.Time{"EUR": cutoff}, nil).Once()

	// Stored coverage already reaches past the cutoff.
	suite.mockRateRepo.On("CoverageFloor", ctx, "EUR", "USD").
		Return(civil(2023, 5, 1), nil).Once()

	summary, err := suite.service.BackfillHistoricalRates(ctx, suite.userID, nil)

	suite.Require().NoError(err)
	suite.Equal(1, summary.Successful)
	suite.Equal(0, summary.TotalRatesLoaded)
	suite.Require().Len(summary.Results, 1)
	suite.True(summary.Results[0].Skipped)

	suite.mockProvider.AssertNotCalled(suite.T(), "FetchDailyHistory", mock.Anything, mock.Anything, mock.Anything)
	suite.mockRateRepo.AssertNotCalled(suite.T(), "SaveRatesBatch", mock.Anything, mock.Anything)
}

func (suite *RateBackfillServiceTestSuite) TestBackfill_RefetchesWhenCoverageShort() {
	ctx := context.Background()
	suite.expectUser("USD")

	cutoff := civil(2023, 1, 1)
	suite.mockUsageRepo.On("NonDefaultCurrenciesWithEarliestDates", ctx, suite.userID, "USD", []string(nil)).
		Return(map[string]time.Time{"EUR": cutoff}, nil).Once()

	// Coverage starts after the cutoff, so the pair still needs a fetch.
	suite.mockRateRepo.On("CoverageFloor", ctx, "EUR", "USD").
		Return(civil(2023, 6, 1), nil).Once()
	suite.mockProvider.On("FetchDailyHistory", ctx, "EUR", "USD").
		Return([]domain.DailyQuote{{Date: civil(2023, 1, 2), Close: decimal.NewFromFloat(1.05)}}, nil).Once()
	suite.mockRateRepo.On("SaveRatesBatch", ctx, mock.AnythingOfType("[]domain.ExchangeRate")).Return(nil).Once()

	summary, err := suite.service.BackfillHistoricalRates(ctx, suite.userID, nil)

	suite.Require().NoError(err)
	suite.Equal(1, summary.Successful)
	suite.Equal(1, summary.TotalRatesLoaded)
	suite.False(summary.Results[0].Skipped)
}

func (suite *RateBackfillServiceTestSuite) TestBackfill_CanonicalDirection() {
	ctx := context.Background()
	// User's default sorts after the foreign currency, so the stored
	// direction flips to keep one direction per pair.
	suite.expectUser("USD")

	cutoff := civil(2023, 6, 1)
	suite.mockUsageRepo.On("NonDefaultCurrenciesWithEarliestDates", ctx, suite.userID, "USD", []string(nil)).
		Return(map[string]time.Time{"CHF": cutoff}, nil).Once()
	suite.mockRateRepo.On("CoverageFloor", ctx, "CHF", "USD").
		Return(time.Time{}, apperrors.NewNotFoundError("no rows")).Once()
	suite.mockProvider.On("FetchDailyHistory", ctx, "CHF", "USD").
		Return([]domain.DailyQuote{{Date: civil(2023, 6, 2), Close: decimal.NewFromFloat(1.12)}}, nil).Once()
	suite.mockRateRepo.On("SaveRatesBatch", ctx, mock.AnythingOfType("[]domain.ExchangeRate")).Return(nil).Once()

	summary, err := suite.service.BackfillHistoricalRates(ctx, suite.userID, nil)

	suite.Require().NoError(err)
	suite.Equal("CHF/USD", summary.Results[0].Pair.Symbol())
}

func (suite *RateBackfillServiceTestSuite) TestBackfill_AbsentSeriesIsFailure() {
	ctx := context.Background()
	suite.expectUser("USD")

	suite.mockUsageRepo.On("NonDefaultCurrenciesWithEarliestDates", ctx, suite.userID, "USD", []string(nil)).
		Return(map[string]time.Time{"EUR": civil(2023, 6, 1)}, nil).Once()
	suite.mockRateRepo.On("CoverageFloor", ctx, "EUR", "USD").
		Return(time.Time{}, apperrors.NewNotFoundError("no rows")).Once()
	suite.mockProvider.On("FetchDailyHistory", ctx, "EUR", "USD").Return(nil, nil).Once()

	summary, err := suite.service.BackfillHistoricalRates(ctx, suite.userID, nil)

	suite.Require().NoError(err)
	suite.Equal(1, summary.Failed)
	suite.Equal("no historical data available", summary.Results[0].Error)
	suite.mockRateRepo.AssertNotCalled(suite.T(), "SaveRatesBatch", mock.Anything, mock.Anything)
}

func (suite *RateBackfillServiceTestSuite) TestBackfill_EmptySeriesIsSuccess() {
	ctx := context.Background()
	suite.expectUser("USD")

	suite.mockUsageRepo.On("NonDefaultCurrenciesWithEarliestDates", ctx, suite.userID, "USD", []string(nil)).
		Return(map[string]time.Time{"EUR": civil(2023, 6, 1)}, nil).Once()
	suite.mockRateRepo.On("CoverageFloor", ctx, "EUR", "USD").
		Return(time.Time{}, apperrors.NewNotFoundError("no rows")).Once()
	suite.mockProvider.On("FetchDailyHistory", ctx, "EUR", "USD").
		Return([]domain.DailyQuote{}, nil).Once()
	suite.mockRateRepo.On("SaveRatesBatch", ctx, mock.AnythingOfType("[]domain.ExchangeRate")).Return(nil).Once()

	summary, err := suite.service.BackfillHistoricalRates(ctx, suite.userID, nil)

	suite.Require().NoError(err)
	suite.Equal(1, summary.Successful)
	suite.Equal(0, summary.TotalRatesLoaded)
}

func (suite *RateBackfillServiceTestSuite) TestBackfill_NothingToBackfill() {
	ctx := context.Background()
	suite.expectUser("USD")

	suite.mockUsageRepo.On("NonDefaultCurrenciesWithEarliestDates", ctx, suite.userID, "USD", []string(nil)).
		Return(map[string]time.Time{}, nil).Once()

	summary, err := suite.service.BackfillHistoricalRates(ctx, suite.userID, nil)

	suite.Require().NoError(err)
	suite.Equal(0, summary.TotalPairs)
	suite.NotNil(summary.Results)
	suite.Empty(summary.Results)
	suite.mockProvider.AssertNotCalled(suite.T(), "FetchDailyHistory", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RateBackfillServiceTestSuite) TestBackfill_DefaultCurrencyFallback() {
	ctx := context.Background()
	// User has no default currency configured; the configured fallback applies.
	suite.expectUser("")

	suite.mockUsageRepo.On("NonDefaultCurrenciesWithEarliestDates", ctx, suite.userID, "USD", []string(nil)).
		Return(map[string]time.Time{}, nil).Once()

	_, err := suite.service.BackfillHistoricalRates(ctx, suite.userID, nil)

	suite.Require().NoError(err)
	suite.mockUsageRepo.AssertExpectations(suite.T())
}

func (suite *RateBackfillServiceTestSuite) TestBackfill_UserNotFound() {
	ctx := context.Background()

	suite.mockUserRepo.On("FindUserByID", mock.Anything, suite.userID).
		Return(nil, apperrors.NewNotFoundError("user not found")).Once()

	summary, err := suite.service.BackfillHistoricalRates(ctx, suite.userID, nil)

	suite.Require().Error(err)
	suite.Nil(summary)
	suite.True(errors.Is(err, apperrors.ErrNotFound))
}

func (suite *RateBackfillServiceTestSuite) TestBackfill_PartialFailureAcrossPairs() {
	ctx := context.Background()
	suite.expectUser("USD")

	cutoff := civil(2023, 6, 1)
	suite.mockUsageRepo.On("NonDefaultCurrenciesWithEarliestDates", ctx, suite.userID, "USD", []string(nil)).
		Return(map[string]time.Time{"EUR": cutoff, "GBP": cutoff}, nil).Once()

	suite.mockRateRepo.On("CoverageFloor", ctx, "EUR", "USD").
		Return(time.Time{}, apperrors.NewNotFoundError("no rows")).Once()
	suite.mockRateRepo.On("CoverageFloor", ctx, "GBP", "USD").
		Return(time.Time{}, apperrors.NewNotFoundError("no rows")).Once()

	suite.mockProvider.On("FetchDailyHistory", ctx, "EUR", "USD").
		Return(nil, errors.New("rate limited")).Once()
	suite.mockProvider.On("FetchDailyHistory", ctx, "GBP", "USD").
		Return([]domain.DailyQuote{{Date: civil(2023, 6, 2), Close: decimal.NewFromFloat(1.27)}}, nil).Once()
	suite.mockRateRepo.On("SaveRatesBatch", ctx, mock.AnythingOfType("[]domain.ExchangeRate")).Return(nil).Once()

	summary, err := suite.service.BackfillHistoricalRates(ctx, suite.userID, nil)

	suite.Require().NoError(err)
	suite.Equal(2, summary.TotalPairs)
	suite.Equal(1, summary.Successful)
	suite.Equal(1, summary.Failed)
	suite.Equal(1, summary.TotalRatesLoaded)
}

func TestRateBackfillServiceTestSuite(t *testing.T) {
	suite.Run(t, new(RateBackfillServiceTestSuite))
}
