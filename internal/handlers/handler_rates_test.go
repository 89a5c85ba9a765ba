package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fintrack-app/fintrack_backend/internal/apperrors"
	"github.com/fintrack-app/fintrack_backend/internal/core/domain"
	portssvc "github.com/fintrack-app/fintrack_backend/internal/core/ports/services"
	"github.com/fintrack-app/fintrack_backend/internal/dto"
	"github.com/fintrack-app/fintrack_backend/internal/handlers"
	"github.com/fintrack-app/fintrack_backend/internal/platform/config"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// --- Mock ExchangeRateService ---
type MockExchangeRateService struct {
	mock.Mock
}

func (m *MockExchangeRateService) GetLatestRate(ctx context.Context, fromCurrencyCode, toCurrencyCode string) (*domain.ExchangeRate, error) {
	args := m.Called(ctx, fromCurrencyCode, toCurrencyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExchangeRate), args.Error(1)
}

func (m *MockExchangeRateService) ListRateHistory(ctx context.Context, fromCurrencyCode, toCurrencyCode string, fromDate, toDate *time.Time) ([]domain.ExchangeRate, error) {
	args := m.Called(ctx, fromCurrencyCode, toCurrencyCode, fromDate, toDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExchangeRate), args.Error(1)
}

func (m *MockExchangeRateService) RefreshAllRates(ctx context.Context) (*domain.RefreshSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshSummary), args.Error(1)
}

func (m *MockExchangeRateService) BackfillHistoricalRates(ctx context.Context, userID string, accountIDs []string) (*domain.BackfillSummary, error) {
	args := m.Called(ctx, userID, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BackfillSummary), args.Error(1)
}

var _ portssvc.ExchangeRateSvcFacade = (*MockExchangeRateService)(nil)

// --- Mock CurrencyService ---
type MockCurrencyService struct {
	mock.Mock
}

func (m *MockCurrencyService) GetCurrencyByCode(ctx context.Context, currencyCode string) (*domain.Currency, error) {
	args := m.Called(ctx, currencyCode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Currency), args.Error(1)
}

func (m *MockCurrencyService) ListCurrencies(ctx context.Context) ([]domain.Currency, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Currency), args.Error(1)
}

var _ portssvc.CurrencySvcFacade = (*MockCurrencyService)(nil)

// --- Test Suite ---
type RateHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockRateSvc  *MockExchangeRateService
	mockCurrency *MockCurrencyService
}

func (suite *RateHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	suite.mockRateSvc = new(MockExchangeRateService)
	suite.mockCurrency = new(MockCurrencyService)

	cfg := &config.Config{
		Port:             "8080",
		TriggerRateLimit: "100-M",
	}
	container := &portssvc.ServiceContainer{
		Currency:     suite.mockCurrency,
		ExchangeRate: suite.mockRateSvc,
	}

	suite.router = gin.New()
	handlers.RegisterRoutes(suite.router, cfg, container)
}

func (suite *RateHandlerTestSuite) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)
	return w
}

func (suite *RateHandlerTestSuite) TestGetLatestRate_Success() {
	rate := &domain.ExchangeRate{
		ExchangeRateID:   uuid.NewString(),
		FromCurrencyCode: "EUR",
		ToCurrencyCode:   "USD",
		Rate:             decimal.NewFromFloat(1.08),
		DateEffective:    time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Source:           "eodhd",
	}
	suite.mockRateSvc.On("GetLatestRate", mock.Anything, "EUR", "USD").Return(rate, nil).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/rates/latest?from=EUR&to=USD", nil)
	w := suite.serve(req)

	suite.Equal(http.StatusOK, w.Code)

	var resp dto.ExchangeRateResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal("EUR", resp.FromCurrencyCode)
	suite.Equal("USD", resp.ToCurrencyCode)
	suite.True(resp.Rate.Equal(decimal.NewFromFloat(1.08)))
	suite.Equal("eodhd", resp.Source)

	suite.mockRateSvc.AssertExpectations(suite.T())
}

func (suite *RateHandlerTestSuite) TestGetLatestRate_MissingParams() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/rates/latest?from=EUR", nil)
	w := suite.serve(req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockRateSvc.AssertNotCalled(suite.T(), "GetLatestRate", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RateHandlerTestSuite) TestGetLatestRate_RejectsBadCurrencyCode() {
	req, _ := http.NewRequest(http.MethodGet, "/api/v1/rates/latest?from=EURO&to=USD", nil)
	w := suite.serve(req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockRateSvc.AssertNotCalled(suite.T(), "GetLatestRate", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RateHandlerTestSuite) TestGetLatestRate_NotFound() {
	suite.mockRateSvc.On("GetLatestRate", mock.Anything, "EUR", "XDR").
		Return(nil, apperrors.NewNotFoundError("no exchange rate found")).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/rates/latest?from=EUR&to=XDR", nil)
	w := suite.serve(req)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *RateHandlerTestSuite) TestGetRateHistory_Success() {
	history := []domain.ExchangeRate{
		{FromCurrencyCode: "EUR", ToCurrencyCode: "USD", Rate: decimal.NewFromFloat(1.07)},
		{FromCurrencyCode: "EUR", ToCurrencyCode: "USD", Rate: decimal.NewFromFloat(1.08)},
	}
	fromDate := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	suite.mockRateSvc.On("ListRateHistory", mock.Anything, "EUR", "USD", &fromDate, (*time.Time)(nil)).
		Return(history, nil).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/rates/history?from=EUR&to=USD&fromDate=2024-01-01", nil)
	w := suite.serve(req)

	suite.Equal(http.StatusOK, w.Code)

	var resp []dto.ExchangeRateResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp, 2)
}

func (suite *RateHandlerTestSuite) TestRefreshRates_Success() {
	summary := &domain.RefreshSummary{
		TotalPairs: 3,
		Updated:    2,
		Failed:     1,
		Results: []domain.PairRefreshResult{
			{Pair: domain.CurrencyPair{From: "EUR", To: "USD"}, Success: true, Rate: decimal.NewFromFloat(1.08)},
			{Pair: domain.CurrencyPair{From: "EUR", To: "GBP"}, Success: true, Rate: decimal.NewFromFloat(0.85)},
			{Pair: domain.CurrencyPair{From: "GBP", To: "USD"}, Error: "no quote available"},
		},
		CompletedAt: time.Date(2024, 3, 15, 17, 0, 0, 0, time.UTC),
	}
	suite.mockRateSvc.On("RefreshAllRates", mock.Anything).Return(summary, nil).Once()

	req, _ := http.NewRequest(http.MethodPost, "/api/v1/rates/refresh", nil)
	w := suite.serve(req)

	suite.Equal(http.StatusOK, w.Code)

	var resp dto.RefreshSummaryResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(3, resp.TotalPairs)
	suite.Equal(2, resp.Updated)
	suite.Equal(1, resp.Failed)
	suite.Equal("EUR/USD", resp.Results[0].Pair)
}

func (suite *RateHandlerTestSuite) TestBackfillRates_Success() {
	userID := uuid.NewString()
	summary := &domain.BackfillSummary{
		TotalPairs:       1,
		Successful:       1,
		TotalRatesLoaded: 250,
		Results: []domain.PairBackfillResult{
			{Pair: domain.CurrencyPair{From: "EUR", To: "USD"}, Success: true, RatesLoaded: 250},
		},
	}
	suite.mockRateSvc.On("BackfillHistoricalRates", mock.Anything, userID, []string(nil)).
		Return(summary, nil).Once()

	body, _ := json.Marshal(dto.BackfillRequest{UserID: userID})
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/rates/backfill", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := suite.serve(req)

	suite.Equal(http.StatusOK, w.Code)

	var resp dto.BackfillSummaryResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Equal(1, resp.TotalPairs)
	suite.Equal(250, resp.TotalRatesLoaded)
}

func (suite *RateHandlerTestSuite) TestBackfillRates_MissingUserID() {
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/rates/backfill", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	w := suite.serve(req)

	suite.Equal(http.StatusBadRequest, w.Code)
	suite.mockRateSvc.AssertNotCalled(suite.T(), "BackfillHistoricalRates", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *RateHandlerTestSuite) TestBackfillRates_UnknownUser() {
	userID := uuid.NewString()
	suite.mockRateSvc.On("BackfillHistoricalRates", mock.Anything, userID, []string(nil)).
		Return(nil, apperrors.NewNotFoundError("user not found")).Once()

	body, _ := json.Marshal(dto.BackfillRequest{UserID: userID})
	req, _ := http.NewRequest(http.MethodPost, "/api/v1/rates/backfill", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := suite.serve(req)

	suite.Equal(http.StatusNotFound, w.Code)
}

func (suite *RateHandlerTestSuite) TestListCurrencies_Success() {
	currencies := []domain.Currency{
		{CurrencyCode: "USD", Symbol: "$", Name: "US Dollar", DecimalPlaces: 2, IsActive: true},
		{CurrencyCode: "EUR", Symbol: "€", Name: "Euro", DecimalPlaces: 2, IsActive: true},
	}
	suite.mockCurrency.On("ListCurrencies", mock.Anything).Return(currencies, nil).Once()

	req, _ := http.NewRequest(http.MethodGet, "/api/v1/currencies", nil)
	w := suite.serve(req)

	suite.Equal(http.StatusOK, w.Code)

	var resp []dto.CurrencyResponse
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	suite.Len(resp, 2)
	suite.Equal("USD", resp[0].CurrencyCode)
}

func (suite *RateHandlerTestSuite) TestHealthCheck() {
	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	w := suite.serve(req)

	suite.Equal(http.StatusOK, w.Code)
	suite.Equal("OK", w.Body.String())
}

func TestRateHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(RateHandlerTestSuite))
}
