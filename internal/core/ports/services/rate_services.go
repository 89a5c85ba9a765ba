package services

import (
	"context"
	"time"

	"github.com/fintrack-app/fintrack_backend/internal/core/domain"
)

// ExchangeRateReaderSvc exposes the simple read paths over stored rates.
type ExchangeRateReaderSvc interface {
	// GetLatestRate returns the most recent rate for a pair, inverting the
	// stored ratio when only the reverse direction exists.
	GetLatestRate(ctx context.Context, fromCurrencyCode, toCurrencyCode string) (*domain.ExchangeRate, error)

	// ListRateHistory returns the stored daily history for a pair, oldest first.
	ListRateHistory(ctx context.Context, fromCurrencyCode, toCurrencyCode string, fromDate, toDate *time.Time) ([]domain.ExchangeRate, error)
}

// RateRefreshSvc refreshes the current spot rate for every in-use pair.
type RateRefreshSvc interface {
	RefreshAllRates(ctx context.Context) (*domain.RefreshSummary, error)
}

// RateBackfillSvc populates historical daily rates for one user's currencies.
// An empty accountIDs slice means all the user's open accounts.
type RateBackfillSvc interface {
	BackfillHistoricalRates(ctx context.Context, userID string, accountIDs []string) (*domain.BackfillSummary, error)
}

// ExchangeRateSvcFacade combines the rate read and sync surfaces.
type ExchangeRateSvcFacade interface {
	ExchangeRateReaderSvc
	RateRefreshSvc
	RateBackfillSvc
}
