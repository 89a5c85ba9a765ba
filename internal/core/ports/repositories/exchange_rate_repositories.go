package repositories

import (
	"context"
	"time"

	"github.com/fintrack-app/fintrack_backend/internal/core/domain"
)

// ExchangeRateReader defines read operations for exchange rate data
type ExchangeRateReader interface {
	// FindLatestRate retrieves the most recent rate between two currencies.
	// The lookup is inverse-aware: when only the reverse direction is stored
	// the returned rate is the inverted ratio.
	FindLatestRate(ctx context.Context, fromCurrencyCode, toCurrencyCode string) (*domain.ExchangeRate, error)

	// ListRates returns the stored history for a pair, oldest first,
	// optionally bounded by fromDate/toDate (inclusive).
	ListRates(ctx context.Context, fromCurrencyCode, toCurrencyCode string, fromDate, toDate *time.Time) ([]domain.ExchangeRate, error)

	// HasRateSince reports whether any rate row exists dated on or after cutoff.
	HasRateSince(ctx context.Context, cutoff time.Time) (bool, error)

	// CoverageFloor returns the earliest stored date for a pair, in the
	// canonical direction only. Returns apperrors.ErrNotFound when the pair
	// has no rows at all.
	CoverageFloor(ctx context.Context, fromCurrencyCode, toCurrencyCode string) (time.Time, error)
}

// ExchangeRateWriter defines write operations for exchange rate data
type ExchangeRateWriter interface {
	// SaveRate upserts one rate keyed on (from, to, date_effective).
	SaveRate(ctx context.Context, rate domain.ExchangeRate) error

	// SaveRatesBatch upserts many rates in fixed-size batches inside one
	// transaction. Repeated calls over overlapping ranges are idempotent.
	SaveRatesBatch(ctx context.Context, rates []domain.ExchangeRate) error
}

// ExchangeRateRepositoryFacade combines all exchange rate-related repository interfaces
type ExchangeRateRepositoryFacade interface {
	ExchangeRateReader
	ExchangeRateWriter
}
