package providers

import (
	"context"

	"github.com/fintrack-app/fintrack_backend/internal/core/domain"
)

// QuoteProvider is the external quote source consumed by the rate engines.
// Both methods return (nil, nil) when the provider has no data for the pair;
// the engines record that as a per-pair failure rather than an error.
type QuoteProvider interface {
	// FetchSpot returns the current rate for from -> to, or nil when absent.
	FetchSpot(ctx context.Context, fromCurrency, toCurrency string) (*domain.SpotQuote, error)

	// FetchDailyHistory returns the full daily close series for from -> to.
	// A nil series means the provider had nothing for the pair; an empty
	// non-nil series is a valid result with zero quotes.
	FetchDailyHistory(ctx context.Context, fromCurrency, toCurrency string) ([]domain.DailyQuote, error)

	// Name identifies the provider for rate provenance.
	Name() string
}
