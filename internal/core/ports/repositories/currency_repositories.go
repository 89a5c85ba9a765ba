package repositories

import (
	"context"

	"github.com/fintrack-app/fintrack_backend/internal/core/domain"
)

// CurrencyReader defines read operations for currency reference data.
// Currency maintenance happens outside this service; the core only reads.
type CurrencyReader interface {
	// FindCurrencyByCode retrieves a currency by its 3-letter code.
	FindCurrencyByCode(ctx context.Context, currencyCode string) (*domain.Currency, error)

	// ListCurrencies returns all active currencies.
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)
}

// UserReader defines read operations for user preference data.
type UserReader interface {
	// FindUserByID retrieves a user, including the default currency code.
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)
}
