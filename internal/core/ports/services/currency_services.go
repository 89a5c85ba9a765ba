package services

import (
	"context"

	"github.com/fintrack-app/fintrack_backend/internal/core/domain"
)

// CurrencySvcFacade exposes read access to currency reference data.
type CurrencySvcFacade interface {
	GetCurrencyByCode(ctx context.Context, currencyCode string) (*domain.Currency, error)
	ListCurrencies(ctx context.Context) ([]domain.Currency, error)
}
