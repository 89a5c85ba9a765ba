package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fintrack-app/fintrack_backend/internal/apperrors"
	"github.com/fintrack-app/fintrack_backend/internal/core/domain"
	portsrepo "github.com/fintrack-app/fintrack_backend/internal/core/ports/repositories"
)

// RateQueryService serves the simple read paths over stored rates.
type RateQueryService struct {
	BaseService
	rateRepo portsrepo.ExchangeRateReader
}

// NewRateQueryService creates a new RateQueryService.
func NewRateQueryService(rateRepo portsrepo.ExchangeRateReader) *RateQueryService {
	return &RateQueryService{rateRepo: rateRepo}
}

// GetLatestRate retrieves the most recent exchange rate for a currency pair.
// The repository handles inverse-direction lookups, so callers can query in
// either direction.
func (s *RateQueryService) GetLatestRate(ctx context.Context, fromCurrencyCode, toCurrencyCode string) (*domain.ExchangeRate, error) {
	fromCurrencyCode = strings.ToUpper(fromCurrencyCode)
	toCurrencyCode = strings.ToUpper(toCurrencyCode)
	if len(fromCurrencyCode) != 3 || len(toCurrencyCode) != 3 {
		return nil, fmt.Errorf("%w: currency codes must be 3 letters", apperrors.ErrValidation)
	}

	rate, err := s.rateRepo.FindLatestRate(ctx, fromCurrencyCode, toCurrencyCode)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest exchange rate in service: %w", err)
	}
	return rate, nil
}

// ListRateHistory returns the stored daily history for a pair, oldest first.
func (s *RateQueryService) ListRateHistory(ctx context.Context, fromCurrencyCode, toCurrencyCode string, fromDate, toDate *time.Time) ([]domain.ExchangeRate, error) {
	fromCurrencyCode = strings.ToUpper(fromCurrencyCode)
	toCurrencyCode = strings.ToUpper(toCurrencyCode)
	if len(fromCurrencyCode) != 3 || len(toCurrencyCode) != 3 {
		return nil, fmt.Errorf("%w: currency codes must be 3 letters", apperrors.ErrValidation)
	}

	rates, err := s.rateRepo.ListRates(ctx, fromCurrencyCode, toCurrencyCode, fromDate, toDate)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchange rate history in service: %w", err)
	}
	if rates == nil {
		return []domain.ExchangeRate{}, nil
	}
	return rates, nil
}
