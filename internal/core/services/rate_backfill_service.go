package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/fintrack-app/fintrack_backend/internal/apperrors"
	"github.com/fintrack-app/fintrack_backend/internal/core/domain"
	"github.com/fintrack-app/fintrack_backend/internal/core/ports/providers"
	portsrepo "github.com/fintrack-app/fintrack_backend/internal/core/ports/repositories"
	"github.com/google/uuid"
)

const defaultPacing = 500 * time.Millisecond

// RateBackfillService populates historical daily rates for a user's non-default
// currencies, from the earliest date each one needs coverage. Pairs are worked
// strictly one at a time with a pacing delay in between: the historical endpoint
// is heavier and more rate-limit-sensitive than spot quotes, so the engine
// trades throughput for provider compliance.
type RateBackfillService struct {
	BaseService
	usageRepo       portsrepo.CurrencyUsageReader
	rateRepo        portsrepo.ExchangeRateRepositoryFacade
	userRepo        portsrepo.UserReader
	provider        providers.QuoteProvider
	defaultCurrency string
	pacing          time.Duration
	clock           Clock
}

// BackfillOption customizes a RateBackfillService.
type BackfillOption func(*RateBackfillService)

// WithBackfillClock overrides the wall clock, mainly for tests.
func WithBackfillClock(clock Clock) BackfillOption {
	return func(s *RateBackfillService) { s.clock = clock }
}

// WithPacing overrides the delay between pair fetches.
func WithPacing(pacing time.Duration) BackfillOption {
	return func(s *RateBackfillService) { s.pacing = pacing }
}

// NewRateBackfillService creates a new RateBackfillService. defaultCurrency is
// the fallback used when a user has no default currency configured.
func NewRateBackfillService(
	usageRepo portsrepo.CurrencyUsageReader,
	rateRepo portsrepo.ExchangeRateRepositoryFacade,
	userRepo portsrepo.UserReader,
	provider providers.QuoteProvider,
	defaultCurrency string,
	opts ...BackfillOption,
) *RateBackfillService {
	s := &RateBackfillService{
		usageRepo:       usageRepo,
		rateRepo:        rateRepo,
		userRepo:        userRepo,
		provider:        provider,
		defaultCurrency: defaultCurrency,
		pacing:          defaultPacing,
		clock:           SystemClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BackfillHistoricalRates loads the daily rate history for every non-default
// currency the user needs, optionally scoped to specific accounts. Pairs whose
// stored coverage already reaches their cutoff date are skipped without a
// provider call. Per-pair failures are aggregated into the summary; only
// resolver-level failures are returned as errors.
func (s *RateBackfillService) BackfillHistoricalRates(ctx context.Context, userID string, accountIDs []string) (*domain.BackfillSummary, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user %s: %w", userID, err)
	}
	defaultCurrency := user.DefaultCurrencyCode
	if defaultCurrency == "" {
		defaultCurrency = s.defaultCurrency
	}

	cutoffs, err := s.usageRepo.NonDefaultCurrenciesWithEarliestDates(ctx, userID, defaultCurrency, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve backfill cutoffs for user %s: %w", userID, err)
	}
	if len(cutoffs) == 0 {
		s.LogInfo(ctx, "User is fully single-currency, nothing to backfill", slog.String("user_id", userID))
		return &domain.BackfillSummary{Results: []domain.PairBackfillResult{}}, nil
	}

	// Deterministic pair order across runs.
	currencies := make([]string, 0, len(cutoffs))
	for code := range cutoffs {
		currencies = append(currencies, code)
	}
	sort.Strings(currencies)

	summary := &domain.BackfillSummary{TotalPairs: len(currencies)}
	for i, currency := range currencies {
		result := s.backfillPair(ctx, defaultCurrency, currency, cutoffs[currency])

		summary.Results = append(summary.Results, result)
		if result.Success {
			summary.Successful++
			summary.TotalRatesLoaded += result.RatesLoaded
		} else {
			summary.Failed++
		}

		// Pace the provider's historical endpoint between pairs.
		if i < len(currencies)-1 {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			case <-time.After(s.pacing):
			}
		}
	}

	s.LogInfo(ctx, "Historical backfill completed",
		slog.String("user_id", userID),
		slog.Int("total_pairs", summary.TotalPairs),
		slog.Int("successful", summary.Successful),
		slog.Int("failed", summary.Failed),
		slog.Int("rates_loaded", summary.TotalRatesLoaded),
	)
	return summary, nil
}

// backfillPair loads the history for one pair from its cutoff date forward.
// The pair direction is canonicalized the same way the refresh pass does, so
// the store keeps a single direction per pair.
func (s *RateBackfillService) backfillPair(ctx context.Context, defaultCurrency, currency string, cutoff time.Time) domain.PairBackfillResult {
	pair := canonicalPair(defaultCurrency, currency)
	cutoff = CivilDate(cutoff)

	floor, err := s.rateRepo.CoverageFloor(ctx, pair.From, pair.To)
	switch {
	case err == nil && !floor.After(cutoff):
		// Coverage already reaches the cutoff; nothing to fetch.
		s.LogDebug(ctx, "Pair already backfilled", slog.String("pair", pair.Symbol()), slog.Time("coverage_floor", floor))
		return domain.PairBackfillResult{Pair: pair, Success: true, Skipped: true}
	case err != nil && !errors.Is(err, apperrors.ErrNotFound):
		return domain.PairBackfillResult{Pair: pair, Error: err.Error()}
	}

	series, err := s.provider.FetchDailyHistory(ctx, pair.From, pair.To)
	if err != nil {
		return domain.PairBackfillResult{Pair: pair, Error: err.Error()}
	}
	if series == nil {
		return domain.PairBackfillResult{Pair: pair, Error: "no historical data available"}
	}

	rates := s.ratesFromSeries(pair, series, cutoff)
	if err := s.rateRepo.SaveRatesBatch(ctx, rates); err != nil {
		return domain.PairBackfillResult{Pair: pair, Error: err.Error()}
	}

	return domain.PairBackfillResult{Pair: pair, Success: true, RatesLoaded: len(rates)}
}

// ratesFromSeries filters the series to dates on or after cutoff and
// deduplicates by calendar date. First-seen wins when the provider repeats a
// date.
func (s *RateBackfillService) ratesFromSeries(pair domain.CurrencyPair, series []domain.DailyQuote, cutoff time.Time) []domain.ExchangeRate {
	now := s.clock.Now()
	seen := make(map[time.Time]struct{}, len(series))
	rates := make([]domain.ExchangeRate, 0, len(series))

	for _, quote := range series {
		day := CivilDate(quote.Date)
		if day.Before(cutoff) {
			continue
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}

		rates = append(rates, domain.ExchangeRate{
			ExchangeRateID:   uuid.NewString(),
			FromCurrencyCode: pair.From,
			ToCurrencyCode:   pair.To,
			Rate:             quote.Close,
			DateEffective:    day,
			Source:           s.provider.Name(),
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     SystemActor,
				LastUpdatedAt: now,
				LastUpdatedBy: SystemActor,
			},
		})
	}
	return rates
}

// canonicalPair orders two codes the same way the refresh discovery pass does.
func canonicalPair(a, b string) domain.CurrencyPair {
	if a < b {
		return domain.CurrencyPair{From: a, To: b}
	}
	return domain.CurrencyPair{From: b, To: a}
}
