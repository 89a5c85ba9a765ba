package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/fintrack-app/fintrack_backend/internal/core/domain"
	"github.com/fintrack-app/fintrack_backend/internal/core/ports/providers"
	portsrepo "github.com/fintrack-app/fintrack_backend/internal/core/ports/repositories"
	"github.com/google/uuid"
)

// RateRefreshService fetches a current spot rate for every unordered pair of
// in-use currencies. Pairs are fully independent, so the fan-out is concurrent;
// a spot quote is one cheap provider call and the provider tolerates the burst.
type RateRefreshService struct {
	BaseService
	usageRepo portsrepo.CurrencyUsageReader
	rateRepo  portsrepo.ExchangeRateWriter
	provider  providers.QuoteProvider
	clock     Clock
}

// RefreshOption customizes a RateRefreshService.
type RefreshOption func(*RateRefreshService)

// WithRefreshClock overrides the wall clock, mainly for tests.
func WithRefreshClock(clock Clock) RefreshOption {
	return func(s *RateRefreshService) { s.clock = clock }
}

// NewRateRefreshService creates a new RateRefreshService.
func NewRateRefreshService(usageRepo portsrepo.CurrencyUsageReader, rateRepo portsrepo.ExchangeRateWriter, provider providers.QuoteProvider, opts ...RefreshOption) *RateRefreshService {
	s := &RateRefreshService{
		usageRepo: usageRepo,
		rateRepo:  rateRepo,
		provider:  provider,
		clock:     SystemClock(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RefreshAllRates discovers the in-use currencies, builds every unordered pair
// in canonical direction, and fetches/persists a current rate for each pair
// concurrently. One pair's failure never aborts the batch; failures are
// aggregated into the returned summary. Only a resolver failure is an error.
func (s *RateRefreshService) RefreshAllRates(ctx context.Context) (*domain.RefreshSummary, error) {
	codes, err := s.usageRepo.UsedCurrencyCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve used currencies: %w", err)
	}

	// Sorting fixes the canonical direction of every pair across runs.
	sort.Strings(codes)

	if len(codes) < 2 {
		s.LogInfo(ctx, "Fewer than two currencies in use, nothing to refresh", slog.Int("currencies", len(codes)))
		return &domain.RefreshSummary{Results: []domain.PairRefreshResult{}, CompletedAt: s.clock.Now()}, nil
	}

	pairs := buildPairs(codes)
	today := CivilDate(s.clock.Now())

	results := make([]domain.PairRefreshResult, len(pairs))
	var wg sync.WaitGroup
	for i, pair := range pairs {
		wg.Add(1)
		go func(i int, pair domain.CurrencyPair) {
			defer wg.Done()
			results[i] = s.refreshPair(ctx, pair, today)
		}(i, pair)
	}
	wg.Wait()

	summary := &domain.RefreshSummary{
		TotalPairs:  len(pairs),
		Results:     results,
		CompletedAt: s.clock.Now(),
	}
	for _, res := range results {
		if res.Success {
			summary.Updated++
		} else {
			summary.Failed++
		}
	}

	s.LogInfo(ctx, "Rate refresh completed",
		slog.Int("total_pairs", summary.TotalPairs),
		slog.Int("updated", summary.Updated),
		slog.Int("failed", summary.Failed),
	)
	return summary, nil
}

// refreshPair fetches and persists the spot rate for one pair. Provider misses
// and store errors are recorded, not raised.
func (s *RateRefreshService) refreshPair(ctx context.Context, pair domain.CurrencyPair, today time.Time) domain.PairRefreshResult {
	spot, err := s.provider.FetchSpot(ctx, pair.From, pair.To)
	if err != nil {
		s.LogDebug(ctx, "Spot fetch failed", slog.String("pair", pair.Symbol()), slog.String("error", err.Error()))
		return domain.PairRefreshResult{Pair: pair, Error: err.Error()}
	}
	if spot == nil {
		return domain.PairRefreshResult{Pair: pair, Error: "no quote available"}
	}

	now := s.clock.Now()
	rate := domain.ExchangeRate{
		ExchangeRateID:   uuid.NewString(),
		FromCurrencyCode: pair.From,
		ToCurrencyCode:   pair.To,
		Rate:             spot.Rate,
		DateEffective:    today,
		Source:           s.provider.Name(),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     SystemActor,
			LastUpdatedAt: now,
			LastUpdatedBy: SystemActor,
		},
	}
	if err := s.rateRepo.SaveRate(ctx, rate); err != nil {
		s.LogDebug(ctx, "Spot rate save failed", slog.String("pair", pair.Symbol()), slog.String("error", err.Error()))
		return domain.PairRefreshResult{Pair: pair, Error: err.Error()}
	}

	return domain.PairRefreshResult{Pair: pair, Success: true, Rate: spot.Rate}
}

// buildPairs emits one pair per combination with index(from) < index(to), so
// each unordered pair appears exactly once and its direction is fixed.
func buildPairs(codes []string) []domain.CurrencyPair {
	pairs := make([]domain.CurrencyPair, 0, len(codes)*(len(codes)-1)/2)
	for i := 0; i < len(codes); i++ {
		for j := i + 1; j < len(codes); j++ {
			pairs = append(pairs, domain.CurrencyPair{From: codes[i], To: codes[j]})
		}
	}
	return pairs
}
