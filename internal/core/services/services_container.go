package services

import (
	"github.com/fintrack-app/fintrack_backend/internal/core/ports/providers"
	portsrepo "github.com/fintrack-app/fintrack_backend/internal/core/ports/repositories"
	portssvc "github.com/fintrack-app/fintrack_backend/internal/core/ports/services"
	"github.com/fintrack-app/fintrack_backend/internal/platform/config"
)

// exchangeRateFacade bundles the rate read path and the two sync engines into
// the single facade the handlers consume.
type exchangeRateFacade struct {
	*RateQueryService
	*RateRefreshService
	*RateBackfillService
}

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, provider providers.QuoteProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Currency = NewCurrencyService(repos.CurrencyRepo)

	container.ExchangeRate = &exchangeRateFacade{
		RateQueryService:   NewRateQueryService(repos.ExchangeRateRepo),
		RateRefreshService: NewRateRefreshService(repos.UsageRepo, repos.ExchangeRateRepo, provider),
		RateBackfillService: NewRateBackfillService(
			repos.UsageRepo, repos.ExchangeRateRepo, repos.UserRepo, provider,
			cfg.DefaultCurrency,
			WithPacing(cfg.BackfillPacing),
		),
	}

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.CurrencySvcFacade     = (*CurrencyService)(nil)
	_ portssvc.ExchangeRateSvcFacade = (*exchangeRateFacade)(nil)
	_ portssvc.RateRefreshSvc        = (*RateRefreshService)(nil)
	_ portssvc.RateBackfillSvc       = (*RateBackfillService)(nil)
)
