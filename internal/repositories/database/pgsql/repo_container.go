package pgsql

import (
	portsrepo "github.com/fintrack-app/fintrack_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider builds the RepositoryProvider with all pgsql-backed repositories.
func NewRepositoryProvider(pool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		ExchangeRateRepo: NewPgxExchangeRateRepository(pool),
		CurrencyRepo:     NewPgxCurrencyRepository(pool),
		UserRepo:         NewPgxUserRepository(pool),
		UsageRepo:        NewPgxCurrencyUsageRepository(pool),
	}
}

// Compile-time interface checks.
var (
	_ portsrepo.ExchangeRateRepositoryFacade = (*PgxExchangeRateRepository)(nil)
	_ portsrepo.CurrencyReader               = (*PgxCurrencyRepository)(nil)
	_ portsrepo.UserReader                   = (*PgxUserRepository)(nil)
	_ portsrepo.CurrencyUsageReader          = (*PgxCurrencyUsageRepository)(nil)
)
