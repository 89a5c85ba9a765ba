package repositories

import (
	"context"
	"time"
)

// CurrencyUsageReader derives which currencies are actually in play from live
// account, security and transaction data. All methods are read-only; the result
// sets are point-in-time and must be recomputed on every engine run.
type CurrencyUsageReader interface {
	// UsedCurrencyCodes returns the distinct currency codes of open accounts
	// and of active securities with a positive held quantity in open accounts.
	UsedCurrencyCodes(ctx context.Context) ([]string, error)

	// NonDefaultCurrenciesWithEarliestDates maps every non-default currency a
	// user touches to the earliest transaction date needing a conversion
	// against defaultCurrency. An empty accountIDs slice means all the user's
	// open accounts. Currencies with no determinable date are omitted; when
	// accounts and securities disagree the earlier date wins.
	NonDefaultCurrenciesWithEarliestDates(ctx context.Context, userID, defaultCurrency string, accountIDs []string) (map[string]time.Time, error)

	// UsersNeedingBackfill returns the IDs of users holding at least one open
	// account or held security whose currency differs from their default.
	UsersNeedingBackfill(ctx context.Context) ([]string, error)
}
