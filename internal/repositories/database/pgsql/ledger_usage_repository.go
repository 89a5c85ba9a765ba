package pgsql

import (
	"context"
	"strings"
	"time"

	"github.com/fintrack-app/fintrack_backend/internal/apperrors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgxCurrencyUsageRepository derives in-use currencies and backfill cutoffs from
// live account, security and transaction data. Read-only by design; the result
// sets go stale as soon as the ledger changes, so callers recompute per run.
type PgxCurrencyUsageRepository struct {
	BaseRepository
}

// NewPgxCurrencyUsageRepository creates a new PgxCurrencyUsageRepository.
func NewPgxCurrencyUsageRepository(db *pgxpool.Pool) *PgxCurrencyUsageRepository {
	return &PgxCurrencyUsageRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

// UsedCurrencyCodes returns the distinct currency codes of open accounts plus
// those of active securities with a positive held quantity in open accounts.
func (r *PgxCurrencyUsageRepository) UsedCurrencyCodes(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT a.currency_code
		FROM accounts a
		WHERE a.is_active
		UNION
		SELECT DISTINCT s.currency_code
		FROM securities s
		JOIN security_holdings h ON h.security_id = s.security_id AND h.quantity > 0
		JOIN accounts a ON a.account_id = h.account_id AND a.is_active
		WHERE s.is_active
	`

	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query used currency codes", err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan currency code", err)
		}
		codes = append(codes, strings.ToUpper(code))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating used currency codes", err)
	}

	return codes, nil
}

// NonDefaultCurrenciesWithEarliestDates maps every non-default currency the user
// touches to the earliest transaction date needing a conversion. The account
// pass takes the minimum over regular and investment transactions per account
// currency; the security pass takes the minimum trade date per security
// currency. When both passes see the same currency the earlier date wins,
// since the backfill must cover the union of needs.
func (r *PgxCurrencyUsageRepository) NonDefaultCurrenciesWithEarliestDates(ctx context.Context, userID, defaultCurrency string, accountIDs []string) (map[string]time.Time, error) {
	defaultCurrency = strings.ToUpper(defaultCurrency)
	cutoffs := make(map[string]time.Time)

	accountQuery := `
		SELECT a.currency_code, MIN(x.txn_date)
		FROM accounts a
		JOIN (
			SELECT account_id, transaction_date AS txn_date FROM transactions
			UNION ALL
			SELECT account_id, trade_date FROM investment_transactions
		) x ON x.account_id = a.account_id
		WHERE a.user_id = $1 AND a.is_active AND a.currency_code <> $2
			AND (cardinality($3::text[]) = 0 OR a.account_id = ANY($3))
		GROUP BY a.currency_code
	`
	if err := r.mergeEarliestDates(ctx, cutoffs, accountQuery, userID, defaultCurrency, accountIDs); err != nil {
		return nil, err
	}

	securityQuery := `
		SELECT s.currency_code, MIN(it.trade_date)
		FROM securities s
		JOIN security_holdings h ON h.security_id = s.security_id AND h.quantity > 0
		JOIN accounts a ON a.account_id = h.account_id AND a.is_active
		JOIN investment_transactions it ON it.security_id = s.security_id AND it.account_id = a.account_id
		WHERE a.user_id = $1 AND s.is_active AND s.currency_code <> $2
			AND (cardinality($3::text[]) = 0 OR a.account_id = ANY($3))
		GROUP BY s.currency_code
	`
	if err := r.mergeEarliestDates(ctx, cutoffs, securityQuery, userID, defaultCurrency, accountIDs); err != nil {
		return nil, err
	}

	return cutoffs, nil
}

// mergeEarliestDates runs one earliest-date query and folds the rows into
// cutoffs, keeping the minimum per currency. Rows with a NULL date are dropped.
func (r *PgxCurrencyUsageRepository) mergeEarliestDates(ctx context.Context, cutoffs map[string]time.Time, query, userID, defaultCurrency string, accountIDs []string) error {
	if accountIDs == nil {
		accountIDs = []string{}
	}

	rows, err := r.Pool.Query(ctx, query, userID, defaultCurrency, accountIDs)
	if err != nil {
		return apperrors.NewAppError(500, "failed to query earliest conversion dates", err)
	}
	defer rows.Close()

	for rows.Next() {
		var code string
		var earliest *time.Time
		if err := rows.Scan(&code, &earliest); err != nil {
			return apperrors.NewAppError(500, "failed to scan earliest conversion date", err)
		}
		if earliest == nil {
			continue
		}
		code = strings.ToUpper(code)
		if existing, ok := cutoffs[code]; !ok || earliest.Before(existing) {
			cutoffs[code] = *earliest
		}
	}
	if err := rows.Err(); err != nil {
		return apperrors.NewAppError(500, "error iterating earliest conversion dates", err)
	}
	return nil
}

// UsersNeedingBackfill returns the IDs of users with at least one open account
// or held security denominated in a currency other than their default.
func (r *PgxCurrencyUsageRepository) UsersNeedingBackfill(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT u.user_id
		FROM users u
		JOIN accounts a ON a.user_id = u.user_id AND a.is_active
		WHERE a.currency_code <> u.default_currency_code
		UNION
		SELECT DISTINCT u.user_id
		FROM users u
		JOIN accounts a ON a.user_id = u.user_id AND a.is_active
		JOIN security_holdings h ON h.account_id = a.account_id AND h.quantity > 0
		JOIN securities s ON s.security_id = h.security_id AND s.is_active
		WHERE s.currency_code <> u.default_currency_code
	`

	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query users needing backfill", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan user id", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating users needing backfill", err)
	}

	return userIDs, nil
}
