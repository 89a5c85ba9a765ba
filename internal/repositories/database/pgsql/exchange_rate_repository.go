package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fintrack-app/fintrack_backend/internal/apperrors"
	"github.com/fintrack-app/fintrack_backend/internal/core/domain"
	"github.com/fintrack-app/fintrack_backend/internal/models"
	"github.com/fintrack-app/fintrack_backend/internal/utils/mapping"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// saveBatchSize bounds how many upserts go into one pgx batch. Historical
// backfills can load years of daily closes in a single call.
const saveBatchSize = 500

const upsertRateSQL = `
	INSERT INTO exchange_rates (
		exchange_rate_id, from_currency_code, to_currency_code, rate, date_effective,
		source, created_at, created_by, last_updated_at, last_updated_by
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (from_currency_code, to_currency_code, date_effective)
	DO UPDATE SET
		rate = EXCLUDED.rate,
		source = EXCLUDED.source,
		last_updated_at = EXCLUDED.last_updated_at,
		last_updated_by = EXCLUDED.last_updated_by`

// PgxExchangeRateRepository implements the ports exchange rate interfaces using pgxpool.
type PgxExchangeRateRepository struct {
	BaseRepository
}

// NewPgxExchangeRateRepository creates a new PgxExchangeRateRepository.
func NewPgxExchangeRateRepository(db *pgxpool.Pool) *PgxExchangeRateRepository {
	return &PgxExchangeRateRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

// SaveRate upserts a single exchange rate keyed on (from, to, date_effective).
func (r *PgxExchangeRateRepository) SaveRate(ctx context.Context, rate domain.ExchangeRate) error {
	fromCurrency := strings.ToUpper(rate.FromCurrencyCode)
	toCurrency := strings.ToUpper(rate.ToCurrencyCode)

	if fromCurrency == toCurrency {
		return apperrors.NewValidationError("from and to currencies cannot be the same")
	}

	modelRate := mapping.ToModelExchangeRate(rate)
	modelRate.FromCurrencyCode = fromCurrency
	modelRate.ToCurrencyCode = toCurrency

	_, err := r.Pool.Exec(ctx, upsertRateSQL,
		modelRate.ExchangeRateID, modelRate.FromCurrencyCode, modelRate.ToCurrencyCode,
		modelRate.Rate, modelRate.DateEffective, modelRate.Source,
		modelRate.CreatedAt, modelRate.CreatedBy, modelRate.LastUpdatedAt, modelRate.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save exchange rate", err)
	}
	return nil
}

// SaveRatesBatch upserts rates in chunks of saveBatchSize inside one transaction.
// Re-running over an overlapping range only refreshes rate/source on the
// existing rows, so repeated backfills stay idempotent.
func (r *PgxExchangeRateRepository) SaveRatesBatch(ctx context.Context, rates []domain.ExchangeRate) error {
	if len(rates) == 0 {
		return nil
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}

	for start := 0; start < len(rates); start += saveBatchSize {
		end := start + saveBatchSize
		if end > len(rates) {
			end = len(rates)
		}

		batch := &pgx.Batch{}
		for _, rate := range rates[start:end] {
			modelRate := mapping.ToModelExchangeRate(rate)
			modelRate.FromCurrencyCode = strings.ToUpper(modelRate.FromCurrencyCode)
			modelRate.ToCurrencyCode = strings.ToUpper(modelRate.ToCurrencyCode)
			batch.Queue(upsertRateSQL,
				modelRate.ExchangeRateID, modelRate.FromCurrencyCode, modelRate.ToCurrencyCode,
				modelRate.Rate, modelRate.DateEffective, modelRate.Source,
				modelRate.CreatedAt, modelRate.CreatedBy, modelRate.LastUpdatedAt, modelRate.LastUpdatedBy,
			)
		}

		br := tx.SendBatch(ctx, batch)
		for i := start; i < end; i++ {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				_ = r.Rollback(ctx, tx)
				return apperrors.NewAppError(500, fmt.Sprintf("failed to save exchange rate batch starting at %d", start), err)
			}
		}
		if err := br.Close(); err != nil {
			_ = r.Rollback(ctx, tx)
			return apperrors.NewAppError(500, "failed to close exchange rate batch", err)
		}
	}

	return r.Commit(ctx, tx)
}

// FindLatestRate retrieves the most recent exchange rate between two currencies.
// Rates are stored in one canonical direction only; a lookup for the reverse
// direction inverts the stored ratio instead of failing.
func (r *PgxExchangeRateRepository) FindLatestRate(ctx context.Context, fromCurrencyCode, toCurrencyCode string) (*domain.ExchangeRate, error) {
	fromCurrency := strings.ToUpper(fromCurrencyCode)
	toCurrency := strings.ToUpper(toCurrencyCode)

	// If the currencies are the same, return a 1:1 rate
	if fromCurrency == toCurrency {
		return &domain.ExchangeRate{
			FromCurrencyCode: fromCurrency,
			ToCurrencyCode:   toCurrency,
			Rate:             decimal.NewFromInt(1),
			DateEffective:    time.Now().UTC().Truncate(24 * time.Hour),
			Source:           "identity",
		}, nil
	}

	directRate, err := r.findRate(ctx, fromCurrency, toCurrency)
	if err == nil {
		return directRate, nil
	}

	if errors.Is(err, apperrors.ErrNotFound) {
		inverseRate, inverseErr := r.findRate(ctx, toCurrency, fromCurrency)
		if inverseErr == nil {
			inverseRate.FromCurrencyCode = fromCurrency
			inverseRate.ToCurrencyCode = toCurrency
			if !inverseRate.Rate.IsZero() {
				inverseRate.Rate = decimal.NewFromInt(1).Div(inverseRate.Rate)
			}
			return inverseRate, nil
		}
	}

	return nil, apperrors.NewNotFoundError("no exchange rate found for currency pair " + fromCurrency + " to " + toCurrency)
}

// findRate is a helper method to find the most recent exchange rate
func (r *PgxExchangeRateRepository) findRate(ctx context.Context, fromCurrency, toCurrency string) (*domain.ExchangeRate, error) {
	query := `
		SELECT
			exchange_rate_id, from_currency_code, to_currency_code, rate, date_effective,
			source, created_at, created_by, last_updated_at, last_updated_by
		FROM exchange_rates
		WHERE from_currency_code = $1 AND to_currency_code = $2
		ORDER BY date_effective DESC
		LIMIT 1;
	`

	var modelRate models.ExchangeRate
	err := r.Pool.QueryRow(ctx, query, fromCurrency, toCurrency).Scan(
		&modelRate.ExchangeRateID, &modelRate.FromCurrencyCode, &modelRate.ToCurrencyCode,
		&modelRate.Rate, &modelRate.DateEffective, &modelRate.Source,
		&modelRate.CreatedAt, &modelRate.CreatedBy, &modelRate.LastUpdatedAt, &modelRate.LastUpdatedBy,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("exchange rate not found")
		}
		return nil, apperrors.NewAppError(500, "failed to find exchange rate", err)
	}

	domainRate := mapping.ToDomainExchangeRate(modelRate)
	return &domainRate, nil
}

// ListRates returns the stored history for a pair, oldest first.
func (r *PgxExchangeRateRepository) ListRates(ctx context.Context, fromCurrencyCode, toCurrencyCode string, fromDate, toDate *time.Time) ([]domain.ExchangeRate, error) {
	query := `
		SELECT
			exchange_rate_id, from_currency_code, to_currency_code, rate, date_effective,
			source, created_at, created_by, last_updated_at, last_updated_by
		FROM exchange_rates
		WHERE from_currency_code = $1 AND to_currency_code = $2`
	args := []interface{}{strings.ToUpper(fromCurrencyCode), strings.ToUpper(toCurrencyCode)}
	argNum := 3

	if fromDate != nil {
		query += fmt.Sprintf(" AND date_effective >= $%d", argNum)
		args = append(args, *fromDate)
		argNum++
	}
	if toDate != nil {
		query += fmt.Sprintf(" AND date_effective <= $%d", argNum)
		args = append(args, *toDate)
		argNum++
	}
	query += " ORDER BY date_effective ASC"

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list exchange rates", err)
	}
	defer rows.Close()

	var rates []domain.ExchangeRate
	for rows.Next() {
		var modelRate models.ExchangeRate
		err := rows.Scan(
			&modelRate.ExchangeRateID, &modelRate.FromCurrencyCode, &modelRate.ToCurrencyCode,
			&modelRate.Rate, &modelRate.DateEffective, &modelRate.Source,
			&modelRate.CreatedAt, &modelRate.CreatedBy, &modelRate.LastUpdatedAt, &modelRate.LastUpdatedBy,
		)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan exchange rate", err)
		}
		rates = append(rates, mapping.ToDomainExchangeRate(modelRate))
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating exchange rates", err)
	}

	return rates, nil
}

// HasRateSince reports whether any rate row exists dated on or after cutoff.
func (r *PgxExchangeRateRepository) HasRateSince(ctx context.Context, cutoff time.Time) (bool, error) {
	var exists bool
	err := r.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM exchange_rates WHERE date_effective >= $1)`,
		cutoff,
	).Scan(&exists)
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to check for recent exchange rates", err)
	}
	return exists, nil
}

// CoverageFloor returns the earliest stored date for a pair in the canonical
// direction, or ErrNotFound when the pair has no rows.
func (r *PgxExchangeRateRepository) CoverageFloor(ctx context.Context, fromCurrencyCode, toCurrencyCode string) (time.Time, error) {
	var floor *time.Time
	err := r.Pool.QueryRow(ctx,
		`SELECT MIN(date_effective) FROM exchange_rates WHERE from_currency_code = $1 AND to_currency_code = $2`,
		strings.ToUpper(fromCurrencyCode), strings.ToUpper(toCurrencyCode),
	).Scan(&floor)
	if err != nil {
		return time.Time{}, apperrors.NewAppError(500, "failed to query exchange rate coverage", err)
	}
	if floor == nil {
		return time.Time{}, apperrors.NewNotFoundError("no exchange rates stored for currency pair " + fromCurrencyCode + " to " + toCurrencyCode)
	}
	return *floor, nil
}
