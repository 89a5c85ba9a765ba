package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate stores the conversion rate between two currencies for a specific date.
// Exactly one row exists per (from, to, date_effective) triple; only the canonical
// direction discovered by the refresh pass is ever stored, so lookups for the
// reverse direction must invert the stored rate.
type ExchangeRate struct {
	ExchangeRateID   string          `json:"exchangeRateID"`   // Primary Key (UUID)
	FromCurrencyCode string          `json:"fromCurrencyCode"` // FK -> Currency.currencyCode
	ToCurrencyCode   string          `json:"toCurrencyCode"`   // FK -> Currency.currencyCode
	Rate             decimal.Decimal `json:"rate"`
	DateEffective    time.Time       `json:"dateEffective"` // civil date, midnight UTC
	Source           string          `json:"source"`        // provenance, e.g. the provider name
	AuditFields
}
