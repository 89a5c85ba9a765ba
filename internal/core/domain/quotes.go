package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SpotQuote is a provider-reported current rate for a currency pair.
type SpotQuote struct {
	Rate decimal.Decimal `json:"rate"`
	AsOf time.Time       `json:"asOf"`
}

// DailyQuote is one provider-reported daily close within a historical series.
type DailyQuote struct {
	Date  time.Time       `json:"date"` // civil date, midnight UTC
	Close decimal.Decimal `json:"close"`
}
