package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyPair is an ordered pair of currency codes. The refresh pass fixes the
// canonical direction: the code that appears first in the discovery order is From.
type CurrencyPair struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Symbol returns the pair label used in summaries and logs, e.g. "USD/EUR".
func (p CurrencyPair) Symbol() string {
	return p.From + "/" + p.To
}

// PairRefreshResult records the outcome of one pair within a refresh run.
type PairRefreshResult struct {
	Pair    CurrencyPair    `json:"pair"`
	Success bool            `json:"success"`
	Rate    decimal.Decimal `json:"rate,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// RefreshSummary aggregates a full refresh run across all discovered pairs.
type RefreshSummary struct {
	TotalPairs  int                 `json:"totalPairs"`
	Updated     int                 `json:"updated"`
	Failed      int                 `json:"failed"`
	Results     []PairRefreshResult `json:"results"`
	CompletedAt time.Time           `json:"completedAt"`
}

// PairBackfillResult records the outcome of one pair within a backfill run.
// Skipped pairs (already covered) count as successful with zero rates loaded.
type PairBackfillResult struct {
	Pair        CurrencyPair `json:"pair"`
	Success     bool         `json:"success"`
	Skipped     bool         `json:"skipped"`
	RatesLoaded int          `json:"ratesLoaded"`
	Error       string       `json:"error,omitempty"`
}

// BackfillSummary aggregates a historical backfill run for one user.
type BackfillSummary struct {
	TotalPairs       int                  `json:"totalPairs"`
	Successful       int                  `json:"successful"`
	Failed           int                  `json:"failed"`
	TotalRatesLoaded int                  `json:"totalRatesLoaded"`
	Results          []PairBackfillResult `json:"results"`
}
