package dto

import (
	"time"

	"github.com/fintrack-app/fintrack_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// PairRefreshResultResponse is one pair's outcome within a refresh summary.
type PairRefreshResultResponse struct {
	Pair    string          `json:"pair"`
	Success bool            `json:"success"`
	Rate    decimal.Decimal `json:"rate,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// RefreshSummaryResponse is the API shape of a refresh run summary.
type RefreshSummaryResponse struct {
	TotalPairs  int                         `json:"totalPairs"`
	Updated     int                         `json:"updated"`
	Failed      int                         `json:"failed"`
	Results     []PairRefreshResultResponse `json:"results"`
	CompletedAt time.Time                   `json:"completedAt"`
}

// ToRefreshSummaryResponse converts a domain.RefreshSummary to its API shape.
func ToRefreshSummaryResponse(summary *domain.RefreshSummary) RefreshSummaryResponse {
	results := make([]PairRefreshResultResponse, len(summary.Results))
	for i, res := range summary.Results {
		results[i] = PairRefreshResultResponse{
			Pair:    res.Pair.Symbol(),
			Success: res.Success,
			Rate:    res.Rate,
			Error:   res.Error,
		}
	}
	return RefreshSummaryResponse{
		TotalPairs:  summary.TotalPairs,
		Updated:     summary.Updated,
		Failed:      summary.Failed,
		Results:     results,
		CompletedAt: summary.CompletedAt,
	}
}

// PairBackfillResultResponse is one pair's outcome within a backfill summary.
type PairBackfillResultResponse struct {
	Pair        string `json:"pair"`
	Success     bool   `json:"success"`
	Skipped     bool   `json:"skipped"`
	RatesLoaded int    `json:"ratesLoaded"`
	Error       string `json:"error,omitempty"`
}

// BackfillSummaryResponse is the API shape of a backfill run summary.
type BackfillSummaryResponse struct {
	TotalPairs       int                          `json:"totalPairs"`
	Successful       int                          `json:"successful"`
	Failed           int                          `json:"failed"`
	TotalRatesLoaded int                          `json:"totalRatesLoaded"`
	Results          []PairBackfillResultResponse `json:"results"`
}

// ToBackfillSummaryResponse converts a domain.BackfillSummary to its API shape.
func ToBackfillSummaryResponse(summary *domain.BackfillSummary) BackfillSummaryResponse {
	results := make([]PairBackfillResultResponse, len(summary.Results))
	for i, res := range summary.Results {
		results[i] = PairBackfillResultResponse{
			Pair:        res.Pair.Symbol(),
			Success:     res.Success,
			Skipped:     res.Skipped,
			RatesLoaded: res.RatesLoaded,
			Error:       res.Error,
		}
	}
	return BackfillSummaryResponse{
		TotalPairs:       summary.TotalPairs,
		Successful:       summary.Successful,
		Failed:           summary.Failed,
		TotalRatesLoaded: summary.TotalRatesLoaded,
		Results:          results,
	}
}
