// Package quotes implements the external quote provider client used by the
// rate refresh and backfill engines. The wire format follows the EODHD API:
// a currency pair is addressed as a single FOREX instrument, e.g. "USDEUR.FOREX".
package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fintrack-app/fintrack_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// ProviderName tags persisted rates with their provenance.
const ProviderName = "eodhd"

const defaultTimeout = 15 * time.Second

// HTTPDoer is the transport seam; *http.Client satisfies it, tests swap in fakes.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches spot rates and daily historical series for currency pairs.
type Client struct {
	httpClient HTTPDoer
	baseURL    string
	apiKey     string
}

// NewClient creates a Client with a default timeout-bounded http.Client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// NewClientWithHTTP creates a Client with a caller-supplied transport.
func NewClientWithHTTP(baseURL, apiKey string, httpClient HTTPDoer) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

// Name returns the provider name used as rate source provenance.
func (c *Client) Name() string {
	return ProviderName
}

// PairSymbol encodes a currency pair as the provider's FOREX instrument code.
func PairSymbol(fromCurrency, toCurrency string) string {
	return fmt.Sprintf("%s%s.FOREX", fromCurrency, toCurrency)
}

// FetchSpot returns the current rate for from -> to, or (nil, nil) when the
// provider has no quote. Non-success HTTP responses are treated as "no quote"
// so the engines can record a clean per-pair failure.
func (c *Client) FetchSpot(ctx context.Context, fromCurrency, toCurrency string) (*domain.SpotQuote, error) {
	addr := fmt.Sprintf("%s/api/real-time/%s?fmt=json&api_token=%s",
		c.baseURL, url.PathEscape(PairSymbol(fromCurrency, toCurrency)), url.QueryEscape(c.apiKey))

	body, ok, err := c.get(ctx, addr)
	if err != nil || !ok {
		return nil, err
	}

	// The provider reports the string "NA" instead of numbers when the
	// instrument has no current quote, so both fields are decoded loosely.
	var payload struct {
		Close     json.RawMessage `json:"close"`
		Timestamp json.RawMessage `json:"timestamp"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("quotes: decoding spot response for %s/%s: %w", fromCurrency, toCurrency, err)
	}

	rate, err := decimal.NewFromString(rawNumber(payload.Close))
	if err != nil || rate.LessThanOrEqual(decimal.Zero) {
		return nil, nil
	}

	asOf := time.Now().UTC()
	if ts, err := strconv.ParseInt(rawNumber(payload.Timestamp), 10, 64); err == nil && ts > 0 {
		asOf = time.Unix(ts, 0).UTC()
	}
	return &domain.SpotQuote{Rate: rate, AsOf: asOf}, nil
}

// FetchDailyHistory returns the full daily close series for from -> to, oldest
// first as reported by the provider. (nil, nil) means the provider had nothing
// for the pair; an empty non-nil slice is a valid series with zero quotes.
func (c *Client) FetchDailyHistory(ctx context.Context, fromCurrency, toCurrency string) ([]domain.DailyQuote, error) {
	addr := fmt.Sprintf("%s/api/eod/%s?fmt=json&api_token=%s",
		c.baseURL, url.PathEscape(PairSymbol(fromCurrency, toCurrency)), url.QueryEscape(c.apiKey))

	body, ok, err := c.get(ctx, addr)
	if err != nil || !ok {
		return nil, err
	}

	var payload []struct {
		Date  string          `json:"date"`
		Close decimal.Decimal `json:"close"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("quotes: decoding history response for %s/%s: %w", fromCurrency, toCurrency, err)
	}

	series := make([]domain.DailyQuote, 0, len(payload))
	for _, row := range payload {
		day, err := time.ParseInLocation("2006-01-02", row.Date, time.UTC)
		if err != nil {
			continue
		}
		series = append(series, domain.DailyQuote{Date: day, Close: row.Close})
	}
	return series, nil
}

// rawNumber strips surrounding quotes from a raw JSON value, so "NA" and
// 0.9265 both come out as plain text for numeric parsing.
func rawNumber(raw json.RawMessage) string {
	s := string(raw)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// get performs a context-bound GET. ok is false for non-2xx responses, which
// callers interpret as "provider has no data" rather than an error.
func (c *Client) get(ctx context.Context, addr string) (body []byte, ok bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, addr, nil)
	if err != nil {
		return nil, false, fmt.Errorf("quotes: building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("quotes: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, false, nil
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("quotes: reading response body: %w", err)
	}
	return body, true, nil
}
