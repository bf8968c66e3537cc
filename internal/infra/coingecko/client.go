package coingecko

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"crypto_track/internal/domain"
	"crypto_track/internal/infra"

	"github.com/shopspring/decimal"
)

// DefaultBaseURL is the public CoinGecko v3 endpoint (no API key required)
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// Client fetches market snapshots from the CoinGecko API.
// One FetchSnapshots call issues two /coins/markets requests (usd with
// sparkline and 24h change, eur with neither) and merges them by asset id.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a client against the public CoinGecko endpoint
func NewClient() *Client {
	return &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewClientWithConfig creates a client with custom configuration. An
// empty apiKey keeps the anonymous public-tier access.
func NewClientWithConfig(baseURL, apiKey string, timeoutSec int) *Client {
	c := NewClient()
	if baseURL != "" {
		c.baseURL = strings.TrimSuffix(baseURL, "/")
	}
	c.apiKey = apiKey
	if timeoutSec > 0 {
		c.httpClient.Timeout = time.Duration(timeoutSec) * time.Second
	}
	return c
}

// FetchSnapshots fetches the current batch for the given asset ids,
// ordered by descending market capitalization. Both currency calls must
// succeed for a consistent batch; either failure fails the whole fetch.
func (c *Client) FetchSnapshots(ctx context.Context, ids []string) ([]domain.AssetSnapshot, error) {
	var (
		wg      sync.WaitGroup
		usdRows []marketsRow
		eurRows []marketsRow
		usdErr  error
		eurErr  error
	)

	// The two currency calls have no ordering dependency; issue them
	// together and join before merging.
	wg.Add(2)
	go func() {
		defer wg.Done()
		usdRows, usdErr = c.fetchMarkets(ctx, domain.CurrencyUSD, ids, true)
	}()
	go func() {
		defer wg.Done()
		eurRows, eurErr = c.fetchMarkets(ctx, domain.CurrencyEUR, ids, false)
	}()
	wg.Wait()

	if usdErr != nil {
		return nil, usdErr
	}
	if eurErr != nil {
		return nil, eurErr
	}

	return mergeRows(usdRows, eurRows)
}

// fetchMarkets issues one /coins/markets call. The sparkline and the 24h
// percent change are only requested on the usd call.
func (c *Client) fetchMarkets(ctx context.Context, currency domain.Currency, ids []string, detailed bool) ([]marketsRow, error) {
	op := "markets " + string(currency)

	q := url.Values{}
	q.Set("vs_currency", string(currency))
	q.Set("ids", strings.Join(ids, ","))
	q.Set("order", "market_cap_desc")
	if detailed {
		q.Set("sparkline", "true")
		q.Set("price_change_percentage", "24h")
	} else {
		q.Set("sparkline", "false")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/coins/markets?"+q.Encode(), nil)
	if err != nil {
		return nil, domain.NewNetworkError(op, err)
	}
	req.Header.Set("User-Agent", infra.DefaultUserAgent)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewNetworkError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.HTTPStatusError{Op: op, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewNetworkError(op, err)
	}

	var rows []marketsRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &domain.MalformedResponseError{Op: op, Err: err}
	}

	return rows, nil
}

// mergeRows combines the usd and eur responses into one snapshot batch.
// Rows are matched by id, never by array position: an id present on one
// side and missing on the other fails the merge.
func mergeRows(usdRows, eurRows []marketsRow) ([]domain.AssetSnapshot, error) {
	if len(usdRows) != len(eurRows) {
		return nil, &domain.MalformedResponseError{Op: "merge", Err: domain.ErrIDMismatch}
	}

	eurByID := make(map[string]marketsRow, len(eurRows))
	for _, row := range eurRows {
		eurByID[row.ID] = row
	}

	// usd order is kept: market-cap descending as requested upstream
	batch := make([]domain.AssetSnapshot, 0, len(usdRows))
	for _, usd := range usdRows {
		eur, ok := eurByID[usd.ID]
		if !ok {
			return nil, &domain.MalformedResponseError{Op: "merge", Err: domain.ErrIDMismatch}
		}

		spark := []decimal.Decimal{}
		if usd.Sparkline != nil && usd.Sparkline.Price != nil {
			spark = usd.Sparkline.Price
		}

		batch = append(batch, domain.AssetSnapshot{
			ID:     usd.ID,
			Symbol: usd.Symbol,
			Name:   usd.Name,
			CurrentPrice: map[domain.Currency]decimal.Decimal{
				domain.CurrencyUSD: usd.CurrentPrice,
				domain.CurrencyEUR: eur.CurrentPrice,
			},
			MarketCap: map[domain.Currency]decimal.Decimal{
				domain.CurrencyUSD: usd.MarketCap,
				domain.CurrencyEUR: eur.MarketCap,
			},
			PriceChange24h: usd.PriceChange24h,
			ImageURL:       usd.Image,
			Sparkline7d:    spark,
			LastUpdated:    usd.LastUpdated,
		})
	}

	return batch, nil
}
