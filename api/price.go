package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultPriceURL is the CoinGecko simple-price endpoint.
const DefaultPriceURL = "https://api.coingecko.com/api/v3/simple/price"

// PriceClient fetches fiat prices for coins.
type PriceClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewPriceClient creates a price client. An empty baseURL uses DefaultPriceURL.
func NewPriceClient(baseURL string) *PriceClient {
	if baseURL == "" {
		baseURL = DefaultPriceURL
	}
	return &PriceClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: baseURL,
	}
}

// GetPrice fetches the current USD price for a CoinGecko coin id such as "ethereum".
func (c *PriceClient) GetPrice(ctx context.Context, symbol string) (*PriceData, error) {
	query := url.Values{}
	query.Set("ids", symbol)
	query.Set("vs_currencies", "usd")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch price: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result map[string]map[string]decimal.Decimal
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if priceData, exists := result[symbol]; exists {
		if usdPrice, exists := priceData["usd"]; exists {
			return &PriceData{
				Symbol: symbol,
				USD:    usdPrice,
			}, nil
		}
	}

	return nil, fmt.Errorf("price not found for symbol: %s", symbol)
}

// FiatToCoin converts a USD amount into coin units at the given price.
func FiatToCoin(usd decimal.Decimal, price *PriceData) (decimal.Decimal, error) {
	if price == nil || !price.USD.IsPositive() {
		return decimal.Zero, fmt.Errorf("no usable price")
	}
	return usd.DivRound(price.USD, 18), nil
}
