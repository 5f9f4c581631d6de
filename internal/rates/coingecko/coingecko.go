package coingecko

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoicelink/server/internal/fetch"
)

const DefaultBaseURL = "https://api.coingecko.com"

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Client fetches live BTC prices from the CoinGecko simple-price API.
type Client struct {
	baseURL string
	http    *http.Client
}

func (c *Client) Rate(ctx context.Context, currency string) (decimal.Decimal, error) {
	code := strings.ToLower(currency)
	url := fmt.Sprintf("%s/api/v3/simple/price?ids=bitcoin&vs_currencies=%s", c.baseURL, code)

	var body map[string]map[string]decimal.Decimal
	if err := fetch.JSON(ctx, c.http, url, &body); err != nil {
		return decimal.Zero, fmt.Errorf("coingecko: %w", err)
	}

	rate, ok := body["bitcoin"][code]
	if !ok {
		return decimal.Zero, fmt.Errorf("coingecko: currency %q not in response", currency)
	}

	return rate, nil
}
