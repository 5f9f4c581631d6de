package bitstamp

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoicelink/server/internal/fetch"
	"github.com/invoicelink/server/internal/rates"
)

const DefaultBaseURL = "https://www.bitstamp.net"

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Client is the fallback live-price source. Bitstamp only trades BTC against
// a small set of fiat pairs, so unsupported currencies fail fast here and
// leave the oracle to report the outage.
type Client struct {
	baseURL string
	http    *http.Client
}

func (c *Client) Rate(ctx context.Context, currency string) (decimal.Decimal, error) {
	code := strings.ToLower(currency)
	if code != "usd" && code != "eur" {
		return decimal.Zero, fmt.Errorf("%w: bitstamp fallback only supports USD and EUR", rates.ErrCurrencyUnsupported)
	}

	url := fmt.Sprintf("%s/api/v2/ticker/btc%s/", c.baseURL, code)

	var body struct {
		Last decimal.Decimal `json:"last"`
	}
	if err := fetch.JSON(ctx, c.http, url, &body); err != nil {
		return decimal.Zero, fmt.Errorf("bitstamp: %w", err)
	}

	if body.Last.IsZero() {
		return decimal.Zero, fmt.Errorf("bitstamp: missing last price in response")
	}

	return body.Last, nil
}
