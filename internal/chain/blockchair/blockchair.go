package blockchair

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/invoicelink/server/internal/fetch"
	"github.com/invoicelink/server/internal/payment"
	"github.com/invoicelink/server/internal/rates"
)

const (
	DefaultBaseURL = "https://api.blockchair.com"

	// Bounded list of recent transactions per address scan.
	txListLimit = 50

	timeLayout = "2006-01-02 15:04:05"
)

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Client reads the public Blockchair index: recent transactions touching an
// address, per-transaction detail, and the fiat rate recorded for a block.
type Client struct {
	baseURL string
	http    *http.Client
}

// AddressTxids lists recent transaction ids touching address, newest first
// in provider order.
func (c *Client) AddressTxids(ctx context.Context, address string) ([]string, error) {
	url := fmt.Sprintf("%s/bitcoin/dashboards/address/%s?limit=%d", c.baseURL, address, txListLimit)

	var body struct {
		Data map[string]struct {
			Transactions []string `json:"transactions"`
		} `json:"data"`
	}
	if err := fetch.JSON(ctx, c.http, url, &body); err != nil {
		return nil, fmt.Errorf("blockchair address dashboard: %w", err)
	}

	entry, ok := body.Data[address]
	if !ok {
		return nil, nil
	}
	return entry.Transactions, nil
}

// TxDetail fetches one transaction and reduces it to what matching needs:
// total satoshis paid to address, confirmation status, timestamp and
// containing block. Output recipients are compared case-insensitively.
func (c *Client) TxDetail(ctx context.Context, txid, address string) (*payment.Tx, error) {
	url := fmt.Sprintf("%s/bitcoin/dashboards/transaction/%s", c.baseURL, txid)

	var body struct {
		Data map[string]struct {
			Transaction struct {
				BlockID int64  `json:"block_id"`
				Time    string `json:"time"`
			} `json:"transaction"`
			Outputs []struct {
				Recipient string `json:"recipient"`
				Value     int64  `json:"value"`
			} `json:"outputs"`
		} `json:"data"`
	}
	if err := fetch.JSON(ctx, c.http, url, &body); err != nil {
		return nil, fmt.Errorf("blockchair transaction dashboard: %w", err)
	}

	entry, ok := body.Data[txid]
	if !ok {
		return nil, fmt.Errorf("transaction %v not in response", txid)
	}

	var sats int64
	for _, out := range entry.Outputs {
		if strings.EqualFold(out.Recipient, address) {
			sats += out.Value
		}
	}

	ts, err := time.Parse(timeLayout, entry.Transaction.Time)
	if err != nil {
		return nil, fmt.Errorf("parse tx time %q: %w", entry.Transaction.Time, err)
	}

	// Blockchair reports block_id -1 for mempool transactions.
	confirmed := entry.Transaction.BlockID > 0

	tx := &payment.Tx{
		TxID:          txid,
		SatsToAddress: sats,
		Confirmed:     confirmed,
		Time:          ts.UTC(),
	}
	if confirmed {
		tx.BlockID = entry.Transaction.BlockID
	}
	return tx, nil
}

// RateAtBlock returns the fiat rate recorded for a block. A currency the
// block record has no price field for is ErrCurrencyUnsupported, never a
// substituted rate.
func (c *Client) RateAtBlock(ctx context.Context, blockID int64, currency string) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/bitcoin/dashboards/block/%d", c.baseURL, blockID)

	var body struct {
		Data map[string]struct {
			Block map[string]any `json:"block"`
		} `json:"data"`
	}
	if err := fetch.JSON(ctx, c.http, url, &body); err != nil {
		return decimal.Zero, fmt.Errorf("blockchair block dashboard: %w", err)
	}

	entry, ok := body.Data[fmt.Sprintf("%d", blockID)]
	if !ok {
		return decimal.Zero, fmt.Errorf("block %d not in response", blockID)
	}

	field := "price_" + strings.ToLower(currency)
	raw, ok := entry.Block[field]
	if !ok || raw == nil {
		return decimal.Zero, fmt.Errorf("%w: block %d has no %v", rates.ErrCurrencyUnsupported, blockID, field)
	}

	price, ok := raw.(float64)
	if !ok || price <= 0 {
		return decimal.Zero, fmt.Errorf("bad %v value in block %d", field, blockID)
	}

	return decimal.NewFromFloat(price), nil
}
