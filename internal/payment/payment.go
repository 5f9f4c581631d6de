package payment

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

// Status classifies progress toward payment of an invoice.
type Status string

const (
	// StatusPending means no in-window transaction with value to the
	// address has been seen.
	StatusPending Status = "pending"
	// StatusDetected means an unconfirmed in-window transaction with
	// nonzero value was seen.
	StatusDetected Status = "detected"
	// StatusConfirmed means a confirmed in-window transaction matched the
	// invoiced fiat amount at its historical rate.
	StatusConfirmed Status = "confirmed"
	// StatusError means a provider failure prevented the scan. Callers
	// should treat it like pending and retry, never as a terminal negative.
	StatusError Status = "error"
)

// Result is the verdict of one matcher pass.
type Result struct {
	Status Status `json:"status"`
	TxID   string `json:"txid,omitempty"`
	Err    error  `json:"-"`
}

// Tx is one transaction touching the invoice address, as reported by the
// transaction index. Produced per query, never cached across polls.
type Tx struct {
	TxID          string
	SatsToAddress int64
	Confirmed     bool
	Time          time.Time
	BlockID       int64
}

type txIndex interface {
	AddressTxids(ctx context.Context, address string) ([]string, error)
	TxDetail(ctx context.Context, txid, address string) (*Tx, error)
}

type blockRater interface {
	HistoricalRate(ctx context.Context, blockID int64, currency string) (decimal.Decimal, error)
}

func New(index txIndex, rater blockRater, toleranceBps int64) (*Matcher, error) {
	if toleranceBps <= 0 {
		return nil, fmt.Errorf("toleranceBps must be positive")
	}
	return &Matcher{
		index:        index,
		rater:        rater,
		toleranceBps: decimal.NewFromInt(toleranceBps),
	}, nil
}

// Matcher scans an address's recent transactions and decides how far along
// payment of an invoice is. Matching is against the locked fiat amount at
// each transaction's own historical rate, not against an exact satoshi
// amount: the sats baked into the quote were computed at a rate that may
// have moved by the time the payment confirmed.
type Matcher struct {
	index        txIndex
	rater        blockRater
	toleranceBps decimal.Decimal
}

// MatchRequest bounds one scan. The window keeps old transactions to a
// reused address from being mistaken for payment of this invoice.
type MatchRequest struct {
	Address     string
	FiatAmount  decimal.Decimal
	Currency    string
	WindowStart time.Time
	WindowEnd   time.Time
}

var tenThousand = decimal.NewFromInt(10000)
var oneBTCInSats = decimal.NewFromInt(1e8)

// Match performs one scan. Safe to call repeatedly; it holds no state
// between calls.
func (m *Matcher) Match(ctx context.Context, req MatchRequest) Result {
	txids, err := m.index.AddressTxids(ctx, req.Address)
	if err != nil {
		return Result{Status: StatusError, Err: fmt.Errorf("list txids: %w", err)}
	}
	if len(txids) == 0 {
		return Result{Status: StatusPending}
	}

	tolerance := req.FiatAmount.Mul(m.toleranceBps).Div(tenThousand)

	hasUnconfirmed := false
	for _, txid := range txids {
		tx, err := m.index.TxDetail(ctx, txid, req.Address)
		if err != nil {
			// One bad lookup must not abort the whole scan.
			log.Printf("tx detail lookup failed, skipping: txid=%v err=%v", txid, err)
			continue
		}

		if tx.SatsToAddress == 0 {
			continue
		}
		if tx.Time.Before(req.WindowStart) || tx.Time.After(req.WindowEnd) {
			continue
		}

		if !tx.Confirmed {
			hasUnconfirmed = true
			continue
		}

		rate, err := m.rater.HistoricalRate(ctx, tx.BlockID, req.Currency)
		if err != nil {
			// Without a verified rate the fiat value of this payment
			// cannot be checked, so it cannot be accepted.
			log.Printf("historical rate unavailable, skipping: txid=%v block=%v err=%v", txid, tx.BlockID, err)
			continue
		}

		fiatPaid := decimal.NewFromInt(tx.SatsToAddress).Div(oneBTCInSats).Mul(rate)
		if fiatPaid.Sub(req.FiatAmount).Abs().LessThanOrEqual(tolerance) {
			return Result{Status: StatusConfirmed, TxID: txid}
		}
	}

	if hasUnconfirmed {
		return Result{Status: StatusDetected}
	}
	return Result{Status: StatusPending}
}
