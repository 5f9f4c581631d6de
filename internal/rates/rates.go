package rates

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
)

func New(primary, fallback liveSource, historical blockSource) (*Oracle, error) {
	return &Oracle{
		primary:    primary,
		fallback:   fallback,
		historical: historical,
	}, nil
}

// Oracle resolves BTC/fiat exchange rates. Live rates come from a primary
// source with a fallback behind it; historical rates come from a
// block-indexed source. Nothing is cached: rates are time-sensitive and a
// stale value would corrupt both quoting and payment matching.
type Oracle struct {
	primary    liveSource
	fallback   liveSource
	historical blockSource
}

type liveSource interface {
	Rate(ctx context.Context, currency string) (decimal.Decimal, error)
}

type blockSource interface {
	RateAtBlock(ctx context.Context, blockID int64, currency string) (decimal.Decimal, error)
}

// CurrentRate returns the live BTC rate for currency. The primary source is
// tried first; on any failure the fallback is consulted. Both failing is
// ErrPriceUnavailable.
func (o *Oracle) CurrentRate(ctx context.Context, currency string) (decimal.Decimal, error) {
	rate, err := o.primary.Rate(ctx, currency)
	if err == nil {
		return rate, nil
	}
	log.Printf("primary price source failed, trying fallback: %v", err)

	rate, err = o.fallback.Rate(ctx, currency)
	if err != nil {
		log.Printf("fallback price source failed: %v", err)
		return decimal.Zero, fmt.Errorf("%w: all sources exhausted", ErrPriceUnavailable)
	}

	return rate, nil
}

// HistoricalRate returns the fiat rate recorded for the block that contains
// a payment. A currency the source has no direct record for is an error,
// never a substitution: validating a payment against the wrong currency is a
// correctness defect, not a degraded mode.
func (o *Oracle) HistoricalRate(ctx context.Context, blockID int64, currency string) (decimal.Decimal, error) {
	rate, err := o.historical.RateAtBlock(ctx, blockID, currency)
	if err != nil {
		return decimal.Zero, fmt.Errorf("historical rate for block %d: %w", blockID, err)
	}
	return rate, nil
}
