package rates

import (
	"context"

	"github.com/shopspring/decimal"
)

type mockLiveSource struct {
	RateDec   decimal.Decimal
	RateErr   error
	RateCalls int
}

func (m *mockLiveSource) Rate(ctx context.Context, currency string) (decimal.Decimal, error) {
	m.RateCalls++
	return m.RateDec, m.RateErr
}

type mockBlockSource struct {
	RateAtBlockDec decimal.Decimal
	RateAtBlockErr error
}

func (m *mockBlockSource) RateAtBlock(ctx context.Context, blockID int64, currency string) (decimal.Decimal, error) {
	return m.RateAtBlockDec, m.RateAtBlockErr
}
