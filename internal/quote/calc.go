package quote

import (
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// SatsFor converts a fiat amount into an integer satoshi amount at the given
// BTC rate, after applying a cushion markup that absorbs rate drift and miner
// fees between quote issuance and payment.
//
// cushioned = fiat * (1 + cushionPct/100); btc = cushioned / rate, rounded to
// 8 decimal places half away from zero. The rounding rule is fixed so that
// repeated refreshes at the same rate always produce the same satoshi amount.
func SatsFor(fiat, rate, cushionPct decimal.Decimal) (int64, error) {
	if fiat.LessThanOrEqual(decimal.Zero) {
		return 0, ErrBadAmount
	}
	if rate.LessThanOrEqual(decimal.Zero) {
		return 0, ErrBadRate
	}

	multiplier := decimal.NewFromInt(1).Add(cushionPct.Div(oneHundred))
	cushioned := fiat.Mul(multiplier)

	btc := cushioned.DivRound(rate, 8)
	return btc.Shift(8).IntPart(), nil
}
