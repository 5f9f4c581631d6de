package currency

import (
	"strings"
)

const (
	USD = "USD"
	EUR = "EUR"
	GBP = "GBP"
	JPY = "JPY"
	CAD = "CAD"
	AUD = "AUD"
	CHF = "CHF"
	BRL = "BRL"
)

// Normalize upper-cases a currency code. Codes are stored upper-case
// everywhere; providers that want lower-case do their own conversion.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func IsKnown(code string) bool {
	switch Normalize(code) {
	case USD, EUR, GBP, JPY, CAD, AUD, CHF, BRL:
		return true
	default:
		return false
	}
}
