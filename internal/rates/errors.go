package rates

import "errors"

var (
	ErrPriceUnavailable    = errors.New("price unavailable")
	ErrCurrencyUnsupported = errors.New("currency unsupported")
)
