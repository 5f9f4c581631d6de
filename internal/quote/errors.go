package quote

import "errors"

var (
	ErrBadAmount  = errors.New("fiat amount must be positive")
	ErrBadRate    = errors.New("exchange rate must be positive")
	ErrBadAddress = errors.New("invalid bitcoin address")
)
