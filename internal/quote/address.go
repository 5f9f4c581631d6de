package quote

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// NetParams maps a config-level network name to chain params.
func NetParams(network string) (*chaincfg.Params, error) {
	switch network {
	case "", "mainnet":
		return &chaincfg.MainNetParams, nil
	case "testnet":
		return &chaincfg.TestNet3Params, nil
	default:
		return nil, fmt.Errorf("unknown network %q. must be 'mainnet' or 'testnet'", network)
	}
}

// ValidateAddress checks that addr is a well-formed bitcoin address for the
// network. Format only; no key material is ever involved.
func ValidateAddress(addr string, params *chaincfg.Params) error {
	decoded, err := btcutil.DecodeAddress(addr, params)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadAddress, err)
	}
	if !decoded.IsForNet(params) {
		return fmt.Errorf("%w: wrong network", ErrBadAddress)
	}
	return nil
}
