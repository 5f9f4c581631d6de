package main

import (
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/invoicelink/server/internal/currency"
	"github.com/invoicelink/server/internal/quote"
	"github.com/invoicelink/server/internal/token"
)

var (
	signAmount      string
	signCurrency    string
	signAddress     string
	signDescription string
	signRate        string
	signCushion     string
	signTTLMinutes  int
	signDays        int
	signNetwork     string
)

func init() {
	signCmd.Flags().StringVarP(&signAmount, "amount", "a", "", "fiat amount, e.g. 100.50")
	signCmd.Flags().StringVarP(&signCurrency, "currency", "c", "USD", "fiat currency code")
	signCmd.Flags().StringVarP(&signAddress, "address", "d", "", "bitcoin address to be paid")
	signCmd.Flags().StringVarP(&signDescription, "description", "m", "", "free-text description")
	signCmd.Flags().StringVarP(&signRate, "rate", "r", "", "BTC rate to lock, e.g. 61000.25")
	signCmd.Flags().StringVarP(&signCushion, "cushion", "", "1", "cushion percent")
	signCmd.Flags().IntVarP(&signTTLMinutes, "ttl", "", 10, "quote validity in minutes")
	signCmd.Flags().IntVarP(&signDays, "days", "", 7, "invoice validity in days")
	signCmd.Flags().StringVarP(&signNetwork, "network", "n", "mainnet", "bitcoin network: mainnet or testnet")

	rootCmd.AddCommand(signCmd)
}

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "mint a signed quote token from explicit terms",
	RunE:  doSign,
}

func doSign(cmd *cobra.Command, args []string) error {
	codec, err := token.New(resolveSecret())
	if err != nil {
		return err
	}

	amount, err := decimal.NewFromString(signAmount)
	if err != nil {
		return fmt.Errorf("bad amount %q: %w", signAmount, err)
	}
	rate, err := decimal.NewFromString(signRate)
	if err != nil {
		return fmt.Errorf("bad rate %q: %w", signRate, err)
	}
	cushion, err := decimal.NewFromString(signCushion)
	if err != nil {
		return fmt.Errorf("bad cushion %q: %w", signCushion, err)
	}

	if !currency.IsKnown(signCurrency) {
		return fmt.Errorf("unknown currency %q", signCurrency)
	}

	params, err := quote.NetParams(signNetwork)
	if err != nil {
		return err
	}
	if err := quote.ValidateAddress(signAddress, params); err != nil {
		return err
	}

	sats, err := quote.SatsFor(amount, rate, cushion)
	if err != nil {
		return err
	}

	now := time.Now()
	tok, err := codec.Sign(&token.Payload{
		FiatAmount:       amount,
		Currency:         currency.Normalize(signCurrency),
		Description:      signDescription,
		Address:          signAddress,
		AmountSats:       sats,
		InvoiceExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(signDays) * 24 * time.Hour)),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(signTTLMinutes) * time.Minute)),
		},
	})
	if err != nil {
		return err
	}

	fmt.Println(tok)
	return nil
}

func resolveSecret() string {
	if secret != "" {
		return secret
	}
	return os.Getenv("TOKEN_SECRET")
}
