package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/invoicelink/server/internal/token"
)

func init() {
	rootCmd.AddCommand(decodeCmd)
}

var decodeCmd = &cobra.Command{
	Use:   "decode <token>",
	Short: "verify a quote token and print its payload",
	Args:  cobra.ExactArgs(1),
	RunE:  doDecode,
}

func doDecode(cmd *cobra.Command, args []string) error {
	codec, err := token.New(resolveSecret())
	if err != nil {
		return err
	}

	payload, err := codec.Verify(args[0])
	if err != nil {
		return err
	}

	jsonb, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(jsonb))

	now := time.Now()
	fmt.Printf("quote expired: %v\n", payload.QuoteExpired(now))
	fmt.Printf("invoice expired: %v\n", payload.InvoiceExpired(now))
	return nil
}
