package main

import (
	"github.com/spf13/cobra"
)

var (
	secret string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&secret, "secret", "s", "", "token secret (defaults to TOKEN_SECRET env)")
}

var rootCmd = &cobra.Command{
	Use:   "quotectl",
	Short: "invoicelink quote token CLI",
	Run: func(cmd *cobra.Command, args []string) {
	},
}
