package main

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	defaultQuoteTTLMinutes  = 10
	defaultCushionPercent   = "1"
	defaultToleranceBps     = 100
	defaultInvoiceDays      = 7
	defaultNetwork          = "mainnet"
	defaultPollSeconds      = 10
	defaultCountdownSeconds = 1
	minimumSecretLength     = 32
)

type Config struct {
	// API settings
	Port int `yaml:"port" envconfig:"PORT"`

	// TokenSecret keys the HMAC over quote tokens. Long random value.
	TokenSecret string `yaml:"token_secret" envconfig:"TOKEN_SECRET"`

	// Quote settings
	Network          string `yaml:"network" envconfig:"NETWORK"`
	QuoteTTLMinutes  int    `yaml:"quote_ttl_minutes" envconfig:"QUOTE_TTL_MINUTES"`
	CushionPercent   string `yaml:"cushion_percent" envconfig:"CUSHION_PERCENT"`
	ToleranceBps     int64  `yaml:"tolerance_bps" envconfig:"TOLERANCE_BPS"`
	InvoiceDays      int    `yaml:"invoice_days" envconfig:"INVOICE_DAYS"`
	PollSeconds      int    `yaml:"poll_seconds" envconfig:"POLL_SECONDS"`
	CountdownSeconds int    `yaml:"countdown_seconds" envconfig:"COUNTDOWN_SECONDS"`

	// Provider endpoints. Defaults are the public APIs; overridden in tests.
	CoinGeckoBase  string `yaml:"coingecko_base" envconfig:"COINGECKO_BASE"`
	BitstampBase   string `yaml:"bitstamp_base" envconfig:"BITSTAMP_BASE"`
	BlockchairBase string `yaml:"blockchair_base" envconfig:"BLOCKCHAIR_BASE"`
}

// Load Config from a yaml file at path.
func (c *Config) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return err
	}

	c.applyDefaults()
	return c.validate()
}

// Load Config from the environment.
func (c *Config) LoadFromEnv() error {
	if err := envconfig.Process("", c); err != nil {
		return err
	}

	c.applyDefaults()
	return c.validate()
}

func (c *Config) applyDefaults() {
	if c.QuoteTTLMinutes == 0 {
		c.QuoteTTLMinutes = defaultQuoteTTLMinutes
	}
	if c.CushionPercent == "" {
		c.CushionPercent = defaultCushionPercent
	}
	if c.ToleranceBps == 0 {
		c.ToleranceBps = defaultToleranceBps
	}
	if c.InvoiceDays == 0 {
		c.InvoiceDays = defaultInvoiceDays
	}
	if c.Network == "" {
		c.Network = defaultNetwork
	}
	if c.PollSeconds == 0 {
		c.PollSeconds = defaultPollSeconds
	}
	if c.CountdownSeconds == 0 {
		c.CountdownSeconds = defaultCountdownSeconds
	}
}

func (c *Config) validate() error {
	if len(c.TokenSecret) < minimumSecretLength {
		return fmt.Errorf("token_secret must be at least %d characters of random data", minimumSecretLength)
	}
	return nil
}
