package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"

	"github.com/invoicelink/server/internal/chain/blockchair"
	"github.com/invoicelink/server/internal/invoice"
	"github.com/invoicelink/server/internal/payment"
	"github.com/invoicelink/server/internal/quote"
	"github.com/invoicelink/server/internal/rates"
	"github.com/invoicelink/server/internal/rates/bitstamp"
	"github.com/invoicelink/server/internal/rates/coingecko"
	"github.com/invoicelink/server/internal/token"
)

var (
	commit    string
	buildDate string
)

func main() {
	configPath := flag.String("config", "", "location of config file. If non is specified config will be loaded from the environment")
	flag.Parse()

	log.Printf("build info: commit: %v date: %v\n", commit, buildDate)

	var (
		cfg Config
		err error
	)
	if *configPath != "" {
		log.Printf("loading config from file %q\n", *configPath)
		err = cfg.Load(*configPath)
	} else {
		log.Println("loading config from env")
		err = cfg.LoadFromEnv()
	}
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}

	codec, err := token.New(cfg.TokenSecret)
	if err != nil {
		log.Printf("codec err: %v\n", err)
		os.Exit(1)
	}

	cushion, err := decimal.NewFromString(cfg.CushionPercent)
	if err != nil {
		log.Printf("bad cushion_percent %q: %v\n", cfg.CushionPercent, err)
		os.Exit(1)
	}

	netParams, err := quote.NetParams(cfg.Network)
	if err != nil {
		log.Println(err)
		os.Exit(1)
	}

	// Price oracle: CoinGecko primary, Bitstamp fallback, Blockchair for
	// the historical per-block rates used in payment matching.
	chain := blockchair.New(cfg.BlockchairBase)
	oracle, err := rates.New(coingecko.New(cfg.CoinGeckoBase), bitstamp.New(cfg.BitstampBase), chain)
	if err != nil {
		log.Printf("oracle err: %v\n", err)
		os.Exit(1)
	}

	invoices, err := invoice.New(codec, oracle, invoice.Config{
		QuoteTTL:    time.Duration(cfg.QuoteTTLMinutes) * time.Minute,
		CushionPct:  cushion,
		DefaultDays: cfg.InvoiceDays,
		Net:         netParams,
	})
	if err != nil {
		log.Printf("invoice err: %v\n", err)
		os.Exit(1)
	}

	matcher, err := payment.New(chain, oracle, cfg.ToleranceBps)
	if err != nil {
		log.Printf("matcher err: %v\n", err)
		os.Exit(1)
	}

	h := handlers{
		config:   cfg,
		invoices: invoices,
		codec:    codec,
		matcher:  matcher,
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(metricsMiddleware)

	r.Post("/invoice", h.handleCreateInvoice)
	r.Post("/invoice/refresh", h.handleRefreshQuote)
	r.Get("/invoice/{token}", h.handleGetInvoice)
	r.Get("/invoice/{token}/status", h.handleInvoiceStatus)
	r.Get("/invoice/{token}/events", h.handleInvoiceEvents)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	port := fmt.Sprintf(":%d", cfg.Port)

	log.Printf("api listening on %v\n", port)

	http.ListenAndServe(port, r)
}
