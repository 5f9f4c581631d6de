package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/invoicelink/server/internal/invoice"
	"github.com/invoicelink/server/internal/lifecycle"
	"github.com/invoicelink/server/internal/payment"
	"github.com/invoicelink/server/internal/rates"
	"github.com/invoicelink/server/internal/token"
)

type handlers struct {
	config   Config
	invoices invoiceService
	codec    tokenVerifier
	matcher  paymentMatcher
}

type invoiceService interface {
	CreateQuote(ctx context.Context, req invoice.CreateRequest) (string, *token.Payload, error)
	RefreshQuote(ctx context.Context, tok string) (string, *token.Payload, error)
}

type tokenVerifier interface {
	Verify(tok string) (*token.Payload, error)
}

type paymentMatcher interface {
	Match(ctx context.Context, req payment.MatchRequest) payment.Result
}

// handleCreateInvoice mints a new quote token.
func (h *handlers) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Amount        decimal.Decimal `json:"amount"`
		Currency      string          `json:"currency"`
		Address       string          `json:"address"`
		Description   string          `json:"description"`
		ExpiresInDays int             `json:"expires_in_days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "expected JSON payload")
		return
	}

	tok, payload, err := h.invoices.CreateQuote(ctx, invoice.CreateRequest{
		Amount:        req.Amount,
		Currency:      req.Currency,
		Address:       req.Address,
		Description:   req.Description,
		ExpiresInDays: req.ExpiresInDays,
	})
	if err != nil {
		var verr *invoice.ValidationError
		switch {
		case errors.As(err, &verr):
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":        "invalid invoice request",
				"field_errors": verr.Fields,
			})
		case errors.Is(err, rates.ErrPriceUnavailable):
			log.Printf("err: invoices.CreateQuote: %v", err)
			writeError(w, http.StatusBadGateway, "price service unavailable, try again later")
		default:
			log.Printf("err: invoices.CreateQuote: %v", err)
			writeError(w, http.StatusInternalServerError, "unable to create invoice")
		}
		return
	}

	quotesIssuedCounter.Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"token":            tok,
		"amount_sats":      payload.AmountSats,
		"quote_expires_at": payload.ExpiresAt.Unix(),
	})
}

// handleRefreshQuote supersedes an expired quote with a fresh one carrying
// the same commercial terms.
func (h *handlers) handleRefreshQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "expected JSON payload")
		return
	}

	tok, payload, err := h.invoices.RefreshQuote(ctx, req.Token)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrInvalidToken):
			writeError(w, http.StatusUnauthorized, "invalid token")
		case errors.Is(err, invoice.ErrInvoiceExpired):
			writeError(w, http.StatusGone, "invoice expired")
		case errors.Is(err, rates.ErrPriceUnavailable):
			log.Printf("err: invoices.RefreshQuote: %v", err)
			writeError(w, http.StatusBadGateway, "price service unavailable, try again later")
		default:
			log.Printf("err: invoices.RefreshQuote: %v", err)
			writeError(w, http.StatusInternalServerError, "unable to refresh quote")
		}
		return
	}

	quotesRefreshedCounter.Inc()
	writeJSON(w, http.StatusOK, map[string]any{
		"token":            tok,
		"amount_sats":      payload.AmountSats,
		"quote_expires_at": payload.ExpiresAt.Unix(),
	})
}

// handleGetInvoice decodes a token for display. Expired payloads decode
// fine; the caller gets the temporal flags alongside.
func (h *handlers) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.verifyParam(w, r)
	if !ok {
		return
	}

	now := time.Now()
	resp := map[string]any{
		"amount_fiat":      payload.FiatAmount,
		"currency":         payload.Currency,
		"description":      payload.Description,
		"address":          payload.Address,
		"amount_sats":      payload.AmountSats,
		"issued_at":        payload.IssuedAt.Unix(),
		"quote_expires_at": payload.ExpiresAt.Unix(),
		"quote_expired":    payload.QuoteExpired(now),
		"invoice_expired":  payload.InvoiceExpired(now),
	}
	if payload.InvoiceExpiresAt != nil {
		resp["invoice_expires_at"] = payload.InvoiceExpiresAt.Unix()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleInvoiceStatus runs one stateless payment scan for a token.
func (h *handlers) handleInvoiceStatus(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.verifyParam(w, r)
	if !ok {
		return
	}

	res := h.matcher.Match(r.Context(), payment.MatchRequest{
		Address:     payload.Address,
		FiatAmount:  payload.FiatAmount,
		Currency:    payload.Currency,
		WindowStart: payload.IssuedTime(),
		WindowEnd:   payload.WindowEnd(),
	})
	paymentChecksCounter.WithLabelValues(string(res.Status)).Inc()

	if res.Status == payment.StatusError {
		// Transient; the client retries. Never report it as "no payment".
		log.Printf("err: matcher.Match: %v", res.Err)
	}
	writeJSON(w, http.StatusOK, res)
}

// handleInvoiceEvents streams lifecycle states for a token over SSE. Each
// connection gets its own controller; it stops with the connection or at a
// terminal state, whichever first.
func (h *handlers) handleInvoiceEvents(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.verifyParam(w, r)
	if !ok {
		return
	}

	fl, canFlush := w.(http.Flusher)
	if !canFlush {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	updates := make(chan lifecycle.Snapshot, 8)
	ctrl, err := lifecycle.New(h.matcher, h.invoices, chi.URLParam(r, "token"), payload, lifecycle.Config{
		PollInterval: time.Duration(h.config.PollSeconds) * time.Second,
		TickInterval: time.Duration(h.config.CountdownSeconds) * time.Second,
		OnChange: func(s lifecycle.Snapshot) {
			select {
			case updates <- s:
			default:
			}
		},
	})
	if err != nil {
		log.Printf("err: lifecycle.New: %v", err)
		writeError(w, http.StatusInternalServerError, "unable to watch invoice")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	writeEvent(w, ctrl.Snapshot())
	fl.Flush()

	done := make(chan struct{})
	go func() {
		ctrl.Run(r.Context())
		close(done)
	}()

	for {
		select {
		case <-r.Context().Done():
			return
		case s := <-updates:
			writeEvent(w, s)
			fl.Flush()
		case <-done:
			writeEvent(w, ctrl.Snapshot())
			fl.Flush()
			return
		}
	}
}

func (h *handlers) verifyParam(w http.ResponseWriter, r *http.Request) (*token.Payload, bool) {
	payload, err := h.codec.Verify(chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return nil, false
	}
	return payload, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	jsonb, err := json.Marshal(v)
	if err != nil {
		log.Printf("failed to marshal resp: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(jsonb)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

func writeEvent(w http.ResponseWriter, s lifecycle.Snapshot) {
	jsonb, _ := json.Marshal(map[string]any{
		"state": s.State,
		"token": s.Token,
		"txid":  s.TxID,
	})
	w.Write([]byte("data: "))
	w.Write(jsonb)
	w.Write([]byte("\n\n"))
}
