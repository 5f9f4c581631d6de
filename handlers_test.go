package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicelink/server/internal/invoice"
	"github.com/invoicelink/server/internal/payment"
	"github.com/invoicelink/server/internal/token"
)

type mockInvoiceService struct {
	CreateTok  string
	CreatePay  *token.Payload
	CreateErr  error
	RefreshTok string
	RefreshPay *token.Payload
	RefreshErr error
}

func (m *mockInvoiceService) CreateQuote(ctx context.Context, req invoice.CreateRequest) (string, *token.Payload, error) {
	return m.CreateTok, m.CreatePay, m.CreateErr
}
func (m *mockInvoiceService) RefreshQuote(ctx context.Context, tok string) (string, *token.Payload, error) {
	return m.RefreshTok, m.RefreshPay, m.RefreshErr
}

type mockVerifier struct {
	VerifyPay *token.Payload
	VerifyErr error
}

func (m *mockVerifier) Verify(tok string) (*token.Payload, error) {
	return m.VerifyPay, m.VerifyErr
}

type mockMatcher struct {
	MatchResult payment.Result
}

func (m *mockMatcher) Match(ctx context.Context, req payment.MatchRequest) payment.Result {
	return m.MatchResult
}

func testPayload() *token.Payload {
	now := time.Now()
	return &token.Payload{
		FiatAmount:       decimal.RequireFromString("100"),
		Currency:         "USD",
		Description:      "hosting",
		Address:          "bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
		AmountSats:       202000,
		InvoiceExpiresAt: jwt.NewNumericDate(now.Add(7 * 24 * time.Hour)),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(10 * time.Minute)),
		},
	}
}

func newTestRouter(h *handlers) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/invoice", h.handleCreateInvoice)
	r.Post("/invoice/refresh", h.handleRefreshQuote)
	r.Get("/invoice/{token}", h.handleGetInvoice)
	r.Get("/invoice/{token}/status", h.handleInvoiceStatus)
	return r
}

func TestHandleCreateInvoice(t *testing.T) {
	h := &handlers{
		invoices: &mockInvoiceService{CreateTok: "a.b.c", CreatePay: testPayload()},
	}
	r := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/invoice", strings.NewReader(
		`{"amount":"100","currency":"USD","address":"bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "a.b.c", resp["token"])
	assert.EqualValues(t, 202000, resp["amount_sats"])
}

func TestHandleCreateInvoiceValidation(t *testing.T) {
	h := &handlers{
		invoices: &mockInvoiceService{
			CreateErr: &invoice.ValidationError{Fields: map[string]string{"address": "invalid bitcoin address"}},
		},
	}
	r := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/invoice", strings.NewReader(`{"amount":"100"}`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp struct {
		Error       string            `json:"error"`
		FieldErrors map[string]string `json:"field_errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.FieldErrors, "address")
}

func TestHandleCreateInvoiceBadBody(t *testing.T) {
	h := &handlers{invoices: &mockInvoiceService{}}
	r := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/invoice", strings.NewReader(`not json`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRefreshQuote(t *testing.T) {
	var tests = []struct {
		name   string
		svc    *mockInvoiceService
		status int
	}{
		{
			name:   "refreshed",
			svc:    &mockInvoiceService{RefreshTok: "x.y.z", RefreshPay: testPayload()},
			status: http.StatusOK,
		},
		{
			name:   "invalid token",
			svc:    &mockInvoiceService{RefreshErr: token.ErrInvalidToken},
			status: http.StatusUnauthorized,
		},
		{
			name:   "invoice expired",
			svc:    &mockInvoiceService{RefreshErr: invoice.ErrInvoiceExpired},
			status: http.StatusGone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &handlers{invoices: tt.svc}
			r := newTestRouter(h)

			req := httptest.NewRequest(http.MethodPost, "/invoice/refresh", strings.NewReader(`{"token":"a.b.c"}`))
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestHandleGetInvoice(t *testing.T) {
	h := &handlers{codec: &mockVerifier{VerifyPay: testPayload()}}
	r := newTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/invoice/a.b.c", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "USD", resp["currency"])
	assert.Equal(t, false, resp["quote_expired"])
	assert.Equal(t, false, resp["invoice_expired"])
}

func TestHandleGetInvoiceInvalidToken(t *testing.T) {
	h := &handlers{codec: &mockVerifier{VerifyErr: token.ErrInvalidToken}}
	r := newTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/invoice/garbage", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandleInvoiceStatus(t *testing.T) {
	var tests = []struct {
		name   string
		result payment.Result
		expect string
		txid   string
	}{
		{"pending", payment.Result{Status: payment.StatusPending}, "pending", ""},
		{"detected", payment.Result{Status: payment.StatusDetected}, "detected", ""},
		{"confirmed", payment.Result{Status: payment.StatusConfirmed, TxID: "tx1"}, "confirmed", "tx1"},
		{"error", payment.Result{Status: payment.StatusError, Err: assert.AnError}, "error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &handlers{
				codec:   &mockVerifier{VerifyPay: testPayload()},
				matcher: &mockMatcher{MatchResult: tt.result},
			}
			r := newTestRouter(h)

			req := httptest.NewRequest(http.MethodGet, "/invoice/a.b.c/status", nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			var resp struct {
				Status string `json:"status"`
				TxID   string `json:"txid"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.expect, resp.Status)
			assert.Equal(t, tt.txid, resp.TxID)
		})
	}
}
