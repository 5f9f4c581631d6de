package invoice

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/invoicelink/server/internal/token"
)

type mockCodec struct {
	SignTok   string
	SignErr   error
	Signed    []*token.Payload
	VerifyPay *token.Payload
	VerifyErr error
}

func (m *mockCodec) Sign(p *token.Payload) (string, error) {
	m.Signed = append(m.Signed, p)
	return m.SignTok, m.SignErr
}

func (m *mockCodec) Verify(tok string) (*token.Payload, error) {
	return m.VerifyPay, m.VerifyErr
}

type mockRateSource struct {
	RateDec decimal.Decimal
	RateErr error
}

func (m *mockRateSource) CurrentRate(ctx context.Context, currency string) (decimal.Decimal, error) {
	return m.RateDec, m.RateErr
}
