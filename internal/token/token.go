package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
)

var ErrInvalidToken = errors.New("invalid token")

// Payload is the full state of an invoice quote. It lives only inside the
// signed token; there is no server-side record of issued quotes.
type Payload struct {
	FiatAmount  decimal.Decimal `json:"amount_fiat"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
	Address     string          `json:"address"`
	// AmountSats is derived from the rate at issuance, recomputed on every
	// refresh, never user-supplied.
	AmountSats int64 `json:"amount_sats"`
	// InvoiceExpiresAt is the hard deadline of the commercial offer. It is
	// carried unchanged across refreshes, unlike the iat/exp quote window.
	InvoiceExpiresAt *jwt.NumericDate `json:"invoice_expires_at,omitempty"`
	jwt.RegisteredClaims
}

// QuoteExpired reports whether the locked-rate window has passed.
func (p *Payload) QuoteExpired(now time.Time) bool {
	return p.ExpiresAt != nil && now.After(p.ExpiresAt.Time)
}

// InvoiceExpired reports whether the invoice-level deadline has passed.
// An absent deadline never expires.
func (p *Payload) InvoiceExpired(now time.Time) bool {
	return p.InvoiceExpiresAt != nil && now.After(p.InvoiceExpiresAt.Time)
}

// IssuedTime returns iat, or the zero time if unset.
func (p *Payload) IssuedTime() time.Time {
	if p.IssuedAt == nil {
		return time.Time{}
	}
	return p.IssuedAt.Time
}

// WindowEnd returns the end of the payment-matching window: the invoice
// deadline when present, otherwise the quote expiry.
func (p *Payload) WindowEnd() time.Time {
	if p.InvoiceExpiresAt != nil {
		return p.InvoiceExpiresAt.Time
	}
	if p.ExpiresAt != nil {
		return p.ExpiresAt.Time
	}
	return time.Time{}
}

func New(secret string) (*Codec, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("token secret must be at least 32 characters")
	}
	return &Codec{secret: []byte(secret)}, nil
}

// Codec signs and verifies quote tokens with an HMAC-SHA256 keyed by a
// server-held secret.
type Codec struct {
	secret []byte
}

func (c *Codec) Sign(p *Payload) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, p)
	return tok.SignedString(c.secret)
}

// Verify checks the signature and structure only. It deliberately does not
// reject expired tokens: callers need the expired payload to render an
// expired state or to drive a refresh. Expiry is a temporal check the
// caller makes against the payload, not a signature check.
func (c *Codec) Verify(tok string) (*Payload, error) {
	parsed, err := jwt.ParseWithClaims(tok, &Payload{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	payload, ok := parsed.Claims.(*Payload)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	return payload, nil
}
