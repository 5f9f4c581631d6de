package invoice

import (
	"context"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"github.com/invoicelink/server/internal/currency"
	"github.com/invoicelink/server/internal/quote"
	"github.com/invoicelink/server/internal/token"
)

const maxDescriptionLen = 100

type Config struct {
	// QuoteTTL is the validity window of the locked rate. Minutes, not hours.
	QuoteTTL time.Duration
	// CushionPct is the markup applied before fiat to BTC conversion.
	CushionPct decimal.Decimal
	// DefaultDays is the invoice lifetime when the request leaves it unset.
	DefaultDays int
	// Net decides which bitcoin network addresses must belong to.
	Net *chaincfg.Params
}

func New(codec tokenCodec, oracle rateSource, cfg Config) (*Service, error) {
	if cfg.QuoteTTL <= 0 {
		return nil, fmt.Errorf("quote TTL must be positive")
	}
	if cfg.DefaultDays <= 0 {
		return nil, fmt.Errorf("default invoice days must be positive")
	}
	if cfg.Net == nil {
		return nil, fmt.Errorf("network params required")
	}
	return &Service{
		codec:  codec,
		oracle: oracle,
		cfg:    cfg,
		now:    time.Now,
	}, nil
}

// Service mints and refreshes quote tokens. The token is the only artifact:
// nothing is stored server-side, and refresh is expressed as deriving a new
// token from the old one's invariant fields.
type Service struct {
	codec  tokenCodec
	oracle rateSource
	cfg    Config
	now    func() time.Time
}

type tokenCodec interface {
	Sign(*token.Payload) (string, error)
	Verify(string) (*token.Payload, error)
}

type rateSource interface {
	CurrentRate(ctx context.Context, currency string) (decimal.Decimal, error)
}

type CreateRequest struct {
	Amount      decimal.Decimal
	Currency    string
	Address     string
	Description string
	// ExpiresInDays sets the invoice-level hard deadline. Zero means the
	// configured default.
	ExpiresInDays int
}

// CreateQuote validates the request, locks the current rate into a satoshi
// amount and returns the signed token plus its payload.
func (s *Service) CreateQuote(ctx context.Context, req CreateRequest) (string, *token.Payload, error) {
	if err := s.validate(req); err != nil {
		return "", nil, err
	}

	days := req.ExpiresInDays
	if days == 0 {
		days = s.cfg.DefaultDays
	}

	rate, err := s.oracle.CurrentRate(ctx, req.Currency)
	if err != nil {
		return "", nil, fmt.Errorf("current rate: %w", err)
	}

	sats, err := quote.SatsFor(req.Amount, rate, s.cfg.CushionPct)
	if err != nil {
		return "", nil, fmt.Errorf("compute sats: %w", err)
	}

	now := s.now()
	payload := &token.Payload{
		FiatAmount:       req.Amount,
		Currency:         currency.Normalize(req.Currency),
		Description:      req.Description,
		Address:          req.Address,
		AmountSats:       sats,
		InvoiceExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(days) * 24 * time.Hour)),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.QuoteTTL)),
		},
	}

	tok, err := s.codec.Sign(payload)
	if err != nil {
		return "", nil, fmt.Errorf("sign: %w", err)
	}
	return tok, payload, nil
}

// RefreshQuote supersedes an expired quote with a new token at the current
// rate. Address, fiat amount, currency, description and the invoice-level
// deadline carry over unchanged; amountSats is recomputed, never copied.
// Refused once the invoice deadline has passed.
func (s *Service) RefreshQuote(ctx context.Context, tok string) (string, *token.Payload, error) {
	old, err := s.codec.Verify(tok)
	if err != nil {
		return "", nil, err
	}

	now := s.now()
	if old.InvoiceExpired(now) {
		return "", nil, ErrInvoiceExpired
	}

	rate, err := s.oracle.CurrentRate(ctx, old.Currency)
	if err != nil {
		return "", nil, fmt.Errorf("current rate: %w", err)
	}

	sats, err := quote.SatsFor(old.FiatAmount, rate, s.cfg.CushionPct)
	if err != nil {
		return "", nil, fmt.Errorf("compute sats: %w", err)
	}

	fresh := &token.Payload{
		FiatAmount:       old.FiatAmount,
		Currency:         old.Currency,
		Description:      old.Description,
		Address:          old.Address,
		AmountSats:       sats,
		InvoiceExpiresAt: old.InvoiceExpiresAt,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.QuoteTTL)),
		},
	}

	newTok, err := s.codec.Sign(fresh)
	if err != nil {
		return "", nil, fmt.Errorf("sign: %w", err)
	}
	return newTok, fresh, nil
}

func (s *Service) validate(req CreateRequest) error {
	fields := map[string]string{}

	if req.Amount.LessThanOrEqual(decimal.Zero) {
		fields["amount"] = "must be positive"
	}
	if !currency.IsKnown(req.Currency) {
		fields["currency"] = "unknown currency code"
	}
	if err := quote.ValidateAddress(req.Address, s.cfg.Net); err != nil {
		fields["address"] = "invalid bitcoin address"
	}
	if len(req.Description) > maxDescriptionLen {
		fields["description"] = fmt.Sprintf("longer than %d characters", maxDescriptionLen)
	}
	if req.ExpiresInDays < 0 {
		fields["expires_in_days"] = "must be positive"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
