package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/invoicelink/server/internal/invoice"
	"github.com/invoicelink/server/internal/payment"
	"github.com/invoicelink/server/internal/token"
)

// State is the lifecycle position of one quote token lineage.
type State string

const (
	StatePending        State = "pending"
	StateDetected       State = "detected"
	StateConfirmed      State = "confirmed"
	StateQuoteExpired   State = "quote_expired"
	StateRefreshing     State = "refreshing"
	StateInvoiceExpired State = "invoice_expired"
	StateError          State = "error"
)

// Terminal reports whether polling stops at this state.
func (s State) Terminal() bool {
	return s == StateConfirmed || s == StateInvoiceExpired
}

type matcher interface {
	Match(ctx context.Context, req payment.MatchRequest) payment.Result
}

type refresher interface {
	RefreshQuote(ctx context.Context, tok string) (string, *token.Payload, error)
}

type Config struct {
	// PollInterval spaces payment-status scans.
	PollInterval time.Duration
	// TickInterval is the countdown granularity toward quote expiry.
	TickInterval time.Duration
	// OnChange, when set, is called after every state transition.
	OnChange func(Snapshot)
}

// Snapshot is an atomic read of the controller's current token/payload/state.
type Snapshot struct {
	State   State          `json:"state"`
	Token   string         `json:"token"`
	Payload *token.Payload `json:"payload"`
	TxID    string         `json:"txid,omitempty"`
}

func New(m matcher, r refresher, tok string, payload *token.Payload, cfg Config) (*Controller, error) {
	if payload == nil {
		return nil, fmt.Errorf("payload required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 10 * time.Second
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	return &Controller{
		m:           m,
		r:           r,
		poll:        cfg.PollInterval,
		tick:        cfg.TickInterval,
		onChange:    cfg.OnChange,
		now:         time.Now,
		tok:         tok,
		payload:     payload,
		state:       StatePending,
		windowStart: payload.IssuedTime(),
	}, nil
}

// Controller drives one quote lineage through its states. Run is a single
// cooperative loop over two tickers, so there is never more than one
// in-flight matcher scan or refresh. Payment checks are evaluated ahead of
// expiry-driven refresh on every cycle, and observed payment progress is
// never downgraded by a later poll or replaced by a refresh.
type Controller struct {
	m        matcher
	r        refresher
	poll     time.Duration
	tick     time.Duration
	onChange func(Snapshot)
	now      func() time.Time

	// windowStart pins payment matching to the first issuance of this
	// lineage; refreshes move iat forward but must not hide payments made
	// against an earlier quote.
	windowStart time.Time

	mu      sync.RWMutex
	tok     string
	payload *token.Payload
	state   State
	txid    string
}

// Snapshot returns the current pair and state. Readers see either the
// pre-refresh or post-refresh pair, never a mix.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{State: c.state, Token: c.tok, Payload: c.payload, TxID: c.txid}
}

// Run evaluates the state machine until a terminal state or ctx cancellation.
func (c *Controller) Run(ctx context.Context) error {
	pollT := time.NewTicker(c.poll)
	defer pollT.Stop()
	tickT := time.NewTicker(c.tick)
	defer tickT.Stop()

	// Immediate first pass so callers get a verdict without waiting out a
	// full poll interval.
	if c.cycle(ctx, true) {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-pollT.C:
			if c.cycle(ctx, true) {
				return nil
			}
		case <-tickT.C:
			if c.cycle(ctx, false) {
				return nil
			}
		}
	}
}

// cycle runs one evaluation. poll controls whether a payment scan is due;
// a pending expiry forces one anyway so a just-paid invoice is never
// replaced by a higher-rate quote. Returns true at a terminal state.
func (c *Controller) cycle(ctx context.Context, poll bool) bool {
	now := c.now()
	snap := c.Snapshot()

	if snap.State.Terminal() {
		return true
	}

	// The invoice-level deadline supersedes every other state, including an
	// unconfirmed detection.
	if snap.Payload.InvoiceExpired(now) {
		c.transition(StateInvoiceExpired, "")
		return true
	}

	needRefresh := snap.State != StateDetected && snap.Payload.QuoteExpired(now)

	if poll || needRefresh {
		switch res := c.m.Match(ctx, c.matchRequest(snap)); res.Status {
		case payment.StatusConfirmed:
			c.transition(StateConfirmed, res.TxID)
			return true
		case payment.StatusDetected:
			// Payment observed: stop considering refresh for good.
			c.transition(StateDetected, "")
			return false
		case payment.StatusError:
			// Transient provider trouble. Equivalent to pending for retry
			// purposes; does not block an expiry-driven refresh.
			log.Printf("payment scan failed: %v", res.Err)
			if snap.State == StatePending {
				c.transition(StateError, "")
			}
		case payment.StatusPending:
			if snap.State == StateError {
				c.transition(StatePending, "")
			}
		}
	}

	if needRefresh {
		c.refresh(ctx)
	}
	return c.Snapshot().State.Terminal()
}

func (c *Controller) refresh(ctx context.Context) {
	c.transition(StateQuoteExpired, "")
	c.transition(StateRefreshing, "")

	newTok, fresh, err := c.r.RefreshQuote(ctx, c.Snapshot().Token)
	if err != nil {
		if errors.Is(err, invoice.ErrInvoiceExpired) {
			c.transition(StateInvoiceExpired, "")
			return
		}
		log.Printf("quote refresh failed: %v", err)
		c.transition(StateError, "")
		return
	}

	c.mu.Lock()
	c.tok = newTok
	c.payload = fresh
	c.mu.Unlock()

	c.transition(StatePending, "")
}

func (c *Controller) matchRequest(snap Snapshot) payment.MatchRequest {
	return payment.MatchRequest{
		Address:     snap.Payload.Address,
		FiatAmount:  snap.Payload.FiatAmount,
		Currency:    snap.Payload.Currency,
		WindowStart: c.windowStart,
		WindowEnd:   snap.Payload.WindowEnd(),
	}
}

func (c *Controller) transition(next State, txid string) {
	c.mu.Lock()
	if c.state == next && c.txid == txid {
		c.mu.Unlock()
		return
	}
	c.state = next
	if txid != "" {
		c.txid = txid
	}
	c.mu.Unlock()

	if c.onChange != nil {
		c.onChange(c.Snapshot())
	}
}
