package lifecycle

import (
	"context"
	"sync"

	"github.com/invoicelink/server/internal/payment"
	"github.com/invoicelink/server/internal/token"
)

// mockMatcher returns its scripted results in order, repeating the last one
// once the script runs out.
type mockMatcher struct {
	mu      sync.Mutex
	Results []payment.Result
	Calls   int
	LastReq payment.MatchRequest
}

func (m *mockMatcher) Match(ctx context.Context, req payment.MatchRequest) payment.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	m.LastReq = req
	if len(m.Results) == 0 {
		return payment.Result{Status: payment.StatusPending}
	}
	res := m.Results[0]
	if len(m.Results) > 1 {
		m.Results = m.Results[1:]
	}
	return res
}

func (m *mockMatcher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

type mockRefresher struct {
	mu         sync.Mutex
	RefreshTok string
	RefreshPay *token.Payload
	RefreshErr error
	Calls      int
}

func (m *mockRefresher) RefreshQuote(ctx context.Context, tok string) (string, *token.Payload, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	return m.RefreshTok, m.RefreshPay, m.RefreshErr
}

func (m *mockRefresher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}
