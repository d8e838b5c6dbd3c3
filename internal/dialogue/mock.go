package dialogue

import (
	"context"
	"fmt"
	"sync"

	"github.com/desiyatra/bargainer/internal/policy"
)

// MockGenerator is a test implementation of the Generator interface. It
// returns deterministic canned lines per action and records every request for
// verification.
type MockGenerator struct {
	err      error
	requests []Request
	failures int
	mu       sync.Mutex
}

// NewMockGenerator creates a new mock generator.
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// FailNext makes the next n Generate calls return err.
func (m *MockGenerator) FailNext(n int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = n
	m.err = err
}

// Generate returns a deterministic line for the requested action.
func (m *MockGenerator) Generate(_ context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if m.failures > 0 {
		m.failures--
		return "", m.err
	}

	switch req.Decision.Action {
	case policy.ActionAskPrice:
		return fmt.Sprintf("Hello, I need a %s. What will it cost?", Requirements(req.Vendor, req.Trip)), nil
	case policy.ActionCounter:
		return fmt.Sprintf("That is too much. Would you do it for %.0f? That is the market rate.", req.Decision.Offer), nil
	case policy.ActionAccept:
		return "Okay, done. Please confirm the booking.", nil
	case policy.ActionEndCall:
		return "Sorry, that is outside my budget. Thank you.", nil
	default:
		return "", fmt.Errorf("unknown action: %s", req.Decision.Action)
	}
}

// Requests returns a copy of all recorded requests.
func (m *MockGenerator) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	requests := make([]Request, len(m.requests))
	copy(requests, m.requests)
	return requests
}

// CallCount returns the number of Generate calls, including failed ones.
func (m *MockGenerator) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
