package mock

import (
	"context"
	"sync"

	"github.com/poiesic/docquery/ai"
	"github.com/poiesic/docquery/core"
)

// CompleteCall captures one invocation of MockCompleter.Complete.
type CompleteCall struct {
	Messages []core.Message
	Options  ai.CompleteOptions
}

// MockCompleter is a test double for ai.Completer.
type MockCompleter struct {
	// CompleteFunc is called by Complete if set.
	// If nil, Complete returns Reply.
	CompleteFunc func(ctx context.Context, messages []core.Message, opts ai.CompleteOptions) (string, error)

	// Reply is the canned answer used when CompleteFunc is nil.
	Reply string

	mu    sync.Mutex
	calls []CompleteCall
}

// NewMockCompleter creates a mock completer that always answers reply.
func NewMockCompleter(reply string) *MockCompleter {
	return &MockCompleter{Reply: reply}
}

// Complete records the call and returns the canned or injected reply.
func (m *MockCompleter) Complete(ctx context.Context, messages []core.Message, opts ...ai.CompleteOption) (string, error) {
	o := ai.ApplyCompleteOptions(opts...)

	m.mu.Lock()
	m.calls = append(m.calls, CompleteCall{
		Messages: append([]core.Message(nil), messages...),
		Options:  o,
	})
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, messages, o)
	}
	return m.Reply, nil
}

// CallCount returns the number of times Complete was called.
func (m *MockCompleter) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// Calls returns a copy of every recorded call in arrival order.
func (m *MockCompleter) Calls() []CompleteCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CompleteCall(nil), m.calls...)
}

// LastCall returns the most recent call.
func (m *MockCompleter) LastCall() (CompleteCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return CompleteCall{}, false
	}
	return m.calls[len(m.calls)-1], true
}

// Reset clears recorded calls and injected behavior.
func (m *MockCompleter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
	m.CompleteFunc = nil
}
