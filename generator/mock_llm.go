package generator

import (
	"context"
	"sync"
)

// MockLLM is a deterministic LLMClient for tests and offline use. It
// returns Response (or Err) on every call and records the prompts it
// received.
type MockLLM struct {
	Response string
	Err      error

	mu    sync.Mutex
	calls []string
}

func (m *MockLLM) Complete(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}

// Calls returns a copy of the prompts seen so far.
func (m *MockLLM) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
