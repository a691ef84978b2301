package agent

import (
	"context"
	"strings"
	"sync"
)

// MockClient provides scripted generation responses for tests. Responses
// are routed by a substring match against the prompt; successive calls
// matching the same rule consume queued responses, with the last one
// repeating once the queue is drained.
type MockClient struct {
	mu    sync.Mutex
	rules []*mockRule
	calls []string
}

type mockRule struct {
	match     string
	queue     []mockResponse
	callCount int
}

type mockResponse struct {
	text string
	err  error
}

func NewMockClient() *MockClient {
	return &MockClient{}
}

// Respond queues successive responses for prompts containing match.
func (m *MockClient) Respond(match string, responses ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rule := m.rule(match)
	for _, r := range responses {
		rule.queue = append(rule.queue, mockResponse{text: r})
	}
}

// RespondErr queues an error response for prompts containing match.
func (m *MockClient) RespondErr(match string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rule := m.rule(match)
	rule.queue = append(rule.queue, mockResponse{err: err})
}

func (m *MockClient) rule(match string) *mockRule {
	for _, r := range m.rules {
		if r.match == match {
			return r
		}
	}
	r := &mockRule{match: match}
	m.rules = append(m.rules, r)
	return r
}

// Calls returns how many prompts containing match have been issued.
func (m *MockClient) Calls(match string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, prompt := range m.calls {
		if strings.Contains(prompt, match) {
			count++
		}
	}
	return count
}

// LastPrompt returns the most recent prompt containing match, or "".
func (m *MockClient) LastPrompt(match string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.calls) - 1; i >= 0; i-- {
		if strings.Contains(m.calls[i], match) {
			return m.calls[i]
		}
	}
	return ""
}

func (m *MockClient) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, prompt)

	for _, r := range m.rules {
		if !strings.Contains(prompt, r.match) {
			continue
		}
		idx := r.callCount
		if idx >= len(r.queue) {
			idx = len(r.queue) - 1
		}
		r.callCount++
		if idx < 0 {
			break
		}
		resp := r.queue[idx]
		return resp.text, resp.err
	}

	return "{}", nil
}

func (m *MockClient) CompleteStructured(ctx context.Context, prompt string, opts Options, target any) error {
	raw, err := m.Complete(ctx, prompt, opts)
	if err != nil {
		return err
	}
	return ExtractJSON(raw, target)
}
