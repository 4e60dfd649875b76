package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockProvider is a test provider that returns predictable responses.
type MockProvider struct {
	ChatFunc func(ctx context.Context, req ChatRequest) (string, error)

	mu       sync.Mutex
	requests []ChatRequest
}

func (p *MockProvider) Name() string { return "mock" }

// Chat records req and returns ChatFunc's answer, or an echo of the last message.
func (p *MockProvider) Chat(ctx context.Context, req ChatRequest) (string, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()

	if p.ChatFunc != nil {
		return p.ChatFunc(ctx, req)
	}
	lastMsg := ""
	if len(req.Messages) > 0 {
		lastMsg = req.Messages[len(req.Messages)-1].Content
	}
	return fmt.Sprintf("[mock] Response to: %.50s", lastMsg), nil
}

// Requests returns every request received so far.
func (p *MockProvider) Requests() []ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ChatRequest, len(p.requests))
	copy(out, p.requests)
	return out
}
