package testutil

import (
	"context"
	"sync"

	"muhabbet/model"
)

// MockProvider implements model.Provider for testing
type MockProvider struct {
	// Configurable responses
	CompleteFunc func(ctx context.Context, req model.Request) (string, error)
	PingFunc     func(ctx context.Context) error

	mu           sync.Mutex
	requests     []model.Request
	currentModel string
}

// NewMockProvider creates a mock provider with default implementations
func NewMockProvider(modelName string) *MockProvider {
	mock := &MockProvider{
		currentModel: modelName,
	}
	mock.CompleteFunc = mock.defaultComplete
	mock.PingFunc = mock.defaultPing
	return mock
}

// Replying returns a mock whose every completion answers text.
func Replying(text string) *MockProvider {
	mock := NewMockProvider("mock-model")
	mock.CompleteFunc = func(ctx context.Context, req model.Request) (string, error) {
		return text, nil
	}
	return mock
}

// Failing returns a mock whose every completion fails with err.
func Failing(err error) *MockProvider {
	mock := NewMockProvider("mock-model")
	mock.CompleteFunc = func(ctx context.Context, req model.Request) (string, error) {
		return "", err
	}
	return mock
}

func (m *MockProvider) defaultComplete(ctx context.Context, req model.Request) (string, error) {
	// Default: echo back a mock response
	if len(req.Messages) > 0 {
		return "Mock response", nil
	}
	return "", nil
}

func (m *MockProvider) defaultPing(ctx context.Context) error {
	return nil
}

// Complete records the request and delegates to CompleteFunc.
func (m *MockProvider) Complete(ctx context.Context, req model.Request) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.CompleteFunc(ctx, req)
}

func (m *MockProvider) GetModel() string {
	return m.currentModel
}

func (m *MockProvider) Ping(ctx context.Context) error {
	return m.PingFunc(ctx)
}

// Calls returns how many times Complete was invoked.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// LastRequest returns the most recent request, or the zero Request.
func (m *MockProvider) LastRequest() model.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return model.Request{}
	}
	return m.requests[len(m.requests)-1]
}
