// Package testutil provides mock LLM clients for testing the chat adapter
// and the palette extractor without a live endpoint.
package testutil

import (
	"context"
	"sync"

	"github.com/c360studio/tienditas/llm"
)

// MockClient is a thread-safe stand-in for *llm.Client. Complete returns
// configured responses in sequence; Stream replays configured chunk slices.
//
// Usage:
//
//	mock := &testutil.MockClient{
//	    Responses: []*llm.Response{{Content: `{"primary": "#112233"}`}},
//	}
//
//	mock := &testutil.MockClient{
//	    Streams: [][]string{{"Hola", ", ", "¿en qué ayudo?"}},
//	}
//
//	mock := &testutil.MockClient{Err: errors.New("connection failed")}
type MockClient struct {
	mu            sync.Mutex
	Responses     []*llm.Response // Responses returned by Complete in sequence
	Streams       [][]string      // Chunk sequences returned by Stream in order
	Err           error           // Error to return (takes precedence)
	StreamErr     error           // Error delivered as the final stream chunk
	calls         int
	responseIndex int
	streamIndex   int
	lastRequest   llm.Request
}

// Complete returns the next configured response, or Err if set.
func (m *MockClient) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.lastRequest = req

	if m.Err != nil {
		return nil, m.Err
	}
	if m.responseIndex < len(m.Responses) {
		resp := m.Responses[m.responseIndex]
		m.responseIndex++
		return resp, nil
	}

	// Default response if no responses configured
	return &llm.Response{Content: "", Model: "test-model"}, nil
}

// Stream replays the next configured chunk sequence, or returns Err if set.
func (m *MockClient) Stream(ctx context.Context, req llm.Request) (<-chan llm.StreamChunk, error) {
	m.mu.Lock()
	m.calls++
	m.lastRequest = req

	if m.Err != nil {
		m.mu.Unlock()
		return nil, m.Err
	}

	var chunks []string
	if m.streamIndex < len(m.Streams) {
		chunks = m.Streams[m.streamIndex]
		m.streamIndex++
	}
	streamErr := m.StreamErr
	m.mu.Unlock()

	out := make(chan llm.StreamChunk)
	go func() {
		defer close(out)
		for _, chunk := range chunks {
			select {
			case out <- llm.StreamChunk{Delta: chunk}:
			case <-ctx.Done():
				return
			}
		}
		if streamErr != nil {
			select {
			case out <- llm.StreamChunk{Err: streamErr}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

// CallCount returns the number of requests the mock has served.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastRequest returns the most recent request seen by the mock.
func (m *MockClient) LastRequest() llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastRequest
}
