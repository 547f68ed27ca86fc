package storage

import (
	"context"
	"sync"
)

// MemoryBackend keeps the document in process memory. Used in tests and as
// the last-resort fallback when no persistent backend can be opened.
type MemoryBackend struct {
	mu   sync.RWMutex
	data []byte

	// FailPuts makes every Put return an error. Tests use it to exercise
	// the repository's save-failure path.
	FailPuts error
}

// NewMemoryBackend returns an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Get returns the stored document, or ErrNotFound before the first Put.
func (b *MemoryBackend) Get(_ context.Context) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.data == nil {
		return nil, ErrNotFound
	}
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out, nil
}

// Put replaces the stored document.
func (b *MemoryBackend) Put(_ context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailPuts != nil {
		return b.FailPuts
	}
	b.data = make([]byte, len(data))
	copy(b.data, data)
	return nil
}

// Close is a no-op.
func (b *MemoryBackend) Close() error { return nil }
