// Package storage provides blob backends for the store collection document.
// The whole collection is persisted as one JSON document under a single
// namespaced key; backends only need Get/Put semantics for that one blob.
package storage

import (
	"context"
	"errors"
)

// DocumentKey is the namespaced key the store collection lives under.
// The version suffix allows future schema migrations to coexist.
const DocumentKey = "tienditas_stores_data_v2"

// ErrNotFound is returned when no document has been persisted yet.
var ErrNotFound = errors.New("document not found")

// Backend persists a single opaque document.
type Backend interface {
	// Get returns the persisted document, or ErrNotFound if none exists.
	Get(ctx context.Context) ([]byte, error)

	// Put replaces the persisted document.
	Put(ctx context.Context, data []byte) error

	// Close releases backend resources.
	Close() error
}
