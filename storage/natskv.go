package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Bucket name for the store collection document.
const kvBucket = "TIENDITAS_STORES"

// NATSBackend stores the document in a NATS JetStream KV bucket. It is the
// backend to use when several admin instances share one collection.
type NATSBackend struct {
	conn *nats.Conn
	kv   jetstream.KeyValue
}

// NewNATSBackend connects to the NATS server at url and ensures the KV
// bucket exists.
func NewNATSBackend(ctx context.Context, url string) (*NATSBackend, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}

	kv, err := getOrCreateBucket(ctx, js, kvBucket)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create stores bucket: %w", err)
	}

	return &NATSBackend{conn: conn, kv: kv}, nil
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "Tienditas store collection storage",
		History:     5, // Keep last 5 revisions
	})
}

// Get returns the document stored under DocumentKey.
func (b *NATSBackend) Get(ctx context.Context) ([]byte, error) {
	entry, err := b.kv.Get(ctx, DocumentKey)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read document: %w", err)
	}
	return entry.Value(), nil
}

// Put replaces the document stored under DocumentKey.
func (b *NATSBackend) Put(ctx context.Context, data []byte) error {
	if _, err := b.kv.Put(ctx, DocumentKey, data); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}

// Close drains the NATS connection.
func (b *NATSBackend) Close() error {
	b.conn.Close()
	return nil
}
