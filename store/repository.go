package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/c360studio/tienditas/storage"
)

// Repository loads and saves the store collection through a storage backend.
// Backend failures never propagate as hard errors: Load falls back to the
// seeded defaults and Save leaves the caller's in-memory state authoritative
// for the session.
type Repository struct {
	backend storage.Backend
	logger  *slog.Logger
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RepositoryOption {
	return func(r *Repository) {
		r.logger = logger
	}
}

// NewRepository creates a repository over the given backend.
func NewRepository(backend storage.Backend, opts ...RepositoryOption) *Repository {
	r := &Repository{
		backend: backend,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load returns the persisted collection. On first run it seeds the backend
// with the default collection before returning a deep copy of it, so a
// caller never observes a partially-initialized document. Backend or decode
// errors are logged and answered with the in-memory defaults.
func (r *Repository) Load(ctx context.Context) Collection {
	data, err := r.backend.Get(ctx)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			r.logger.Error("Failed to read store collection, using defaults", "error", err)
			return DefaultCollection()
		}
		return r.seed(ctx)
	}

	var collection Collection
	if err := json.Unmarshal(data, &collection); err != nil {
		r.logger.Error("Failed to decode store collection, using defaults", "error", err)
		return DefaultCollection()
	}

	collection.Normalize()
	return collection
}

// Save persists the whole collection, replacing any prior document. A
// failed save is logged and swallowed: the session keeps editing its
// in-memory state and may retry on the next commit.
func (r *Repository) Save(ctx context.Context, collection Collection) {
	if err := r.save(ctx, collection); err != nil {
		r.logger.Error("Failed to save store collection", "error", err)
	}
}

func (r *Repository) save(ctx context.Context, collection Collection) error {
	data, err := json.Marshal(collection)
	if err != nil {
		return fmt.Errorf("marshal store collection: %w", err)
	}
	if err := r.backend.Put(ctx, data); err != nil {
		return fmt.Errorf("persist store collection: %w", err)
	}
	return nil
}

// seed writes the default collection and returns a copy of it. If the
// write fails the defaults are still returned; the session runs in memory.
func (r *Repository) seed(ctx context.Context) Collection {
	defaults := DefaultCollection()
	if err := r.save(ctx, defaults); err != nil {
		r.logger.Error("Failed to seed store collection", "error", err)
	} else {
		r.logger.Info("Seeded default store collection", "stores", len(defaults))
	}
	return defaults.Clone()
}
