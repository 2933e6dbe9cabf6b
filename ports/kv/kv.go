// Package kv defines the key-value persistence contract the runtime
// snapshots actor state through, together with in-memory and file-backed
// implementations. Adapters for external systems (NATS JetStream) live
// under adapters/.
package kv

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("not found")
)

// Entry is a stored value with optional metadata (checksums, content type).
// Meta must survive a JSON round-trip: implementations may serialize it.
type Entry struct {
	Data []byte
	Meta map[string]any
}

type PutOptions struct {
	// TTL expires the entry after the given duration. Zero means no expiry.
	// Implementations may expire lazily, on the next read.
	TTL time.Duration
}

// Store is the persistence contract. Implementations must be safe for
// concurrent use.
type Store interface {
	Put(ctx context.Context, key string, entry Entry, opts PutOptions) error
	Get(ctx context.Context, key string) (entry Entry, err error)
	Delete(ctx context.Context, key string) error
}

// Put marshals v as JSON and stores it under key.
func Put[T any](ctx context.Context, store Store, key string, v T, opts PutOptions) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return store.Put(ctx, key, Entry{Data: data}, opts)
}

// Get loads key and unmarshals its JSON payload into T.
func Get[T any](ctx context.Context, store Store, key string) (out T, err error) {
	entry, err := store.Get(ctx, key)
	if err != nil {
		return
	}
	err = json.Unmarshal(entry.Data, &out)
	if err != nil {
		return
	}
	return
}
