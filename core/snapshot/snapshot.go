// Package snapshot persists serialized actor state through the kv
// persistence contract. It stores lifecycle state, port configuration,
// metrics and caller-defined custom state per actor id, with an integrity
// checksum on every entry, a small read-through cache, single-flight
// deduplication of concurrent loads and per-actor serialization of
// concurrent writes.
//
// No wire format is mandated by the runtime itself; this repository uses
// JSON with a BLAKE2b checksum in the entry metadata.
package snapshot

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/SolaceHarmony/SolaceCore-sub002/core/actor"
	"github.com/SolaceHarmony/SolaceCore-sub002/core/cache"
	"github.com/SolaceHarmony/SolaceCore-sub002/core/perkey"
	"github.com/SolaceHarmony/SolaceCore-sub002/core/sf"
	"github.com/SolaceHarmony/SolaceCore-sub002/ports/kv"
)

var (
	// ErrChecksum is returned when a stored entry's payload does not match
	// its recorded checksum.
	ErrChecksum = errors.New("snapshot checksum mismatch")
	// ErrNotFound aliases the store's not-found condition.
	ErrNotFound = kv.ErrNotFound
)

const checksumMeta = "checksum"

type Options struct {
	// CacheSize bounds the read-through cache. 0 uses a default; negative
	// disables caching.
	CacheSize int
}

// Repository snapshots actors into a kv.Store, keyed by actor id. Writes
// for the same actor are serialized in submission order; writes for
// different actors proceed in parallel.
type Repository struct {
	store   kv.Store
	cache   cache.Cache[[]byte]
	flights *sf.Singleflight[kv.Entry]
	writes  *perkey.Scheduler[string]
}

func NewRepository(store kv.Store, opts Options) *Repository {
	var c cache.Cache[[]byte]
	switch {
	case opts.CacheSize < 0:
		c = cache.NewNop[[]byte]()
	default:
		c = cache.NewLRU[[]byte](opts.CacheSize)
	}
	return &Repository{
		store:   store,
		cache:   c,
		flights: sf.New[kv.Entry](),
		writes:  perkey.New[string](),
	}
}

// Close shuts down the write scheduler. Pending writes still run.
func (r *Repository) Close() {
	r.writes.Close()
}

func stateKey(id string) string   { return "actor/" + id + "/state" }
func portsKey(id string) string   { return "actor/" + id + "/ports" }
func metricsKey(id string) string { return "actor/" + id + "/metrics" }
func customKey(id string) string  { return "actor/" + id + "/custom" }

// SaveState persists the actor's lifecycle snapshot.
func (r *Repository) SaveState(ctx context.Context, actorID string, s actor.StateSnapshot) error {
	return r.writes.DoContext(ctx, actorID, func() error {
		return save(ctx, r, stateKey(actorID), s)
	})
}

// LoadState loads the actor's lifecycle snapshot.
func (r *Repository) LoadState(ctx context.Context, actorID string) (*actor.StateSnapshot, error) {
	return load[actor.StateSnapshot](ctx, r, stateKey(actorID))
}

// SavePorts persists the actor's port configuration.
func (r *Repository) SavePorts(ctx context.Context, actorID string, specs []actor.PortSpec) error {
	return r.writes.DoContext(ctx, actorID, func() error {
		return save(ctx, r, portsKey(actorID), specs)
	})
}

// LoadPorts loads the actor's port configuration.
func (r *Repository) LoadPorts(ctx context.Context, actorID string) ([]actor.PortSpec, error) {
	out, err := load[[]actor.PortSpec](ctx, r, portsKey(actorID))
	if err != nil {
		return nil, err
	}
	return *out, nil
}

// SaveMetrics persists a metrics snapshot.
func (r *Repository) SaveMetrics(ctx context.Context, actorID string, m map[string]any) error {
	return r.writes.DoContext(ctx, actorID, func() error {
		return save(ctx, r, metricsKey(actorID), m)
	})
}

// LoadMetrics loads the last persisted metrics snapshot.
func (r *Repository) LoadMetrics(ctx context.Context, actorID string) (map[string]any, error) {
	out, err := load[map[string]any](ctx, r, metricsKey(actorID))
	if err != nil {
		return nil, err
	}
	return *out, nil
}

// SaveCustom persists caller-defined state for the actor.
func (r *Repository) SaveCustom(ctx context.Context, actorID string, v any) error {
	return r.writes.DoContext(ctx, actorID, func() error {
		return save(ctx, r, customKey(actorID), v)
	})
}

// LoadCustom loads caller-defined state into T.
func LoadCustom[T any](ctx context.Context, r *Repository, actorID string) (*T, error) {
	return load[T](ctx, r, customKey(actorID))
}

// Save captures state, ports and metrics of an actor in one call.
func (r *Repository) Save(ctx context.Context, a *actor.Actor) error {
	if err := r.SaveState(ctx, a.ID(), a.SnapshotState()); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	if err := r.SavePorts(ctx, a.ID(), a.SnapshotPorts()); err != nil {
		return fmt.Errorf("save ports: %w", err)
	}
	if err := r.SaveMetrics(ctx, a.ID(), a.Metrics()); err != nil {
		return fmt.Errorf("save metrics: %w", err)
	}
	return nil
}

func save[T any](ctx context.Context, r *Repository, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	entry := kv.Entry{
		Data: data,
		Meta: map[string]any{checksumMeta: checksum(data)},
	}
	if err := r.store.Put(ctx, key, entry, kv.PutOptions{}); err != nil {
		return err
	}
	r.cache.Put(key, data)
	return nil
}

func load[T any](ctx context.Context, r *Repository, key string) (*T, error) {
	if data, ok := r.cache.Get(key); ok {
		out := new(T)
		if err := json.Unmarshal(data, out); err == nil {
			return out, nil
		}
		// fall through to the store on a poisoned cache entry
		r.cache.Delete(key)
	}

	entry, err := r.flights.Do(key, func() (*kv.Entry, error) {
		e, err := r.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		return &e, nil
	})
	if err != nil {
		return nil, err
	}

	if err := verify(*entry); err != nil {
		return nil, fmt.Errorf("entry %q: %w", key, err)
	}

	out := new(T)
	if err := json.Unmarshal(entry.Data, out); err != nil {
		return nil, fmt.Errorf("decode entry %q: %w", key, err)
	}
	r.cache.Put(key, entry.Data)
	return out, nil
}

// verify checks the payload against the recorded checksum. Entries written
// by other producers may carry no checksum; those are accepted as-is.
func verify(entry kv.Entry) error {
	want, ok := entry.Meta[checksumMeta].(string)
	if !ok || want == "" {
		return nil
	}
	if got := checksum(entry.Data); got != want {
		return fmt.Errorf("%w: want %s, got %s", ErrChecksum, want, got)
	}
	return nil
}

// checksum is a short BLAKE2b digest, hex encoded.
func checksum(data []byte) string {
	h, _ := blake2b.New(8, nil)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
