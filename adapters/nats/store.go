package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/SolaceHarmony/SolaceCore-sub002/ports/kv"
)

type Config struct {
	Connect Connector
	Bucket  string
	// MaxBytes bounds the bucket size. Defaults to 1 MiB.
	MaxBytes int64
}

// Store implements the kv persistence contract on a JetStream KV bucket.
type Store struct {
	kv      jetstream.KeyValue
	release closeFunc
}

type envelope struct {
	Data      []byte         `json:"data"`
	Meta      map[string]any `json:"meta,omitempty"`
	ExpiresAt time.Time      `json:"expires_at,omitzero"`
}

func NewStore(cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("bucket is required")
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 1024 * 1024
	}

	doConnect := cfg.Connect
	if doConnect == nil {
		doConnect = ConnectDefault()
	}

	nc, release, err := doConnect()
	if err != nil {
		return nil, err
	}

	js, err := jetstream.New(nc)
	if err != nil {
		release()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bucket, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:   cfg.Bucket,
		Storage:  jetstream.FileStorage,
		MaxBytes: cfg.MaxBytes,
	})
	if err != nil {
		release()
		return nil, err
	}

	return &Store{kv: bucket, release: release}, nil
}

// Close releases the underlying connection lease.
func (s *Store) Close() {
	if s.release != nil {
		s.release()
	}
}

// encodeKey maps contract keys onto the KV key charset: path separators
// become dots ("actor/x/state" -> "actor.x.state").
func encodeKey(key string) string {
	return strings.ReplaceAll(key, "/", ".")
}

func (s *Store) Put(ctx context.Context, key string, entry kv.Entry, opts kv.PutOptions) error {
	env := envelope{Data: entry.Data, Meta: entry.Meta}
	if opts.TTL > 0 {
		env.ExpiresAt = time.Now().Add(opts.TTL)
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	if _, err := s.kv.Put(ctx, encodeKey(key), data); err != nil {
		return fmt.Errorf("put %q: %w", key, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (kv.Entry, error) {
	v, err := s.kv.Get(ctx, encodeKey(key))
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return kv.Entry{}, kv.ErrNotFound
		}
		return kv.Entry{}, fmt.Errorf("get %q: %w", key, err)
	}

	var env envelope
	if err := json.Unmarshal(v.Value(), &env); err != nil {
		return kv.Entry{}, fmt.Errorf("decode %q: %w", key, err)
	}
	if !env.ExpiresAt.IsZero() && time.Now().After(env.ExpiresAt) {
		_ = s.kv.Delete(ctx, encodeKey(key))
		return kv.Entry{}, kv.ErrNotFound
	}
	return kv.Entry{Data: env.Data, Meta: env.Meta}, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.kv.Delete(ctx, encodeKey(key)); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

var _ kv.Store = (*Store)(nil)
