package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"
)

// fileEnvelope is the on-disk form of an Entry. Data is base64-encoded by
// the JSON codec since payloads are arbitrary bytes.
type fileEnvelope struct {
	Data      []byte         `json:"data"`
	Meta      map[string]any `json:"meta,omitempty"`
	ExpiresAt time.Time      `json:"expires_at,omitzero"`
}

// FileStore is a Store keeping one JSON file per key under a root
// directory. Writes go through a temp file and rename, so readers never
// observe a partial entry. TTLs are honored lazily on read.
type FileStore struct {
	root string
}

func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		return nil, fmt.Errorf("file store root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create file store root: %w", err)
	}
	return &FileStore{root: root}, nil
}

// path maps a key to its file. Keys may contain any characters; the name
// is escaped so separators cannot traverse outside root.
func (f *FileStore) path(key string) string {
	return filepath.Join(f.root, url.PathEscape(key)+".json")
}

func (f *FileStore) Put(_ context.Context, key string, entry Entry, opts PutOptions) error {
	env := fileEnvelope{Data: entry.Data, Meta: entry.Meta}
	if opts.TTL > 0 {
		env.ExpiresAt = time.Now().Add(opts.TTL)
	}
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return err
	}

	dst := f.path(key)
	tmp, err := os.CreateTemp(f.root, ".put-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

func (f *FileStore) Get(_ context.Context, key string) (Entry, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}

	var env fileEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Entry{}, fmt.Errorf("decode entry %q: %w", key, err)
	}
	if !env.ExpiresAt.IsZero() && time.Now().After(env.ExpiresAt) {
		_ = os.Remove(f.path(key))
		return Entry{}, ErrNotFound
	}
	return Entry{Data: env.Data, Meta: env.Meta}, nil
}

func (f *FileStore) Delete(_ context.Context, key string) error {
	err := os.Remove(f.path(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

var _ Store = (*FileStore)(nil)
