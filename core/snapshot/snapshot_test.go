package snapshot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SolaceHarmony/SolaceCore-sub002/core/actor"
	"github.com/SolaceHarmony/SolaceCore-sub002/ports/kv"
)

func TestRepository_state_roundtrip(t *testing.T) {
	r := NewRepository(kv.NewMemStore(), Options{})

	in := actor.StateSnapshot{
		ID:      "a1",
		Name:    "worker",
		State:   "paused",
		Reason:  "maintenance",
		TakenAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, r.SaveState(t.Context(), "a1", in))

	out, err := r.LoadState(t.Context(), "a1")
	require.NoError(t, err)
	require.Equal(t, in, *out)

	_, err = r.LoadState(t.Context(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_ports_roundtrip(t *testing.T) {
	r := NewRepository(kv.NewMemStore(), Options{})

	in := []actor.PortSpec{
		{Name: "in", Type: "int", Buffer: 64, Timeout: 30 * time.Second},
		{Name: "out", Type: "string", Buffer: 16, Timeout: time.Second},
	}
	require.NoError(t, r.SavePorts(t.Context(), "a1", in))

	out, err := r.LoadPorts(t.Context(), "a1")
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestRepository_custom_roundtrip(t *testing.T) {
	type progress struct {
		Offset int64  `json:"offset"`
		Phase  string `json:"phase"`
	}
	r := NewRepository(kv.NewMemStore(), Options{})

	require.NoError(t, r.SaveCustom(t.Context(), "a1", progress{Offset: 99, Phase: "resync"}))

	out, err := LoadCustom[progress](t.Context(), r, "a1")
	require.NoError(t, err)
	require.Equal(t, progress{Offset: 99, Phase: "resync"}, *out)
}

func TestRepository_checksum_detects_corruption(t *testing.T) {
	store := kv.NewMemStore()
	// cache disabled so the load hits the store
	r := NewRepository(store, Options{CacheSize: -1})

	require.NoError(t, r.SaveMetrics(t.Context(), "a1", map[string]any{"messages_processed": 3}))

	// tamper with the payload behind the repository's back
	entry, err := store.Get(t.Context(), "actor/a1/metrics")
	require.NoError(t, err)
	entry.Data = []byte(`{"messages_processed":9000}`)
	require.NoError(t, store.Put(t.Context(), "actor/a1/metrics", entry, kv.PutOptions{}))

	_, err = r.LoadMetrics(t.Context(), "a1")
	require.ErrorIs(t, err, ErrChecksum)
}

func TestRepository_accepts_unchecksummed_entries(t *testing.T) {
	store := kv.NewMemStore()
	r := NewRepository(store, Options{CacheSize: -1})

	// entries written by other producers carry no checksum
	require.NoError(t, store.Put(t.Context(), "actor/a1/metrics", kv.Entry{
		Data: []byte(`{"messages_processed":1}`),
	}, kv.PutOptions{}))

	m, err := r.LoadMetrics(t.Context(), "a1")
	require.NoError(t, err)
	require.Equal(t, float64(1), m["messages_processed"])
}

func TestRepository_save_actor(t *testing.T) {
	r := NewRepository(kv.NewMemStore(), Options{})

	a := actor.New(actor.Options{ID: "a1", Name: "worker", Context: t.Context()})
	t.Cleanup(a.Dispose)
	_, err := actor.CreatePortFor[int](a, "in", func(ctx context.Context, v int) (int, error) { return v, nil })
	require.NoError(t, err)
	a.Start()

	require.NoError(t, r.Save(t.Context(), a))

	st, err := r.LoadState(t.Context(), "a1")
	require.NoError(t, err)
	require.Equal(t, "running", st.State)

	specs, err := r.LoadPorts(t.Context(), "a1")
	require.NoError(t, err)
	require.Len(t, specs, 1)
	require.Equal(t, "in", specs[0].Name)
	require.Equal(t, "int", specs[0].Type)

	m, err := r.LoadMetrics(t.Context(), "a1")
	require.NoError(t, err)
	require.Contains(t, m, "messages_processed")
}

func TestRepository_concurrent_saves(t *testing.T) {
	store := kv.NewMemStore()
	r := NewRepository(store, Options{})
	t.Cleanup(r.Close)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := r.SaveMetrics(t.Context(), "a1", map[string]any{"n": i})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	m, err := r.LoadMetrics(t.Context(), "a1")
	require.NoError(t, err)
	require.Contains(t, m, "n")
}

func TestRepository_file_store(t *testing.T) {
	store, err := kv.NewFileStore(t.TempDir())
	require.NoError(t, err)
	r := NewRepository(store, Options{CacheSize: -1})

	in := actor.StateSnapshot{ID: "a1", Name: "w", State: "stopped", TakenAt: time.Now().UTC().Truncate(time.Second)}
	require.NoError(t, r.SaveState(t.Context(), "a1", in))

	out, err := r.LoadState(t.Context(), "a1")
	require.NoError(t, err)
	require.Equal(t, in, *out)
}
