package integration

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/SolaceHarmony/SolaceCore-sub002/core/actor"
	"github.com/SolaceHarmony/SolaceCore-sub002/core/connection"
	"github.com/SolaceHarmony/SolaceCore-sub002/core/port"
	"github.com/SolaceHarmony/SolaceCore-sub002/core/snapshot"
	"github.com/SolaceHarmony/SolaceCore-sub002/ports/kv"
)

// doubler is an actor with an input port that doubles every int and forwards
// the result to a standalone output port. The output port is the source side
// of downstream connections.
func doubler(t *testing.T) (*actor.Actor, *port.Port) {
	out, err := port.NewFor[int]("doubler-out")
	require.NoError(t, err)
	t.Cleanup(out.Dispose)

	a := actor.New(actor.Options{Name: "doubler", Context: t.Context()})
	t.Cleanup(a.Dispose)

	_, err = actor.CreatePortFor[int](a, "in", func(ctx context.Context, v int) (int, error) {
		doubled := v * 2
		if err := port.SendValue(ctx, out, doubled); err != nil {
			return 0, err
		}
		return doubled, nil
	})
	require.NoError(t, err)

	return a, out
}

// collector is an actor whose input port appends everything it receives to a
// channel the test can drain.
func collector[T any](t *testing.T, name string) (*actor.Actor, chan T) {
	got := make(chan T, 16)
	a := actor.New(actor.Options{Name: name, Context: t.Context()})
	t.Cleanup(a.Dispose)

	_, err := actor.CreatePortFor[T](a, "in", func(ctx context.Context, v T) (T, error) {
		got <- v
		return v, nil
	})
	require.NoError(t, err)

	return a, got
}

func TestPipeline(t *testing.T) {
	src, out := doubler(t)
	sink, got := collector[int](t, "sink")

	conn, err := connection.Connect(out, sink.GetPort("in", port.TokenFor[int]()))
	require.NoError(t, err)
	require.NoError(t, conn.Start(t.Context()))
	defer conn.StopAndJoin()

	src.Start()
	sink.Start()

	in := src.GetPort("in", port.TokenFor[int]())
	require.NotNil(t, in)
	for _, v := range []int{1, 2, 3} {
		require.NoError(t, port.SendValue(t.Context(), in, v))
	}

	for _, want := range []int{2, 4, 6} {
		select {
		case v := <-got:
			require.Equal(t, want, v)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for %d", want)
		}
	}
}

func TestPipeline_conversion(t *testing.T) {
	src, out := doubler(t)
	sink, got := collector[string](t, "string-sink")

	conn, err := connection.Connect(
		out,
		sink.GetPort("in", port.TokenFor[string]()),
		connection.WithRules(connection.RuleFor[int, string]("itoa", func(_ context.Context, v int) (string, error) {
			return strconv.Itoa(v), nil
		})),
	)
	require.NoError(t, err)
	require.NoError(t, conn.Start(t.Context()))
	defer conn.StopAndJoin()

	src.Start()
	sink.Start()

	in := src.GetPort("in", port.TokenFor[int]())
	require.NoError(t, port.SendValue(t.Context(), in, 21))

	select {
	case v := <-got:
		require.Equal(t, "42", v)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for converted message")
	}
}

func TestPipeline_pause_rejects_upstream(t *testing.T) {
	src, _ := doubler(t)
	src.Start()

	in := src.GetPort("in", port.TokenFor[int]())
	require.NoError(t, port.SendValue(t.Context(), in, 1))

	require.NoError(t, src.Pause("maintenance"))
	err := port.SendValue(t.Context(), in, 2)
	require.ErrorIs(t, err, port.ErrClosed)

	require.NoError(t, src.Resume())
	require.NoError(t, port.SendValue(t.Context(), in, 3))
}

func TestPipeline_snapshot_restore(t *testing.T) {
	store, err := kv.NewFileStore(t.TempDir())
	require.NoError(t, err)
	repo := snapshot.NewRepository(store, snapshot.Options{})

	src, _ := doubler(t)
	src.Start()

	in := src.GetPort("in", port.TokenFor[int]())
	require.NoError(t, port.SendValue(t.Context(), in, 5))

	require.Eventually(t, func() bool {
		m := src.Metrics()
		return m["messages_processed"].(int64) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, repo.Save(t.Context(), src))
	src.Dispose()

	st, err := repo.LoadState(t.Context(), src.ID())
	require.NoError(t, err)
	require.Equal(t, "running", st.State)
	require.Equal(t, "doubler", st.Name)

	specs, err := repo.LoadPorts(t.Context(), src.ID())
	require.NoError(t, err)
	require.Len(t, specs, 1)

	// rebuild the actor from the persisted port configuration
	restored := actor.New(actor.Options{Name: st.Name, Context: t.Context()})
	t.Cleanup(restored.Dispose)
	for _, spec := range specs {
		_, err := actor.CreatePortFor[int](restored, spec.Name,
			func(_ context.Context, v int) (int, error) { return v * 2, nil },
			actor.WithBuffer(spec.Buffer), actor.WithTimeout(spec.Timeout))
		require.NoError(t, err)
	}
	restored.Start()
	require.True(t, restored.IsActive())

	m, err := repo.LoadMetrics(t.Context(), src.ID())
	require.NoError(t, err)
	require.Equal(t, float64(1), m["messages_processed"])
}
