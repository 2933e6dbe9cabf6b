package kv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_File_roundtrip(t *testing.T) {
	type Foo struct {
		Name string
		Age  int
	}
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = Get[Foo](t.Context(), s, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, Put[Foo](t.Context(), s, "p1", Foo{Name: "P1", Age: 10}, PutOptions{}))

	loaded, err := Get[Foo](t.Context(), s, "p1")
	require.NoError(t, err)
	require.Equal(t, Foo{Name: "P1", Age: 10}, loaded)

	require.NoError(t, s.Delete(t.Context(), "p1"))
	require.NoError(t, s.Delete(t.Context(), "p1")) // deleting absent keys is fine
	_, err = Get[Foo](t.Context(), s, "p1")
	require.ErrorIs(t, err, ErrNotFound)
}

func Test_File_meta_and_slash_keys(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	in := Entry{
		Data: []byte(`{"v":1}`),
		Meta: map[string]any{"checksum": "abc"},
	}
	require.NoError(t, s.Put(t.Context(), "actor/a1/state", in, PutOptions{}))

	out, err := s.Get(t.Context(), "actor/a1/state")
	require.NoError(t, err)
	require.Equal(t, in.Data, out.Data)
	require.Equal(t, "abc", out.Meta["checksum"])
}

func Test_File_TTL(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Put(t.Context(), "short", Entry{Data: []byte("x")}, PutOptions{TTL: time.Millisecond}))
	time.Sleep(5 * time.Millisecond)

	_, err = s.Get(t.Context(), "short")
	require.ErrorIs(t, err, ErrNotFound)
}

func Test_File_bad_root(t *testing.T) {
	_, err := NewFileStore("")
	require.Error(t, err)
}
