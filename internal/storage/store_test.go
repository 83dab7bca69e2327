package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	sq, err := NewSQLite(filepath.Join(dir, "db", "ferry.db"))
	require.NoError(t, err)
	fs, err := NewFileStore(filepath.Join(dir, "files"))
	require.NoError(t, err)

	stores := map[string]Store{
		"sqlite": sq,
		"file":   fs,
		"memory": NewMemStore(),
	}
	t.Cleanup(func() {
		for _, s := range stores {
			s.Close()
		}
	})
	return stores
}

func TestStore_Conformance(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, KeyShips)
			assert.ErrorIs(t, err, ErrKeyNotFound)

			require.NoError(t, s.Set(ctx, KeyShips, []byte(`[1]`)))
			require.NoError(t, s.Set(ctx, KeyShips, []byte(`[1,2]`)))
			require.NoError(t, s.Set(ctx, KeyUsers, []byte(`[]`)))

			got, err := s.Get(ctx, KeyShips)
			require.NoError(t, err)
			assert.Equal(t, `[1,2]`, string(got))

			keys, err := s.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{KeyShips, KeyUsers}, keys)

			require.NoError(t, s.Delete(ctx, KeyShips))
			assert.ErrorIs(t, s.Delete(ctx, KeyShips), ErrKeyNotFound)
		})
	}
}

func TestSQLite_Revision(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "ferry.db"))
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(ctx, KeyLogs, []byte(`[]`)))
	require.NoError(t, s.Set(ctx, KeyLogs, []byte(`[{}]`)))

	rev, err := s.Revision(ctx, KeyLogs)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev)
}

func TestSQLite_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ferry.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, KeyTelegram, []byte(`{"botToken":"x"}`)))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, KeyTelegram)
	require.NoError(t, err)
	assert.JSONEq(t, `{"botToken":"x"}`, string(got))
}

func TestFileStore_RejectsPathKeys(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "../x", "a/b", `a\b`, ".hidden"} {
		assert.Error(t, fs.Set(context.Background(), key, []byte(`1`)), key)
	}
}

type ship struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

func TestLoad_FallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.WarnLevel)
	sn := NewSnapshots(NewMemStore(), zap.New(core))
	def := []ship{{Name: "탐나라호", Capacity: 300}}

	// Missing key is silent.
	assert.Equal(t, def, Load(ctx, sn, KeyShips, def))
	assert.Equal(t, 0, logs.Len())

	// Corrupt JSON falls back and warns.
	require.NoError(t, sn.Store().Set(ctx, KeyShips, []byte(`{not json`)))
	assert.Equal(t, def, Load(ctx, sn, KeyShips, def))
	assert.Equal(t, 1, logs.FilterMessage("Malformed snapshot, using default").Len())

	// A wrong shape is treated the same as garbage.
	require.NoError(t, sn.Store().Set(ctx, KeyShips, []byte(`{"name":"x"}`)))
	assert.Equal(t, def, Load(ctx, sn, KeyShips, def))
}

func TestSnapshots_SaveLoadRemove(t *testing.T) {
	ctx := context.Background()
	sn := NewSnapshots(NewMemStore(), nil)

	want := []ship{{Name: "가우디호", Capacity: 100}}
	require.NoError(t, sn.Save(ctx, KeyShips, want))
	assert.Equal(t, want, Load[[]ship](ctx, sn, KeyShips, nil))

	require.NoError(t, sn.Remove(ctx, KeyShips))
	require.NoError(t, sn.Remove(ctx, KeyShips), "removing twice is fine")
	assert.Nil(t, Load[[]ship](ctx, sn, KeyShips, nil))
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	src := NewMemStore()
	require.NoError(t, src.Set(ctx, KeyUsers, []byte(`[{"id":"u1"}]`)))
	require.NoError(t, src.Set(ctx, KeyShips, []byte(`[]`)))

	dst, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	n, err := Migrate(ctx, src, dst)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := dst.Get(ctx, KeyUsers)
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"u1"}]`, string(got))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(DriverMemory, "", "")
	require.NoError(t, err)
	assert.IsType(t, &MemStore{}, s)

	s, err = Open(DriverFile, "", dir)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)

	_, err = Open("redis", "", "")
	assert.Error(t, err)
}
