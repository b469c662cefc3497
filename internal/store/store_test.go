package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type favorite struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

func backends(t *testing.T) map[string]Store {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	file, err := NewFileStore(filepath.Join(t.TempDir(), "nested", "store.json"))
	require.NoError(t, err)

	redisStore := NewRedisStore(RedisOptions{Address: mr.Addr()})
	t.Cleanup(func() { redisStore.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"file":   file,
		"redis":  redisStore,
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "session")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.Set(ctx, "session", []byte(`{"token":"abc"}`)))

			got, err := s.Get(ctx, "session")
			require.NoError(t, err)
			assert.JSONEq(t, `{"token":"abc"}`, string(got))

			require.NoError(t, s.Delete(ctx, "session"))
			_, err = s.Get(ctx, "session")
			assert.ErrorIs(t, err, ErrNotFound)

			assert.NoError(t, s.Delete(ctx, "missing"))
		})
	}
}

func TestNamespace(t *testing.T) {
	ctx := context.Background()

	for name, s := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ns := NewNamespace[[]favorite](s, "favorites")
			assert.Equal(t, "favorites_u1", ns.Key("u1"))
			assert.Equal(t, "favorites", ns.Key(""))

			empty, err := ns.LoadOr(ctx, "u1", []favorite{})
			require.NoError(t, err)
			assert.Empty(t, empty)

			updated, err := ns.Update(ctx, "u1", func(items []favorite) ([]favorite, error) {
				return append(items, favorite{ID: "w1", Name: "Ravi"}), nil
			})
			require.NoError(t, err)
			assert.Len(t, updated, 1)

			loaded, err := ns.Load(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, []favorite{{ID: "w1", Name: "Ravi"}}, loaded)

			_, err = ns.Load(ctx, "u2")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	first, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "profile_u1", []byte(`{"phone":"123"}`)))
	require.NoError(t, first.Set(ctx, "session", []byte(`{"token":"t"}`)))

	second, err := NewFileStore(path)
	require.NoError(t, err)
	got, err := second.Get(ctx, "profile_u1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"phone":"123"}`, string(got))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreRejectsInvalidJSON(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)

	assert.Error(t, s.Set(context.Background(), "k", []byte("not json")))
}

func TestFileStoreCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))

	s, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = s.Get(context.Background(), "session")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreUsesPrefix(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	s := NewRedisStore(RedisOptions{Address: mr.Addr(), Prefix: "wf:"})
	defer s.Close()

	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Set(context.Background(), "session", []byte(`{}`)))

	value, err := mr.Get("wf:session")
	require.NoError(t, err)
	assert.Equal(t, "{}", value)
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		want    any
		wantErr bool
	}{
		{name: "memory", cfg: Config{Backend: "memory"}, want: &MemoryStore{}},
		{name: "file", cfg: Config{Backend: "file", Path: filepath.Join(t.TempDir(), "s.json")}, want: &FileStore{}},
		{name: "default is file", cfg: Config{Path: filepath.Join(t.TempDir(), "s.json")}, want: &FileStore{}},
		{name: "redis", cfg: Config{Backend: "Redis"}, want: &RedisStore{}},
		{name: "unknown", cfg: Config{Backend: "etcd"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer s.Close()
			assert.IsType(t, tt.want, s)
		})
	}
}
