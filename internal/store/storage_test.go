package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/stemhub/internal/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorage(t *testing.T) {
	t.Run("round trip with owner-only permissions", func(t *testing.T) {
		fs, err := NewFileStorage(filepath.Join(t.TempDir(), "nested", "dir"))
		require.NoError(t, err)

		require.NoError(t, fs.Set(SessionKey, []byte(`{"api_key":"k1"}`)))

		data, err := fs.Get(SessionKey)
		require.NoError(t, err)
		assert.Equal(t, `{"api_key":"k1"}`, string(data))

		info, err := os.Stat(filepath.Join(fs.Dir(), SessionKey+".json"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})

	t.Run("overwrite leaves no temp files", func(t *testing.T) {
		fs, err := NewFileStorage(t.TempDir())
		require.NoError(t, err)

		require.NoError(t, fs.Set(SessionKey, []byte("one")))
		require.NoError(t, fs.Set(SessionKey, []byte("two")))

		entries, err := os.ReadDir(fs.Dir())
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("absent key", func(t *testing.T) {
		fs, err := NewFileStorage(t.TempDir())
		require.NoError(t, err)

		_, err = fs.Get(SessionKey)
		assert.ErrorIs(t, err, shared.ErrRecordNotFound)
		assert.NoError(t, fs.Remove(SessionKey))
	})

	t.Run("rejects path keys", func(t *testing.T) {
		fs, err := NewFileStorage(t.TempDir())
		require.NoError(t, err)

		for _, key := range []string{"", "../escape", `a\b`, ".."} {
			assert.ErrorIs(t, fs.Set(key, []byte("x")), shared.ErrInvalidInput, key)
		}
	})
}

func TestMemoryStorage(t *testing.T) {
	m := NewMemoryStorage()

	value := []byte("abc")
	require.NoError(t, m.Set("k", value))
	value[0] = 'z'

	got, err := m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	require.NoError(t, m.Remove("k"))
	_, err = m.Get("k")
	assert.ErrorIs(t, err, shared.ErrRecordNotFound)
}

func TestOpenStorage(t *testing.T) {
	t.Run("file", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Storage.Dir = t.TempDir()

		s, closer, err := OpenStorage(cfg)
		require.NoError(t, err)
		defer closer()
		assert.IsType(t, &FileStorage{}, s)
	})

	t.Run("memory", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Storage.Driver = "memory"

		s, closer, err := OpenStorage(cfg)
		require.NoError(t, err)
		defer closer()
		assert.IsType(t, &MemoryStorage{}, s)
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Storage.Driver = "sqlite"
		cfg.Database.Path = filepath.Join(t.TempDir(), "stemhub.db")

		s, closer, err := OpenStorage(cfg)
		require.NoError(t, err)
		defer closer()

		require.NoError(t, s.Set(SessionKey, []byte(`{}`)))
		data, err := s.Get(SessionKey)
		require.NoError(t, err)
		assert.Equal(t, `{}`, string(data))
	})

	t.Run("unknown driver", func(t *testing.T) {
		cfg := shared.DefaultConfig()
		cfg.Storage.Driver = "redis"

		_, _, err := OpenStorage(cfg)
		assert.ErrorIs(t, err, shared.ErrInvalidConfig)
	})
}
