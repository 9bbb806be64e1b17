package store

import (
	"path/filepath"
	"testing"

	"loom/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()

	fileStore, err := NewFileStore(filepath.Join(t.TempDir(), "blobs"))
	require.NoError(t, err)

	pure, err := NewSQLiteStore("sqlite", filepath.Join(t.TempDir(), "pure.db"))
	require.NoError(t, err)

	cgo, err := NewSQLiteStore("sqlite3", filepath.Join(t.TempDir(), "cgo.db"))
	require.NoError(t, err)

	all := map[string]Backend{
		"file":           fileStore,
		"memory":         NewMemoryStore(),
		"sqlite-modernc": pure,
		"sqlite-mattn":   cgo,
	}
	t.Cleanup(func() {
		for _, b := range all {
			b.Close()
		}
	})
	return all
}

func TestBackend_ReadMissing(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			data, err := b.Read("loom-trees")
			require.NoError(t, err)
			assert.Nil(t, data)
		})
	}
}

func TestBackend_WriteReadOverwrite(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, b.Write("loom-trees", []byte(`{"version":1}`)))
			data, err := b.Read("loom-trees")
			require.NoError(t, err)
			assert.Equal(t, `{"version":1}`, string(data))

			require.NoError(t, b.Write("loom-trees", []byte(`{"version":2}`)))
			data, err = b.Read("loom-trees")
			require.NoError(t, err)
			assert.Equal(t, `{"version":2}`, string(data))

			// Names are independent.
			other, err := b.Read("other")
			require.NoError(t, err)
			assert.Nil(t, other)
		})
	}
}

func TestBackend_EmptyBlobIsNotMissing(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, b.Write("loom-trees", []byte{}))
			data, err := b.Read("loom-trees")
			require.NoError(t, err)
			assert.NotNil(t, data)
			assert.Empty(t, data)
		})
	}
}

func TestBackend_RejectsBadNames(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, b.Write("", []byte("x")))
			assert.Error(t, b.Write("../escape", []byte("x")))
			_, err := b.Read(`a\b`)
			assert.Error(t, err)
		})
	}
}

func TestMemoryStore_CopiesData(t *testing.T) {
	m := NewMemoryStore()
	buf := []byte("abc")
	require.NoError(t, m.Write("n", buf))
	buf[0] = 'z'

	got, err := m.Read("n")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'q'
	again, _ := m.Read("n")
	assert.Equal(t, "abc", string(again))
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loom.db")

	s, err := NewSQLiteStore("sqlite", path)
	require.NoError(t, err)
	require.NoError(t, s.Write("loom-trees", []byte("snapshot")))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore("sqlite", path)
	require.NoError(t, err)
	defer s.Close()

	data, err := s.Read("loom-trees")
	require.NoError(t, err)
	assert.Equal(t, "snapshot", string(data))

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, CurrentSchemaVersion, version)
}

func TestSQLiteStore_InMemory(t *testing.T) {
	s, err := NewSQLiteStore("sqlite", ":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Write("a", []byte("1")))
	data, err := s.Read("a")
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))
}

func TestNewSQLiteStore_UnknownDriver(t *testing.T) {
	_, err := NewSQLiteStore("postgres", ":memory:")
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	b, err := Open(config.StoreConfig{Backend: "file"}, dir)
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, b)
	b.Close()

	b, err = Open(config.StoreConfig{Backend: "memory"}, "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, b)

	b, err = Open(config.StoreConfig{Backend: "sqlite", Driver: "sqlite"}, filepath.Join(dir, "x.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, b)
	b.Close()

	_, err = Open(config.StoreConfig{Backend: "s3"}, dir)
	assert.Error(t, err)
}
