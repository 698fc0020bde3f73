package hostext

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestCacheDBRoundTripsArtifacts exercises the sqlite-backed variant of
// spec §6's precompiled-bytecode cache: an artifact stored under
// (module, source hash) comes back byte-identical, a different hash for
// the same module misses (a stale cache entry is never served for
// changed source), and re-Putting under the same key replaces.
func TestCacheDBRoundTripsArtifacts(t *testing.T) {
	db, err := OpenCacheDB(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	artifact := []byte{1, 0x7f, 0, 42}
	require.NoError(t, db.Put("std.list", "hash-a", artifact))

	got, ok, err := db.Get("std.list", "hash-a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, artifact, got)

	_, ok, err = db.Get("std.list", "hash-b")
	require.NoError(t, err)
	require.False(t, ok, "a changed source hash must miss, not serve the stale artifact")

	_, ok, err = db.Get("std.map", "hash-a")
	require.NoError(t, err)
	require.False(t, ok)

	replacement := []byte{9, 9, 9}
	require.NoError(t, db.Put("std.list", "hash-a", replacement))
	got, ok, err = db.Get("std.list", "hash-a")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, replacement, got)
}

// TestCacheDBPersistsAcrossOpens checks the artifact really lands on
// disk: a second handle on the same file sees what the first stored.
func TestCacheDBPersistsAcrossOpens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	db, err := OpenCacheDB(path)
	require.NoError(t, err)
	require.NoError(t, db.Put("prelude", "h1", []byte{5, 4, 3}))
	require.NoError(t, db.Close())

	reopened, err := OpenCacheDB(path)
	require.NoError(t, err)
	defer reopened.Close()
	got, ok, err := reopened.Get("prelude", "h1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte{5, 4, 3}, got)
}
