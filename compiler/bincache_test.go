package compiler

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinCacheRoundTrip(t *testing.T) {
	setEnv(t, "PSEUDO_CACHE_DIR", t.TempDir())
	setEnv(t, "PSEUDO_NO_CACHE", "")
	cache := openBinCache()
	require.NotNil(t, cache)

	key := cache.key("package main", goModContent())
	assert.Len(t, key, 16)
	assert.NotEqual(t, key, cache.key("package main // changed", goModContent()))

	dest := filepath.Join(t.TempDir(), "prog")
	assert.False(t, cache.load(key, dest))

	bin := filepath.Join(t.TempDir(), "bin")
	require.NoError(t, os.WriteFile(bin, []byte("binary contents"), 0o755))
	cache.store(key, bin)

	require.True(t, cache.load(key, dest))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "binary contents", string(data))
}

func TestBinCacheDisabled(t *testing.T) {
	setEnv(t, "PSEUDO_NO_CACHE", "1")
	assert.Nil(t, openBinCache())
	setEnv(t, "PSEUDO_NO_CACHE", "")
	assert.NotNil(t, openBinCache())
}

func TestBinCacheEvictsOldest(t *testing.T) {
	dir := t.TempDir()
	cache := &binCache{dir: dir}
	old := time.Now().Add(-time.Hour)
	for i, name := range []string{"a.gz", "b.gz", "c.gz"} {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, make([]byte, 100), 0o644))
		ts := old.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(p, ts, ts))
	}

	cache.evict(250)

	_, err := os.Stat(filepath.Join(dir, "a.gz"))
	assert.True(t, os.IsNotExist(err))
	assert.FileExists(t, filepath.Join(dir, "b.gz"))
	assert.FileExists(t, filepath.Join(dir, "c.gz"))
}
