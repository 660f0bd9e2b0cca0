package compiler

import (
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/xyproto/env/v2"
)

const binCacheMaxBytes = 1 << 30 // 1 GB

// binCache stores gzip-compressed program binaries keyed by the hash of
// their Go source, so running an unchanged program skips go build.
type binCache struct {
	dir string
}

// openBinCache returns the cache, or nil when caching is disabled with
// PSEUDO_NO_CACHE or no cache directory is available. PSEUDO_CACHE_DIR
// overrides the location.
func openBinCache() *binCache {
	if env.Bool("PSEUDO_NO_CACHE") {
		return nil
	}
	dir := env.Str("PSEUDO_CACHE_DIR")
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil
		}
		dir = filepath.Join(base, "pseudo", "bincache")
	}
	return &binCache{dir: dir}
}

// key hashes everything that affects the built binary.
func (c *binCache) key(goSource, goMod string) string {
	h := sha256.New()
	for _, part := range []string{goSource, goMod, runtime.GOOS, runtime.GOARCH, env.Str("PSEUDO_GO", "go")} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func (c *binCache) path(key string) string {
	return filepath.Join(c.dir, key+".gz")
}

// load writes the cached binary for key to dest. It reports false on a
// miss or any read error. A hit refreshes the entry's LRU timestamp.
func (c *binCache) load(key, dest string) bool {
	cached := c.path(key)
	f, err := os.Open(cached)
	if err != nil {
		return false
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return false
	}
	defer gr.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return false
	}
	if _, err := io.Copy(out, gr); err != nil {
		out.Close()
		os.Remove(dest)
		return false
	}
	if err := out.Close(); err != nil {
		return false
	}
	now := time.Now()
	os.Chtimes(cached, now, now)
	return true
}

// store compresses bin into the cache, then evicts the oldest entries
// while the cache exceeds its size cap. Failures only cost a rebuild, so
// they are ignored.
func (c *binCache) store(key, bin string) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return
	}
	data, err := os.ReadFile(bin)
	if err != nil {
		return
	}
	tmp, err := os.CreateTemp(c.dir, "tmp-*")
	if err != nil {
		return
	}
	gw, err := gzip.NewWriterLevel(tmp, gzip.BestSpeed)
	if err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return
	}
	_, werr := gw.Write(data)
	cerr := gw.Close()
	ferr := tmp.Close()
	if werr != nil || cerr != nil || ferr != nil {
		os.Remove(tmp.Name())
		return
	}
	if err := os.Rename(tmp.Name(), c.path(key)); err != nil {
		os.Remove(tmp.Name())
		return
	}
	c.evict(binCacheMaxBytes)
}

// evict removes the least recently used entries until the cache holds at
// most max bytes.
func (c *binCache) evict(max int64) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return
	}

	type entry struct {
		path    string
		size    int64
		modTime time.Time
	}
	var files []entry
	var total int64
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".gz" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, entry{path: filepath.Join(c.dir, e.Name()), size: info.Size(), modTime: info.ModTime()})
		total += info.Size()
	}
	if total <= max {
		return
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].modTime.Before(files[j].modTime)
	})
	for _, f := range files {
		if total <= max {
			break
		}
		os.Remove(f.path)
		total -= f.size
	}
}
