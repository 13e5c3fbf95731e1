package webserv

import (
	"crypto/sha256"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/fsnotify/fsnotify"
)

// assetCacheMaxMemoryBytes bounds the in-memory fastcache backing the asset
// cache.
const assetCacheMaxMemoryBytes = 32 * 1024 * 1024

// cachedAsset is the bookkeeping entry stored per resolved filesystem path;
// the byte content itself lives in the fastcache keyed by checksum.
type cachedAsset struct {
	checksum [sha256.Size]byte
	modTime  time.Time
}

// assetCache is an in-memory cache of static file bytes, keyed by a content
// checksum and invalidated when the backing file on disk changes.
type assetCache struct {
	once    sync.Once
	mu      sync.Mutex
	entries map[string]*cachedAsset
	cache   *fastcache.Cache
	watcher *fsnotify.Watcher
	logger  *Logger
}

// newAssetCache returns a pointer of a new instance of the `assetCache`.
func newAssetCache(logger *Logger) *assetCache {
	c := &assetCache{
		entries: map[string]*cachedAsset{},
		logger:  logger,
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Errorf("webserv: failed to build asset cache watcher: %v", err)
		return c
	}
	c.watcher = w

	go c.watch()

	return c
}

func (c *assetCache) watch() {
	for {
		select {
		case e, ok := <-c.watcher.Events:
			if !ok {
				return
			}
			c.invalidate(e.Name)
		case err, ok := <-c.watcher.Errors:
			if !ok {
				return
			}
			c.logger.Errorf("webserv: asset cache watcher error: %v", err)
		}
	}
}

func (c *assetCache) invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[path]
	if !ok {
		return
	}
	delete(c.entries, path)
	c.cache.Del(entry.checksum[:])
}

// Load returns the bytes and modification time of path, serving from cache
// when the file's on-disk mtime hasn't changed since it was cached.
func (c *assetCache) Load(path string) ([]byte, time.Time, error) {
	c.once.Do(func() {
		c.cache = fastcache.New(assetCacheMaxMemoryBytes)
	})

	fi, err := os.Stat(path)
	if err != nil {
		return nil, time.Time{}, err
	}
	if fi.IsDir() {
		return nil, time.Time{}, fmt.Errorf("webserv: %s is a directory", path)
	}

	c.mu.Lock()
	entry, ok := c.entries[path]
	c.mu.Unlock()

	if ok && entry.modTime.Equal(fi.ModTime()) {
		if data := c.cache.Get(nil, entry.checksum[:]); len(data) > 0 {
			return data, entry.modTime, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, time.Time{}, err
	}

	checksum := sha256.Sum256(data)
	c.cache.Set(checksum[:], data)

	c.mu.Lock()
	c.entries[path] = &cachedAsset{checksum: checksum, modTime: fi.ModTime()}
	c.mu.Unlock()

	if c.watcher != nil {
		c.watcher.Add(path)
	}

	return data, fi.ModTime(), nil
}
