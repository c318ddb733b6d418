package handlers

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

// hiddenMarker is the sentinel filename whose presence as a direct
// child of a directory excludes that directory from its parent's
// listing. The check is one level deep only: the marked directory
// itself is hidden, not its ancestors.
const hiddenMarker = ".hide"

// hiddenTTL is a backstop expiry for cached marker checks. The watcher
// invalidates entries as soon as the filesystem changes; the TTL only
// corrects entries if a kernel watch event is ever missed.
const hiddenTTL = 5 * time.Minute

type hiddenEntry struct {
	hidden  bool
	expires time.Time
}

// hiddenCache caches "does this directory contain a .hide marker"
// results keyed by absolute directory path, saving one stat per child
// directory per listing on busy trees.
var hiddenCache struct {
	mu      sync.Mutex
	entries map[string]hiddenEntry
}

func init() {
	hiddenCache.entries = make(map[string]hiddenEntry)
}

// isHiddenDir reports whether dirPath directly contains a hiddenMarker
// file. Results are cached until the watcher invalidates them or the
// TTL lapses.
func isHiddenDir(dirPath string) bool {
	hiddenCache.mu.Lock()
	e, ok := hiddenCache.entries[dirPath]
	hiddenCache.mu.Unlock()
	if ok && time.Now().Before(e.expires) {
		return e.hidden
	}

	// Lstat: a dangling .hide symlink still counts as a marker.
	_, err := os.Lstat(filepath.Join(dirPath, hiddenMarker))
	hidden := err == nil

	hiddenCache.mu.Lock()
	hiddenCache.entries[dirPath] = hiddenEntry{hidden: hidden, expires: time.Now().Add(hiddenTTL)}
	hiddenCache.mu.Unlock()
	return hidden
}

// invalidateHidden drops the cached marker result for a single
// directory so the next listing re-checks the disk.
func invalidateHidden(dirPath string) {
	hiddenCache.mu.Lock()
	delete(hiddenCache.entries, dirPath)
	hiddenCache.mu.Unlock()
}
