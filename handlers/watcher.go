package handlers

import (
	"errors"
	"log"
	"os"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
)

// StartWatcher sets up recursive filesystem watches on the served root.
// On any change it invalidates the affected hidden-marker cache entries
// so the next listing is served fresh without waiting out the TTL.
//
// It returns immediately; all watch processing runs in a background
// goroutine. The returned stop function closes the watcher and
// terminates the goroutine.
func StartWatcher(root string) (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watchRecursive(w, root); err != nil {
		log.Printf("watcher: could not watch %s: %v", root, err)
	}

	go func() {
		defer w.Close()
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				handleEvent(w, event)

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("watcher: %v", err)
			}
		}
	}()

	return func() { _ = w.Close() }, nil
}

// watchRecursive adds a watch for dir and every subdirectory beneath it.
// If the kernel inotify watch limit is reached, it logs a single
// actionable message and stops — directories beyond that point fall
// back to the hidden-cache TTL.
func watchRecursive(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// Log but continue — a single unreadable dir shouldn't abort the walk.
			log.Printf("watcher: skipping %s: %v", path, err)
			return nil
		}
		if !entryIsDir(filepath.Dir(path), d) {
			return nil
		}
		if err := w.Add(path); err != nil {
			if errors.Is(err, syscall.ENOSPC) {
				log.Printf(
					"watcher: inotify watch limit reached (stopped at %s).\n"+
						"  Hidden-marker changes beyond this point are picked up by the %s cache TTL instead.\n"+
						"  To enable full coverage, raise the kernel limit:\n"+
						"    echo fs.inotify.max_user_watches=524288 | sudo tee -a /etc/sysctl.conf\n"+
						"    sudo sysctl -p",
					path, hiddenTTL,
				)
				return filepath.SkipAll
			}
			// Any other error: log and keep walking.
			log.Printf("watcher: could not add watch for %s: %v", path, err)
		}
		return nil
	})
}

// handleEvent processes a single fsnotify event.
func handleEvent(w *fsnotify.Watcher, event fsnotify.Event) {
	// If a new directory was created, start watching it (and its
	// children) immediately so marker changes inside it are also caught.
	if event.Has(fsnotify.Create) {
		if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
			if err := watchRecursive(w, event.Name); err != nil {
				log.Printf("watcher: could not watch new dir %s: %v", event.Name, err)
			}
		}
	}

	// A created, removed or renamed .hide flips its directory's
	// visibility; any other structural change may replace a directory
	// wholesale. Either way, re-checking one directory is cheap, so the
	// containing directory's cache entry is simply dropped.
	invalidateHidden(filepath.Dir(event.Name))

	// Removing or renaming a directory also orphans its own cached
	// marker result.
	if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		invalidateHidden(event.Name)
	}
}
