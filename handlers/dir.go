// Package handlers contains all HTTP handler functions and the path
// resolution / directory listing core they are built on.
package handlers

import (
	"errors"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"dirserve/metrics"
	"dirserve/models"
)

// entryIsDir reports whether a directory entry is a directory, correctly
// following symlinks. os.ReadDir uses os.Lstat semantics, so
// DirEntry.IsDir() returns false for symlinks that point to directories.
// This helper resolves the symlink via os.Stat when necessary.
func entryIsDir(parent string, d os.DirEntry) bool {
	if d.Type()&os.ModeSymlink == 0 {
		return d.IsDir()
	}
	fi, err := os.Stat(filepath.Join(parent, d.Name()))
	return err == nil && fi.IsDir()
}

// listEntries enumerates the direct children of fsPath, a directory
// already proven confined to the served root, and returns one FileEntry
// per visible child. Child directories that directly contain a .hide
// marker are omitted entirely.
//
// The canonical listing order is name ascending with a case-sensitive
// ordinal compare, directories and files mixed — exactly what
// os.ReadDir already yields, so the slice is never re-sorted. The
// browser UI may re-sort client-side; this baseline stays stable for a
// given filesystem snapshot.
//
// A child whose stat fails is skipped with a logged warning rather than
// failing the whole listing. An fsPath that is not a directory returns
// ErrNotADirectory; a directory that cannot be read at all fails as a
// single error.
func listEntries(root, urlPath, fsPath string) ([]models.FileEntry, error) {
	fi, err := os.Stat(fsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !fi.IsDir() {
		return nil, ErrNotADirectory
	}

	rawEntries, err := os.ReadDir(fsPath)
	if err != nil {
		return nil, err
	}

	entries := make([]models.FileEntry, 0, len(rawEntries))
	for _, e := range rawEntries {
		fullPath := filepath.Join(fsPath, e.Name())
		isDir := entryIsDir(fsPath, e)

		if isDir && isHiddenDir(fullPath) {
			continue
		}

		// os.Stat so that symlinks are followed for size and modtime.
		info, err := os.Stat(fullPath)
		if err != nil {
			log.Printf("listing: skipping %s: %v", fullPath, err)
			continue
		}

		fe := models.FileEntry{
			Name:     e.Name(),
			Path:     path.Join(urlPath, e.Name()),
			IsDir:    isDir,
			ModTime:  info.ModTime(),
			TypeName: typeLabel(isDir, e.Name()),
		}
		if !isDir {
			fe.Size = info.Size()
			fe.MIMEType = mimeForName(e.Name())
		}
		entries = append(entries, fe)
	}

	return entries, nil
}

// BrowseHandler is the catch-all handler for GET / and GET /<path>.
// Directories render as an index page; files stream as attachments.
// Both traversal attempts and missing paths answer 404.
func BrowseHandler(root, siteName string, readme bool, tmpl interface {
	ExecuteDir(http.ResponseWriter, *models.DirListing) error
}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		urlPath := path.Clean("/" + r.URL.Path)

		fsPath, err := resolvePath(root, urlPath)
		if err != nil {
			rejectPath(w, r, urlPath, err)
			return
		}

		info, err := os.Stat(fsPath)
		if err != nil {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}

		if !info.IsDir() {
			serveFile(w, r, urlPath, fsPath, info)
			return
		}

		entries, err := listEntries(root, urlPath, fsPath)
		if err != nil {
			log.Printf("listing: %s: %v", fsPath, err)
			http.Error(w, "Error reading directory", http.StatusInternalServerError)
			return
		}

		listing := &models.DirListing{
			Title:       listingTitle(siteName, urlPath),
			SiteName:    siteName,
			CurrentPath: urlPath,
			ParentPath:  parentPath(urlPath),
			Breadcrumbs: buildBreadcrumbs(urlPath),
			Entries:     entries,
			DownloadURL: "/zip" + urlPath,
			IsRoot:      urlPath == "/",
		}
		if readme {
			listing.Readme = renderReadme(fsPath)
		}

		if err := tmpl.ExecuteDir(w, listing); err != nil {
			http.Error(w, "Template error", http.StatusInternalServerError)
		}
	}
}

// rejectPath maps a resolution error onto the client-visible response.
// Traversal attempts and nonexistent paths are deliberately
// indistinguishable from the outside; the distinction only shows up in
// the server log and metrics.
func rejectPath(w http.ResponseWriter, r *http.Request, urlPath string, err error) {
	if errors.Is(err, ErrTraversal) {
		metrics.TraversalRejected()
		log.Printf("traversal rejected  ip=%-15s  path=%s", clientIP(r), urlPath)
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, ErrNotFound) {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	log.Printf("resolve: %s: %v", urlPath, err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

// listingTitle names the page after the directory, falling back to the
// site name at the root.
func listingTitle(siteName, urlPath string) string {
	if urlPath == "/" {
		return siteName
	}
	return path.Base(urlPath)
}

// parentPath returns the URL path one level up, or "" at the root.
func parentPath(urlPath string) string {
	if urlPath == "/" || urlPath == "" {
		return ""
	}
	parent := path.Dir(urlPath)
	if parent == "." {
		return "/"
	}
	return parent
}

// buildBreadcrumbs creates a slice of breadcrumbs from a URL path.
func buildBreadcrumbs(urlPath string) []models.Breadcrumb {
	crumbs := []models.Breadcrumb{{Name: "root", Path: "/"}}
	if urlPath == "/" {
		return crumbs
	}

	parts := strings.Split(strings.Trim(urlPath, "/"), "/")
	current := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		current += "/" + p
		crumbs = append(crumbs, models.Breadcrumb{Name: p, Path: current})
	}
	return crumbs
}
