package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// resolvePath translates an untrusted URL path into an absolute
// filesystem path proven to live inside root, or rejects it.
//
// root must already be absolute with all symlinks resolved (config does
// this once at startup). urlPath is the slash-separated request path;
// an empty string, "/" or "." all resolve to root itself and trailing
// separators are insignificant.
//
// The joined path is canonicalized with filepath.EvalSymlinks before
// the containment check, so a symlink inside the tree pointing outside
// it is rejected rather than followed. Paths that do not exist are
// reported as ErrNotFound before any deep canonicalization is
// attempted; the server never reattaches unresolved suffix components.
func resolvePath(root, urlPath string) (string, error) {
	rel := strings.Trim(urlPath, "/")
	if rel == "" || rel == "." {
		return root, nil
	}

	// Reject anything that decodes to an absolute path or carries a
	// volume/root marker before it ever touches the filesystem.
	sys := filepath.FromSlash(rel)
	if filepath.IsAbs(sys) || filepath.VolumeName(sys) != "" {
		return "", ErrTraversal
	}

	joined := filepath.Join(root, sys)

	// filepath.Join cleans ".." segments lexically; a request with more
	// ".." than depth collapses onto (or above) root's parent here.
	if !withinRoot(root, joined) {
		return "", ErrTraversal
	}

	// Canonicalize to the real target so symlinked escapes are caught.
	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("canonicalize %s: %w", joined, err)
	}

	if !withinRoot(root, resolved) {
		return "", ErrTraversal
	}
	return resolved, nil
}

// withinRoot reports whether path equals root or is a strict descendant
// of it. The separator is appended before the prefix test so a sibling
// such as /srv/files-other never matches root /srv/files.
func withinRoot(root, path string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}
