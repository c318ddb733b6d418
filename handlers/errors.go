package handlers

import "errors"

// Sentinel errors returned by the path resolution and listing layer.
// Handlers map them to HTTP statuses; ErrTraversal and ErrNotFound are
// both rendered as 404 so a probing client cannot distinguish a blocked
// escape attempt from a path that simply does not exist.
var (
	// ErrTraversal means the requested path canonicalized to a location
	// outside the served root.
	ErrTraversal = errors.New("path escapes served root")

	// ErrNotFound means the requested path does not exist on disk.
	ErrNotFound = errors.New("path does not exist")

	// ErrNotADirectory means a directory listing was requested for a
	// path that is not a directory.
	ErrNotADirectory = errors.New("not a directory")
)
