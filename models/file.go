// Package models defines data structures used throughout the server.
package models

import (
	"html/template"
	"time"
)

// FileEntry represents a single file or directory row in a listing.
// Size is meaningful for files only; directories report zero and the
// template renders a dash instead.
type FileEntry struct {
	Name     string
	Path     string // URL path relative to the server root (e.g. /docs/readme.txt)
	IsDir    bool
	Size     int64
	ModTime  time.Time
	TypeName string // human label shown in the Type column ("Folder", "Image", ...)
	MIMEType string
}

// DirListing holds everything the directory template needs.
type DirListing struct {
	Title       string
	SiteName    string // branding name shown in the header and page title
	CurrentPath string // URL path of this directory
	ParentPath  string // URL path of the parent directory; empty at the root
	Breadcrumbs []Breadcrumb
	Entries     []FileEntry
	// DownloadURL is the URL that serves this directory as a ZIP archive.
	DownloadURL string
	// IsRoot is true when this listing represents the served root itself.
	IsRoot bool
	// Readme is the sanitized rendered HTML of a README file found in this
	// directory, or empty when there is none.
	Readme template.HTML
}

// Breadcrumb is one segment of the path shown in the navigation bar.
type Breadcrumb struct {
	Name string
	Path string // URL path for this breadcrumb
}

// StatsSnapshot is the point-in-time view of the download counters
// served on /api/stats.
type StatsSnapshot struct {
	TotalDownloads int64 `json:"total_downloads"`
	TotalBytes     int64 `json:"total_bytes"`
}
