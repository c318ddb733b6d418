package server

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"dirserve/models"
)

// Templates wraps the compiled page template set.
type Templates struct {
	dir *template.Template
}

var tmplFuncs = template.FuncMap{
	"humanSize": humanSize,
	"timeFmt":   func(t time.Time) string { return t.Format("2006-01-02 15:04") },
}

// LoadTemplates parses all templates from the embedded FS. The
// directory page is parsed on top of base.html so its {{define
// "content"}} block fills the base layout.
func LoadTemplates(tfs embed.FS) (*Templates, error) {
	sub, err := fs.Sub(tfs, "templates")
	if err != nil {
		return nil, fmt.Errorf("sub fs: %w", err)
	}

	dir, err := template.New("").Funcs(tmplFuncs).ParseFS(sub, "base.html", "directory.html")
	if err != nil {
		return nil, fmt.Errorf("parse directory template: %w", err)
	}

	return &Templates{dir: dir}, nil
}

// loadTemplatesFromDisk loads templates directly from the filesystem.
// Used in tests where the embedded FS is not available.
func loadTemplatesFromDisk(dir string) (*Templates, error) {
	dirTmpl, err := template.New("").Funcs(tmplFuncs).ParseFiles(dir+"/base.html", dir+"/directory.html")
	if err != nil {
		return nil, fmt.Errorf("parse directory template: %w", err)
	}
	return &Templates{dir: dirTmpl}, nil
}

// ExecuteDir renders the directory listing template.
func (t *Templates) ExecuteDir(w http.ResponseWriter, data *models.DirListing) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return t.dir.ExecuteTemplate(w, "base", data)
}

// humanSize formats a byte count into a human-readable string.
func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for n := n / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
