package server

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dirserve/models"
)

// loadTestTemplates parses templates from the filesystem (not embedded)
// so the server package tests don't need the embed FS from main.go.
func loadTestTemplates(t *testing.T) *Templates {
	t.Helper()
	tmpl, err := loadTemplatesFromDisk("../templates")
	if err != nil {
		t.Fatalf("LoadTemplates: %v", err)
	}
	return tmpl
}

func TestTemplatesParse(t *testing.T) {
	loadTestTemplates(t)
}

func TestExecuteDir(t *testing.T) {
	tmpl := loadTestTemplates(t)

	data := &models.DirListing{
		Title:       "docs",
		SiteName:    "test",
		CurrentPath: "/docs",
		ParentPath:  "/",
		Breadcrumbs: []models.Breadcrumb{{Name: "root", Path: "/"}, {Name: "docs", Path: "/docs"}},
		Entries: []models.FileEntry{
			{Name: "readme.txt", Path: "/docs/readme.txt", Size: 120, ModTime: time.Now(), TypeName: "Text File"},
			{Name: "subdir", Path: "/docs/subdir", IsDir: true, ModTime: time.Now(), TypeName: "Folder"},
		},
		DownloadURL: "/zip/docs",
	}

	w := httptest.NewRecorder()
	if err := tmpl.ExecuteDir(w, data); err != nil {
		t.Fatalf("ExecuteDir: %v", err)
	}
	if w.Code != 200 {
		t.Errorf("expected 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "readme.txt") {
		t.Errorf("listing missing file row: %q", body)
	}
	if !strings.Contains(body, "subdir/") {
		t.Errorf("listing missing directory row: %q", body)
	}
	if !strings.Contains(body, "120 B") {
		t.Errorf("listing missing human size: %q", body)
	}
	if !strings.Contains(body, `href="/"`) {
		t.Errorf("listing missing parent link: %q", body)
	}
}

func TestExecuteDirEmpty(t *testing.T) {
	tmpl := loadTestTemplates(t)

	data := &models.DirListing{
		Title:       "empty",
		SiteName:    "test",
		CurrentPath: "/empty",
		ParentPath:  "/",
		Breadcrumbs: []models.Breadcrumb{{Name: "root", Path: "/"}},
		DownloadURL: "/zip/empty",
	}

	w := httptest.NewRecorder()
	if err := tmpl.ExecuteDir(w, data); err != nil {
		t.Fatalf("ExecuteDir: %v", err)
	}
	if !strings.Contains(w.Body.String(), "directory is empty") {
		t.Errorf("missing empty-directory notice: %q", w.Body.String())
	}
}

func TestHumanSize(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1 << 20, "1.0 MB"},
	}
	for _, c := range cases {
		if got := humanSize(c.in); got != c.want {
			t.Errorf("humanSize(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}
