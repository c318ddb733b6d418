package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dirserve/models"
)

func entryNames(entries []models.FileEntry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

func TestListEntriesHiddenExcluded(t *testing.T) {
	root := newRoot(t)
	writeFile(t, filepath.Join(root, "docs", "readme.txt"), strings.Repeat("x", 120))
	writeFile(t, filepath.Join(root, "secret", hiddenMarker), "")
	writeFile(t, filepath.Join(root, "secret", "data.txt"), "classified")

	entries, err := listEntries(root, "/", root)
	if err != nil {
		t.Fatalf("listEntries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries %v, want 1", len(entries), entryNames(entries))
	}
	if entries[0].Name != "docs" || !entries[0].IsDir {
		t.Errorf("got %+v, want directory entry docs", entries[0])
	}
	if entries[0].TypeName != "Folder" {
		t.Errorf("TypeName = %q, want Folder", entries[0].TypeName)
	}

	entries, err = listEntries(root, "/docs", filepath.Join(root, "docs"))
	if err != nil {
		t.Fatalf("listEntries docs: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "readme.txt" {
		t.Fatalf("docs listing = %v, want [readme.txt]", entryNames(entries))
	}
	if entries[0].Size != 120 {
		t.Errorf("Size = %d, want 120", entries[0].Size)
	}
	if entries[0].Path != "/docs/readme.txt" {
		t.Errorf("Path = %q, want /docs/readme.txt", entries[0].Path)
	}
	if entries[0].TypeName != "Text File" {
		t.Errorf("TypeName = %q, want Text File", entries[0].TypeName)
	}
}

func TestListEntriesHiddenCheckIsOneLevelDeep(t *testing.T) {
	root := newRoot(t)
	// A marker two levels down hides "inner", not "outer".
	writeFile(t, filepath.Join(root, "outer", "inner", hiddenMarker), "")
	writeFile(t, filepath.Join(root, "outer", "file.txt"), "x")

	entries, err := listEntries(root, "/", root)
	if err != nil {
		t.Fatalf("listEntries: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "outer" {
		t.Fatalf("root listing = %v, want [outer]", entryNames(entries))
	}

	entries, err = listEntries(root, "/outer", filepath.Join(root, "outer"))
	if err != nil {
		t.Fatalf("listEntries outer: %v", err)
	}
	if got := entryNames(entries); len(got) != 1 || got[0] != "file.txt" {
		t.Fatalf("outer listing = %v, want [file.txt]", got)
	}
}

func TestListEntriesCanonicalOrder(t *testing.T) {
	root := newRoot(t)
	writeFile(t, filepath.Join(root, "b.txt"), "b")
	if err := os.Mkdir(filepath.Join(root, "A"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	writeFile(t, filepath.Join(root, "a.txt"), "a")

	want := []string{"A", "a.txt", "b.txt"}
	for i := 0; i < 3; i++ {
		entries, err := listEntries(root, "/", root)
		if err != nil {
			t.Fatalf("listEntries: %v", err)
		}
		got := entryNames(entries)
		if len(got) != len(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("call %d: got %v, want %v", i, got, want)
			}
		}
	}
}

func TestListEntriesEmptyDir(t *testing.T) {
	root := newRoot(t)

	entries, err := listEntries(root, "/", root)
	if err != nil {
		t.Fatalf("listEntries: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("got %v, want empty", entryNames(entries))
	}
}

func TestListEntriesNotADirectory(t *testing.T) {
	root := newRoot(t)
	writeFile(t, filepath.Join(root, "file.txt"), "x")

	_, err := listEntries(root, "/file.txt", filepath.Join(root, "file.txt"))
	if !errors.Is(err, ErrNotADirectory) {
		t.Errorf("got %v, want ErrNotADirectory", err)
	}
}

func TestListEntriesNotFound(t *testing.T) {
	root := newRoot(t)

	_, err := listEntries(root, "/gone", filepath.Join(root, "gone"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestHiddenCacheInvalidation(t *testing.T) {
	root := newRoot(t)
	dir := filepath.Join(root, "sub")
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	if isHiddenDir(dir) {
		t.Fatal("fresh directory reported hidden")
	}

	writeFile(t, filepath.Join(dir, hiddenMarker), "")
	if isHiddenDir(dir) {
		t.Fatal("cached result should still report visible before invalidation")
	}

	invalidateHidden(dir)
	if !isHiddenDir(dir) {
		t.Fatal("directory with marker not hidden after invalidation")
	}
}

// dirTemplate is a minimal stand-in for the server's template set.
type dirTemplate struct{}

func (dirTemplate) ExecuteDir(w http.ResponseWriter, d *models.DirListing) error {
	for _, e := range d.Entries {
		if _, err := w.Write([]byte(e.Name + "\n")); err != nil {
			return err
		}
	}
	return nil
}

func TestBrowseHandlerTraversalIs404(t *testing.T) {
	root := newRoot(t)
	writeFile(t, filepath.Join(root, "docs", "readme.txt"), "hello")
	h := BrowseHandler(root, "test", false, dirTemplate{})

	for _, rawPath := range []string{"/../../etc/passwd", "/docs/../../x", "/nope"} {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.URL.Path = rawPath
		w := httptest.NewRecorder()
		h(w, r)
		if w.Code != http.StatusNotFound {
			t.Errorf("GET %s: status %d, want 404", rawPath, w.Code)
		}
	}
}

func TestBrowseHandlerListsAndStreams(t *testing.T) {
	root := newRoot(t)
	writeFile(t, filepath.Join(root, "docs", "readme.txt"), strings.Repeat("x", 120))
	writeFile(t, filepath.Join(root, "secret", hiddenMarker), "")
	writeFile(t, filepath.Join(root, "secret", "data.txt"), "classified")
	h := BrowseHandler(root, "test", false, dirTemplate{})

	// Root listing names docs but not secret.
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	h(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /: status %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "docs") {
		t.Errorf("root listing missing docs: %q", body)
	}
	if strings.Contains(body, "secret") {
		t.Errorf("root listing leaks hidden directory: %q", body)
	}

	// File request streams the content as an attachment.
	r = httptest.NewRequest(http.MethodGet, "/docs/readme.txt", nil)
	w = httptest.NewRecorder()
	h(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /docs/readme.txt: status %d", w.Code)
	}
	if got := w.Body.Len(); got != 120 {
		t.Errorf("body length = %d, want 120", got)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment") {
		t.Errorf("Content-Disposition = %q, want attachment", cd)
	}
}

func TestParentPath(t *testing.T) {
	cases := []struct{ in, want string }{
		{"/", ""},
		{"", ""},
		{"/docs", "/"},
		{"/docs/sub", "/docs"},
	}
	for _, c := range cases {
		if got := parentPath(c.in); got != c.want {
			t.Errorf("parentPath(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestBuildBreadcrumbs(t *testing.T) {
	crumbs := buildBreadcrumbs("/a/b")
	want := []models.Breadcrumb{
		{Name: "root", Path: "/"},
		{Name: "a", Path: "/a"},
		{Name: "b", Path: "/a/b"},
	}
	if len(crumbs) != len(want) {
		t.Fatalf("got %v, want %v", crumbs, want)
	}
	for i := range want {
		if crumbs[i] != want[i] {
			t.Errorf("crumb %d = %v, want %v", i, crumbs[i], want[i])
		}
	}
}
