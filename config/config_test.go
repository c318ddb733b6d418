package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
)

func TestParseBandwidth(t *testing.T) {
	cases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"8", 1, false}, // bare number is bits/sec
		{"8bps", 1, false},
		{"10mbps", 1_250_000, false},
		{"500 kbps", 62_500, false},
		{"1gbps", 125_000_000, false},
		{"fast", 0, true},
		{"10zbps", 0, true},
		{"-5mbps", 0, true},
	}
	for _, c := range cases {
		got, err := parseBandwidth(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("parseBandwidth(%q): expected error, got %v", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseBandwidth(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("parseBandwidth(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseBoolString(t *testing.T) {
	truthy := []string{"1", "t", "TRUE", "yes", " on "}
	falsy := []string{"0", "f", "False", "NO", "off"}
	for _, s := range truthy {
		if b, ok := parseBoolString(s); !ok || !b {
			t.Errorf("parseBoolString(%q) = %v, %v; want true, true", s, b, ok)
		}
	}
	for _, s := range falsy {
		if b, ok := parseBoolString(s); !ok || b {
			t.Errorf("parseBoolString(%q) = %v, %v; want false, true", s, b, ok)
		}
	}
	if _, ok := parseBoolString("maybe"); ok {
		t.Error("parseBoolString(maybe) should not parse")
	}
}

func TestParseBoolOptionPrecedence(t *testing.T) {
	t.Setenv("DIRSERVE_TEST_BOOL", "false")

	if got := parseBoolOption("true", "DIRSERVE_TEST_BOOL", "false", false); !got {
		t.Error("flag value should win over env")
	}
	if got := parseBoolOption("", "DIRSERVE_TEST_BOOL", "true", true); got {
		t.Error("env value should win over file value")
	}
	if got := parseBoolOption("", "DIRSERVE_TEST_UNSET", "true", false); !got {
		t.Error("file value should win over default")
	}
	if got := parseBoolOption("", "DIRSERVE_TEST_UNSET", "", true); !got {
		t.Error("default should apply when nothing is set")
	}
}

func TestStringOptionPrecedence(t *testing.T) {
	t.Setenv("DIRSERVE_TEST_STR", "from-env")

	if got := stringOption("from-flag", "DIRSERVE_TEST_STR", "from-file"); got != "from-flag" {
		t.Errorf("got %q, want flag value", got)
	}
	if got := stringOption("", "DIRSERVE_TEST_STR", "from-file"); got != "from-env" {
		t.Errorf("got %q, want env value", got)
	}
	if got := stringOption("", "DIRSERVE_TEST_STR_UNSET", "from-file"); got != "from-file" {
		t.Errorf("got %q, want file value", got)
	}
}

func TestCanonicalRoot(t *testing.T) {
	dir := t.TempDir()

	root, err := canonicalRoot(dir)
	if err != nil {
		t.Fatalf("canonicalRoot: %v", err)
	}
	if !filepath.IsAbs(root) {
		t.Errorf("root %q is not absolute", root)
	}

	// Resolving a symlink to the directory yields the same root.
	link := filepath.Join(t.TempDir(), "link")
	if err := os.Symlink(dir, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	viaLink, err := canonicalRoot(link)
	if err != nil {
		t.Fatalf("canonicalRoot(link): %v", err)
	}
	if viaLink != root {
		t.Errorf("canonicalRoot(link) = %q, want %q", viaLink, root)
	}
}

func TestCanonicalRootRejectsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := canonicalRoot(file); err == nil {
		t.Error("expected error for non-directory root")
	}
}

func TestFileConfigDecode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dirserve.toml")
	content := `
host = "127.0.0.1"
port = 9000
dir = "/srv/files"
title = "My Files"
bandwidth = "10mbps"
readme = "off"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	var fc fileConfig
	if _, err := toml.DecodeFile(path, &fc); err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if fc.Host != "127.0.0.1" || fc.Port != 9000 || fc.Dir != "/srv/files" {
		t.Errorf("unexpected decode: %+v", fc)
	}
	if fc.Title != "My Files" || fc.Bandwidth != "10mbps" || fc.Readme != "off" {
		t.Errorf("unexpected decode: %+v", fc)
	}
}
