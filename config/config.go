// Package config handles all server configuration.
// CLI flags take precedence; environment variables are used as fallback,
// then an optional TOML config file, then compiled-in defaults.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/BurntSushi/toml"
)

// Config holds the complete, validated server configuration.
type Config struct {
	// Host is the address the HTTP server binds to.
	Host string
	// Port is the TCP port the HTTP server listens on.
	Port int
	// Dir is the root directory to serve, as supplied by the user.
	Dir string
	// Root is Dir made absolute with all symlinks resolved. Every path
	// the server touches is checked for confinement against this value.
	Root string
	// Title is the branding name shown in the UI and page titles.
	Title string
	// Theme is the Chroma syntax-highlighting theme used for README
	// code blocks.
	Theme string
	// FaviconPath is an optional path to a custom favicon file.
	// When empty the server returns the embedded default favicon.
	FaviconPath string
	// BandwidthLimit is the total server-wide download cap in bytes per
	// second. 0 means unlimited.
	BandwidthLimit float64
	// StatsDir is the directory in which the dirserve.db statistics
	// database is stored. Defaults to the current working directory.
	StatsDir string
	// RenderReadme controls whether README files found in a directory
	// are rendered below its listing.
	RenderReadme bool
}

// fileConfig is the shape of the optional TOML config file. Every field
// sits below both the matching flag and environment variable in
// precedence.
type fileConfig struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	Dir       string `toml:"dir"`
	Title     string `toml:"title"`
	Theme     string `toml:"theme"`
	Favicon   string `toml:"favicon"`
	Bandwidth string `toml:"bandwidth"`
	StatsDir  string `toml:"stats_dir"`
	Readme    string `toml:"readme"`
}

// Load parses flags, environment variables and the optional config
// file, returning a validated Config.
func Load() (*Config, error) {
	configFlag    := flag.String("config", "", "Path to a TOML config file (env: DIRSERVE_CONFIG)")
	dirFlag       := flag.String("dir", "", "Directory to serve (env: DIRSERVE_DIR)")
	hostFlag      := flag.String("host", "", "Address to bind (env: DIRSERVE_HOST, default: 0.0.0.0)")
	portFlag      := flag.Int("port", 0, "HTTP port to listen on (env: DIRSERVE_PORT, default: 8000)")
	titleFlag     := flag.String("title", "", "Site branding title (env: DIRSERVE_TITLE, default: DirServe)")
	themeFlag     := flag.String("highlight-theme", "", "Chroma theme for README code blocks (env: DIRSERVE_HIGHLIGHT_THEME, default: catppuccin-mocha)")
	faviconFlag   := flag.String("favicon", "", "Path to a custom favicon file (env: DIRSERVE_FAVICON)")
	bandwidthFlag := flag.String("bandwidth", "", "Total download bandwidth cap, e.g. 10mbps, 500kbps (env: DIRSERVE_BANDWIDTH, default: unlimited)")
	statsDirFlag  := flag.String("stats-dir", "", "Directory in which dirserve.db is stored (env: DIRSERVE_STATS_DIR, default: current working directory)")
	readmeFlag    := flag.String("readme", "", "Render README files below listings: true or false (env: DIRSERVE_README, default: true)")
	flag.Parse()

	var fc fileConfig
	configPath := stringOption(*configFlag, "DIRSERVE_CONFIG", "")
	if configPath != "" {
		if _, err := toml.DecodeFile(configPath, &fc); err != nil {
			return nil, fmt.Errorf("config file %q: %w", configPath, err)
		}
	}

	// --- dir ---
	dir := stringOption(*dirFlag, "DIRSERVE_DIR", fc.Dir)
	if dir == "" && flag.NArg() > 0 {
		// A single positional argument is also accepted as the directory.
		dir = flag.Arg(0)
	}
	if dir == "" {
		return nil, fmt.Errorf("a root directory must be specified via -dir flag, DIRSERVE_DIR env var, config file, or positional argument")
	}

	root, err := canonicalRoot(dir)
	if err != nil {
		return nil, err
	}

	// --- host / port ---
	host := stringOption(*hostFlag, "DIRSERVE_HOST", fc.Host)
	if host == "" {
		host = "0.0.0.0"
	}

	port := *portFlag
	if port == 0 {
		if v := os.Getenv("DIRSERVE_PORT"); v != "" {
			p, err := strconv.Atoi(v)
			if err != nil || p < 1 || p > 65535 {
				return nil, fmt.Errorf("invalid DIRSERVE_PORT value %q", v)
			}
			port = p
		} else if fc.Port != 0 {
			port = fc.Port
		} else {
			port = 8000
		}
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("invalid port %d", port)
	}

	// --- title / theme ---
	title := stringOption(*titleFlag, "DIRSERVE_TITLE", fc.Title)
	if title == "" {
		title = "DirServe"
	}

	theme := stringOption(*themeFlag, "DIRSERVE_HIGHLIGHT_THEME", fc.Theme)
	if theme == "" {
		theme = "catppuccin-mocha"
	}

	// --- favicon ---
	favicon := stringOption(*faviconFlag, "DIRSERVE_FAVICON", fc.Favicon)
	if favicon != "" {
		info, err := os.Stat(favicon)
		if err != nil {
			return nil, fmt.Errorf("favicon %q: %w", favicon, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("favicon %q is a directory, not a file", favicon)
		}
	}

	// --- bandwidth ---
	bwRaw := stringOption(*bandwidthFlag, "DIRSERVE_BANDWIDTH", fc.Bandwidth)
	var bandwidthBps float64
	if bwRaw != "" {
		bps, err := parseBandwidth(bwRaw)
		if err != nil {
			return nil, fmt.Errorf("invalid bandwidth %q: %w", bwRaw, err)
		}
		bandwidthBps = bps
	}

	// --- stats-dir ---
	statsDir := stringOption(*statsDirFlag, "DIRSERVE_STATS_DIR", fc.StatsDir)
	if statsDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("could not determine current working directory: %w", err)
		}
		statsDir = cwd
	}

	// --- readme ---
	renderReadme := parseBoolOption(*readmeFlag, "DIRSERVE_README", fc.Readme, true)

	return &Config{
		Host:           host,
		Port:           port,
		Dir:            dir,
		Root:           root,
		Title:          title,
		Theme:          theme,
		FaviconPath:    favicon,
		BandwidthLimit: bandwidthBps,
		StatsDir:       statsDir,
		RenderReadme:   renderReadme,
	}, nil
}

// canonicalRoot validates that dir exists and is a directory, then
// returns it absolute with all symlinks resolved. The rest of the
// server compares resolved request paths against this exact string, so
// canonicalizing once here is what makes those comparisons sound.
func canonicalRoot(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("directory %q: %w", dir, err)
	}
	root, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("directory %q: %w", dir, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%q is not a directory", dir)
	}
	return root, nil
}

// stringOption resolves a string option: flag value first, then the
// environment variable, then the config-file value.
func stringOption(flagVal, envKey, fileVal string) string {
	if flagVal != "" {
		return flagVal
	}
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return fileVal
}

// parseBoolOption resolves a boolean option from a CLI string flag
// value, with fallback to an environment variable, the config-file
// value, and finally a compile-time default.
// Accepted truthy strings: "1", "t", "true", "yes", "on".
// Accepted falsy strings:  "0", "f", "false", "no", "off".
// An empty string means "not set"; the next source in the chain is tried.
func parseBoolOption(flagVal, envKey, fileVal string, defaultVal bool) bool {
	for _, v := range []string{flagVal, os.Getenv(envKey), fileVal} {
		if v == "" {
			continue
		}
		if b, ok := parseBoolString(v); ok {
			return b
		}
	}
	return defaultVal
}

// parseBoolString converts a human-readable boolean string to a bool.
func parseBoolString(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "t", "true", "yes", "on":
		return true, true
	case "0", "f", "false", "no", "off":
		return false, true
	}
	return false, false
}

// parseBandwidth converts a human-readable bandwidth string to bytes
// per second. Accepted units (case-insensitive): bps, kbps, mbps, gbps.
// A bare number is treated as bits per second.
//
// Examples: "10mbps", "500 kbps", "1gbps", "131072"
func parseBandwidth(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "0" {
		return 0, nil
	}

	// Split into numeric prefix and unit suffix.
	i := 0
	for i < len(s) && (s[i] == '.' || (s[i] >= '0' && s[i] <= '9')) {
		i++
	}
	if i == 0 {
		return 0, fmt.Errorf("no numeric value found")
	}
	numStr := s[:i]
	unit := strings.ToLower(strings.TrimFunc(s[i:], unicode.IsSpace))

	val, err := strconv.ParseFloat(numStr, 64)
	if err != nil || val < 0 {
		return 0, fmt.Errorf("invalid number %q", numStr)
	}

	// Convert bits/sec units to bytes/sec.
	switch unit {
	case "", "bps":
		return val / 8, nil
	case "kbps":
		return val * 1_000 / 8, nil
	case "mbps":
		return val * 1_000_000 / 8, nil
	case "gbps":
		return val * 1_000_000_000 / 8, nil
	default:
		return 0, fmt.Errorf("unknown unit %q (accepted: bps, kbps, mbps, gbps)", unit)
	}
}
