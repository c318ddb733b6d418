// Package server contains the HTTP server setup and template management.
package server

import (
	"embed"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"time"

	"dirserve/config"
	"dirserve/handlers"
	"dirserve/metrics"
)

// staticFS holds the embedded static assets.
var staticFS embed.FS

// SetStaticFS is called from main to inject the embedded FS.
func SetStaticFS(efs embed.FS) {
	staticFS = efs
}

// staticHandler returns an http.Handler that serves files from the
// embedded static/ subtree.
func staticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatalf("static sub fs: %v", err)
	}
	return http.FileServer(http.FS(sub))
}

// Run starts the HTTP server with the given configuration.
func Run(cfg *config.Config, templateFS embed.FS) error {
	tmpl, err := LoadTemplates(templateFS)
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}

	throttle := handlers.NewThrottle(cfg.BandwidthLimit)

	mux := http.NewServeMux()
	registerRoutes(mux, cfg, throttle, tmpl)
	wrappedMux := securityHeaders(metrics.Middleware(mux))

	// Open the statistics store before any handler runs.
	handlers.InitStats(cfg.StatsDir)
	defer handlers.CloseStats()

	// Configure the README renderer with the active Chroma theme.
	// Must be called before any listing request is served.
	handlers.InitRenderOptions(cfg.Theme)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	logStartup(cfg, addr)

	// Watch the served tree for filesystem changes so hidden-marker
	// results are invalidated the moment a .hide appears or disappears.
	if _, err := handlers.StartWatcher(cfg.Root); err != nil {
		log.Printf("watcher: could not start filesystem watcher: %v", err)
	}

	srv := &http.Server{
		Addr:    addr,
		Handler: wrappedMux,

		// ReadHeaderTimeout caps how long the server waits for a client
		// to finish sending HTTP headers — the primary Slowloris
		// defence: a client trickling headers one byte at a time is
		// disconnected after this deadline.
		ReadHeaderTimeout: 20 * time.Second,

		// IdleTimeout closes keep-alive connections that have been idle
		// for this duration, reclaiming goroutines and file descriptors
		// from clients that connect but stop sending requests.
		IdleTimeout: 120 * time.Second,

		// WriteTimeout is intentionally absent. File and ZIP downloads
		// can legitimately take hours for large transfers; a write
		// deadline would terminate them mid-stream. The bandwidth
		// throttle already bounds what slow readers can hold, and
		// IdleTimeout handles truly dead connections.
	}
	return srv.ListenAndServe()
}

// securityHeaders wraps a handler with the standard response headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "same-origin")
		h.Set("Content-Security-Policy",
			"default-src 'self'; img-src 'self' data:; style-src 'self'; script-src 'self'")
		next.ServeHTTP(w, r)
	})
}

// logStartup prints a structured summary of the active configuration.
func logStartup(cfg *config.Config, addr string) {
	sep := "-------------------------------------------"
	log.Println(sep)
	log.Printf("  %s", cfg.Title)
	log.Println(sep)
	log.Printf("  %-18s %s", "Address:", "http://"+addr)
	log.Printf("  %-18s %s", "Serving:", cfg.Root)
	log.Printf("  %-18s %s", "Highlight theme:", cfg.Theme)

	if cfg.FaviconPath != "" {
		log.Printf("  %-18s %s", "Favicon:", cfg.FaviconPath)
	} else {
		log.Printf("  %-18s %s", "Favicon:", "(embedded default)")
	}

	if cfg.BandwidthLimit > 0 {
		log.Printf("  %-18s %s/s", "Bandwidth limit:", formatBandwidth(cfg.BandwidthLimit))
	} else {
		log.Printf("  %-18s %s", "Bandwidth limit:", "unlimited")
	}

	log.Printf("  %-18s %s", "README render:", enabledStr(cfg.RenderReadme))
	log.Println(sep)
}

// enabledStr returns "on" or "off" for use in startup log lines.
func enabledStr(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// formatBandwidth converts a bytes/sec value to a human-readable
// bits/sec string.
func formatBandwidth(bps float64) string {
	bits := bps * 8
	switch {
	case bits >= 1_000_000_000:
		return fmt.Sprintf("%.2f Gbps", bits/1_000_000_000)
	case bits >= 1_000_000:
		return fmt.Sprintf("%.2f Mbps", bits/1_000_000)
	case bits >= 1_000:
		return fmt.Sprintf("%.2f Kbps", bits/1_000)
	default:
		return fmt.Sprintf("%.0f bps", bits)
	}
}
