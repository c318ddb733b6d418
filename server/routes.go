package server

import (
	"io/fs"
	"log"
	"net/http"

	"dirserve/config"
	"dirserve/handlers"
	"dirserve/metrics"
)

// registerRoutes attaches all handlers to the given mux.
func registerRoutes(mux *http.ServeMux, cfg *config.Config, throttle *handlers.Throttle, tmpl *Templates) {
	// Static assets
	mux.Handle("/static/", http.StripPrefix("/static/", staticHandler()))

	// Favicon — pass the static sub-FS so the handler can read the embedded default.
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		log.Fatalf("static sub fs for favicon: %v", err)
	}
	mux.HandleFunc("/favicon.ico", handlers.FaviconHandler(staticSub, cfg.FaviconPath))

	// Chroma stylesheet for README code blocks (generated once at startup)
	mux.HandleFunc("/highlight.css", handlers.HighlightCSSHandler(cfg.Theme))

	// Download statistics (JSON)
	mux.HandleFunc("/api/stats", handlers.StatsHandler())

	// Prometheus scrape endpoint
	mux.Handle("/metrics", metrics.Handler())

	// ZIP download for directories (bandwidth-limited)
	mux.Handle("/zip/", throttle.Wrap(handlers.ZipHandler(cfg.Root, cfg.Title)))

	// Directory listings and file downloads (catch-all, bandwidth-limited)
	mux.Handle("/", throttle.Wrap(handlers.BrowseHandler(cfg.Root, cfg.Title, cfg.RenderReadme, tmpl)))
}
