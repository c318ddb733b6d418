package handlers

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"dirserve/metrics"
)

// serveFile streams a confined file to the client as an attachment with
// proper Content-Type and Content-Length headers so the browser can
// show download progress. Confinement has already been proven by
// resolvePath before this is called. Every completed request is
// recorded in the download statistics.
func serveFile(w http.ResponseWriter, r *http.Request, urlPath, fsPath string, info os.FileInfo) {
	ip := clientIP(r)
	log.Printf("file download   ip=%-15s  size=%-10s  file=%s", ip, formatSize(info.Size()), urlPath)
	start := time.Now()

	f, err := os.Open(fsPath)
	if err != nil {
		http.Error(w, "Could not open file", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", mimeForName(fsPath))
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(filepath.Base(fsPath)))

	// http.ServeContent sets Content-Length from the ReadSeeker, so the
	// browser can track progress on large transfers.
	http.ServeContent(w, r, filepath.Base(fsPath), info.ModTime(), f)

	RecordDownload(urlPath, ip, info.Size())
	metrics.DownloadServed(info.Size())
	log.Printf("file complete   ip=%-15s  size=%-10s  duration=%s  file=%s",
		ip, formatSize(info.Size()), time.Since(start).Round(time.Millisecond), urlPath)
}

// formatSize formats a byte count as a human-readable string.
func formatSize(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// clientIP extracts the remote IP from the request, stripping the port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
