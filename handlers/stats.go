package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"dirserve/models"
)

// statsDB is the download-statistics store. Nil when InitStats failed
// or was never called; recording becomes a no-op in that case so a
// broken stats path never affects serving.
var statsDB *sql.DB

const statsSchema = `
CREATE TABLE IF NOT EXISTS downloads (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	ts     INTEGER NOT NULL,
	path   TEXT    NOT NULL,
	client TEXT    NOT NULL,
	bytes  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS downloads_ts ON downloads (ts);
`

// InitStats opens (creating if necessary) the SQLite statistics
// database inside statsDir. Any permission problem surfaces here at
// startup rather than silently at the time of the first download.
func InitStats(statsDir string) {
	path := filepath.Join(statsDir, "dirserve.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		log.Printf("stats: could not open %s: %v", path, err)
		return
	}
	if _, err := db.Exec(statsSchema); err != nil {
		log.Printf("stats: could not initialise %s: %v", path, err)
		db.Close()
		return
	}
	statsDB = db
}

// CloseStats flushes and closes the statistics store. Safe to call even
// when InitStats never succeeded.
func CloseStats() {
	if statsDB != nil {
		statsDB.Close()
		statsDB = nil
	}
}

// RecordDownload appends one completed download to the store. The
// insert runs in its own goroutine so the response is never delayed by
// disk I/O.
func RecordDownload(urlPath, clientIP string, bytesSent int64) {
	db := statsDB
	if db == nil {
		return
	}
	go func() {
		_, err := db.Exec(
			"INSERT INTO downloads (ts, path, client, bytes) VALUES (?, ?, ?, ?)",
			time.Now().Unix(), urlPath, clientIP, bytesSent,
		)
		if err != nil {
			log.Printf("stats: could not record download of %s: %v", urlPath, err)
		}
	}()
}

// GetStats returns a point-in-time snapshot of the download counters.
func GetStats() models.StatsSnapshot {
	var snap models.StatsSnapshot
	if statsDB == nil {
		return snap
	}
	row := statsDB.QueryRow("SELECT COUNT(*), COALESCE(SUM(bytes), 0) FROM downloads")
	if err := row.Scan(&snap.TotalDownloads, &snap.TotalBytes); err != nil {
		log.Printf("stats: could not read totals: %v", err)
	}
	return snap
}

// StatsHandler serves the download totals as JSON on /api/stats.
func StatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(GetStats()); err != nil {
			log.Printf("stats: encode: %v", err)
		}
	}
}
