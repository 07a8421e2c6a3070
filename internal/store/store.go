// Package store persists finished site reports to a local SQLite database
// so batches can be compared across runs.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/veyra-labs/dpscan/internal/report"
)

// Schema for the report tables. Applied by Open; safe to re-apply.
const Schema = `
CREATE TABLE IF NOT EXISTS site_reports (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT NOT NULL,
	title TEXT,
	severity REAL NOT NULL,
	failed INTEGER NOT NULL DEFAULT 0,
	fetch_error TEXT,
	analyzed_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_site_reports_url ON site_reports(url);
CREATE INDEX IF NOT EXISTS idx_site_reports_at ON site_reports(analyzed_at);

CREATE TABLE IF NOT EXISTS detections (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	report_id INTEGER NOT NULL REFERENCES site_reports(id),
	pattern_type TEXT NOT NULL,
	confidence REAL NOT NULL,
	location TEXT,
	evidence TEXT,
	screenshot_ref TEXT
);
CREATE INDEX IF NOT EXISTS idx_detections_report ON detections(report_id);
CREATE INDEX IF NOT EXISTS idx_detections_type ON detections(pattern_type);
`

// Store wraps the report database. Not safe for concurrent writers; the
// batch runner serializes saves through it.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open report database: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply report schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save writes one site report and its detections in a single transaction.
func (s *Store) Save(r report.SiteReport) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}

	failed := 0
	if r.Failed {
		failed = 1
	}
	res, err := tx.Exec(
		`INSERT INTO site_reports (url, title, severity, failed, fetch_error, analyzed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.URL, r.Title, r.SeverityScore, failed, r.FetchError, r.Timestamp.Unix(),
	)
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("insert site report: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("report id: %w", err)
	}

	for _, d := range r.Detections {
		evidence := ""
		if len(d.Evidence) > 0 {
			raw, err := json.Marshal(d.Evidence)
			if err != nil {
				tx.Rollback()
				return 0, fmt.Errorf("encode evidence: %w", err)
			}
			evidence = string(raw)
		}
		if _, err := tx.Exec(
			`INSERT INTO detections (report_id, pattern_type, confidence, location, evidence, screenshot_ref)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, string(d.Type), d.Confidence, d.Location, evidence, d.ScreenshotRef,
		); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("insert detection: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

// SavedReport is a stored site report summary row.
type SavedReport struct {
	ID         int64
	URL        string
	Title      string
	Severity   float64
	Failed     bool
	AnalyzedAt time.Time
	Detections int
}

// Recent lists the most recently analyzed reports, newest first.
func (s *Store) Recent(limit int) ([]SavedReport, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT r.id, r.url, r.title, r.severity, r.failed, r.analyzed_at,
		        (SELECT COUNT(*) FROM detections d WHERE d.report_id = r.id)
		 FROM site_reports r
		 ORDER BY r.analyzed_at DESC, r.id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent reports: %w", err)
	}
	defer rows.Close()

	var out []SavedReport
	for rows.Next() {
		var r SavedReport
		var failed int
		var at int64
		if err := rows.Scan(&r.ID, &r.URL, &r.Title, &r.Severity, &failed, &at, &r.Detections); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		r.Failed = failed != 0
		r.AnalyzedAt = time.Unix(at, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}
