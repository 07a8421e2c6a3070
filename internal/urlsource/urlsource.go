// Package urlsource loads the ordered URL batch the scanner works through.
// CSV, JSON, and plain line-delimited files are accepted; only the url field
// is required, category and notes ride along for the report.
package urlsource

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/projectdiscovery/gologger"
)

// Record is one entry of the input batch.
type Record struct {
	URL      string `json:"url"`
	Category string `json:"category,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

// Valid reports whether raw is an absolute http(s) URL with a host.
func Valid(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Hostname() != ""
}

// Load reads records from path, dispatching on the file extension:
// .csv and .json get structured parsing, anything else is treated as one
// URL per line. Invalid records are skipped with a warning, preserving the
// input order of the rest.
func Load(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open url source: %w", err)
	}
	defer f.Close()

	var records []Record
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = FromCSV(f)
	case ".json":
		records, err = FromJSON(f)
	default:
		records, err = FromLines(f)
	}
	if err != nil {
		return nil, fmt.Errorf("parse url source %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("url source %s contains no valid URLs", path)
	}
	return records, nil
}

// FromCSV reads records from CSV. A header row naming a url column is
// honored; without one the first column is the URL.
func FromCSV(r io.Reader) ([]Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	urlCol, catCol, notesCol := 0, -1, -1
	start := 0
	for i, name := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "url", "link", "address":
			urlCol = i
			start = 1
		case "category":
			catCol = i
		case "notes", "note", "comment":
			notesCol = i
		}
	}
	if start == 0 {
		catCol, notesCol = -1, -1
	}

	var out []Record
	for _, row := range rows[start:] {
		if urlCol >= len(row) {
			continue
		}
		rec := Record{URL: strings.TrimSpace(row[urlCol])}
		if catCol >= 0 && catCol < len(row) {
			rec.Category = strings.TrimSpace(row[catCol])
		}
		if notesCol >= 0 && notesCol < len(row) {
			rec.Notes = strings.TrimSpace(row[notesCol])
		}
		out = appendValid(out, rec)
	}
	return out, nil
}

// FromJSON accepts an array of URL strings, an array of record objects, or
// an object wrapping either under a "urls" key.
func FromJSON(r io.Reader) ([]Record, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var wrapper struct {
		URLs json.RawMessage `json:"urls"`
	}
	if err := json.Unmarshal(raw, &wrapper); err == nil && len(wrapper.URLs) > 0 {
		raw = wrapper.URLs
	}

	var asStrings []string
	if err := json.Unmarshal(raw, &asStrings); err == nil {
		var out []Record
		for _, s := range asStrings {
			out = appendValid(out, Record{URL: strings.TrimSpace(s)})
		}
		return out, nil
	}

	var asRecords []Record
	if err := json.Unmarshal(raw, &asRecords); err != nil {
		return nil, err
	}
	var out []Record
	for _, rec := range asRecords {
		rec.URL = strings.TrimSpace(rec.URL)
		out = appendValid(out, rec)
	}
	return out, nil
}

// FromLines reads one URL per line; blank lines and # comments are skipped.
func FromLines(r io.Reader) ([]Record, error) {
	sc := bufio.NewScanner(r)
	var out []Record
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = appendValid(out, Record{URL: line})
	}
	return out, sc.Err()
}

func appendValid(out []Record, rec Record) []Record {
	if rec.URL == "" {
		return out
	}
	if !Valid(rec.URL) {
		gologger.Warning().Msgf("skipping invalid url: %s", rec.URL)
		return out
	}
	return append(out, rec)
}
