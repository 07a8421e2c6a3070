package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/veyra-labs/dpscan/internal/report"
)

// SaveCSV writes a flat report table to dir and returns the file path.
// Every site gets one summary row, followed by one row per detection, so
// failed and clean sites stay visible in spreadsheet review.
func SaveCSV(dir string, sites []report.SiteReport) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	filename := fmt.Sprintf("dpscan_report_%s.csv", time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, filename)

	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	header := []string{"url", "title", "analyzed_at", "severity", "status", "pattern_type", "confidence", "location", "evidence"}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, r := range sites {
		base := []string{
			r.URL,
			r.Title,
			r.Timestamp.Format(time.RFC3339),
			strconv.FormatFloat(r.SeverityScore, 'f', 1, 64),
		}

		status := "analyzed"
		if r.Failed {
			status = "failed"
		} else if len(r.Detections) == 0 {
			status = "clean"
		}
		summary := append(append([]string{}, base...), status, "", "", "", r.FetchError)
		if err := w.Write(summary); err != nil {
			return "", err
		}

		for _, d := range r.Detections {
			row := append(append([]string{}, base...),
				"analyzed",
				string(d.Type),
				strconv.FormatFloat(d.Confidence, 'f', 2, 64),
				d.Location,
				strings.ReplaceAll(formatEvidence(d.Evidence), "\n", " "),
			)
			if err := w.Write(row); err != nil {
				return "", err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return path, nil
}
