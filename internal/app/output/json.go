package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/veyra-labs/dpscan/internal/report"
)

// BatchReport is the document written by the JSON exporter.
type BatchReport struct {
	GeneratedAt time.Time              `json:"generated_at"`
	StartTime   time.Time              `json:"start_time"`
	EndTime     time.Time              `json:"end_time"`
	Aggregate   report.AggregateReport `json:"aggregate"`
	Sites       []report.SiteReport    `json:"sites"`
}

// SaveJSON writes the full batch report to dir and returns the file path.
func SaveJSON(dir string, agg report.AggregateReport, sites []report.SiteReport, startTime, endTime time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	doc := BatchReport{
		GeneratedAt: time.Now(),
		StartTime:   startTime,
		EndTime:     endTime,
		Aggregate:   agg,
		Sites:       sites,
	}

	filename := fmt.Sprintf("dpscan_report_%s.json", time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, filename)

	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return "", err
	}
	return path, nil
}
