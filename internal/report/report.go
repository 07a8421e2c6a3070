package report

import (
	"sort"
	"time"

	"github.com/veyra-labs/dpscan/internal/detect"
)

// SiteReport is the immutable outcome of analyzing one URL. A failed fetch
// produces a report with Failed set and no detection list at all; that is
// not the same thing as an empty list on a clean page.
type SiteReport struct {
	URL            string                        `json:"url"`
	Title          string                        `json:"title,omitempty"`
	Timestamp      time.Time                     `json:"timestamp"`
	Detections     []detect.Detection            `json:"detections,omitempty"`
	SeverityScore  float64                       `json:"severity_score"`
	PatternTypes   []detect.PatternType          `json:"pattern_types,omitempty"`
	Failed         bool                          `json:"failed,omitempty"`
	FetchError     string                        `json:"fetch_error,omitempty"`
	DetectorErrors map[detect.PatternType]string `json:"detector_errors,omitempty"`
}

// NewSiteReport assembles the report for a successfully analyzed page,
// deriving the severity score and the distinct pattern set.
func NewSiteReport(url, title string, ts time.Time, detections []detect.Detection, weights SeverityWeights) SiteReport {
	r := SiteReport{
		URL:           url,
		Title:         title,
		Timestamp:     ts,
		Detections:    detections,
		SeverityScore: Severity(detections, weights),
	}

	seen := map[detect.PatternType]bool{}
	for _, d := range detections {
		if !seen[d.Type] {
			seen[d.Type] = true
			r.PatternTypes = append(r.PatternTypes, d.Type)
		}
	}
	sort.Slice(r.PatternTypes, func(i, j int) bool { return r.PatternTypes[i] < r.PatternTypes[j] })
	return r
}

// NewFailedSiteReport marks a URL whose fetch never produced a snapshot.
func NewFailedSiteReport(url string, ts time.Time, fetchErr error) SiteReport {
	r := SiteReport{URL: url, Timestamp: ts, Failed: true}
	if fetchErr != nil {
		r.FetchError = fetchErr.Error()
	}
	return r
}

// HasPattern reports whether the site exhibited the given pattern type.
func (r SiteReport) HasPattern(t detect.PatternType) bool {
	for _, p := range r.PatternTypes {
		if p == t {
			return true
		}
	}
	return false
}
