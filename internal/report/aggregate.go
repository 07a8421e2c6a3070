package report

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/veyra-labs/dpscan/internal/detect"
)

// SiteRank is one entry of the top-sites table.
type SiteRank struct {
	URL        string    `json:"url"`
	Site       string    `json:"site"`
	Detections int       `json:"detections"`
	Severity   float64   `json:"severity"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// PatternPair counts two pattern types detected together on the same page.
type PatternPair struct {
	First  detect.PatternType `json:"first"`
	Second detect.PatternType `json:"second"`
	Count  int                `json:"count"`
}

// AggregateReport summarizes a whole batch. It is derived on demand from the
// site reports and never acts as a source of truth itself.
type AggregateReport struct {
	TotalSites          int                        `json:"total_sites"`
	TotalURLs           int                        `json:"total_urls"`
	FailedSites         int                        `json:"failed_sites"`
	TotalDetections     int                        `json:"total_detections"`
	PatternDistribution map[detect.PatternType]int `json:"pattern_distribution"`
	TopSites            []SiteRank                 `json:"top_sites"`
	CoOccurrence        []PatternPair              `json:"co_occurrence,omitempty"`
	GeneratedAt         time.Time                  `json:"generated_at"`
}

// Aggregate computes cross-site statistics. Failed sites count toward the
// failure total but are excluded from the distribution and the ranking:
// they have no data, which is different from having zero detections.
func Aggregate(reports []SiteReport) AggregateReport {
	agg := AggregateReport{
		TotalURLs:           len(reports),
		PatternDistribution: map[detect.PatternType]int{},
		GeneratedAt:         time.Now(),
	}

	roots := map[string]bool{}
	pairCounts := map[[2]detect.PatternType]int{}

	for _, r := range reports {
		roots[rootDomain(r.URL)] = true

		if r.Failed {
			agg.FailedSites++
			continue
		}

		agg.TotalDetections += len(r.Detections)
		for _, d := range r.Detections {
			agg.PatternDistribution[d.Type]++
		}
		for i := 0; i < len(r.PatternTypes); i++ {
			for j := i + 1; j < len(r.PatternTypes); j++ {
				pairCounts[[2]detect.PatternType{r.PatternTypes[i], r.PatternTypes[j]}]++
			}
		}

		agg.TopSites = append(agg.TopSites, SiteRank{
			URL:        r.URL,
			Site:       rootDomain(r.URL),
			Detections: len(r.Detections),
			Severity:   r.SeverityScore,
			AnalyzedAt: r.Timestamp,
		})
	}
	agg.TotalSites = len(roots)

	// Rank: detection count, then severity, then earliest analysis.
	sort.SliceStable(agg.TopSites, func(i, j int) bool {
		a, b := agg.TopSites[i], agg.TopSites[j]
		if a.Detections != b.Detections {
			return a.Detections > b.Detections
		}
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		return a.AnalyzedAt.Before(b.AnalyzedAt)
	})

	for pair, count := range pairCounts {
		agg.CoOccurrence = append(agg.CoOccurrence, PatternPair{First: pair[0], Second: pair[1], Count: count})
	}
	sort.Slice(agg.CoOccurrence, func(i, j int) bool {
		a, b := agg.CoOccurrence[i], agg.CoOccurrence[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.First != b.First {
			return a.First < b.First
		}
		return a.Second < b.Second
	})

	return agg
}

func rootDomain(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return rawURL
	}
	root, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return root
}
