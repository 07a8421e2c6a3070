package output

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/veyra-labs/dpscan/internal/app/ui"
	"github.com/veyra-labs/dpscan/internal/detect"
	msges "github.com/veyra-labs/dpscan/internal/messages"
	"github.com/veyra-labs/dpscan/internal/report"
)

var progressMu sync.Mutex

// PrintScanProgress updates the current batch progress on the same line.
func PrintScanProgress(current, total int, stage, target string) {
	progressMu.Lock()
	defer progressMu.Unlock()

	if total <= 0 {
		fmt.Printf("\r [------------------------------] 0%% | %s [0/0]: %s\033[K", stage, target)
		return
	}

	percentage := float64(current) / float64(total) * 100
	// Truncate target URL to prevent line wrapping
	if len(target) > 50 {
		target = target[:47] + "..."
	}
	width := 30
	filled := int(float64(width) * (float64(current) / float64(total)))
	if filled > width {
		filled = width
	}
	bar := strings.Repeat("#", filled) + strings.Repeat("-", width-filled)
	fmt.Printf("\r [%s] %.0f%% | %s [%d/%d]: %s\033[K", bar, percentage, stage, current, total, target)
}

// PrintSiteReport prints one site's detections to the console.
func PrintSiteReport(r report.SiteReport) {
	fmt.Printf("\n%s%s%s (%sseverity %.1f%s)\n",
		ui.ColorWhite, r.URL, ui.ColorReset,
		ui.SeverityColor(r.SeverityScore), r.SeverityScore, ui.ColorReset)

	if r.Failed {
		fmt.Printf("%s [!] %s%s\n", ui.ColorRed, r.FetchError, ui.ColorReset)
		return
	}
	if len(r.Detections) == 0 {
		fmt.Printf("%s %s%s\n", ui.ColorGreen, msges.GetUIMessage("ConsoleNoDetections"), ui.ColorReset)
		return
	}

	detections := append([]detect.Detection(nil), r.Detections...)
	sort.SliceStable(detections, func(i, j int) bool {
		if detections[i].Confidence == detections[j].Confidence {
			return detections[i].Type < detections[j].Type
		}
		return detections[i].Confidence > detections[j].Confidence
	})

	fmt.Printf("\n%s%s%s\n", ui.ColorWhite, msges.GetUIMessage("ConsoleDetectionsTitle"), ui.ColorReset)
	for _, d := range detections {
		detail := msges.GetPattern(d.Type)
		color := ui.ConfidenceColor(d.Confidence)

		fmt.Printf("\n%s[%.2f] %s%s\n", color, d.Confidence, detail.Title, ui.ColorReset)
		fmt.Printf("%s - %s%s\n", ui.ColorGray, detail.Description, ui.ColorReset)
		if d.Location != "" {
			fmt.Printf("%s - Location: %s%s\n", ui.ColorGray, d.Location, ui.ColorReset)
		}
		if ev := formatEvidence(d.Evidence); ev != "" {
			fmt.Printf("%s - %s: %s%s\n", ui.ColorGray, msges.GetUIMessage("ConsoleEvidenceLabel"), ev, ui.ColorReset)
		}
		fmt.Printf("%s - %s: %s%s\n", ui.ColorGray, msges.GetUIMessage("ConsoleSuggestionLabel"), detail.Suggestion, ui.ColorReset)
		if q := report.ScoreEvidenceQuality(d); q > 0 {
			fmt.Printf("%s - Evidence Quality: %d/100%s\n", ui.ColorGray, q, ui.ColorReset)
		}
	}
}

// PrintBatchSummary prints a per-detector tree over the whole batch.
func PrintBatchSummary(reports []report.SiteReport, detectors []detect.Detector) {
	fmt.Println()
	fmt.Printf("\n%s%s%s\n", ui.ColorWhite, msges.GetUIMessage("ConsoleSummaryTitle"), ui.ColorReset)

	byType := map[detect.PatternType][]siteCount{}
	failed := 0
	for _, r := range reports {
		if r.Failed {
			failed++
			continue
		}
		counts := map[detect.PatternType]int{}
		for _, d := range r.Detections {
			counts[d.Type]++
		}
		for t, n := range counts {
			byType[t] = append(byType[t], siteCount{URL: r.URL, Count: n})
		}
	}

	for _, det := range detectors {
		sites := byType[det.Type]
		detail := msges.GetPattern(det.Type)

		var status, color string
		if len(sites) > 0 {
			status = msges.GetUIMessage("PatternStatusFound")
			color = ui.ColorRed
		} else {
			status = msges.GetUIMessage("PatternStatusNotFound")
			color = ui.ColorGreen
		}
		fmt.Printf(" [%s] %s%s%s\n", status, color, detail.Title, ui.ColorReset)

		sort.SliceStable(sites, func(i, j int) bool {
			if sites[i].Count == sites[j].Count {
				return sites[i].URL < sites[j].URL
			}
			return sites[i].Count > sites[j].Count
		})

		const maxSitesPerPattern = 8
		limit := len(sites)
		if limit > maxSitesPerPattern {
			limit = maxSitesPerPattern
		}
		for i := 0; i < limit; i++ {
			prefix := " \t|--"
			if i == limit-1 {
				prefix = " \t`--"
			}
			if sites[i].Count > 1 {
				fmt.Printf("%s %s (x%d)\n", prefix, sites[i].URL, sites[i].Count)
			} else {
				fmt.Printf("%s %s\n", prefix, sites[i].URL)
			}
		}
		if remaining := len(sites) - limit; remaining > 0 {
			fmt.Printf(" \t`-- %s... and %d more sites%s\n", ui.ColorGray, remaining, ui.ColorReset)
		}
	}

	if failed > 0 {
		fmt.Printf("\n%s%s%s\n", ui.ColorYellow, msges.GetUIMessage("ConsoleFailedSites", failed, len(reports)), ui.ColorReset)
	}
}

type siteCount struct {
	URL   string
	Count int
}

// formatEvidence renders the evidence map compactly with stable key order.
func formatEvidence(evidence map[string]any) string {
	if len(evidence) == 0 {
		return ""
	}
	keys := make([]string, 0, len(evidence))
	for k := range evidence {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, evidence[k]))
	}
	return strings.Join(parts, ", ")
}
