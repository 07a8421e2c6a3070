package report

import "github.com/veyra-labs/dpscan/internal/detect"

// ScoreEvidenceQuality grades how well-supported a detection is, in [0,100].
// It rewards confidence, evidence richness, and a concrete location, and is
// display-only: it never feeds back into severity.
func ScoreEvidenceQuality(d detect.Detection) int {
	score := 20

	switch {
	case d.Confidence >= 0.85:
		score += 40
	case d.Confidence >= 0.7:
		score += 28
	case d.Confidence >= 0.6:
		score += 18
	default:
		score += 8
	}

	switch n := len(d.Evidence); {
	case n >= 5:
		score += 20
	case n >= 3:
		score += 14
	case n >= 1:
		score += 8
	}

	if d.Location != "" && d.Location != "page text" {
		score += 10
	}
	if d.ScreenshotRef != "" {
		score += 10
	}

	if score > 100 {
		return 100
	}
	return score
}
