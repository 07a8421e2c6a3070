package report

import (
	"math"

	"github.com/veyra-labs/dpscan/internal/detect"
)

// SeverityWeights assigns each pattern type its policy weight. The values are
// tunable policy, not structure; the config file can override any of them.
type SeverityWeights map[detect.PatternType]float64

// DefaultSeverityWeights returns the built-in weighting table.
func DefaultSeverityWeights() SeverityWeights {
	return SeverityWeights{
		detect.PatternHiddenCosts:           0.9,
		detect.PatternDifficultCancellation: 0.85,
		detect.PatternMisleadingAds:         0.8,
		detect.PatternConfirmshaming:        0.75,
		detect.PatternPreselection:          0.7,
		detect.PatternConfusingInterface:    0.7,
		detect.PatternFalseUrgency:          0.65,
	}
}

// fallbackWeight applies when a detection carries a type the table misses.
const fallbackWeight = 0.5

// Severity folds a site's detections into one 0-10 score: the confidence-
// weighted mean of the per-pattern weights, scaled to 10 and rounded to one
// decimal. A weighted mean, not a sum, so piling on detections cannot push
// the score past 10.
func Severity(detections []detect.Detection, weights SeverityWeights) float64 {
	if len(detections) == 0 {
		return 0
	}

	var contribution, totalWeight float64
	for _, d := range detections {
		w, ok := weights[d.Type]
		if !ok {
			w = fallbackWeight
		}
		contribution += w * detect.Clamp(d.Confidence)
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}

	return math.Round(10*contribution/totalWeight*10) / 10
}
