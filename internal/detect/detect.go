package detect

import (
	"github.com/veyra-labs/dpscan/internal/snapshot"
)

// PatternType identifies one of the manipulation patterns the scanner knows.
type PatternType string

const (
	PatternConfirmshaming        PatternType = "confirmshaming"
	PatternPreselection          PatternType = "preselection"
	PatternHiddenCosts           PatternType = "hidden_costs"
	PatternDifficultCancellation PatternType = "difficult_cancellation"
	PatternMisleadingAds         PatternType = "misleading_ads"
	PatternFalseUrgency          PatternType = "false_urgency"
	PatternConfusingInterface    PatternType = "confusing_interface"
)

// AllPatternTypes lists every known pattern in stable order.
var AllPatternTypes = []PatternType{
	PatternConfirmshaming,
	PatternPreselection,
	PatternHiddenCosts,
	PatternDifficultCancellation,
	PatternMisleadingAds,
	PatternFalseUrgency,
	PatternConfusingInterface,
}

// Valid reports whether t is one of the fixed pattern types.
func (t PatternType) Valid() bool {
	for _, p := range AllPatternTypes {
		if p == t {
			return true
		}
	}
	return false
}

// Detection is one confirmed occurrence of a pattern on a page. Immutable
// once built; confidence is always clamped into [0,1] by the producer.
type Detection struct {
	Type          PatternType    `json:"pattern_type"`
	Confidence    float64        `json:"confidence"`
	Location      string         `json:"location"`
	Evidence      map[string]any `json:"evidence,omitempty"`
	ScreenshotRef string         `json:"screenshot_ref,omitempty"`
	URL           string         `json:"url"`
}

// Detector is one heuristic engine for a single pattern type. Run is a pure
// function of the snapshot: no state survives between calls beyond the
// lexicons loaded at construction, and a malformed snapshot yields an empty
// result rather than an error.
type Detector struct {
	Type          PatternType
	Title         string
	MinConfidence float64
	Run           func(*snapshot.Page) []Detection
}

// Clamp bounds a confidence value into [0,1].
func Clamp(confidence float64) float64 {
	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}

// Score is the shared confidence composite: a base that grows with the number
// of corroborating signals, capped below certainty, scaled by the strength of
// the strongest signal. Both knobs are heuristics, not probabilities.
func Score(signals int, strength float64) float64 {
	if signals < 0 {
		signals = 0
	}
	base := 0.5 + float64(signals)*0.1
	if base > 0.9 {
		base = 0.9
	}
	return Clamp(base * strength)
}
