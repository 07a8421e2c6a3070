package report

import (
	"math"
	"testing"

	"github.com/veyra-labs/dpscan/internal/detect"
)

func TestSeverity(t *testing.T) {
	weights := DefaultSeverityWeights()

	tests := []struct {
		name       string
		detections []detect.Detection
		want       float64
	}{
		{
			name:       "no detections",
			detections: nil,
			want:       0,
		},
		{
			name: "single full-confidence hidden cost",
			detections: []detect.Detection{
				{Type: detect.PatternHiddenCosts, Confidence: 1.0},
			},
			want: 10,
		},
		{
			name: "single detection scores its own confidence",
			detections: []detect.Detection{
				{Type: detect.PatternFalseUrgency, Confidence: 0.72},
			},
			want: 7.2,
		},
		{
			name: "weighted mean, not a sum",
			detections: []detect.Detection{
				{Type: detect.PatternHiddenCosts, Confidence: 1.0},
				{Type: detect.PatternHiddenCosts, Confidence: 1.0},
				{Type: detect.PatternHiddenCosts, Confidence: 1.0},
			},
			want: 10,
		},
		{
			name: "heavier patterns pull the mean",
			detections: []detect.Detection{
				{Type: detect.PatternHiddenCosts, Confidence: 1.0},
				{Type: detect.PatternFalseUrgency, Confidence: 0.5},
			},
			// (0.9*1.0 + 0.65*0.5) / (0.9 + 0.65) * 10 = 7.9
			want: 7.9,
		},
		{
			name: "unknown type uses fallback weight",
			detections: []detect.Detection{
				{Type: "mystery", Confidence: 0.8},
			},
			want: 8,
		},
		{
			name: "confidence clamped before weighting",
			detections: []detect.Detection{
				{Type: detect.PatternPreselection, Confidence: 3.0},
			},
			want: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Severity(tt.detections, weights)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Severity = %v, want %v", got, tt.want)
			}
			if got < 0 || got > 10 {
				t.Errorf("Severity = %v out of [0,10]", got)
			}
		})
	}
}

func TestSeverityMonotonicInConfidence(t *testing.T) {
	weights := DefaultSeverityWeights()
	fixed := []detect.Detection{
		{Type: detect.PatternHiddenCosts, Confidence: 0.8},
		{Type: detect.PatternPreselection, Confidence: 0.65},
	}

	prev := -1.0
	for c := 0.0; c <= 1.0+1e-9; c += 0.05 {
		detections := append(append([]detect.Detection{}, fixed...),
			detect.Detection{Type: detect.PatternFalseUrgency, Confidence: c})
		got := Severity(detections, weights)
		if got < prev {
			t.Fatalf("Severity dropped from %v to %v at confidence %.2f", prev, got, c)
		}
		prev = got
	}
}

func TestSeverityOneDecimal(t *testing.T) {
	got := Severity([]detect.Detection{
		{Type: detect.PatternConfirmshaming, Confidence: 0.666},
	}, DefaultSeverityWeights())
	if got != 6.7 {
		t.Errorf("Severity = %v, want 6.7", got)
	}
}

func TestDefaultSeverityWeightsCoverAllPatterns(t *testing.T) {
	weights := DefaultSeverityWeights()
	for _, p := range detect.AllPatternTypes {
		if _, ok := weights[p]; !ok {
			t.Errorf("no weight for %s", p)
		}
	}
}
