package registry

import (
	"testing"

	"github.com/veyra-labs/dpscan/internal/detect"
	"github.com/veyra-labs/dpscan/internal/detect/lexicon"
	"github.com/veyra-labs/dpscan/internal/snapshot"
)

func stub(t detect.PatternType, min float64, out []detect.Detection) detect.Detector {
	return detect.Detector{
		Type:          t,
		Title:         string(t),
		MinConfidence: min,
		Run:           func(*snapshot.Page) []detect.Detection { return out },
	}
}

func TestDefaultRegistersAllPatterns(t *testing.T) {
	r := Default(lexicon.Default(), lexicon.DefaultWeights())
	ds := r.Detectors()
	if len(ds) != len(detect.AllPatternTypes) {
		t.Fatalf("registered %d detectors, want %d", len(ds), len(detect.AllPatternTypes))
	}
	for i, d := range ds {
		if d.Type != detect.AllPatternTypes[i] {
			t.Errorf("detector[%d] = %s, want %s", i, d.Type, detect.AllPatternTypes[i])
		}
	}
}

func TestRunAllKeepsRegistrationOrder(t *testing.T) {
	r := New()
	r.Register(
		stub(detect.PatternFalseUrgency, 0, []detect.Detection{
			{Type: detect.PatternFalseUrgency, Confidence: 0.9, Location: "a"},
			{Type: detect.PatternFalseUrgency, Confidence: 0.8, Location: "b"},
		}),
		stub(detect.PatternPreselection, 0, []detect.Detection{
			{Type: detect.PatternPreselection, Confidence: 0.7, Location: "c"},
		}),
		stub(detect.PatternHiddenCosts, 0, nil),
	)

	// Concurrent execution must never reorder output.
	for run := 0; run < 20; run++ {
		got, errs := r.RunAll(nil, 0)
		if len(errs) != 0 {
			t.Fatalf("errs = %v", errs)
		}
		wantLoc := []string{"a", "b", "c"}
		if len(got) != len(wantLoc) {
			t.Fatalf("got %d detections, want %d", len(got), len(wantLoc))
		}
		for i, d := range got {
			if d.Location != wantLoc[i] {
				t.Fatalf("run %d: detection[%d] at %q, want %q", run, i, d.Location, wantLoc[i])
			}
		}
	}
}

func TestRunAllIsolatesPanics(t *testing.T) {
	r := New()
	r.Register(
		detect.Detector{
			Type: detect.PatternMisleadingAds,
			Run:  func(*snapshot.Page) []detect.Detection { panic("boom") },
		},
		stub(detect.PatternPreselection, 0, []detect.Detection{
			{Type: detect.PatternPreselection, Confidence: 0.8},
		}),
	)

	got, errs := r.RunAll(nil, 0)
	if len(got) != 1 || got[0].Type != detect.PatternPreselection {
		t.Fatalf("surviving detections = %+v", got)
	}
	err, ok := errs[detect.PatternMisleadingAds]
	if !ok || err == nil {
		t.Fatalf("panic not recorded: %v", errs)
	}
}

func TestFilterThresholdsAndInvariants(t *testing.T) {
	r := New()
	r.Register(stub(detect.PatternConfirmshaming, 0.6, []detect.Detection{
		{Type: detect.PatternConfirmshaming, Confidence: 0.95, Location: "keep"},
		{Type: detect.PatternConfirmshaming, Confidence: 0.55, Location: "below detector floor"},
		{Type: detect.PatternConfirmshaming, Confidence: 0.65, Location: "below global floor"},
		{Type: "made_up", Confidence: 1.4, Location: "fixed up"},
	}))

	got, errs := r.RunAll(nil, 0.7)
	if len(errs) != 0 {
		t.Fatalf("errs = %v", errs)
	}
	if len(got) != 2 {
		t.Fatalf("got %d detections, want 2: %+v", len(got), got)
	}
	if got[0].Location != "keep" {
		t.Errorf("first = %q", got[0].Location)
	}
	if got[1].Type != detect.PatternConfirmshaming {
		t.Errorf("invalid type not fixed up: %s", got[1].Type)
	}
	if got[1].Confidence != 1.0 {
		t.Errorf("confidence not clamped: %v", got[1].Confidence)
	}
}

func TestNilRunDetector(t *testing.T) {
	r := New()
	r.Register(detect.Detector{Type: detect.PatternFalseUrgency})
	got, errs := r.RunAll(nil, 0)
	if len(got) != 0 || len(errs) != 0 {
		t.Fatalf("got %v, %v", got, errs)
	}
}
