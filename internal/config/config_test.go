package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/veyra-labs/dpscan/internal/detect"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := Default()
	if p.Workers != def.Workers || p.MinConfidence != def.MinConfidence {
		t.Errorf("got %+v, want defaults %+v", p, def)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	src := `
workers: 8
min_confidence: 0.75
formats: [json, csv]
fetch:
  headless: false
  timeout_ms: 5000
severity_weights:
  false_urgency: 0.5
signal_weights:
  confirmshaming.phrase_match: 0.95
lexicon:
  urgency_keywords: [beeile dich]
`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if p.Workers != 8 || p.MinConfidence != 0.75 {
		t.Errorf("overrides not applied: %+v", p)
	}
	if p.Fetch.Headless || p.Fetch.TimeoutMs != 5000 {
		t.Errorf("fetch overrides not applied: %+v", p.Fetch)
	}
	// Untouched knobs keep their defaults.
	if p.MaxPages != Default().MaxPages {
		t.Errorf("max_pages = %d", p.MaxPages)
	}

	if got := p.SeverityTable()[detect.PatternFalseUrgency]; got != 0.5 {
		t.Errorf("severity override = %v", got)
	}
	if got := p.Signals().Get("confirmshaming.phrase_match", 0); got != 0.95 {
		t.Errorf("signal override = %v", got)
	}
	lex := p.Lexicons()
	if lex.UrgencyKeywords[len(lex.UrgencyKeywords)-1] != "beeile dich" {
		t.Error("lexicon extension not merged")
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("workers: [not a number"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("malformed yaml accepted")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Policy)
		wantErr string
	}{
		{"defaults pass", func(*Policy) {}, ""},
		{"zero workers", func(p *Policy) { p.Workers = 0 }, "workers"},
		{"confidence above one", func(p *Policy) { p.MinConfidence = 1.2 }, "min_confidence"},
		{"negative depth", func(p *Policy) { p.Depth = -1 }, "depth"},
		{"zero max pages", func(p *Policy) { p.MaxPages = 0 }, "max_pages"},
		{"zero timeout", func(p *Policy) { p.Fetch.TimeoutMs = 0 }, "timeout_ms"},
		{"unknown format", func(p *Policy) { p.Formats = []string{"pdf"} }, "format"},
		{"unknown severity key", func(p *Policy) { p.SeverityWeights = map[string]float64{"bogus": 0.5} }, "pattern type"},
		{"severity weight too big", func(p *Policy) { p.SeverityWeights = map[string]float64{"hidden_costs": 1.5} }, "severity_weights"},
		{"unknown signal key", func(p *Policy) { p.SignalWeights = map[string]float64{"nope.signal": 0.5} }, "signal"},
		{"bad redaction regex", func(p *Policy) { p.RedactionPatterns = []string{"(unclosed"} }, "redaction"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			tt.mutate(&p)
			err := p.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestFetchOptionDurations(t *testing.T) {
	f := FetchOptions{TimeoutMs: 1500, InteractionDelaySec: 0.5}
	if f.Timeout().Milliseconds() != 1500 {
		t.Errorf("Timeout = %v", f.Timeout())
	}
	if f.InteractionDelay().Milliseconds() != 500 {
		t.Errorf("InteractionDelay = %v", f.InteractionDelay())
	}
}
