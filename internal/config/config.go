// Package config loads the scan policy: worker counts, confidence floors,
// severity and signal weight tables, lexicon extensions, and fetch options.
// Policy problems are fatal at startup, before any site is touched.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/veyra-labs/dpscan/internal/detect"
	"github.com/veyra-labs/dpscan/internal/detect/lexicon"
	"github.com/veyra-labs/dpscan/internal/report"
)

// DefaultPolicyPath is looked up in the working directory when no explicit
// config path is given.
const DefaultPolicyPath = ".dpscan.yaml"

// FetchOptions mirrors the page fetcher's recognized keys.
type FetchOptions struct {
	Headless            bool    `yaml:"headless"`
	TimeoutMs           int     `yaml:"timeout_ms"`
	InteractionDelaySec float64 `yaml:"interaction_delay_sec"`
}

// Timeout converts the millisecond knob to a duration.
func (f FetchOptions) Timeout() time.Duration {
	return time.Duration(f.TimeoutMs) * time.Millisecond
}

// InteractionDelay converts the seconds knob to a duration.
func (f FetchOptions) InteractionDelay() time.Duration {
	return time.Duration(f.InteractionDelaySec * float64(time.Second))
}

// Policy is the merged scan configuration.
type Policy struct {
	Workers           int                `yaml:"workers"`
	MinConfidence     float64            `yaml:"min_confidence"`
	OutputDir         string             `yaml:"output_dir"`
	Formats           []string           `yaml:"formats"`
	Depth             int                `yaml:"depth"`
	MaxPages          int                `yaml:"max_pages"`
	Database          string             `yaml:"database"`
	Fetch             FetchOptions       `yaml:"fetch"`
	SeverityWeights   map[string]float64 `yaml:"severity_weights"`
	SignalWeights     map[string]float64 `yaml:"signal_weights"`
	Lexicon           *lexicon.Set       `yaml:"lexicon"`
	RedactionPatterns []string           `yaml:"redaction_patterns"`
}

// Default returns the baseline policy.
func Default() Policy {
	return Policy{
		Workers:       3,
		MinConfidence: 0.6,
		OutputDir:     "reports",
		Formats:       []string{"json", "html"},
		MaxPages:      25,
		Fetch: FetchOptions{
			Headless:  true,
			TimeoutMs: 30000,
		},
	}
}

// Load reads the policy file and merges it over the defaults. A missing file
// is not an error; a malformed one is.
func Load(path string) (Policy, error) {
	p := Default()
	if path == "" {
		path = DefaultPolicyPath
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return p, nil
		}
		return p, fmt.Errorf("read policy %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, &p); err != nil {
		return p, fmt.Errorf("parse policy %s: %w", path, err)
	}
	return p, nil
}

var validFormats = map[string]bool{"json": true, "csv": true, "html": true, "xlsx": true}

// Validate rejects policies the pipeline cannot honor. It runs once at
// startup so per-site code can trust every knob blindly.
func (p Policy) Validate() error {
	if p.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", p.Workers)
	}
	if p.MinConfidence < 0 || p.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be in [0,1], got %v", p.MinConfidence)
	}
	if p.Depth < 0 {
		return fmt.Errorf("depth must be >= 0, got %d", p.Depth)
	}
	if p.MaxPages < 1 {
		return fmt.Errorf("max_pages must be >= 1, got %d", p.MaxPages)
	}
	if p.Fetch.TimeoutMs <= 0 {
		return fmt.Errorf("fetch.timeout_ms must be positive, got %d", p.Fetch.TimeoutMs)
	}
	if p.Fetch.InteractionDelaySec < 0 {
		return fmt.Errorf("fetch.interaction_delay_sec must be >= 0, got %v", p.Fetch.InteractionDelaySec)
	}

	for _, f := range p.Formats {
		if !validFormats[f] {
			return fmt.Errorf("unknown report format %q (valid: json, csv, html, xlsx)", f)
		}
	}

	for key, w := range p.SeverityWeights {
		if !detect.PatternType(key).Valid() {
			return fmt.Errorf("severity_weights: unknown pattern type %q", key)
		}
		if w <= 0 || w > 1 {
			return fmt.Errorf("severity_weights.%s must be in (0,1], got %v", key, w)
		}
	}

	known := lexicon.KnownWeightKeys()
	for key, w := range p.SignalWeights {
		if !known[key] {
			return fmt.Errorf("signal_weights: unknown signal %q", key)
		}
		if w <= 0 {
			return fmt.Errorf("signal_weights.%s must be positive, got %v", key, w)
		}
	}

	for _, pattern := range p.RedactionPatterns {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("redaction pattern %q: %w", pattern, err)
		}
	}

	return nil
}

// SeverityTable merges policy overrides over the default severity weights.
func (p Policy) SeverityTable() report.SeverityWeights {
	table := report.DefaultSeverityWeights()
	for key, w := range p.SeverityWeights {
		table[detect.PatternType(key)] = w
	}
	return table
}

// Signals merges policy overrides over the default signal weights.
func (p Policy) Signals() lexicon.Weights {
	weights := lexicon.DefaultWeights()
	for key, w := range p.SignalWeights {
		weights[key] = w
	}
	return weights
}

// Lexicons returns the default lexicon extended with policy additions.
func (p Policy) Lexicons() *lexicon.Set {
	set := lexicon.Default()
	set.Merge(p.Lexicon)
	return set
}
