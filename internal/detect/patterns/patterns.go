// Package patterns implements the built-in dark-pattern detectors. Each
// detector is a pure heuristic over an immutable page snapshot; phrase lists
// and signal weights come from the lexicon so they stay tunable data.
package patterns

import (
	"net/url"
	"strings"

	"github.com/veyra-labs/dpscan/internal/detect"
	"github.com/veyra-labs/dpscan/internal/detect/lexicon"
	"github.com/veyra-labs/dpscan/internal/snapshot"
)

// All returns the built-in detectors in their canonical registration order.
func All(lex *lexicon.Set, weights lexicon.Weights) []detect.Detector {
	return []detect.Detector{
		Confirmshaming(lex, weights),
		Preselection(lex, weights),
		HiddenCosts(lex, weights),
		DifficultCancellation(lex, weights),
		MisleadingAds(lex, weights),
		FalseUrgency(lex, weights),
		ConfusingInterface(lex, weights),
	}
}

// interactive reports whether a node acts as a clickable control.
func interactive(n *snapshot.Node) bool {
	switch n.Tag {
	case "button":
		return true
	case "a":
		return true
	case "input":
		switch strings.ToLower(n.Attr("type")) {
		case "button", "submit", "reset", "image":
			return true
		}
		return false
	}
	return strings.EqualFold(n.Attr("role"), "button")
}

// controlText is the text a user reads on a control, normalized for matching.
// Inputs carry it in value=, everything else in descendant text.
func controlText(n *snapshot.Node) string {
	if n.Tag == "input" {
		return snapshot.NormalizeText(n.Attr("value"))
	}
	t := n.FullText()
	if t == "" {
		t = n.Attr("aria-label")
	}
	if t == "" {
		t = n.Attr("title")
	}
	return snapshot.NormalizeText(t)
}

// matchAny returns the phrases from list contained in the normalized text.
func matchAny(normText string, list []string) []string {
	if normText == "" {
		return nil
	}
	var hits []string
	for _, phrase := range list {
		if phrase == "" {
			continue
		}
		if strings.Contains(normText, strings.ToLower(phrase)) {
			hits = append(hits, phrase)
		}
	}
	return hits
}

// containsAnyWord is matchAny on whole-word boundaries, for short words that
// would otherwise match inside larger tokens ("no" in "normal").
func containsAnyWord(normText string, words []string) []string {
	if normText == "" {
		return nil
	}
	fields := " " + normText + " "
	var hits []string
	for _, w := range words {
		if w == "" {
			continue
		}
		needle := strings.ToLower(w)
		if strings.Contains(needle, " ") {
			if strings.Contains(normText, needle) {
				hits = append(hits, w)
			}
			continue
		}
		if strings.Contains(fields, " "+needle+" ") {
			hits = append(hits, w)
		}
	}
	return hits
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// snippet truncates evidence text so report rows stay readable.
func snippet(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// newDetection builds a detection with the invariants every detector must
// hold: clamped confidence, pattern type from the fixed set, source URL and
// the full-page screenshot reference when the snapshot carries one.
func newDetection(p *snapshot.Page, t detect.PatternType, confidence float64, location string, evidence map[string]any) detect.Detection {
	d := detect.Detection{
		Type:       t,
		Confidence: detect.Clamp(confidence),
		Location:   location,
		Evidence:   evidence,
		URL:        p.URL,
	}
	if ref := p.ScreenshotRefs["full"]; ref != "" {
		d.ScreenshotRef = ref
	}
	return d
}
