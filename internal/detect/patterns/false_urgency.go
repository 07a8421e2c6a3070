package patterns

import (
	"regexp"
	"strings"

	"github.com/veyra-labs/dpscan/internal/detect"
	"github.com/veyra-labs/dpscan/internal/detect/lexicon"
	"github.com/veyra-labs/dpscan/internal/snapshot"
)

var (
	clockRe    = regexp.MustCompile(`\b\d{1,2}:\d{2}(?::\d{2})?\b`)
	scarcityRe = regexp.MustCompile(`(?i)\bonly\s+(\d+)\s+(?:left|remaining|items?|seats?|rooms?|spots?)\b`)
)

// FalseUrgency flags countdowns and "only N left" scarcity claims, but only
// when corroborated: a single urgency signal alone never clears the
// threshold, because genuine time-limited offers exist.
func FalseUrgency(lex *lexicon.Set, weights lexicon.Weights) detect.Detector {
	countdownWeight := weights.Get("false_urgency.countdown", 0.85)
	scarcityWeight := weights.Get("false_urgency.scarcity", 0.85)
	staticWeight := weights.Get("false_urgency.static_value", 0.9)

	return detect.Detector{
		Type:          detect.PatternFalseUrgency,
		Title:         "False Urgency",
		MinConfidence: 0.6,
		Run: func(p *snapshot.Page) []detect.Detection {
			if p == nil || p.DOM == nil {
				return nil
			}

			var out []detect.Detection

			// Countdown widgets, corroborated by urgency wording or static markup.
			for _, m := range countdownElements(p, lex) {
				signals := []string{"countdown"}
				strength := countdownWeight
				norm := snapshot.NormalizeText(m.Node.FullText())
				if kw := matchAny(norm, lex.UrgencyKeywords); len(kw) > 0 {
					signals = append(signals, "urgency_wording")
				}
				if staticCountdown(m.Node) {
					signals = append(signals, "static_markup")
					if staticWeight > strength {
						strength = staticWeight
					}
				}
				if len(signals) < 2 {
					continue
				}
				confidence := detect.Score(len(signals), strength)
				out = append(out, newDetection(p, detect.PatternFalseUrgency, confidence, m.Path, map[string]any{
					"signals": signals,
					"text":    snippet(norm, 120),
				}))
			}

			// Scarcity claims, corroborated by repetition or urgency pressure.
			for _, d := range scarcityDetections(p, lex, scarcityWeight, staticWeight) {
				out = append(out, d)
			}

			return out
		},
	}
}

func countdownElements(p *snapshot.Page, lex *lexicon.Set) []snapshot.Match {
	return p.Find(func(n *snapshot.Node) bool {
		marker := snapshot.NormalizeText(n.Attr("id") + " " + n.Attr("class") + " " + n.Attr("data-role"))
		if len(matchAny(marker, lex.CountdownHints)) > 0 {
			return true
		}
		return n.Text != "" && clockRe.MatchString(n.Text) &&
			len(matchAny(snapshot.NormalizeText(n.Text), lex.UrgencyKeywords)) > 0
	})
}

// staticCountdown: a timer rendered as plain text with no data-* hook for a
// script to tick it is hardcoded theater.
func staticCountdown(n *snapshot.Node) bool {
	if !clockRe.MatchString(n.FullText()) {
		return false
	}
	for k := range n.Attrs {
		if strings.HasPrefix(k, "data-") {
			return false
		}
	}
	for _, c := range n.Children {
		for k := range c.Attrs {
			if strings.HasPrefix(k, "data-") {
				return false
			}
		}
	}
	return true
}

func scarcityDetections(p *snapshot.Page, lex *lexicon.Set, scarcityWeight, staticWeight float64) []detect.Detection {
	// Count how often each claimed quantity appears across the whole page;
	// the same hardcoded "3 left" repeated everywhere is a strong tell.
	valueCount := map[string]int{}
	for _, m := range scarcityRe.FindAllStringSubmatch(p.TextContent, -1) {
		valueCount[m[1]]++
	}

	var out []detect.Detection
	for _, m := range p.Find(func(n *snapshot.Node) bool {
		return n.Text != "" && scarcityRe.MatchString(n.Text)
	}) {
		sub := scarcityRe.FindStringSubmatch(m.Node.Text)
		if sub == nil {
			continue
		}
		signals := []string{"scarcity_claim"}
		strength := scarcityWeight
		norm := snapshot.NormalizeText(m.Node.FullText())
		if len(matchAny(norm, lex.UrgencyKeywords)) > 0 {
			signals = append(signals, "urgency_wording")
		}
		if len(matchAny(norm, lex.ScarcityHints)) > 1 {
			signals = append(signals, "stacked_hints")
		}
		if valueCount[sub[1]] > 1 {
			signals = append(signals, "repeated_value")
			if staticWeight > strength {
				strength = staticWeight
			}
		}
		if len(signals) < 2 {
			continue
		}
		confidence := detect.Score(len(signals), strength)
		out = append(out, newDetection(p, detect.PatternFalseUrgency, confidence, m.Path, map[string]any{
			"signals":  signals,
			"quantity": sub[1],
			"text":     snippet(norm, 120),
		}))
	}
	return out
}
