package patterns

import (
	"strings"

	"github.com/veyra-labs/dpscan/internal/detect"
	"github.com/veyra-labs/dpscan/internal/detect/lexicon"
	"github.com/veyra-labs/dpscan/internal/snapshot"
)

// DifficultCancellation compares how easy subscribing looks against how easy
// cancelling looks: a one-click subscribe next to a phone-only cancellation
// is the classic asymmetry.
func DifficultCancellation(lex *lexicon.Set, weights lexicon.Weights) detect.Detector {
	asymmetryWeight := weights.Get("difficult_cancellation.asymmetry", 0.85)
	obstructionWeight := weights.Get("difficult_cancellation.obstruction", 0.95)
	buriedWeight := weights.Get("difficult_cancellation.buried_flow", 0.75)

	return detect.Detector{
		Type:          detect.PatternDifficultCancellation,
		Title:         "Difficult Cancellation",
		MinConfidence: 0.6,
		Run: func(p *snapshot.Page) []detect.Detection {
			if p == nil || p.DOM == nil {
				return nil
			}

			var out []detect.Detection

			// Explicit obstruction wording is the strongest signal on its own.
			if phrases := matchAny(p.TextContent, lex.ObstructionPhrases); len(phrases) > 0 {
				confidence := detect.Score(len(phrases)+1, obstructionWeight)
				out = append(out, newDetection(p, detect.PatternDifficultCancellation, confidence, "page text", map[string]any{
					"obstruction_phrases": phrases,
				}))
			}

			subscribeActions := actionControls(p, lex.SubscribeKeywords)
			cancelActions := actionControls(p, lex.CancellationKeywords)
			mentionsCancellation := len(matchAny(p.TextContent, lex.CancellationKeywords)) > 0

			// Subscribe is a click away, cancellation is talked about but has
			// no direct control.
			if len(subscribeActions) > 0 && len(cancelActions) == 0 && mentionsCancellation {
				signals := 1 + len(subscribeActions)
				if signals > 4 {
					signals = 4
				}
				confidence := detect.Score(signals, asymmetryWeight)
				out = append(out, newDetection(p, detect.PatternDifficultCancellation, confidence, subscribeActions[0].Path, map[string]any{
					"subscribe_controls": len(subscribeActions),
					"cancel_controls":    0,
					"sample":             snippet(controlText(subscribeActions[0].Node), 120),
				}))
			}

			// Cancellation exists but only buried in deep or fine-print nodes.
			if len(cancelActions) > 0 {
				if m, depth, ok := buriedControl(cancelActions); ok {
					confidence := detect.Score(depth-6, buriedWeight)
					out = append(out, newDetection(p, detect.PatternDifficultCancellation, confidence, m.Path, map[string]any{
						"depth":  depth,
						"sample": snippet(controlText(m.Node), 120),
					}))
				}
			}

			return out
		},
	}
}

// actionControls finds interactive elements whose visible text matches any of
// the given keywords.
func actionControls(p *snapshot.Page, keywords []string) []snapshot.Match {
	var out []snapshot.Match
	for _, m := range p.Find(interactive) {
		if len(matchAny(controlText(m.Node), keywords)) > 0 {
			out = append(out, m)
		}
	}
	return out
}

// buriedControl reports the deepest matching control when every match sits
// unusually deep in the tree or inside fine print.
func buriedControl(matches []snapshot.Match) (snapshot.Match, int, bool) {
	best := matches[0]
	bestDepth := 0
	shallowest := -1
	for _, m := range matches {
		depth := strings.Count(m.Path, ">")
		if shallowest < 0 || depth < shallowest {
			shallowest = depth
		}
		if depth > bestDepth {
			best, bestDepth = m, depth
		}
	}
	if shallowest >= 8 || (bestDepth >= 8 && isFinePrint(best.Node)) {
		return best, bestDepth, true
	}
	return snapshot.Match{}, 0, false
}
