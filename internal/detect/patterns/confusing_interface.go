package patterns

import (
	"github.com/veyra-labs/dpscan/internal/detect"
	"github.com/veyra-labs/dpscan/internal/detect/lexicon"
	"github.com/veyra-labs/dpscan/internal/snapshot"
)

// ConfusingInterface pairs accept-style and reject-style controls that share
// a container and flags lopsided visual emphasis: a shouting accept button
// next to a ghosted or disguised decline.
func ConfusingInterface(lex *lexicon.Set, weights lexicon.Weights) detect.Detector {
	asymmetryWeight := weights.Get("confusing_interface.asymmetry", 0.85)
	colorSwapWeight := weights.Get("confusing_interface.color_swap", 0.9)

	return detect.Detector{
		Type:          detect.PatternConfusingInterface,
		Title:         "Confusing Interface",
		MinConfidence: 0.6,
		Run: func(p *snapshot.Page) []detect.Detection {
			if p == nil || p.DOM == nil {
				return nil
			}

			var out []detect.Detection
			for _, pair := range actionPairs(p, lex) {
				acceptW := pair.accept.Node.VisualWeight()
				rejectW := pair.reject.Node.VisualWeight()
				if rejectW <= 0 {
					rejectW = 0.01
				}
				ratio := acceptW / rejectW

				signals := 0
				strength := asymmetryWeight
				if ratio >= 1.5 {
					signals++
				}
				if ratio >= 2.5 {
					signals++
				}
				if pair.reject.Node.LowContrast() {
					signals++
				}
				if invertedColors(pair.accept.Node, pair.reject.Node) {
					signals++
					if colorSwapWeight > strength {
						strength = colorSwapWeight
					}
				}
				if signals == 0 {
					continue
				}

				confidence := detect.Score(signals, strength)
				out = append(out, newDetection(p, detect.PatternConfusingInterface, confidence, pair.reject.Path, map[string]any{
					"accept_text":  snippet(controlText(pair.accept.Node), 80),
					"reject_text":  snippet(controlText(pair.reject.Node), 80),
					"weight_ratio": ratio,
					"low_contrast": pair.reject.Node.LowContrast(),
					"signal_count": signals,
				}))
			}
			return out
		},
	}
}

type actionPair struct {
	accept snapshot.Match
	reject snapshot.Match
}

// actionPairs finds accept/reject controls sharing a parent or grandparent,
// the usual shape of consent dialogs and modals.
func actionPairs(p *snapshot.Page, lex *lexicon.Set) []actionPair {
	accepts := actionControls(p, lex.AcceptWords)
	rejects := actionControls(p, lex.RejectWords)
	if len(accepts) == 0 || len(rejects) == 0 {
		return nil
	}

	var pairs []actionPair
	used := map[*snapshot.Node]bool{}
	for _, a := range accepts {
		for _, r := range rejects {
			if a.Node == r.Node || used[r.Node] {
				continue
			}
			if sharesContainer(a.Node, r.Node) {
				pairs = append(pairs, actionPair{accept: a, reject: r})
				used[r.Node] = true
				break
			}
		}
	}
	return pairs
}

func sharesContainer(a, b *snapshot.Node) bool {
	ancestors := map[*snapshot.Node]bool{}
	for cur, hops := a.Parent(), 0; cur != nil && hops < 2; cur, hops = cur.Parent(), hops+1 {
		ancestors[cur] = true
	}
	for cur, hops := b.Parent(), 0; cur != nil && hops < 2; cur, hops = cur.Parent(), hops+1 {
		if ancestors[cur] {
			return true
		}
	}
	return false
}

// invertedColors catches the swapped-convention trick: the decline control
// painted in the affirmative green while accept sits in warning red, or the
// decline dressed as the loud primary action.
func invertedColors(accept, reject *snapshot.Node) bool {
	acceptBg := snapshot.Luminance(accept.Style()["background-color"])
	rejectBg := snapshot.Luminance(reject.Style()["background-color"])
	// Reject visually primary while accept is plain.
	return rejectBg >= 0 && rejectBg < 0.9 && acceptBg < 0
}
