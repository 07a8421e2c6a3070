package patterns

import (
	"github.com/veyra-labs/dpscan/internal/detect"
	"github.com/veyra-labs/dpscan/internal/detect/lexicon"
	"github.com/veyra-labs/dpscan/internal/snapshot"
)

// Confirmshaming flags decline controls whose wording guilts the user into
// not declining ("No thanks, I like paying more").
func Confirmshaming(lex *lexicon.Set, weights lexicon.Weights) detect.Detector {
	phraseWeight := weights.Get("confirmshaming.phrase_match", 0.9)
	lossWeight := weights.Get("confirmshaming.loss_language", 0.8)
	roleWeight := weights.Get("confirmshaming.dismiss_role", 0.85)

	return detect.Detector{
		Type:          detect.PatternConfirmshaming,
		Title:         "Confirmshaming",
		MinConfidence: 0.6,
		Run: func(p *snapshot.Page) []detect.Detection {
			if p == nil || p.DOM == nil {
				return nil
			}

			var out []detect.Detection
			for _, m := range p.Find(interactive) {
				text := controlText(m.Node)
				if text == "" {
					continue
				}

				phrases := matchAny(text, lex.ConfirmshamingPhrases)
				negations := containsAnyWord(text, lex.NegationWords)
				losses := containsAnyWord(text, lex.LossWords)

				// A decline control must at least frame a refusal; a phrase
				// hit alone also qualifies.
				if len(phrases) == 0 && (len(negations) == 0 || len(losses) == 0) {
					continue
				}

				// Multiple phrase hits on one element score as the single
				// strongest match, never the sum.
				strength := 0.0
				signals := 0
				if len(phrases) > 0 {
					strength = phraseWeight
					signals++
				}
				if len(negations) > 0 && len(losses) > 0 {
					if lossWeight > strength {
						strength = lossWeight
					}
					signals++
				}
				if isDismissControl(m.Node, text, lex) {
					if roleWeight > strength {
						strength = roleWeight
					}
					signals++
				}

				confidence := detect.Score(signals, strength)
				out = append(out, newDetection(p, detect.PatternConfirmshaming, confidence, m.Path, map[string]any{
					"element":       m.Node.Tag,
					"text":          snippet(text, 160),
					"phrases":       phrases,
					"loss_words":    losses,
					"signal_count":  signals,
					"best_strength": strength,
				}))
			}
			return out
		},
	}
}

// isDismissControl reports whether the control performs a reject/dismiss
// action, judged from its wording and styling hooks.
func isDismissControl(n *snapshot.Node, normText string, lex *lexicon.Set) bool {
	if len(matchAny(normText, lex.RejectWords)) > 0 {
		return true
	}
	for _, c := range n.Classes() {
		switch snapshot.NormalizeText(c) {
		case "close", "dismiss", "decline", "reject", "cancel", "skip", "no":
			return true
		}
	}
	return false
}
