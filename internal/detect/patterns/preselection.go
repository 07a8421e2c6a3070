package patterns

import (
	"strings"

	"github.com/veyra-labs/dpscan/internal/detect"
	"github.com/veyra-labs/dpscan/internal/detect/lexicon"
	"github.com/veyra-labs/dpscan/internal/snapshot"
)

// Preselection flags options checked or selected by default whose label text
// reads like something that benefits the operator: marketing consent,
// upsells, auto-renewal.
func Preselection(lex *lexicon.Set, weights lexicon.Weights) detect.Detector {
	checkedWeight := weights.Get("preselection.checked_default", 0.9)
	radioWeight := weights.Get("preselection.radio_default", 0.85)
	selectWeight := weights.Get("preselection.select_default", 0.8)
	deemphasis := weights.Get("preselection.deemphasized", 1.1)

	return detect.Detector{
		Type:          detect.PatternPreselection,
		Title:         "Preselected Options",
		MinConfidence: 0.6,
		Run: func(p *snapshot.Page) []detect.Detection {
			if p == nil || p.DOM == nil {
				return nil
			}

			var out []detect.Detection

			emit := func(m snapshot.Match, label string, strength float64, kind string) {
				norm := snapshot.NormalizeText(label)
				hits := matchAny(norm, lex.PreselectionKeywords)
				if len(hits) == 0 {
					return
				}

				confidence := detect.Score(len(hits), strength)
				if deemphasized(m.Node) {
					confidence = detect.Clamp(confidence * deemphasis)
				}
				out = append(out, newDetection(p, detect.PatternPreselection, confidence, m.Path, map[string]any{
					"input_kind": kind,
					"label":      snippet(norm, 160),
					"keywords":   hits,
				}))
			}

			for _, m := range p.Find(func(n *snapshot.Node) bool {
				return n.Tag == "input" && strings.EqualFold(n.Attr("type"), "checkbox") && n.HasAttr("checked")
			}) {
				emit(m, p.LabelText(m.Node), checkedWeight, "checkbox")
			}

			for _, m := range p.Find(func(n *snapshot.Node) bool {
				return n.Tag == "input" && strings.EqualFold(n.Attr("type"), "radio") && n.HasAttr("checked")
			}) {
				emit(m, p.LabelText(m.Node), radioWeight, "radio")
			}

			for _, m := range p.Find(func(n *snapshot.Node) bool {
				return n.Tag == "option" && n.HasAttr("selected")
			}) {
				emit(m, m.Node.FullText(), selectWeight, "select")
			}

			return out
		},
	}
}

// deemphasized approximates "visually played down" from inline styles: tiny
// fonts, washed-out contrast, or an explicitly hidden control.
func deemphasized(n *snapshot.Node) bool {
	style := n.Style()
	if size := snapshot.FontSizePx(style["font-size"]); size > 0 && size < 12 {
		return true
	}
	if n.LowContrast() {
		return true
	}
	if strings.Contains(strings.ToLower(style["display"]), "none") {
		return true
	}
	if strings.Contains(strings.ToLower(style["visibility"]), "hidden") {
		return true
	}
	return false
}
