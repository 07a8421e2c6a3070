package patterns

import (
	"strings"

	"github.com/veyra-labs/dpscan/internal/detect"
	"github.com/veyra-labs/dpscan/internal/detect/lexicon"
	"github.com/veyra-labs/dpscan/internal/snapshot"
)

// MisleadingAds flags links dressed up as native UI controls that lead to
// external or ad-network destinations without a visible disclosure label.
func MisleadingAds(lex *lexicon.Set, weights lexicon.Weights) detect.Detector {
	mimicryWeight := weights.Get("misleading_ads.control_mimicry", 0.8)
	undisclosedWeight := weights.Get("misleading_ads.undisclosed", 0.85)
	externalWeight := weights.Get("misleading_ads.external_target", 0.8)

	return detect.Detector{
		Type:          detect.PatternMisleadingAds,
		Title:         "Misleading Ads",
		MinConfidence: 0.6,
		Run: func(p *snapshot.Page) []detect.Detection {
			if p == nil || p.DOM == nil {
				return nil
			}
			pageHost := hostOf(p.URL)

			var out []detect.Detection
			for _, m := range p.Find(func(n *snapshot.Node) bool {
				return n.Tag == "a" && n.Attr("href") != ""
			}) {
				href := m.Node.Attr("href")
				external, adNetwork := destinationSignals(href, pageHost, lex)
				if !external && !adNetwork {
					continue
				}

				mimics := mimicsControl(m.Node)
				text := controlText(m.Node)
				promos := matchAny(text, lex.PromoKeywords)
				if !mimics && len(promos) == 0 {
					continue
				}

				disclosed := hasDisclosure(m.Node, lex)
				if disclosed {
					continue
				}

				signals := 0
				strength := undisclosedWeight
				if mimics {
					signals++
					if mimicryWeight > strength {
						strength = mimicryWeight
					}
				}
				if adNetwork {
					signals += 2
				} else if external {
					signals++
					if externalWeight > strength {
						strength = externalWeight
					}
				}
				if len(promos) > 0 {
					signals++
				}

				confidence := detect.Score(signals, strength)
				out = append(out, newDetection(p, detect.PatternMisleadingAds, confidence, m.Path, map[string]any{
					"href":           snippet(href, 160),
					"text":           snippet(text, 120),
					"mimics_control": mimics,
					"ad_network":     adNetwork,
					"promo_words":    promos,
				}))
			}
			return out
		},
	}
}

func destinationSignals(href, pageHost string, lex *lexicon.Set) (external, adNetwork bool) {
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "#") {
		return false, false
	}
	host := hostOf(href)
	if host == "" {
		return false, false // relative link, same site
	}
	external = pageHost != "" && host != pageHost && !strings.HasSuffix(host, "."+pageHost)
	for _, frag := range lex.AdHostFragments {
		if strings.Contains(host, strings.ToLower(frag)) || strings.Contains(lower, strings.ToLower(frag)) {
			adNetwork = true
			break
		}
	}
	return external, adNetwork
}

// mimicsControl reports whether the link is styled to pass as a native
// button or interface chrome.
func mimicsControl(n *snapshot.Node) bool {
	for _, c := range n.Classes() {
		cl := strings.ToLower(c)
		if strings.Contains(cl, "btn") || strings.Contains(cl, "button") ||
			strings.Contains(cl, "download") || strings.Contains(cl, "play") {
			return true
		}
	}
	if strings.EqualFold(n.Attr("role"), "button") {
		return true
	}
	style := n.Style()
	return style["background-color"] != "" && style["border-radius"] != ""
}

// hasDisclosure looks for an ad/sponsored label on the element or its
// immediate surroundings.
func hasDisclosure(n *snapshot.Node, lex *lexicon.Set) bool {
	check := func(text string) bool {
		return len(containsAnyWord(snapshot.NormalizeText(text), lex.AdDisclosureWords)) > 0
	}
	if check(n.FullText()) || check(n.Attr("aria-label")) {
		return true
	}
	for anc, hops := n.Parent(), 0; anc != nil && hops < 2; anc, hops = anc.Parent(), hops+1 {
		if check(anc.Text) {
			return true
		}
		marker := anc.Attr("class") + " " + anc.Attr("id")
		if check(marker) {
			return true
		}
		// Sibling captions count as disclosure too.
		for _, sib := range anc.Children {
			if sib != n && check(sib.Text) {
				return true
			}
		}
	}
	return false
}
