package patterns

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/veyra-labs/dpscan/internal/detect"
	"github.com/veyra-labs/dpscan/internal/detect/lexicon"
	"github.com/veyra-labs/dpscan/internal/snapshot"
)

var priceRe = regexp.MustCompile(`(?i)(?:[$€£]\s?\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{1,2})?|\d{1,3}(?:[.,]\d{3})*(?:[.,]\d{1,2})?\s?(?:usd|eur|gbp|€|\$|£))`)

type priceToken struct {
	raw       string
	value     float64
	path      string
	checkout  bool
	finePrint bool
}

// HiddenCosts compares the first advertised price against the totals shown
// near checkout context and flags upward drift or charge lines that only
// appear next to a total.
func HiddenCosts(lex *lexicon.Set, weights lexicon.Weights) detect.Detector {
	jumpWeight := weights.Get("hidden_costs.price_jump", 0.9)
	chargesWeight := weights.Get("hidden_costs.extra_charges", 0.9)
	fineWeight := weights.Get("hidden_costs.fine_print", 0.75)

	return detect.Detector{
		Type:          detect.PatternHiddenCosts,
		Title:         "Hidden Costs",
		MinConfidence: 0.6,
		Run: func(p *snapshot.Page) []detect.Detection {
			if p == nil || p.DOM == nil {
				return nil
			}

			prices := collectPrices(p, lex)
			var out []detect.Detection

			// 1. Early price vs checkout-context price.
			if d, ok := priceJump(p, prices, jumpWeight); ok {
				out = append(out, d)
			}

			// 2. Charge lines that exist only inside checkout context.
			if d, ok := lateCharges(p, lex, chargesWeight); ok {
				out = append(out, d)
			}

			// 3. Fine print adjacent to totals that mentions extra costs.
			if d, ok := finePrintCosts(p, lex, fineWeight); ok {
				out = append(out, d)
			}

			return out
		},
	}
}

func collectPrices(p *snapshot.Page, lex *lexicon.Set) []priceToken {
	var prices []priceToken
	p.Walk(func(n *snapshot.Node, path string) {
		if n.Text == "" {
			return
		}
		for _, raw := range priceRe.FindAllString(n.Text, -1) {
			v, ok := parsePrice(raw)
			if !ok {
				continue
			}
			prices = append(prices, priceToken{
				raw:       raw,
				value:     v,
				path:      path,
				checkout:  inCheckoutContext(n, lex),
				finePrint: isFinePrint(n),
			})
		}
	})
	return prices
}

func priceJump(p *snapshot.Page, prices []priceToken, weight float64) (detect.Detection, bool) {
	var first *priceToken
	var checkoutMax *priceToken
	for i := range prices {
		t := &prices[i]
		if first == nil {
			first = t
		}
		if t.checkout && (checkoutMax == nil || t.value > checkoutMax.value) {
			checkoutMax = t
		}
	}
	if first == nil || checkoutMax == nil || first == checkoutMax {
		return detect.Detection{}, false
	}
	if first.value <= 0 || checkoutMax.value <= first.value {
		return detect.Detection{}, false
	}

	increase := (checkoutMax.value - first.value) / first.value
	if increase < 0.05 {
		// Rounding noise, not a hidden cost.
		return detect.Detection{}, false
	}

	signals := 1
	if increase >= 0.15 {
		signals++
	}
	if increase >= 0.40 {
		signals++
	}
	confidence := detect.Score(signals, weight)
	return newDetection(p, detect.PatternHiddenCosts, confidence, checkoutMax.path, map[string]any{
		"first_price":      first.raw,
		"checkout_price":   checkoutMax.raw,
		"increase_percent": int(increase * 100),
	}), true
}

func lateCharges(p *snapshot.Page, lex *lexicon.Set, weight float64) (detect.Detection, bool) {
	var charges []string
	location := ""
	p.Walk(func(n *snapshot.Node, path string) {
		if n.Text == "" || !inCheckoutContext(n, lex) {
			return
		}
		norm := snapshot.NormalizeText(n.Text)
		for _, hit := range matchAny(norm, lex.ExtraChargeWords) {
			charges = append(charges, hit)
			if location == "" {
				location = path
			}
		}
	})
	if len(charges) == 0 {
		return detect.Detection{}, false
	}

	confidence := detect.Score(len(charges), weight)
	return newDetection(p, detect.PatternHiddenCosts, confidence, location, map[string]any{
		"charge_lines": uniqueStrings(charges),
	}), true
}

func finePrintCosts(p *snapshot.Page, lex *lexicon.Set, weight float64) (detect.Detection, bool) {
	var hits []string
	location := ""
	p.Walk(func(n *snapshot.Node, path string) {
		if n.Text == "" || !isFinePrint(n) || !inCheckoutContext(n, lex) {
			return
		}
		norm := snapshot.NormalizeText(n.Text)
		if kw := matchAny(norm, lex.CostKeywords); len(kw) > 0 {
			hits = append(hits, snippet(norm, 120))
			if location == "" {
				location = path
			}
		}
	})
	if len(hits) == 0 {
		return detect.Detection{}, false
	}

	confidence := detect.Score(len(hits), weight)
	return newDetection(p, detect.PatternHiddenCosts, confidence, location, map[string]any{
		"fine_print": hits,
	}), true
}

// inCheckoutContext climbs the ancestor chain looking for checkout markers in
// ids, classes, or nearby headings.
func inCheckoutContext(n *snapshot.Node, lex *lexicon.Set) bool {
	for cur := n; cur != nil; cur = cur.Parent() {
		marker := snapshot.NormalizeText(cur.Attr("id") + " " + cur.Attr("class"))
		if len(matchAny(marker, lex.CheckoutKeywords)) > 0 {
			return true
		}
		if cur.Text != "" {
			norm := snapshot.NormalizeText(cur.Text)
			if len(matchAny(norm, lex.CheckoutKeywords)) > 0 || len(matchAny(norm, lex.CostKeywords)) > 0 {
				return true
			}
		}
	}
	return false
}

// isFinePrint approximates "small print": tags and styles used to shrink text.
func isFinePrint(n *snapshot.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent() {
		if cur.Tag == "small" || cur.Tag == "sup" {
			return true
		}
		if size := snapshot.FontSizePx(cur.Style()["font-size"]); size > 0 && size < 12 {
			return true
		}
	}
	return false
}

func parsePrice(raw string) (float64, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	for _, cur := range []string{"$", "€", "£", "usd", "eur", "gbp"} {
		s = strings.ReplaceAll(s, cur, "")
	}
	s = strings.TrimSpace(s)

	// "1,234.56" keeps the dot; "12,50" means a decimal comma.
	if strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", "")
	} else if strings.Count(s, ",") == 1 && len(s)-strings.Index(s, ",") <= 3 {
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

func uniqueStrings(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	var out []string
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}
