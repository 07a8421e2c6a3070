package patterns

import (
	"math"
	"strings"
	"testing"

	"github.com/veyra-labs/dpscan/internal/detect"
	"github.com/veyra-labs/dpscan/internal/detect/lexicon"
	"github.com/veyra-labs/dpscan/internal/snapshot"
)

func mustParse(t *testing.T, src, url string) *snapshot.Page {
	t.Helper()
	page, err := snapshot.ParseString(src, url)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	return page
}

func defaults() (*lexicon.Set, lexicon.Weights) {
	return lexicon.Default(), lexicon.DefaultWeights()
}

func approx(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("confidence = %v, want %v", got, want)
	}
}

func TestAllDetectorsNilSafe(t *testing.T) {
	lex, weights := defaults()
	for _, det := range All(lex, weights) {
		if got := det.Run(nil); got != nil {
			t.Errorf("%s: Run(nil) = %v, want nil", det.Type, got)
		}
		if det.MinConfidence != 0.6 {
			t.Errorf("%s: MinConfidence = %v, want 0.6", det.Type, det.MinConfidence)
		}
		if !det.Type.Valid() {
			t.Errorf("%s: invalid pattern type", det.Type)
		}
	}
}

func TestConfirmshaming(t *testing.T) {
	lex, weights := defaults()
	det := Confirmshaming(lex, weights)

	t.Run("shaming decline button", func(t *testing.T) {
		page := mustParse(t, `<body><div><button>No thanks, I enjoy paying full price</button></div></body>`, "https://example.com/")
		got := det.Run(page)
		if len(got) != 1 {
			t.Fatalf("got %d detections, want 1", len(got))
		}
		d := got[0]
		if d.Type != detect.PatternConfirmshaming {
			t.Errorf("type = %s", d.Type)
		}
		// Phrase match, loss framing, and dismiss role: three signals at 0.9.
		approx(t, d.Confidence, 0.72)
		if !strings.Contains(d.Location, "button") {
			t.Errorf("location = %q", d.Location)
		}
		if d.URL != "https://example.com/" {
			t.Errorf("url = %q", d.URL)
		}
	})

	t.Run("plain decline is not shaming", func(t *testing.T) {
		page := mustParse(t, `<body><button>Cancel order</button><button>Sign up</button></body>`, "https://example.com/")
		if got := det.Run(page); len(got) != 0 {
			t.Fatalf("got %d detections, want 0: %+v", len(got), got)
		}
	})

	t.Run("input value text is read", func(t *testing.T) {
		page := mustParse(t, `<body><input type="submit" value="No, I don't want to save money"></body>`, "https://example.com/")
		got := det.Run(page)
		if len(got) != 1 {
			t.Fatalf("got %d detections, want 1", len(got))
		}
	})
}

func TestPreselection(t *testing.T) {
	lex, weights := defaults()
	det := Preselection(lex, weights)

	t.Run("checked marketing checkbox", func(t *testing.T) {
		page := mustParse(t, `<body>
<label for="nl">Subscribe to the newsletter</label>
<input type="checkbox" id="nl" checked>
</body>`, "https://example.com/")
		got := det.Run(page)
		if len(got) != 1 {
			t.Fatalf("got %d detections, want 1", len(got))
		}
		// Two keyword hits at the checked-default weight.
		approx(t, got[0].Confidence, 0.63)
		if got[0].Evidence["input_kind"] != "checkbox" {
			t.Errorf("input_kind = %v", got[0].Evidence["input_kind"])
		}
	})

	t.Run("deemphasized control scores higher", func(t *testing.T) {
		page := mustParse(t, `<body>
<label><input type="checkbox" checked style="font-size: 9px">Subscribe to the newsletter</label>
</body>`, "https://example.com/")
		got := det.Run(page)
		if len(got) != 1 {
			t.Fatalf("got %d detections, want 1", len(got))
		}
		approx(t, got[0].Confidence, 0.63*1.1)
	})

	t.Run("preselected option element", func(t *testing.T) {
		page := mustParse(t, `<body><select>
<option>No insurance</option>
<option selected>Add premium insurance protection plan</option>
</select></body>`, "https://example.com/")
		got := det.Run(page)
		if len(got) != 1 {
			t.Fatalf("got %d detections, want 1", len(got))
		}
		if got[0].Evidence["input_kind"] != "select" {
			t.Errorf("input_kind = %v", got[0].Evidence["input_kind"])
		}
	})

	t.Run("unchecked and benign defaults pass", func(t *testing.T) {
		page := mustParse(t, `<body>
<label><input type="checkbox">Subscribe to the newsletter</label>
<label><input type="checkbox" checked>I accept the terms of service</label>
</body>`, "https://example.com/")
		if got := det.Run(page); len(got) != 0 {
			t.Fatalf("got %d detections, want 0: %+v", len(got), got)
		}
	})
}

func TestHiddenCosts(t *testing.T) {
	lex, weights := defaults()
	det := HiddenCosts(lex, weights)

	t.Run("price jump at checkout", func(t *testing.T) {
		page := mustParse(t, `<body>
<p>Book your room for $10.00 a night</p>
<div class="checkout"><span>$14.00</span></div>
</body>`, "https://example.com/")
		got := det.Run(page)
		if len(got) != 1 {
			t.Fatalf("got %d detections, want 1: %+v", len(got), got)
		}
		// 40% increase clears both escalation thresholds.
		approx(t, got[0].Confidence, 0.72)
		if got[0].Evidence["increase_percent"] != 40 {
			t.Errorf("increase_percent = %v", got[0].Evidence["increase_percent"])
		}
	})

	t.Run("charge lines only at checkout", func(t *testing.T) {
		page := mustParse(t, `<body><div id="cart">
<p>Includes a service fee and a resort fee</p>
</div></body>`, "https://example.com/")
		got := det.Run(page)
		if len(got) != 1 {
			t.Fatalf("got %d detections, want 1: %+v", len(got), got)
		}
		approx(t, got[0].Confidence, 0.63)
	})

	t.Run("stable price is clean", func(t *testing.T) {
		page := mustParse(t, `<body>
<p>Just $10.00</p>
<div class="checkout"><span>Total: $10.00</span></div>
</body>`, "https://example.com/")
		if got := det.Run(page); len(got) != 0 {
			t.Fatalf("got %d detections, want 0: %+v", len(got), got)
		}
	})
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$10.00", 10, true},
		{"€1,234.56", 1234.56, true},
		{"12,50 EUR", 12.5, true},
		{"1,000 usd", 1000, true},
		{"$0", 0, false},
		{"free", 0, false},
	}
	for _, tt := range tests {
		got, ok := parsePrice(tt.in)
		if ok != tt.ok || math.Abs(got-tt.want) > 0.001 {
			t.Errorf("parsePrice(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDifficultCancellation(t *testing.T) {
	lex, weights := defaults()
	det := DifficultCancellation(lex, weights)

	t.Run("phone-only obstruction", func(t *testing.T) {
		page := mustParse(t, `<body><p>Please call us to cancel your membership.</p></body>`, "https://example.com/")
		got := det.Run(page)
		if len(got) != 1 {
			t.Fatalf("got %d detections, want 1: %+v", len(got), got)
		}
		approx(t, got[0].Confidence, 0.7*0.95)
	})

	t.Run("subscribe controls without cancel control", func(t *testing.T) {
		page := mustParse(t, `<body>
<button>Subscribe now</button>
<button>Start free trial</button>
<p>You may cancel anytime.</p>
</body>`, "https://example.com/")
		got := det.Run(page)
		if len(got) != 1 {
			t.Fatalf("got %d detections, want 1: %+v", len(got), got)
		}
		approx(t, got[0].Confidence, 0.8*0.85)
		if got[0].Evidence["cancel_controls"] != 0 {
			t.Errorf("cancel_controls = %v", got[0].Evidence["cancel_controls"])
		}
	})

	t.Run("buried cancellation link", func(t *testing.T) {
		deep := `<a href="/account/close">Cancel subscription</a>`
		for i := 0; i < 8; i++ {
			deep = "<div>" + deep + "</div>"
		}
		page := mustParse(t, "<body>"+deep+"</body>", "https://example.com/")
		got := det.Run(page)
		if len(got) != 1 {
			t.Fatalf("got %d detections, want 1: %+v", len(got), got)
		}
		if got[0].Evidence["depth"].(int) < 8 {
			t.Errorf("depth = %v, want >= 8", got[0].Evidence["depth"])
		}
	})

	t.Run("visible cancel next to subscribe is clean", func(t *testing.T) {
		page := mustParse(t, `<body>
<button>Subscribe now</button>
<button>Cancel subscription</button>
</body>`, "https://example.com/")
		if got := det.Run(page); len(got) != 0 {
			t.Fatalf("got %d detections, want 0: %+v", len(got), got)
		}
	})
}

func TestMisleadingAds(t *testing.T) {
	lex, weights := defaults()
	det := MisleadingAds(lex, weights)

	t.Run("fake download button to ad network", func(t *testing.T) {
		page := mustParse(t, `<body>
<a class="btn download" href="https://tracker.doubleclick.net/offer">Download Now</a>
</body>`, "https://example.com/page")
		got := det.Run(page)
		if len(got) != 1 {
			t.Fatalf("got %d detections, want 1: %+v", len(got), got)
		}
		// Control mimicry plus the double-weighted ad-network target.
		approx(t, got[0].Confidence, 0.8*0.85)
		if got[0].Evidence["ad_network"] != true {
			t.Errorf("ad_network = %v", got[0].Evidence["ad_network"])
		}
	})

	t.Run("disclosed sponsored link passes", func(t *testing.T) {
		page := mustParse(t, `<body><div class="sponsored">
<a class="btn" href="https://tracker.doubleclick.net/offer">Great deal</a>
</div></body>`, "https://example.com/page")
		if got := det.Run(page); len(got) != 0 {
			t.Fatalf("got %d detections, want 0: %+v", len(got), got)
		}
	})

	t.Run("internal navigation passes", func(t *testing.T) {
		page := mustParse(t, `<body><a class="btn" href="/pricing">See pricing</a></body>`, "https://example.com/page")
		if got := det.Run(page); len(got) != 0 {
			t.Fatalf("got %d detections, want 0: %+v", len(got), got)
		}
	})

	t.Run("subdomain is not external", func(t *testing.T) {
		page := mustParse(t, `<body><a class="btn" href="https://shop.example.com/buy">Buy now</a></body>`, "https://example.com/page")
		if got := det.Run(page); len(got) != 0 {
			t.Fatalf("got %d detections, want 0: %+v", len(got), got)
		}
	})
}

func TestFalseUrgency(t *testing.T) {
	lex, weights := defaults()
	det := FalseUrgency(lex, weights)

	t.Run("static countdown with urgency wording", func(t *testing.T) {
		page := mustParse(t, `<body>
<div class="countdown">Hurry! Offer ends soon 02:15:00</div>
</body>`, "https://example.com/")
		got := det.Run(page)
		if len(got) != 1 {
			t.Fatalf("got %d detections, want 1: %+v", len(got), got)
		}
		approx(t, got[0].Confidence, 0.72)
	})

	t.Run("scripted countdown needs corroboration", func(t *testing.T) {
		page := mustParse(t, `<body>
<div class="countdown" data-deadline="2026-09-01T00:00:00Z">03:00:00</div>
</body>`, "https://example.com/")
		if got := det.Run(page); len(got) != 0 {
			t.Fatalf("got %d detections, want 0: %+v", len(got), got)
		}
	})

	t.Run("repeated scarcity value", func(t *testing.T) {
		page := mustParse(t, `<body>
<span>Only 2 left in stock! Hurry</span>
<span>Only 2 left in stock! Hurry</span>
</body>`, "https://example.com/")
		got := det.Run(page)
		if len(got) != 2 {
			t.Fatalf("got %d detections, want 2: %+v", len(got), got)
		}
		for _, d := range got {
			if d.Evidence["quantity"] != "2" {
				t.Errorf("quantity = %v", d.Evidence["quantity"])
			}
		}
	})

	t.Run("lone scarcity claim passes", func(t *testing.T) {
		page := mustParse(t, `<body><span>Only 3 left</span></body>`, "https://example.com/")
		if got := det.Run(page); len(got) != 0 {
			t.Fatalf("got %d detections, want 0: %+v", len(got), got)
		}
	})
}

func TestConfusingInterface(t *testing.T) {
	lex, weights := defaults()
	det := ConfusingInterface(lex, weights)

	t.Run("ghosted decline next to loud accept", func(t *testing.T) {
		page := mustParse(t, `<body><div>
<button style="font-size: 20px; font-weight: bold; background-color: #1a73e8">Accept all</button>
<button style="color: #dddddd">No thanks</button>
</div></body>`, "https://example.com/")
		got := det.Run(page)
		if len(got) != 1 {
			t.Fatalf("got %d detections, want 1: %+v", len(got), got)
		}
		approx(t, got[0].Confidence, 0.68)
		if got[0].Evidence["low_contrast"] != true {
			t.Errorf("low_contrast = %v", got[0].Evidence["low_contrast"])
		}
	})

	t.Run("inverted color convention", func(t *testing.T) {
		page := mustParse(t, `<body><div>
<button>Accept</button>
<button style="background-color: green">Decline</button>
</div></body>`, "https://example.com/")
		got := det.Run(page)
		if len(got) != 1 {
			t.Fatalf("got %d detections, want 1: %+v", len(got), got)
		}
		approx(t, got[0].Confidence, 0.54)
	})

	t.Run("evenly weighted pair passes", func(t *testing.T) {
		page := mustParse(t, `<body><div>
<button>Accept</button>
<button>Decline</button>
</div></body>`, "https://example.com/")
		if got := det.Run(page); len(got) != 0 {
			t.Fatalf("got %d detections, want 0: %+v", len(got), got)
		}
	})

	t.Run("unrelated controls are not paired", func(t *testing.T) {
		page := mustParse(t, `<body>
<header><div><div><button>Accept cookies</button></div></div></header>
<footer><div><div><button>Close</button></div></div></footer>
</body>`, "https://example.com/")
		if got := det.Run(page); len(got) != 0 {
			t.Fatalf("got %d detections, want 0: %+v", len(got), got)
		}
	})
}
