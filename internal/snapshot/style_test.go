package snapshot

import (
	"math"
	"testing"
)

func TestFontSizePx(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"16px", 16},
		{"12pt", 16},
		{"1.5rem", 24},
		{"2em", 32},
		{"75%", 12},
		{"medium", 16},
		{"xx-small", 9},
		{"", 0},
		{"banana", 0},
	}
	for _, tt := range tests {
		if got := FontSizePx(tt.in); math.Abs(got-tt.want) > 0.01 {
			t.Errorf("FontSizePx(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLuminance(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"white", 1.0},
		{"black", 0.0},
		{"#fff", 1.0},
		{"#000000", 0.0},
		{"rgb(255, 255, 255)", 1.0},
		{"transparent", -1},
		{"", -1},
	}
	for _, tt := range tests {
		if got := Luminance(tt.in); math.Abs(got-tt.want) > 0.01 {
			t.Errorf("Luminance(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestStyleParsing(t *testing.T) {
	page, err := ParseString(`<body><a style="Color: #ccc; font-size: 10px;; ">x</a></body>`, "")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	a := page.Find(func(n *Node) bool { return n.Tag == "a" })[0].Node
	style := a.Style()
	if style["color"] != "#ccc" {
		t.Errorf("color = %q", style["color"])
	}
	if style["font-size"] != "10px" {
		t.Errorf("font-size = %q", style["font-size"])
	}
}

func TestVisualWeightOrdering(t *testing.T) {
	src := `<body>
<button style="font-size: 24px; font-weight: bold; background-color: #2a7ae2">Accept</button>
<button style="font-size: 11px; color: #eeeeee">Decline</button>
</body>`
	page, err := ParseString(src, "")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	buttons := page.Find(func(n *Node) bool { return n.Tag == "button" })
	if len(buttons) != 2 {
		t.Fatalf("found %d buttons", len(buttons))
	}
	accept := buttons[0].Node.VisualWeight()
	decline := buttons[1].Node.VisualWeight()
	if accept <= decline {
		t.Errorf("VisualWeight accept=%v decline=%v, want accept > decline", accept, decline)
	}
	if decline >= 1.0 {
		t.Errorf("de-emphasized control weight = %v, want < 1", decline)
	}
}

func TestLowContrast(t *testing.T) {
	tests := []struct {
		style string
		want  bool
	}{
		{"color: #dddddd", true},
		{"color: #000000", false},
		{"color: #888; background-color: #999", true},
		{"color: white; background-color: black", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.style, func(t *testing.T) {
			page, err := ParseString(`<body><span style="`+tt.style+`">x</span></body>`, "")
			if err != nil {
				t.Fatalf("ParseString: %v", err)
			}
			span := page.Find(func(n *Node) bool { return n.Tag == "span" })[0].Node
			if got := span.LowContrast(); got != tt.want {
				t.Errorf("LowContrast(%q) = %v, want %v", tt.style, got, tt.want)
			}
		})
	}
}
