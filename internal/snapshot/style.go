package snapshot

import (
	"strconv"
	"strings"
)

// Detectors cannot observe real rendering, so visual-emphasis heuristics are
// approximated from inline style attributes and a handful of CSS shorthands.

const baseFontPx = 16.0

// Style parses the node's inline style attribute into a property map.
// Property names are lowercased; values keep their original case.
func (n *Node) Style() map[string]string {
	raw := n.Attr("style")
	if raw == "" {
		return nil
	}
	out := map[string]string{}
	for _, decl := range strings.Split(raw, ";") {
		kv := strings.SplitN(decl, ":", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])
		if key != "" && val != "" {
			out[key] = val
		}
	}
	return out
}

// FontSizePx converts a CSS font-size value to pixels; 0 when unparseable.
func FontSizePx(value string) float64 {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "":
		return 0
	case "xx-small":
		return 9
	case "x-small":
		return 10
	case "small", "smaller":
		return 13
	case "medium":
		return baseFontPx
	case "large", "larger":
		return 18
	case "x-large":
		return 24
	case "xx-large":
		return 32
	}

	parse := func(suffix string) (float64, bool) {
		if !strings.HasSuffix(v, suffix) {
			return 0, false
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(v, suffix)), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}

	if f, ok := parse("px"); ok {
		return f
	}
	if f, ok := parse("pt"); ok {
		return f * 96.0 / 72.0
	}
	if f, ok := parse("rem"); ok {
		return f * baseFontPx
	}
	if f, ok := parse("em"); ok {
		return f * baseFontPx
	}
	if f, ok := parse("%"); ok {
		return f / 100.0 * baseFontPx
	}
	return 0
}

var namedColors = map[string][3]int{
	"black":  {0, 0, 0},
	"white":  {255, 255, 255},
	"red":    {255, 0, 0},
	"green":  {0, 128, 0},
	"blue":   {0, 0, 255},
	"gray":   {128, 128, 128},
	"grey":   {128, 128, 128},
	"silver": {192, 192, 192},
	"orange": {255, 165, 0},
	"yellow": {255, 255, 0},
}

// Luminance estimates the relative brightness of a CSS color in [0,1].
// Returns -1 when the value cannot be parsed.
func Luminance(value string) float64 {
	r, g, b, ok := parseColor(value)
	if !ok {
		return -1
	}
	// Rec. 601 luma is accurate enough for an emphasis proxy.
	return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 255.0
}

func parseColor(value string) (r, g, b int, ok bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return 0, 0, 0, false
	}

	if rgb, found := namedColors[v]; found {
		return rgb[0], rgb[1], rgb[2], true
	}

	if strings.HasPrefix(v, "#") {
		hex := v[1:]
		switch len(hex) {
		case 3:
			hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
		case 6, 8:
			hex = hex[:6]
		default:
			return 0, 0, 0, false
		}
		n, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return 0, 0, 0, false
		}
		return int(n >> 16 & 0xff), int(n >> 8 & 0xff), int(n & 0xff), true
	}

	if strings.HasPrefix(v, "rgb(") || strings.HasPrefix(v, "rgba(") {
		inner := v[strings.Index(v, "(")+1:]
		inner = strings.TrimSuffix(inner, ")")
		parts := strings.Split(inner, ",")
		if len(parts) < 3 {
			return 0, 0, 0, false
		}
		var ch [3]int
		for i := 0; i < 3; i++ {
			n, err := strconv.Atoi(strings.TrimSpace(parts[i]))
			if err != nil || n < 0 || n > 255 {
				return 0, 0, 0, false
			}
			ch[i] = n
		}
		return ch[0], ch[1], ch[2], true
	}

	return 0, 0, 0, false
}

// VisualWeight scores how much an element visually shouts, from its inline
// style only: font size, weight, and background saturation all add up.
// The scale is relative; only differences between paired elements matter.
func (n *Node) VisualWeight() float64 {
	style := n.Style()
	weight := 1.0

	if size := FontSizePx(style["font-size"]); size > 0 {
		weight *= size / baseFontPx
	}

	switch strings.ToLower(style["font-weight"]) {
	case "bold", "bolder", "600", "700", "800", "900":
		weight *= 1.3
	case "lighter", "100", "200", "300":
		weight *= 0.8
	}

	if bg := style["background-color"]; bg != "" {
		if lum := Luminance(bg); lum >= 0 && lum < 0.9 {
			// A colored background makes a control read as primary.
			weight *= 1.4
		}
	}

	if fg := style["color"]; fg != "" {
		if lum := Luminance(fg); lum >= 0 {
			if lum > 0.75 {
				// Near-white text on default background is de-emphasis.
				bg := style["background-color"]
				if bg == "" {
					weight *= 0.6
				}
			}
		}
	}

	switch strings.ToLower(style["text-decoration"]) {
	case "none":
		if n.Tag == "a" {
			weight *= 0.85
		}
	}

	if strings.Contains(strings.ToLower(style["opacity"]), "0.") {
		if op, err := strconv.ParseFloat(style["opacity"], 64); err == nil && op < 0.8 {
			weight *= op
		}
	}

	return weight
}

// LowContrast reports whether the node's inline colors make its text hard to
// read against its own background.
func (n *Node) LowContrast() bool {
	style := n.Style()
	fg := Luminance(style["color"])
	bg := Luminance(style["background-color"])
	if fg < 0 {
		return false
	}
	if bg < 0 {
		// No declared background: assume white.
		bg = 1.0
	}
	diff := fg - bg
	if diff < 0 {
		diff = -diff
	}
	return diff < 0.25
}
