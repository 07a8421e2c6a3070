package messages

import (
	"strings"
	"testing"

	"github.com/veyra-labs/dpscan/internal/detect"
)

func TestGetPatternCoversAllTypes(t *testing.T) {
	for _, p := range detect.AllPatternTypes {
		d := GetPattern(p)
		if d.Title == "" || d.Description == "" || d.Suggestion == "" {
			t.Errorf("%s: incomplete catalog entry %+v", p, d)
		}
	}
}

func TestGetPatternUnknownType(t *testing.T) {
	d := GetPattern("mystery")
	if d.Title != "mystery" {
		t.Errorf("title = %q", d.Title)
	}
	if !strings.Contains(d.Description, "mystery") {
		t.Errorf("description = %q", d.Description)
	}
}

func TestGetUIMessage(t *testing.T) {
	if got := GetUIMessage("Target", "https://example.com"); got != "Target: https://example.com" {
		t.Errorf("got %q", got)
	}
	if got := GetUIMessage("StatusReady"); got != "Status: Ready" {
		t.Errorf("got %q", got)
	}
	if got := GetUIMessage("NoSuchMessage"); got != "NoSuchMessage" {
		t.Errorf("unknown id = %q", got)
	}
}
