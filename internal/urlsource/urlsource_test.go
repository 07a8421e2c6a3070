package urlsource

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValid(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"https://example.com", true},
		{"http://example.com/path?q=1", true},
		{" https://example.com ", true},
		{"ftp://example.com", false},
		{"example.com", false},
		{"https://", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := Valid(tt.in); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFromCSVWithHeader(t *testing.T) {
	src := `url,category,notes
https://a.example.com,shopping,flash sales
https://b.example.com,travel,
not-a-url,junk,skipped
`
	got, err := FromCSV(strings.NewReader(src))
	if err != nil {
		t.Fatalf("FromCSV: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(got), got)
	}
	if got[0].URL != "https://a.example.com" || got[0].Category != "shopping" || got[0].Notes != "flash sales" {
		t.Errorf("record[0] = %+v", got[0])
	}
	if got[1].Category != "travel" {
		t.Errorf("record[1] = %+v", got[1])
	}
}

func TestFromCSVWithoutHeader(t *testing.T) {
	src := "https://a.example.com\nhttps://b.example.com\n"
	got, err := FromCSV(strings.NewReader(src))
	if err != nil {
		t.Fatalf("FromCSV: %v", err)
	}
	if len(got) != 2 || got[0].URL != "https://a.example.com" {
		t.Fatalf("got %+v", got)
	}
	if got[0].Category != "" {
		t.Errorf("headerless csv produced category %q", got[0].Category)
	}
}

func TestFromJSON(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{"string array", `["https://a.example.com", "https://b.example.com"]`, 2},
		{"record array", `[{"url": "https://a.example.com", "category": "news"}]`, 1},
		{"wrapped urls key", `{"urls": ["https://a.example.com"]}`, 1},
		{"invalid entries skipped", `["https://a.example.com", "nope"]`, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromJSON(strings.NewReader(tt.src))
			if err != nil {
				t.Fatalf("FromJSON: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("got %d records, want %d: %+v", len(got), tt.want, got)
			}
		})
	}

	if _, err := FromJSON(strings.NewReader(`{"not": "a batch"}`)); err == nil {
		t.Error("unusable json accepted")
	}
}

func TestFromLines(t *testing.T) {
	src := `
# batch for tonight
https://a.example.com

https://b.example.com
garbage line
`
	got, err := FromLines(strings.NewReader(src))
	if err != nil {
		t.Fatalf("FromLines: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2: %+v", len(got), got)
	}
	if got[0].URL != "https://a.example.com" || got[1].URL != "https://b.example.com" {
		t.Errorf("order not preserved: %+v", got)
	}
}

func TestLoadDispatch(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "batch.csv")
	if err := os.WriteFile(csvPath, []byte("url\nhttps://a.example.com\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(csvPath)
	if err != nil || len(got) != 1 {
		t.Fatalf("csv load = %v, %v", got, err)
	}

	txtPath := filepath.Join(dir, "batch.txt")
	if err := os.WriteFile(txtPath, []byte("https://b.example.com\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err = Load(txtPath)
	if err != nil || len(got) != 1 {
		t.Fatalf("line load = %v, %v", got, err)
	}

	emptyPath := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(emptyPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(emptyPath); err == nil {
		t.Error("empty batch accepted")
	}

	if _, err := Load(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("missing file accepted")
	}
}
