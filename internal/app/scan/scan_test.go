package scan

import (
	"context"
	"testing"
	"time"

	"github.com/veyra-labs/dpscan/internal/report"
	"github.com/veyra-labs/dpscan/internal/tasks"
)

func TestRunBatchCollectsAllTargets(t *testing.T) {
	targets := []string{"https://a.test/", "https://b.test/", "https://c.test/"}
	taskStore := tasks.NewStore()
	taskIDs := make([]string, len(targets))
	for i, target := range targets {
		taskIDs[i] = taskStore.Add(target)
	}

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	got := runBatch(context.Background(), targets, taskIDs, taskStore, 2,
		func(_ context.Context, target string) ([]report.SiteReport, bool) {
			return []report.SiteReport{report.NewSiteReport(target, "t", ts, nil, nil)}, false
		})

	if len(got) != len(targets) {
		t.Fatalf("got %d report slots, want %d", len(got), len(targets))
	}
	for i, target := range targets {
		if len(got[i]) != 1 || got[i][0].URL != target {
			t.Errorf("slot %d = %+v, want report for %s", i, got[i], target)
		}
	}
	if got := taskStore.Counts()[tasks.StateCompleted]; got != len(targets) {
		t.Errorf("completed tasks = %d, want %d", got, len(targets))
	}
}

func TestRunBatchKeepsFinishedWorkOnCancel(t *testing.T) {
	targets := []string{"https://a.test/", "https://b.test/", "https://c.test/"}
	taskStore := tasks.NewStore()
	taskIDs := make([]string, len(targets))
	for i, target := range targets {
		taskIDs[i] = taskStore.Add(target)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	got := runBatch(ctx, targets, taskIDs, taskStore, 1,
		func(_ context.Context, target string) ([]report.SiteReport, bool) {
			// The first site finishes, then the batch is interrupted.
			cancel()
			return []report.SiteReport{report.NewSiteReport(target, "t", ts, nil, nil)}, false
		})

	if len(got) != len(targets) {
		t.Fatalf("got %d report slots, want %d", len(got), len(targets))
	}
	if len(got[0]) != 1 || got[0][0].URL != targets[0] {
		t.Errorf("first slot = %+v, want its report kept", got[0])
	}
	for i := 1; i < len(got); i++ {
		if len(got[i]) != 0 {
			t.Errorf("slot %d = %+v, want no report after cancel", i, got[i])
		}
	}
}

func TestNormalizeTarget(t *testing.T) {
	// Explicit schemes avoid the reachability probe.
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"https://example.com", "https://example.com", false},
		{" https://example.com/path ", "https://example.com/path", false},
		{"http://example.com:8080", "http://example.com:8080", false},
		{"", "", true},
		{"   ", "", true},
		{"https://", "", true},
	}
	for _, tt := range tests {
		got, err := normalizeTarget(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("normalizeTarget(%q) accepted, got %q", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("normalizeTarget(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("normalizeTarget(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
