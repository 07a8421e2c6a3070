// Package registry owns the active detector set and runs it against page
// snapshots. Detectors execute concurrently but their results always come
// back in registration order, so two runs over the same snapshot are
// byte-for-byte identical.
package registry

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/veyra-labs/dpscan/internal/detect"
	"github.com/veyra-labs/dpscan/internal/detect/lexicon"
	"github.com/veyra-labs/dpscan/internal/detect/patterns"
	"github.com/veyra-labs/dpscan/internal/snapshot"
)

// Registry is an ordered collection of detectors. Add more by appending;
// nothing here knows the concrete pattern set.
type Registry struct {
	detectors []detect.Detector
}

// New builds an empty registry.
func New() *Registry {
	return &Registry{}
}

// Default returns a registry holding the built-in detectors with the given
// lexicon and weights.
func Default(lex *lexicon.Set, weights lexicon.Weights) *Registry {
	r := New()
	r.Register(patterns.All(lex, weights)...)
	return r
}

// Register appends detectors; registration order is output order.
func (r *Registry) Register(ds ...detect.Detector) {
	r.detectors = append(r.detectors, ds...)
}

// Detectors returns the registered set in order.
func (r *Registry) Detectors() []detect.Detector {
	return r.detectors
}

func workerCount(total int) int {
	if total <= 1 {
		return 1
	}
	limit := runtime.GOMAXPROCS(0)
	if limit < 2 {
		limit = 2
	}
	if total < limit {
		return total
	}
	return limit
}

// RunAll executes every registered detector against the snapshot. A detector
// that panics is recorded in the returned error map and never blocks the
// rest. The global floor drops detections below minConfidence on top of each
// detector's own threshold.
func (r *Registry) RunAll(page *snapshot.Page, minConfidence float64) ([]detect.Detection, map[detect.PatternType]error) {
	results := make([][]detect.Detection, len(r.detectors))
	errs := make(map[detect.PatternType]error)

	var wg sync.WaitGroup
	var mu sync.Mutex
	sem := make(chan struct{}, workerCount(len(r.detectors)))

	for i, d := range r.detectors {
		wg.Add(1)
		go func(idx int, det detect.Detector) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			defer func() {
				if rec := recover(); rec != nil {
					mu.Lock()
					errs[det.Type] = fmt.Errorf("detector %s panicked: %v", det.Type, rec)
					mu.Unlock()
				}
			}()

			if det.Run == nil {
				return
			}
			results[idx] = filter(det, det.Run(page), minConfidence)
		}(i, d)
	}
	wg.Wait()

	// Ordered merge: concatenation in registration order keeps the output
	// deterministic regardless of which goroutine finished first.
	var out []detect.Detection
	for _, batch := range results {
		out = append(out, batch...)
	}
	return out, errs
}

// filter enforces the detection invariants at the source: valid pattern type,
// clamped confidence, per-detector threshold, then the global floor.
func filter(det detect.Detector, found []detect.Detection, minConfidence float64) []detect.Detection {
	var kept []detect.Detection
	for _, d := range found {
		if !d.Type.Valid() {
			d.Type = det.Type
		}
		d.Confidence = detect.Clamp(d.Confidence)
		if d.Confidence < det.MinConfidence {
			continue
		}
		if d.Confidence < minConfidence {
			continue
		}
		kept = append(kept, d)
	}
	return kept
}
