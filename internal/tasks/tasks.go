// Package tasks tracks per-site analysis state for a batch. The store is
// passed explicitly to whatever needs it; there is no ambient global map.
package tasks

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// State is the lifecycle of one analysis task.
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// Task is one unit of work: a single URL moving through the pipeline.
type Task struct {
	ID        string
	URL       string
	State     State
	Error     string
	StartedAt time.Time
	EndedAt   time.Time
}

// Store is a concurrency-safe task-state registry keyed by task id.
type Store struct {
	mu    sync.RWMutex
	tasks map[string]*Task
	order []string
	seq   int
}

// NewStore builds an empty store.
func NewStore() *Store {
	return &Store{tasks: map[string]*Task{}}
}

// Add registers a pending task for the URL and returns its id.
func (s *Store) Add(url string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	id := fmt.Sprintf("task-%04d", s.seq)
	s.tasks[id] = &Task{ID: id, URL: url, State: StatePending}
	s.order = append(s.order, id)
	return id
}

// Start transitions a task to running.
func (s *Store) Start(id string) {
	s.transition(id, StateRunning, "")
}

// Complete transitions a task to completed.
func (s *Store) Complete(id string) {
	s.transition(id, StateCompleted, "")
}

// Fail transitions a task to failed with its reason.
func (s *Store) Fail(id string, err error) {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	s.transition(id, StateFailed, reason)
}

func (s *Store) transition(id string, state State, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return
	}
	t.State = state
	t.Error = reason
	now := time.Now()
	switch state {
	case StateRunning:
		t.StartedAt = now
	case StateCompleted, StateFailed:
		t.EndedAt = now
	}
}

// get returns a copy of the task, if present.
func (s *Store) get(id string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

// All returns copies of every task in registration order.
func (s *Store) All() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.tasks[id])
	}
	return out
}

// Counts tallies tasks per state.
func (s *Store) Counts() map[State]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[State]int{}
	for _, t := range s.tasks {
		out[t.State]++
	}
	return out
}

// Failed returns the failed tasks in registration order.
func (s *Store) Failed() []Task {
	all := s.All()
	var out []Task
	for _, t := range all {
		if t.State == StateFailed {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
