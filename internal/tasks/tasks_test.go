package tasks

import (
	"errors"
	"sync"
	"testing"
)

func TestLifecycle(t *testing.T) {
	s := NewStore()
	id := s.Add("https://example.com/")

	task, ok := s.get(id)
	if !ok || task.State != StatePending {
		t.Fatalf("after Add: %+v, %v", task, ok)
	}

	s.Start(id)
	task, _ = s.get(id)
	if task.State != StateRunning || task.StartedAt.IsZero() {
		t.Errorf("after Start: %+v", task)
	}

	s.Complete(id)
	task, _ = s.get(id)
	if task.State != StateCompleted || task.EndedAt.IsZero() {
		t.Errorf("after Complete: %+v", task)
	}
}

func TestFailKeepsReason(t *testing.T) {
	s := NewStore()
	id := s.Add("https://example.com/")
	s.Start(id)
	s.Fail(id, errors.New("dns lookup failed"))

	task, _ := s.get(id)
	if task.State != StateFailed || task.Error != "dns lookup failed" {
		t.Errorf("failed task = %+v", task)
	}
	if task.EndedAt.IsZero() {
		t.Error("EndedAt not set on failure")
	}
}

func TestAllKeepsRegistrationOrder(t *testing.T) {
	s := NewStore()
	urls := []string{"https://a.test/", "https://b.test/", "https://c.test/"}
	for _, u := range urls {
		s.Add(u)
	}

	all := s.All()
	if len(all) != len(urls) {
		t.Fatalf("All = %d tasks", len(all))
	}
	for i, task := range all {
		if task.URL != urls[i] {
			t.Errorf("All[%d] = %s, want %s", i, task.URL, urls[i])
		}
	}
	if all[0].ID != "task-0001" {
		t.Errorf("first id = %s", all[0].ID)
	}
}

func TestCountsAndFailed(t *testing.T) {
	s := NewStore()
	a := s.Add("https://a.test/")
	b := s.Add("https://b.test/")
	c := s.Add("https://c.test/")

	s.Start(a)
	s.Complete(a)
	s.Start(b)
	s.Fail(b, errors.New("timeout"))
	_ = c

	counts := s.Counts()
	if counts[StateCompleted] != 1 || counts[StateFailed] != 1 || counts[StatePending] != 1 {
		t.Errorf("counts = %v", counts)
	}

	failed := s.Failed()
	if len(failed) != 1 || failed[0].ID != b {
		t.Errorf("failed = %+v", failed)
	}
}

func TestUnknownIDIsNoop(t *testing.T) {
	s := NewStore()
	s.Start("task-9999")
	s.Complete("task-9999")
	if _, ok := s.get("task-9999"); ok {
		t.Error("unknown id materialized a task")
	}
}

func TestConcurrentUse(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := s.Add("https://example.com/")
			s.Start(id)
			s.Complete(id)
		}()
	}
	wg.Wait()

	if got := s.Counts()[StateCompleted]; got != 50 {
		t.Errorf("completed = %d, want 50", got)
	}
}
