package sweeper

import "testing"

func TestRegistryStoresJobsInOrder(t *testing.T) {
	registry := NewRegistry()
	first := &countJob{name: "orphan-chapters"}
	second := &countJob{name: "orphan-covers"}
	registry.Register(first)
	registry.Register(second)
	registry.Register(nil)

	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0] != Job(first) || jobs[1] != Job(second) {
		t.Fatal("jobs returned out of order")
	}

	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatal("internal slice leaked")
	}
}
