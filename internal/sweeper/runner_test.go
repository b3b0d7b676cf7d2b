package sweeper

import (
	"context"
	"errors"
	"testing"
)

type stubLock struct {
	allow    bool
	acquires int
	releases int
}

func (s *stubLock) Acquire(ctx context.Context) (bool, error) {
	s.acquires++
	return s.allow, nil
}

func (s *stubLock) Release(ctx context.Context) error {
	s.releases++
	return nil
}

type countJob struct {
	name string
	runs int
	err  error
}

func (c *countJob) Name() string { return c.name }

func (c *countJob) Run(ctx context.Context) error {
	c.runs++
	return c.err
}

func newRunner(t *testing.T, lock Lock, jobs ...Job) *Runner {
	t.Helper()
	runner, err := NewRunner(RunnerParams{
		Logger:   testLogger(),
		Registry: NewRegistry(jobs...),
		Lock:     lock,
	})
	if err != nil {
		t.Fatalf("NewRunner failed: %v", err)
	}
	return runner
}

func TestRunnerRunsJobsAndReleasesLock(t *testing.T) {
	lock := &stubLock{allow: true}
	job := &countJob{name: "orphan-chapters"}
	runner := newRunner(t, lock, job)

	if err := runner.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle returned error: %v", err)
	}
	if job.runs != 1 {
		t.Fatalf("expected job run once, got %d", job.runs)
	}
	if lock.releases != 1 {
		t.Fatalf("expected lock released, got %d releases", lock.releases)
	}
}

func TestRunnerSkipsWhenLockHeld(t *testing.T) {
	lock := &stubLock{allow: false}
	job := &countJob{name: "orphan-chapters"}
	runner := newRunner(t, lock, job)

	if err := runner.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle returned error: %v", err)
	}
	if job.runs != 0 {
		t.Fatal("expected no jobs run without the lock")
	}
	if lock.releases != 0 {
		t.Fatal("expected no release of an unheld lock")
	}
}

func TestRunnerJobFailureDoesNotStopCycle(t *testing.T) {
	lock := &stubLock{allow: true}
	failing := &countJob{name: "orphan-chapters", err: errors.New("sweep failed")}
	healthy := &countJob{name: "orphan-covers"}
	runner := newRunner(t, lock, failing, healthy)

	if err := runner.runCycle(context.Background()); err != nil {
		t.Fatalf("runCycle returned error: %v", err)
	}
	if failing.runs != 1 || healthy.runs != 1 {
		t.Fatalf("expected both jobs run, got %d and %d", failing.runs, healthy.runs)
	}
}
