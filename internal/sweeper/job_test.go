package sweeper

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/soundleaf/soundleaf-backend/pkg/logger"
	"github.com/soundleaf/soundleaf-backend/pkg/storage"
)

type stubBlobStore struct {
	objects    []storage.ObjectInfo
	listErr    error
	deleted    []string
	deleteErrs map[string]error
}

func (s *stubBlobStore) List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.objects, nil
}

func (s *stubBlobStore) Delete(ctx context.Context, key string) error {
	if err, ok := s.deleteErrs[key]; ok {
		return err
	}
	s.deleted = append(s.deleted, key)
	return nil
}

type stubSweepRepo struct {
	referenced map[string]struct{}
	err        error
	batches    [][]string
}

func (s *stubSweepRepo) ReferencedPaths(ctx context.Context, prefix string, keys []string) (map[string]struct{}, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.batches = append(s.batches, keys)
	out := map[string]struct{}{}
	for _, key := range keys {
		if _, ok := s.referenced[key]; ok {
			out[key] = struct{}{}
		}
	}
	return out, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func newJob(t *testing.T, store *stubBlobStore, repo *stubSweepRepo, batchSize int) *orphanBlobJob {
	t.Helper()
	job, err := NewOrphanBlobJob(OrphanBlobJobParams{
		Logger:    testLogger(),
		Store:     store,
		Repo:      repo,
		Prefix:    storage.ChapterPrefix,
		Grace:     24 * time.Hour,
		BatchSize: batchSize,
	})
	if err != nil {
		t.Fatalf("NewOrphanBlobJob failed: %v", err)
	}
	return job.(*orphanBlobJob)
}

func TestOrphanJobSweepsUnreferencedOldBlobs(t *testing.T) {
	now := time.Now().UTC()
	store := &stubBlobStore{objects: []storage.ObjectInfo{
		{Key: "chapters/1/kept.mp3", LastModified: now.Add(-48 * time.Hour)},
		{Key: "chapters/1/orphan.mp3", LastModified: now.Add(-48 * time.Hour)},
		{Key: "chapters/1/fresh.mp3", LastModified: now.Add(-time.Hour)},
	}}
	repo := &stubSweepRepo{referenced: map[string]struct{}{"chapters/1/kept.mp3": {}}}
	job := newJob(t, store, repo, 0)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "chapters/1/orphan.mp3" {
		t.Fatalf("expected only the aged orphan removed, got %v", store.deleted)
	}
}

func TestOrphanJobGraceKeepsFreshBlobs(t *testing.T) {
	// A blob lands before its row exists, so anything younger than the grace
	// window must survive even when no row references it yet.
	now := time.Now().UTC()
	store := &stubBlobStore{objects: []storage.ObjectInfo{
		{Key: "chapters/2/inflight.mp3", LastModified: now.Add(-time.Minute)},
	}}
	repo := &stubSweepRepo{}
	job := newJob(t, store, repo, 0)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(store.deleted) != 0 {
		t.Fatalf("expected fresh blob kept, got %v", store.deleted)
	}
	if len(repo.batches) != 0 {
		t.Fatal("expected no reference lookups without candidates")
	}
}

func TestOrphanJobContinuesPastDeleteFailures(t *testing.T) {
	now := time.Now().UTC()
	store := &stubBlobStore{
		objects: []storage.ObjectInfo{
			{Key: "chapters/3/a.mp3", LastModified: now.Add(-48 * time.Hour)},
			{Key: "chapters/3/b.mp3", LastModified: now.Add(-48 * time.Hour)},
		},
		deleteErrs: map[string]error{"chapters/3/a.mp3": errors.New("bucket hiccup")},
	}
	repo := &stubSweepRepo{}
	job := newJob(t, store, repo, 0)

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected aggregated delete error")
	}
	if !strings.Contains(err.Error(), "chapters/3/a.mp3") {
		t.Fatalf("expected failing key named, got %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "chapters/3/b.mp3" {
		t.Fatalf("expected the other orphan still removed, got %v", store.deleted)
	}
}

func TestOrphanJobBatchesLookups(t *testing.T) {
	now := time.Now().UTC()
	var objects []storage.ObjectInfo
	for _, key := range []string{"a", "b", "c", "d", "e"} {
		objects = append(objects, storage.ObjectInfo{
			Key:          "chapters/4/" + key + ".mp3",
			LastModified: now.Add(-48 * time.Hour),
		})
	}
	store := &stubBlobStore{objects: objects}
	repo := &stubSweepRepo{}
	job := newJob(t, store, repo, 2)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(repo.batches) != 3 {
		t.Fatalf("expected 3 lookup batches, got %d", len(repo.batches))
	}
	if len(repo.batches[0]) != 2 || len(repo.batches[2]) != 1 {
		t.Fatalf("unexpected batch sizes %v", repo.batches)
	}
}

func TestOrphanJobListFailure(t *testing.T) {
	store := &stubBlobStore{listErr: errors.New("bucket offline")}
	job := newJob(t, store, &stubSweepRepo{}, 0)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected list failure surfaced")
	}
}

func TestOrphanJobName(t *testing.T) {
	job := newJob(t, &stubBlobStore{}, &stubSweepRepo{}, 0)
	if job.Name() != "orphan-chapters" {
		t.Fatalf("unexpected job name %q", job.Name())
	}
}
