package sweeper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/soundleaf/soundleaf-backend/pkg/logger"
	"github.com/soundleaf/soundleaf-backend/pkg/metrics"
	"github.com/soundleaf/soundleaf-backend/pkg/storage"
)

const (
	defaultGracePeriod = 24 * time.Hour
	defaultBatchSize   = 200
)

type blobStore interface {
	List(ctx context.Context, prefix string) ([]storage.ObjectInfo, error)
	Delete(ctx context.Context, key string) error
}

// OrphanBlobJobParams configure one orphan sweep over a bucket prefix.
type OrphanBlobJobParams struct {
	Logger    *logger.Logger
	Store     blobStore
	Repo      Repository
	Prefix    string
	Grace     time.Duration
	BatchSize int
	Metrics   *metrics.SweeperMetrics
}

// NewOrphanBlobJob builds a job that removes blobs under the prefix no row
// references anymore. The grace window keeps blobs from in-flight uploads
// alive: a blob is stored before its row exists, so young keys are never
// candidates.
func NewOrphanBlobJob(params OrphanBlobJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if params.Repo == nil {
		return nil, fmt.Errorf("sweep repository required")
	}
	if params.Prefix == "" {
		return nil, fmt.Errorf("blob prefix required")
	}
	grace := params.Grace
	if grace <= 0 {
		grace = defaultGracePeriod
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &orphanBlobJob{
		logg:      params.Logger,
		store:     params.Store,
		repo:      params.Repo,
		prefix:    params.Prefix,
		grace:     grace,
		batchSize: batchSize,
		metrics:   params.Metrics,
		now:       time.Now,
	}, nil
}

type orphanBlobJob struct {
	logg      *logger.Logger
	store     blobStore
	repo      Repository
	prefix    string
	grace     time.Duration
	batchSize int
	metrics   *metrics.SweeperMetrics
	now       func() time.Time
}

func (j *orphanBlobJob) Name() string {
	return "orphan-" + strings.TrimSuffix(j.prefix, "/")
}

func (j *orphanBlobJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.grace)

	objects, err := j.store.List(ctx, j.prefix)
	if err != nil {
		return fmt.Errorf("list %s blobs: %w", j.prefix, err)
	}

	var candidates []string
	for _, object := range objects {
		if object.LastModified.Before(cutoff) {
			candidates = append(candidates, object.Key)
		}
	}

	var (
		swept   int
		errored int
		errs    error
	)
	for start := 0; start < len(candidates); start += j.batchSize {
		end := start + j.batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		batch := candidates[start:end]

		referenced, err := j.repo.ReferencedPaths(ctx, j.prefix, batch)
		if err != nil {
			return fmt.Errorf("resolve referenced %s blobs: %w", j.prefix, err)
		}
		for _, key := range batch {
			if _, ok := referenced[key]; ok {
				continue
			}
			if err := j.store.Delete(ctx, key); err != nil {
				errored++
				errs = multierr.Append(errs, fmt.Errorf("delete %s: %w", key, err))
				continue
			}
			swept++
		}
	}

	j.metrics.AddSwept(swept)
	j.metrics.AddErrored(errored)

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"prefix":     j.prefix,
		"scanned":    len(objects),
		"candidates": len(candidates),
		"swept":      swept,
		"errored":    errored,
	})
	j.logg.Info(logCtx, "orphan sweep complete")
	return errs
}
