package sweeper

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/soundleaf/soundleaf-backend/pkg/db/models"
	"github.com/soundleaf/soundleaf-backend/pkg/storage"
)

// Repository answers which candidate keys are still referenced by a row.
type Repository interface {
	ReferencedPaths(ctx context.Context, prefix string, keys []string) (map[string]struct{}, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a sweep repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

// ReferencedPaths returns the subset of keys some row still points at. The
// prefix picks the owning table: chapter blobs live on chapters.storage_path,
// covers on content_items.cover_path.
func (r *repositoryImpl) ReferencedPaths(ctx context.Context, prefix string, keys []string) (map[string]struct{}, error) {
	if len(keys) == 0 {
		return map[string]struct{}{}, nil
	}

	query := r.db.WithContext(ctx)
	var referenced []string
	switch prefix {
	case storage.ChapterPrefix:
		err := query.Model(&models.Chapter{}).
			Where("storage_path IN ?", keys).
			Pluck("storage_path", &referenced).Error
		if err != nil {
			return nil, err
		}
	case storage.CoverPrefix:
		err := query.Model(&models.ContentItem{}).
			Where("cover_path IN ?", keys).
			Pluck("cover_path", &referenced).Error
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown blob prefix %q", prefix)
	}

	set := make(map[string]struct{}, len(referenced))
	for _, path := range referenced {
		set[path] = struct{}{}
	}
	return set, nil
}
