package chapters

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/soundleaf/soundleaf-backend/pkg/db/models"
)

// Repository exposes chapter persistence plus the parent-row helpers every
// chapter mutation needs: the content item lock and the derived aggregate
// refresh, which must run in the same transaction as the mutation itself.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, chapter *models.Chapter) error
	FindByID(ctx context.Context, id int64) (*models.Chapter, error)
	ListByContentItem(ctx context.Context, contentItemID int64) ([]models.Chapter, error)
	CountByContentItem(ctx context.Context, contentItemID int64) (int64, error)
	Delete(ctx context.Context, id int64) error
	ApplyOrdering(ctx context.Context, contentItemID int64, orderedIDs []int64) error
	ListStoragePaths(ctx context.Context, contentItemID int64) ([]string, error)
	DeleteForContentItem(ctx context.Context, tx *gorm.DB, contentItemID int64) error
	FindContentItem(ctx context.Context, id int64) (*models.ContentItem, error)
	LockContentItem(ctx context.Context, id int64) (*models.ContentItem, error)
	RecomputeAggregates(ctx context.Context, contentItemID int64) error
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a chapter repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, chapter *models.Chapter) error {
	return r.db.WithContext(ctx).Create(chapter).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id int64) (*models.Chapter, error) {
	var chapter models.Chapter
	if err := r.db.WithContext(ctx).First(&chapter, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &chapter, nil
}

func (r *repositoryImpl) ListByContentItem(ctx context.Context, contentItemID int64) ([]models.Chapter, error) {
	var chapters []models.Chapter
	err := r.db.WithContext(ctx).
		Where("content_item_id = ?", contentItemID).
		Order("chapter_index ASC").
		Find(&chapters).Error
	if err != nil {
		return nil, err
	}
	return chapters, nil
}

func (r *repositoryImpl) CountByContentItem(ctx context.Context, contentItemID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Chapter{}).
		Where("content_item_id = ?", contentItemID).
		Count(&count).Error
	return count, err
}

func (r *repositoryImpl) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&models.Chapter{}, "id = ?", id).Error
}

// ApplyOrdering rewrites chapter_index so the rows match orderedIDs (1-based).
// The rewrite runs in two phases: every index flips negative first, then each
// row takes its final slot. The (content_item_id, chapter_index) uniqueness
// therefore never collides mid-rewrite, even on backends that check the
// constraint per statement.
func (r *repositoryImpl) ApplyOrdering(ctx context.Context, contentItemID int64, orderedIDs []int64) error {
	if len(orderedIDs) == 0 {
		return nil
	}
	db := r.db.WithContext(ctx)

	err := db.Model(&models.Chapter{}).
		Where("content_item_id = ?", contentItemID).
		UpdateColumn("chapter_index", gorm.Expr("-chapter_index")).Error
	if err != nil {
		return err
	}

	for position, id := range orderedIDs {
		res := db.Model(&models.Chapter{}).
			Where("id = ? AND content_item_id = ?", id, contentItemID).
			UpdateColumn("chapter_index", position+1)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("chapter %d does not belong to content item %d", id, contentItemID)
		}
	}
	return nil
}

func (r *repositoryImpl) ListStoragePaths(ctx context.Context, contentItemID int64) ([]string, error) {
	var paths []string
	err := r.db.WithContext(ctx).
		Model(&models.Chapter{}).
		Where("content_item_id = ?", contentItemID).
		Pluck("storage_path", &paths).Error
	if err != nil {
		return nil, err
	}
	return paths, nil
}

func (r *repositoryImpl) DeleteForContentItem(ctx context.Context, tx *gorm.DB, contentItemID int64) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	return db.WithContext(ctx).Delete(&models.Chapter{}, "content_item_id = ?", contentItemID).Error
}

func (r *repositoryImpl) FindContentItem(ctx context.Context, id int64) (*models.ContentItem, error) {
	var item models.ContentItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// LockContentItem loads the parent under a row lock so concurrent chapter
// mutations serialize per content item. sqlite has no row locks; its
// single-writer lock covers the test path.
func (r *repositoryImpl) LockContentItem(ctx context.Context, id int64) (*models.ContentItem, error) {
	query := r.db.WithContext(ctx)
	if query.Dialector.Name() == "postgres" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var item models.ContentItem
	if err := query.First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// RecomputeAggregates refreshes the parent's derived chapter_count and
// total_duration_seconds from the chapters table.
func (r *repositoryImpl) RecomputeAggregates(ctx context.Context, contentItemID int64) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE content_items
		SET chapter_count = (SELECT COUNT(*) FROM chapters WHERE content_item_id = ?),
			total_duration_seconds = (SELECT COALESCE(SUM(duration_seconds), 0) FROM chapters WHERE content_item_id = ?),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, contentItemID, contentItemID, contentItemID).Error
}
